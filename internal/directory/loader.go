package directory

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// Result is a parsed directory resource.
type Result struct {
	Headers []string
	Records []Record
	Skipped int
}

// Loader reads a directory resource from the filesystem or over HTTP.
type Loader struct {
	fs     afero.Fs
	client *http.Client
	logger *slog.Logger
}

func NewLoader(fs afero.Fs, client *http.Client, logger *slog.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{fs: fs, client: client, logger: logger}
}

// Load fetches source, a file path or an http(s) URL, and parses it. Any
// failure is returned as a *ResourceLoadError. There is no retry.
func (l *Loader) Load(ctx context.Context, source string) (*Result, error) {
	raw, err := l.fetch(ctx, source)
	if err != nil {
		return nil, &ResourceLoadError{Source: source, Err: err}
	}
	l.logger.Debug("directory: fetched resource", "source", source, "size", humanize.Bytes(uint64(len(raw))))

	res, err := Parse(bytes.NewReader(raw), l.logger)
	if err != nil {
		return nil, &ResourceLoadError{Source: source, Err: err}
	}
	return res, nil
}

func (l *Loader) fetch(ctx context.Context, source string) ([]byte, error) {
	if isURL(source) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return afero.ReadFile(l.fs, source)
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Parse reads a CSV document with a header row. Rows whose field count
// disagrees with the header are logged and skipped; an empty document or one
// missing a required column is an error.
func Parse(r io.Reader, logger *slog.Logger) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty resource")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}
	headers[0] = strings.TrimPrefix(headers[0], "\ufeff")

	for _, col := range RequiredColumns {
		if !slices.Contains(headers, col) {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	res := &Result{Headers: headers}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("read row: %w", err)
			}
			logger.Warn("directory: skipping unparsable row", "line", perr.Line, "err", err)
			res.Skipped++
			continue
		}

		if len(row) != len(headers) {
			line, _ := cr.FieldPos(0)
			logger.Warn("directory: skipping malformed row",
				"err", &MalformedRowError{Line: line, Got: len(row), Want: len(headers)})
			res.Skipped++
			continue
		}

		rec := make(Record, len(headers))
		for i, h := range headers {
			rec[h] = strings.TrimSpace(row[i])
		}
		res.Records = append(res.Records, rec)
	}

	return res, nil
}
