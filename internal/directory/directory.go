package directory

import (
	"context"
	"log/slog"
	"sync/atomic"
)

type state struct {
	index *Index
	err   error
}

// Directory publishes the index once the asynchronous load finishes.
// Readers never block; until then, and after a failed load, Index reports
// ErrUnavailable.
type Directory struct {
	state  atomic.Pointer[state]
	logger *slog.Logger
}

func New(logger *slog.Logger) *Directory {
	return &Directory{logger: logger}
}

// Load runs the loader once and publishes the result. A failure leaves the
// directory unavailable; it is not fatal to the caller.
func (d *Directory) Load(ctx context.Context, l *Loader, source string) (*Result, error) {
	res, err := l.Load(ctx, source)
	if err != nil {
		d.state.Store(&state{err: err})
		d.logger.Error("directory: load failed", "source", source, "err", err)
		return nil, err
	}

	idx := NewIndex(res.Records)
	d.Publish(idx)
	d.logger.Info("directory: loaded",
		"source", source,
		"records", len(res.Records),
		"eligible", idx.Len(),
		"skipped", res.Skipped,
	)
	return res, nil
}

// Publish makes idx the current index.
func (d *Directory) Publish(idx *Index) {
	d.state.Store(&state{index: idx})
}

// Index returns the loaded index or ErrUnavailable.
func (d *Directory) Index() (*Index, error) {
	s := d.state.Load()
	if s == nil || s.index == nil {
		return nil, ErrUnavailable
	}
	return s.index, nil
}

// Err returns the error of a failed load, if any.
func (d *Directory) Err() error {
	if s := d.state.Load(); s != nil {
		return s.err
	}
	return nil
}

// Ping reports whether the directory is available.
func (d *Directory) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.Index()
	return err
}
