package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/mpmail/internal/compose"
	"github.com/mpmail/internal/config"
	"github.com/mpmail/internal/directory"
	"github.com/mpmail/internal/placeholder"
	"github.com/mpmail/internal/web"
)

type App struct {
	config          *config.Config
	logger          *slog.Logger
	directory       *directory.Directory
	loader          *directory.Loader
	service         *compose.Service
	defaultTemplate string
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return NewWithConfig(cfg, afero.NewOsFs(), os.Stdout)
}

// NewWithConfig builds the application from an explicit config, filesystem
// and log destination.
func NewWithConfig(cfg *config.Config, fs afero.Fs, logOut io.Writer) (*App, error) {
	logger := newLogger(cfg, logOut)

	tmpl := web.DefaultMessage()
	if cfg.TemplatePath != "" {
		raw, err := afero.ReadFile(fs, cfg.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("read template: %w", err)
		}
		tmpl = string(raw)
	}

	dir := directory.New(logger)
	client := &http.Client{Timeout: cfg.DirectoryTimeout}

	return &App{
		config:          cfg,
		logger:          logger,
		directory:       dir,
		loader:          directory.NewLoader(fs, client, logger),
		service:         compose.NewService(dir, cfg.MailSubject),
		defaultTemplate: tmpl,
	}, nil
}

func (app *App) Start(ctx context.Context) error {
	// Create an errgroup derived from the parent context
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", app.config.Port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	// The page is served while the directory loads; until then the
	// selection list shows as unavailable.
	g.Go(func() error {
		app.loadDirectory(gctx)
		return nil
	})

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	app.logger.Info("stopped server")
	return nil
}

// loadDirectory fetches the directory once. Failure is logged and leaves the
// selection list unavailable.
func (app *App) loadDirectory(ctx context.Context) {
	res, err := app.directory.Load(ctx, app.loader, app.config.DirectorySource)
	if err != nil {
		return
	}
	for _, name := range placeholder.Attributes(app.defaultTemplate) {
		if !slices.Contains(res.Headers, name) {
			app.logger.Warn("default template references a column the directory lacks", "column", name)
		}
	}
}

func newLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo

	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(tint.NewHandler(out, &tint.Options{
		Level: logLevel,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if _, ok := attr.Value.Any().(error); attr.Key == "err" || ok {
				return tint.Attr(9, attr)
			}
			return attr
		},
		TimeFormat: time.RFC3339,
		NoColor:    !logColors(out),
	}))

	slog.SetDefault(logger)
	return logger
}

func logColors(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}
