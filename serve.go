package staticpress

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// rebuildDebounce coalesces bursts of filesystem events (editors often fire
// several per save) into a single rebuild.
const rebuildDebounce = 500 * time.Millisecond

// Serve builds the site and serves the output directory over HTTP for local
// preview. With watch enabled, changes under the source directory trigger
// debounced rebuilds; a failing rebuild is logged and the previous output
// keeps being served.
func (e *Engine) Serve(ctx context.Context, addr string, watch bool) error {
	if _, err := e.Build(ctx); err != nil {
		return err
	}

	srv := echo.New()
	srv.HideBanner = true
	srv.HidePort = true
	e.setupMiddleware(srv)
	srv.Static("/", e.OutputDir)

	if watch {
		go e.watchAndRebuild(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()
	e.Log.Info("preview server listening", "addr", addr, "dir", e.OutputDir)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func (e *Engine) setupMiddleware(srv *echo.Echo) {
	srv.Use(middleware.Recover())

	srv.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			e.Log.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	srv.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: 5}))

	// The preview must always reflect the latest rebuild, so everything is
	// uncacheable — unlike production serving of the same output tree.
	srv.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Cache-Control", "no-store")
			return next(c)
		}
	})
}

// watchAndRebuild watches the source tree and rebuilds after a quiet period.
// Newly created directories are added to the watch set as they appear.
func (e *Engine) watchAndRebuild(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		e.Log.Error("watcher unavailable, live rebuild disabled", "error", err)
		return
	}
	defer watcher.Close()

	if err := e.addWatchDirs(watcher, e.SourceDir); err != nil {
		e.Log.Error("watch setup failed", "error", err)
		return
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if e.ignoreEvent(event.Name) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				// Best effort: a failed add just means edits in the new
				// directory go unnoticed until the next restart.
				_ = e.addWatchDirs(watcher, event.Name)
			}
			if timer == nil {
				timer = time.AfterFunc(rebuildDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(rebuildDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			e.Log.Warn("watch error", "error", err)
		case <-fire:
			timer = nil
			e.Log.Info("source changed, rebuilding")
			if _, err := e.Build(ctx); err != nil {
				e.Log.Error("rebuild failed", "error", err)
			}
		}
	}
}

// addWatchDirs walks root and registers every directory except the output
// tree and VCS metadata. Underscore directories are watched deliberately:
// layout and post edits must trigger rebuilds even though the scanner skips
// most of them as content.
func (e *Engine) addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return err
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if e.ignoreEvent(path) || d.Name() == ".git" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// ignoreEvent filters paths inside the output directory and cache files so
// a build never retriggers itself.
func (e *Engine) ignoreEvent(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	out, err := filepath.Abs(e.OutputDir)
	if err != nil {
		return false
	}
	if abs == out || strings.HasPrefix(abs, out+string(filepath.Separator)) {
		return true
	}
	if e.cachePath != "" {
		cache, err := filepath.Abs(e.cachePath)
		if err == nil && strings.HasPrefix(abs, strings.TrimSuffix(cache, filepath.Ext(cache))) {
			return true
		}
	}
	return false
}
