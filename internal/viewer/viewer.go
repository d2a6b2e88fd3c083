// Package viewer serves the static UI bundle and the derived artifact for
// a single capture log, re-cooking automatically whenever the log changes
// on disk.
package viewer

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/tjfontaine/llmtrace/internal/cook"
	"github.com/tjfontaine/llmtrace/internal/httpserver"
	"github.com/tjfontaine/llmtrace/internal/trace"
	"github.com/tjfontaine/llmtrace/internal/viewer/recent"
)

//go:embed assets
var assetsFS embed.FS

// Viewer owns one capture log and the derived artifact cooked from it.
type Viewer struct {
	inputPath    string
	artifactPath string
	logger       *slog.Logger
	recent       *recent.Store

	mu     sync.RWMutex
	latest []byte
}

// New builds a Viewer for inputPath, cooking immediately if the cached
// derived artifact is missing or older than the capture log.
func New(inputPath string, recentStore *recent.Store, logger *slog.Logger) (*Viewer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Viewer{
		inputPath:    inputPath,
		artifactPath: inputPath + ".artifact.json",
		logger:       logger,
		recent:       recentStore,
	}
	if err := v.recookIfStale(context.Background()); err != nil {
		return nil, err
	}
	if recentStore != nil {
		if err := recentStore.Touch(inputPath); err != nil {
			logger.Warn("recent store touch failed", slog.String("error", err.Error()))
		}
	}
	return v, nil
}

func (v *Viewer) recookIfStale(ctx context.Context) error {
	inputInfo, err := os.Stat(v.inputPath)
	if err != nil {
		return fmt.Errorf("stat capture log: %w", err)
	}
	if artifactInfo, err := os.Stat(v.artifactPath); err == nil && !artifactInfo.ModTime().Before(inputInfo.ModTime()) {
		if data, err := os.ReadFile(v.artifactPath); err == nil {
			v.setLatest(data)
			return nil
		}
	}
	return v.recook(ctx)
}

func (v *Viewer) recook(ctx context.Context) error {
	records, err := trace.ReadRecords(v.inputPath, v.logger)
	if err != nil {
		return fmt.Errorf("read capture log: %w", err)
	}
	doc, err := cook.Cook(ctx, records, cook.FormatAuto, v.logger)
	if err != nil {
		return fmt.Errorf("cook: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	tmp := v.artifactPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, v.artifactPath); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}

	v.setLatest(data)
	return nil
}

func (v *Viewer) setLatest(data []byte) {
	v.mu.Lock()
	v.latest = data
	v.mu.Unlock()
}

// Latest returns the most recently cooked artifact as raw JSON bytes.
func (v *Viewer) Latest() []byte {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.latest
}

// Watch re-cooks whenever the capture log changes on disk, until ctx is
// cancelled. Re-cook errors are logged and otherwise ignored: the viewer
// keeps serving the last good artifact rather than going dark.
func (v *Viewer) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(v.inputPath)); err != nil {
		return fmt.Errorf("watch capture log directory: %w", err)
	}

	target := filepath.Clean(v.inputPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := v.recook(ctx); err != nil {
				v.logger.Error("re-cook on change failed", slog.String("error", err.Error()))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			v.logger.Error("file watcher error", slog.String("error", err.Error()))
		}
	}
}

// Mount registers the viewer's HTTP surface on srv's router.
func (v *Viewer) Mount(srv *httpserver.Server) {
	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		v.logger.Error("mount embedded assets failed", slog.String("error", err.Error()))
		assets = assetsFS
	}
	fileServer := http.FileServer(http.FS(assets))

	srv.Router.Handle("/", fileServer)
	srv.Router.Handle("/*", fileServer)
	srv.Router.Get("/data.json", v.handleData)
	srv.Router.Get("/_local", v.handleLocal)
	srv.Router.Get("/_recent", v.handleRecent)
}

func (v *Viewer) handleData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(v.Latest())
}

// handleLocal is a dev convenience: cook an arbitrary local capture log on
// demand without restarting the viewer against it.
func (v *Viewer) handleLocal(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "missing path parameter", http.StatusBadRequest)
		return
	}
	records, err := trace.ReadRecords(path, v.logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := cook.Cook(r.Context(), records, cook.FormatAuto, v.logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if v.recent != nil {
		if err := v.recent.Touch(path); err != nil {
			v.logger.Warn("recent store touch failed", slog.String("error", err.Error()))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

func (v *Viewer) handleRecent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if v.recent == nil {
		w.Write([]byte("[]"))
		return
	}
	entries, err := v.recent.List(20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(entries)
}
