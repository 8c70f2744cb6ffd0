package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tubearchive/tubearchive-server/internal/domain"
)

// ImportedSuffix is appended to inbox files once they have been imported.
const ImportedSuffix = ".imported"

// Importer reconciles one exported file for a user.
type Importer interface {
	ImportFile(ctx context.Context, userID, filename string, raw []byte) (*domain.ImportResult, error)
}

// InboxOptions configures a drop-folder importer.
type InboxOptions struct {
	Dir      string
	UserID   string
	Debounce time.Duration
}

// Inbox imports JSON exports dropped into a directory for one user.
// Each settled *.json file is imported and then renamed with ImportedSuffix.
// A file that fails to import is left in place and retried when it changes.
type Inbox struct {
	dir      string
	userID   string
	importer Importer
	watcher  *Watcher
	logger   *slog.Logger
}

// NewInbox creates a drop-folder importer. The directory is created if missing.
func NewInbox(opts InboxOptions, importer Importer, logger *slog.Logger) (*Inbox, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Dir == "" || opts.UserID == "" {
		return nil, errors.New("inbox requires a directory and a user ID")
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox directory: %w", err)
	}

	w, err := New(logger, Options{SettleDelay: opts.Debounce})
	if err != nil {
		return nil, err
	}

	return &Inbox{
		dir:      filepath.Clean(opts.Dir),
		userID:   opts.UserID,
		importer: importer,
		watcher:  w,
		logger:   logger.With("component", "inbox"),
	}, nil
}

// Run imports files already waiting in the inbox, then imports new ones as
// they settle. It blocks until ctx is cancelled or Close is called.
func (in *Inbox) Run(ctx context.Context) error {
	if err := in.watcher.Watch(in.dir); err != nil {
		return err
	}

	go in.watcher.Start(ctx) //nolint:errcheck // Start only returns nil

	in.logger.Info("Watching inbox", "path", in.dir, "user_id", in.userID)
	in.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-in.watcher.Events():
			if !ok {
				return nil
			}
			if event.Type == EventRemoved || !isExport(event.Path) {
				continue
			}
			in.importLogged(ctx, event.Path)
		case err, ok := <-in.watcher.Errors():
			if !ok {
				return nil
			}
			in.logger.Warn("Inbox watcher error", "error", err)
		}
	}
}

// Close stops watching the inbox.
func (in *Inbox) Close() error {
	return in.watcher.Stop()
}

// scan imports exports that arrived while the server was down.
func (in *Inbox) scan(ctx context.Context) {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		in.logger.Warn("Failed to scan inbox", "path", in.dir, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !isExport(entry.Name()) {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		in.importLogged(ctx, filepath.Join(in.dir, entry.Name()))
	}
}

func (in *Inbox) importLogged(ctx context.Context, path string) {
	result, err := in.ImportPath(ctx, path)
	if err != nil {
		in.logger.Error("Inbox import failed", "path", path, "error", err)
		return
	}
	if result == nil {
		return
	}

	in.logger.Info("Inbox file imported",
		"path", path,
		"import_id", result.ImportID,
		"content_type", result.ContentType,
		"added", result.Added,
		"updated", result.Updated,
		"removed", result.Removed,
	)
}

// ImportPath imports one export file and marks it as imported. A file that
// has already been moved away returns a nil result and no error.
func (in *Inbox) ImportPath(ctx context.Context, path string) (*domain.ImportResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	result, err := in.importer.ImportFile(ctx, in.userID, filepath.Base(path), raw)
	if err != nil {
		return nil, err
	}

	if err := os.Rename(path, path+ImportedSuffix); err != nil {
		return result, fmt.Errorf("mark %s imported: %w", filepath.Base(path), err)
	}
	return result, nil
}

// isExport reports whether name looks like a scraper export.
func isExport(name string) bool {
	base := filepath.Base(name)
	return strings.EqualFold(filepath.Ext(base), ".json") && !strings.HasPrefix(base, ".")
}
