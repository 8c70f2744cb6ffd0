// Package main imports scraper exports into an archive without the HTTP server.
//
// The category of each file is guessed from its name (history, likes,
// watch-later) unless --content-type is given. Imports made with --no-index
// leave the search index behind the store; --reindex rebuilds it.
//
// Usage:
//
//	DATA_PATH=~/TubeArchive/data go run ./cmd/import --user <user-id> history.json likes.json
//	go run ./cmd/import --data ./data --backend badger --user <user-id> --content-type Likes export.json
//	go run ./cmd/import --reindex
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/logger"
	"github.com/tubearchive/tubearchive-server/internal/search"
	"github.com/tubearchive/tubearchive-server/internal/service"
	"github.com/tubearchive/tubearchive-server/internal/store/backend"
)

// options are read from flags, then the environment.
type options struct {
	DataPath    string `long:"data" env:"DATA_PATH" description:"Data directory (default: $HOME/TubeArchive/data)"`
	Backend     string `long:"backend" env:"STORE_BACKEND" default:"sqlite" choice:"sqlite" choice:"badger" description:"Store backend"`
	UserID      string `long:"user" env:"INBOX_USER_ID" description:"User ID that owns the imported records"`
	ContentType string `long:"content-type" description:"Category for every file: History, Likes or Watch Later"`
	NoIndex     bool   `long:"no-index" description:"Do not update the search index"`
	Reindex     bool   `long:"reindex" description:"Drop the search index and rebuild it from the store after importing"`

	Args struct {
		Files []string `positional-arg-name:"file"`
	} `positional-args:"yes"`
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	switch {
	case opts.NoIndex && opts.Reindex:
		log.Fatal("--no-index and --reindex cannot be combined")
	case len(opts.Args.Files) == 0 && !opts.Reindex:
		log.Fatal("No export files given")
	case len(opts.Args.Files) > 0 && opts.UserID == "":
		log.Fatal("--user is required when importing files")
	}
	if opts.ContentType != "" {
		if _, ok := domain.ParseContentType(opts.ContentType); !ok {
			log.Fatalf("Unknown content type %q", opts.ContentType)
		}
	}
	if opts.DataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		opts.DataPath = filepath.Join(home, "TubeArchive", "data")
	}

	// run owns every open resource, so its deferred closes finish before exit.
	os.Exit(run(opts))
}

func run(opts options) int {
	logs := logger.New(logger.Config{Level: logger.ParseLevel("info"), Environment: "development"})

	st, err := backend.Open(opts.Backend, opts.DataPath, logs.Logger)
	if err != nil {
		logs.Error("Failed to open store", "error", err)
		return 1
	}
	defer st.Close()

	var (
		idx   *search.SearchIndex
		index service.TitleIndex
	)
	if !opts.NoIndex {
		idx, err = search.NewSearchIndex(search.Options{DataPath: opts.DataPath, Logger: logs.Logger})
		if err != nil {
			logs.Error("Failed to open search index", "error", err)
			return 1
		}
		defer idx.Close()
		if !opts.Reindex {
			index = idx
		}
	}

	svc := service.NewImportService(st, index, nil, service.ImportOptions{}, logs.Logger)

	ctx := context.Background()
	failed := 0
	for _, file := range opts.Args.Files {
		result, err := importOne(ctx, svc, opts, file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
			failed++
			continue
		}
		fmt.Printf("%s: %s, %d records (added %d, updated %d, removed %d)\n",
			filepath.Base(file), result.ContentType, result.Imported,
			result.Added, result.Updated, result.Removed)
	}

	if opts.Reindex {
		if err := idx.Rebuild(); err != nil {
			logs.Error("Failed to drop search index", "error", err)
			return 1
		}
		n, err := idx.Reindex(ctx, st)
		if err != nil {
			logs.Error("Failed to rebuild search index", "error", err)
			return 1
		}
		fmt.Printf("search index: %d records\n", n)
	}

	if failed > 0 {
		return 1
	}
	return 0
}

func importOne(ctx context.Context, svc *service.ImportService, opts options, file string) (*domain.ImportResult, error) {
	raw, err := os.ReadFile(file) //#nosec G304 -- files are named by the operator
	if err != nil {
		return nil, err
	}
	if opts.ContentType != "" {
		return svc.ImportJSON(ctx, opts.UserID, raw, opts.ContentType)
	}
	return svc.ImportFile(ctx, opts.UserID, filepath.Base(file), raw)
}
