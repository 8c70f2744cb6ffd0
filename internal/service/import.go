package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	domainerrors "github.com/tubearchive/tubearchive-server/internal/errors"
	"github.com/tubearchive/tubearchive-server/internal/id"
	"github.com/tubearchive/tubearchive-server/internal/ingest"
	"github.com/tubearchive/tubearchive-server/internal/logger"
	"github.com/tubearchive/tubearchive-server/internal/normalize"
	"github.com/tubearchive/tubearchive-server/internal/search"
	"github.com/tubearchive/tubearchive-server/internal/store"
	"github.com/tubearchive/tubearchive-server/internal/util"
)

// TitleIndex is the full-text index the services keep in sync with the store.
type TitleIndex interface {
	IndexVideos(videos []*domain.Video) error
	SearchTitles(ctx context.Context, q search.TitleQuery) (*search.TitleResult, error)
}

// ImportOptions configures reconciliation.
type ImportOptions struct {
	// DefaultContentType applies when a request leaves the category empty.
	DefaultContentType domain.ContentType
	// MaxBatch rejects larger batches. Zero disables the check.
	MaxBatch int
}

// ImportRequest is one batch of observations for a single category.
type ImportRequest struct {
	Videos      []domain.Observation
	ContentType string
}

// ImportService reconciles exported lists against a user's stored records.
type ImportService struct {
	store   store.Store
	index   TitleIndex
	decoder *ingest.Decoder
	opts    ImportOptions
	locks   *util.KeyedMutex
	logger  *slog.Logger
	now     func() time.Time
}

// NewImportService creates an import service. index may be nil.
func NewImportService(
	store store.Store,
	index TitleIndex,
	decoder *ingest.Decoder,
	opts ImportOptions,
	logger *slog.Logger,
) *ImportService {
	if opts.DefaultContentType == "" {
		opts.DefaultContentType = domain.ContentTypeHistory
	}
	if decoder == nil {
		decoder = ingest.NewDecoder(nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ImportService{
		store:   store,
		index:   index,
		decoder: decoder,
		opts:    opts,
		locks:   util.NewKeyedMutex(),
		logger:  logger,
		now:     time.Now,
	}
}

// Reconcile merges a batch into the user's records for one category.
//
// Records of the category whose URL is missing from the batch are marked
// removed. Records whose URL is present are overwritten and revived. New URLs
// are inserted. Other categories are never touched. The whole batch and its
// receipt are applied atomically; imports of the same user are serialized.
func (s *ImportService) Reconcile(ctx context.Context, userID string, req ImportRequest) (*domain.ImportResult, error) {
	if userID == "" {
		return nil, domainerrors.Unauthenticated("must be logged in to import")
	}

	ct, defaulted, err := s.resolveContentType(req.ContentType)
	if err != nil {
		return nil, err
	}
	if s.opts.MaxBatch > 0 && len(req.Videos) > s.opts.MaxBatch {
		return nil, domainerrors.Validationf("import exceeds the limit of %d records", s.opts.MaxBatch)
	}

	importID, err := id.NewImportID()
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	result := &domain.ImportResult{
		ImportID:             importID,
		Imported:             len(req.Videos),
		ContentType:          ct,
		ContentTypeDefaulted: defaulted,
	}
	var touched []*domain.Video
	var crossListed int

	err = s.store.RunImport(ctx, userID, ct, func(tx store.ImportTx) error {
		now := s.now().UTC()

		existing, err := tx.CategoryVideos(ctx)
		if err != nil {
			return fmt.Errorf("load %s records: %w", ct, err)
		}

		// Later duplicates win, matching insertion order.
		lookup := make(map[string]*domain.Video, len(existing))
		for _, v := range existing {
			lookup[v.URL] = v
		}

		incoming := make(map[string]struct{}, len(req.Videos))
		for i := range req.Videos {
			incoming[req.Videos[i].URL] = struct{}{}
		}

		for _, v := range existing {
			if v.IsRemoved {
				continue
			}
			if _, ok := incoming[v.URL]; ok {
				continue
			}
			v.MarkRemoved(now)
			if err := tx.UpdateVideo(ctx, v); err != nil {
				return fmt.Errorf("mark removed %s: %w", v.ID, err)
			}
			touched = append(touched, v)
			result.Removed++
		}

		for _, obs := range req.Videos {
			parsedDate := normalize.GroupingDate(now, obs.ScrapedAt, obs.ViewDate)

			if v, ok := lookup[obs.URL]; ok {
				v.ApplyObservation(obs, parsedDate, importID, ct, now)
				if err := tx.UpdateVideo(ctx, v); err != nil {
					return fmt.Errorf("update %s: %w", v.ID, err)
				}
				touched = append(touched, v)
				result.Updated++
				continue
			}

			other, err := tx.URLInOtherCategory(ctx, obs.URL)
			if err != nil {
				return fmt.Errorf("check other categories: %w", err)
			}
			if other {
				crossListed++
			}

			videoID, err := id.Generate("vid")
			if err != nil {
				return err
			}
			v := domain.NewVideo(videoID, userID, obs, parsedDate, importID, ct, now)
			if err := tx.InsertVideo(ctx, v); err != nil {
				return fmt.Errorf("insert video: %w", err)
			}
			lookup[obs.URL] = v
			touched = append(touched, v)
			result.Added++
		}

		receiptID, err := id.Generate("imp")
		if err != nil {
			return err
		}
		return tx.InsertReceipt(ctx, &domain.ImportReceipt{
			ID:          receiptID,
			UserID:      userID,
			ImportID:    importID,
			ImportedAt:  now,
			VideoCount:  len(req.Videos),
			ContentType: ct,
		})
	})
	if err != nil {
		return nil, err
	}

	s.syncIndex(ctx, touched)

	logger.FromContext(ctx, s.logger).Info("Import reconciled",
		"user_id", userID,
		"content_type", ct,
		"imported", result.Imported,
		"added", result.Added,
		"updated", result.Updated,
		"removed", result.Removed,
		"cross_listed", crossListed,
		"import_id", importID,
	)

	return result, nil
}

// ImportFile decodes a raw export and reconciles it. The category is taken
// from the filename when it carries a hint and defaults otherwise.
func (s *ImportService) ImportFile(ctx context.Context, userID, filename string, raw []byte) (*domain.ImportResult, error) {
	var contentType string
	if ct, ok := domain.ContentTypeFromFilename(filename); ok {
		contentType = string(ct)
	}
	return s.ImportJSON(ctx, userID, raw, contentType)
}

// ImportJSON decodes a raw JSON array of records and reconciles it under
// contentType. Anything but an array is rejected before the store is touched.
func (s *ImportService) ImportJSON(ctx context.Context, userID string, raw []byte, contentType string) (*domain.ImportResult, error) {
	if userID == "" {
		return nil, domainerrors.Unauthenticated("must be logged in to import")
	}

	records, err := s.decoder.Decode(raw)
	if err != nil {
		return nil, err
	}

	return s.Reconcile(ctx, userID, ImportRequest{
		Videos:      ingest.Observations(records),
		ContentType: contentType,
	})
}

// Imports returns the user's import receipts, newest first.
func (s *ImportService) Imports(ctx context.Context, userID string) ([]*domain.ImportReceipt, error) {
	if userID == "" {
		return []*domain.ImportReceipt{}, nil
	}
	receipts, err := s.store.ListImports(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return receipts, nil
}

func (s *ImportService) resolveContentType(name string) (domain.ContentType, bool, error) {
	if name == "" {
		return s.opts.DefaultContentType, true, nil
	}
	ct, ok := domain.ParseContentType(name)
	if !ok {
		return "", false, domainerrors.ValidationWithDetails("invalid content type", map[string]string{
			"contentType": "must be one of: History, Likes, Watch Later",
		})
	}
	return ct, false, nil
}

// syncIndex pushes touched records to the title index.
// The store is the source of truth, so failures are only logged.
func (s *ImportService) syncIndex(ctx context.Context, videos []*domain.Video) {
	if s.index == nil || len(videos) == 0 {
		return
	}
	if err := s.index.IndexVideos(videos); err != nil {
		logger.FromContext(ctx, s.logger).Warn("Failed to update search index",
			"videos", len(videos),
			"error", err,
		)
	}
}
