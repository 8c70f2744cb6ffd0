package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	domainerrors "github.com/tubearchive/tubearchive-server/internal/errors"
	"github.com/tubearchive/tubearchive-server/internal/logger"
	"github.com/tubearchive/tubearchive-server/internal/search"
	"github.com/tubearchive/tubearchive-server/internal/store"
)

// VideoQuery selects and pages a user's records. Empty fields do not filter.
type VideoQuery struct {
	SearchQuery string
	Channel     string
	Date        string
	ShowRemoved *bool // nil lists both live and removed records
	ContentType string
	Year        string
	Month       string

	Limit  int
	Cursor string
}

// VideoPage is one page of a listing.
type VideoPage struct {
	Page           []*domain.Video `json:"page"`
	ContinueCursor string          `json:"continueCursor"`
	IsDone         bool            `json:"isDone"`
	Total          int             `json:"total"`
}

// VideoService answers read queries over a user's archive.
type VideoService struct {
	store  store.Store
	index  TitleIndex
	logger *slog.Logger
}

// NewVideoService creates a video query service. index may be nil, in which
// case title search runs in the store.
func NewVideoService(store store.Store, index TitleIndex, logger *slog.Logger) *VideoService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &VideoService{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// ListVideos returns one page of the user's records, newest first.
// A non-blank search query is answered by the title index when one is
// configured; those results are ordered by relevance instead.
func (s *VideoService) ListVideos(ctx context.Context, userID string, q VideoQuery) (*VideoPage, error) {
	if userID == "" {
		return nil, domainerrors.Unauthenticated("must be logged in to list videos")
	}

	filter := store.VideoFilter{
		Search:  strings.TrimSpace(q.SearchQuery),
		Channel: q.Channel,
		Date:    q.Date,
		Removed: q.ShowRemoved,
		Year:    q.Year,
		Month:   q.Month,
	}
	if q.ContentType != "" {
		ct, ok := domain.ParseContentType(q.ContentType)
		if !ok {
			return nil, domainerrors.ValidationWithDetails("invalid content type", map[string]string{
				"contentType": "must be one of: History, Likes, Watch Later",
			})
		}
		filter.ContentType = ct
	}
	page := store.PaginationParams{Limit: q.Limit, Cursor: q.Cursor}

	if filter.Search != "" && s.index != nil {
		result, err := s.searchVideos(ctx, userID, filter, page)
		if err == nil {
			return result, nil
		}
		if domainerrors.Is(err, domainerrors.ErrValidation) {
			return nil, err
		}
		logger.FromContext(ctx, s.logger).Warn("Title index search failed, falling back to store",
			"user_id", userID,
			"error", err,
		)
	}

	res, err := s.store.ListVideos(ctx, userID, filter, page)
	if err != nil {
		return nil, wrapQueryError(err, "list videos")
	}
	return toVideoPage(res), nil
}

func (s *VideoService) searchVideos(ctx context.Context, userID string, filter store.VideoFilter, page store.PaginationParams) (*VideoPage, error) {
	hits, err := s.index.SearchTitles(ctx, search.TitleQuery{
		UserID:      userID,
		Query:       filter.Search,
		Channel:     filter.Channel,
		ContentType: filter.ContentType,
		Removed:     filter.Removed,
	})
	if err != nil {
		return nil, err
	}

	videos, err := s.store.GetVideosByIDs(ctx, userID, hits.IDs)
	if err != nil {
		return nil, err
	}

	// The index already matched the text; apply the remaining filters.
	rest := filter
	rest.Search = ""
	matched := make([]*domain.Video, 0, len(videos))
	for _, v := range videos {
		if rest.Matches(v) {
			matched = append(matched, v)
		}
	}

	res, err := store.Page(matched, page)
	if err != nil {
		return nil, wrapQueryError(err, "search videos")
	}
	return toVideoPage(res), nil
}

// Channels returns the distinct channels of the user's live records.
func (s *VideoService) Channels(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return []string{}, nil
	}
	channels, err := s.store.ListChannels(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}

// VideoCount returns the number of live records.
func (s *VideoService) VideoCount(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, userID, false)
}

// RemovedVideoCount returns the number of records marked removed.
func (s *VideoService) RemovedVideoCount(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, userID, true)
}

func (s *VideoService) count(ctx context.Context, userID string, removed bool) (int, error) {
	if userID == "" {
		return 0, nil
	}
	n, err := s.store.CountVideos(ctx, userID, removed)
	if err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return n, nil
}

// Timeline groups the user's live records by year and month, newest first.
func (s *VideoService) Timeline(ctx context.Context, userID string) ([]domain.TimelineYear, error) {
	if userID == "" {
		return []domain.TimelineYear{}, nil
	}
	dates, err := s.store.ListLiveParsedDates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}
	return domain.BuildTimeline(dates), nil
}

func toVideoPage(res *store.PaginatedResult[*domain.Video]) *VideoPage {
	return &VideoPage{
		Page:           res.Items,
		ContinueCursor: res.NextCursor,
		IsDone:         !res.HasMore,
		Total:          res.Total,
	}
}

// wrapQueryError turns a malformed cursor into a validation error.
func wrapQueryError(err error, op string) error {
	if domainerrors.Is(err, store.ErrInvalidCursor) {
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "invalid cursor")
	}
	return fmt.Errorf("%s: %w", op, err)
}
