package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	domainerrors "github.com/tubearchive/tubearchive-server/internal/errors"
	"github.com/tubearchive/tubearchive-server/internal/service"
)

func (s *Server) registerVideoRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listVideos",
		Method:      http.MethodGet,
		Path:        "/api/v1/videos",
		Summary:     "List videos",
		Description: "Returns one page of the caller's records, newest first. Title searches are ranked by relevance.",
		Tags:        []string{tagVideos},
		Security:    bearerSecurity,
	}, s.handleListVideos)

	huma.Register(s.api, huma.Operation{
		OperationID: "listChannels",
		Method:      http.MethodGet,
		Path:        "/api/v1/videos/channels",
		Summary:     "List channels",
		Description: "Returns the distinct channels of the caller's live records, sorted",
		Tags:        []string{tagVideos},
		Security:    bearerSecurity,
	}, s.handleListChannels)

	huma.Register(s.api, huma.Operation{
		OperationID: "countVideos",
		Method:      http.MethodGet,
		Path:        "/api/v1/videos/count",
		Summary:     "Count live videos",
		Tags:        []string{tagVideos},
		Security:    bearerSecurity,
	}, s.handleVideoCount)

	huma.Register(s.api, huma.Operation{
		OperationID: "countRemovedVideos",
		Method:      http.MethodGet,
		Path:        "/api/v1/videos/removed-count",
		Summary:     "Count removed videos",
		Tags:        []string{tagVideos},
		Security:    bearerSecurity,
	}, s.handleRemovedVideoCount)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTimeline",
		Method:      http.MethodGet,
		Path:        "/api/v1/videos/timeline",
		Summary:     "Timeline",
		Description: "Groups live records by year and month, newest first",
		Tags:        []string{tagVideos},
		Security:    bearerSecurity,
	}, s.handleTimeline)
}

// === DTOs ===

// ListVideosInput contains the listing filters. Empty values do not filter.
type ListVideosInput struct {
	SearchQuery string `query:"searchQuery" maxLength:"500" doc:"Words that must all appear in the title"`
	Channel     string `query:"channel" doc:"Exact channel name"`
	Date        string `query:"date" doc:"Exact grouping date (YYYY-MM-DD)"`
	ShowRemoved string `query:"showRemoved" doc:"true for removed records only, false for live only; both when omitted"`
	ContentType string `query:"contentType" doc:"History, Likes or Watch Later"`
	Year        string `query:"year" doc:"Grouping date year (YYYY)"`
	Month       string `query:"month" doc:"Grouping date month (YYYY-MM)"`
	Limit       int    `query:"limit" minimum:"0" maximum:"1000" doc:"Page size (default 100)"`
	Cursor      string `query:"cursor" doc:"Continuation cursor from the previous page"`
}

// ListVideosOutput wraps a page of records for Huma.
type ListVideosOutput struct {
	Body *service.VideoPage
}

// ChannelsOutput wraps the channel list for Huma.
type ChannelsOutput struct {
	Body []string
}

// TimelineOutput wraps the timeline for Huma.
type TimelineOutput struct {
	Body []domain.TimelineYear
}

// === Handlers ===

func (s *Server) handleListVideos(ctx context.Context, input *ListVideosInput) (*ListVideosOutput, error) {
	showRemoved, err := parseOptionalBool("showRemoved", input.ShowRemoved)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Video.ListVideos(ctx, userIDFrom(ctx), service.VideoQuery{
		SearchQuery: input.SearchQuery,
		Channel:     input.Channel,
		Date:        input.Date,
		ShowRemoved: showRemoved,
		ContentType: input.ContentType,
		Year:        input.Year,
		Month:       input.Month,
		Limit:       input.Limit,
		Cursor:      input.Cursor,
	})
	if err != nil {
		return nil, err
	}
	return &ListVideosOutput{Body: page}, nil
}

func (s *Server) handleListChannels(ctx context.Context, _ *struct{}) (*ChannelsOutput, error) {
	channels, err := s.services.Video.Channels(ctx, userIDFrom(ctx))
	if err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []string{}
	}
	return &ChannelsOutput{Body: channels}, nil
}

func (s *Server) handleVideoCount(ctx context.Context, _ *struct{}) (*CountOutput, error) {
	n, err := s.services.Video.VideoCount(ctx, userIDFrom(ctx))
	if err != nil {
		return nil, err
	}
	return &CountOutput{Body: CountResponse{Count: n}}, nil
}

func (s *Server) handleRemovedVideoCount(ctx context.Context, _ *struct{}) (*CountOutput, error) {
	n, err := s.services.Video.RemovedVideoCount(ctx, userIDFrom(ctx))
	if err != nil {
		return nil, err
	}
	return &CountOutput{Body: CountResponse{Count: n}}, nil
}

func (s *Server) handleTimeline(ctx context.Context, _ *struct{}) (*TimelineOutput, error) {
	timeline, err := s.services.Video.Timeline(ctx, userIDFrom(ctx))
	if err != nil {
		return nil, err
	}
	return &TimelineOutput{Body: timeline}, nil
}

// parseOptionalBool reads a tri-state query flag.
func parseOptionalBool(name, value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, domainerrors.ValidationWithDetails("invalid query parameter", map[string]string{
			name: "must be true or false",
		})
	}
	return &b, nil
}
