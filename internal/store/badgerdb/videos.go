package badgerdb

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/store"
)

// userVideos loads every record of a user, newest first.
func (s *Store) userVideos(txn *badger.Txn, userID string) ([]*domain.Video, error) {
	ids, err := s.videos.scan(txn, "user", userID+sep, true)
	if err != nil {
		return nil, err
	}
	return s.loadVideos(txn, ids)
}

func (s *Store) loadVideos(txn *badger.Txn, ids []string) ([]*domain.Video, error) {
	videos := make([]*domain.Video, 0, len(ids))
	for _, id := range ids {
		v, err := s.videos.get(txn, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// ListVideos filters the user's records in memory and returns one page, newest first.
func (s *Store) ListVideos(ctx context.Context, userID string, filter store.VideoFilter, page store.PaginationParams) (*store.PaginatedResult[*domain.Video], error) {
	matched := []*domain.Video{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		videos, err := s.userVideos(txn, userID)
		if err != nil {
			return err
		}
		for _, v := range videos {
			if filter.Matches(v) {
				matched = append(matched, v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store.Page(matched, page)
}

// GetVideosByIDs returns the user's records for ids, in the order given.
func (s *Store) GetVideosByIDs(ctx context.Context, userID string, ids []string) ([]*domain.Video, error) {
	var result []*domain.Video
	err := s.view(ctx, func(txn *badger.Txn) error {
		videos, err := s.loadVideos(txn, ids)
		if err != nil {
			return err
		}
		result = make([]*domain.Video, 0, len(videos))
		for _, v := range videos {
			if v.UserID == userID {
				result = append(result, v)
			}
		}
		return nil
	})
	return result, err
}

// ListChannels returns the distinct channels of the user's live records.
func (s *Store) ListChannels(ctx context.Context, userID string) ([]string, error) {
	channels := []string{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		videos, err := s.userVideos(txn, userID)
		if err != nil {
			return err
		}
		seen := make(map[string]bool)
		for _, v := range videos {
			if v.IsRemoved || seen[v.Channel] {
				continue
			}
			seen[v.Channel] = true
			channels = append(channels, v.Channel)
		}
		return nil
	})
	slices.Sort(channels)
	return channels, err
}

// CountVideos counts the user's live or removed records.
func (s *Store) CountVideos(ctx context.Context, userID string, removed bool) (int, error) {
	var n int
	err := s.view(ctx, func(txn *badger.Txn) error {
		videos, err := s.userVideos(txn, userID)
		if err != nil {
			return err
		}
		for _, v := range videos {
			if v.IsRemoved == removed {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ListLiveParsedDates returns the grouping date of every live record.
func (s *Store) ListLiveParsedDates(ctx context.Context, userID string) ([]string, error) {
	var dates []string
	err := s.view(ctx, func(txn *badger.Txn) error {
		videos, err := s.userVideos(txn, userID)
		if err != nil {
			return err
		}
		for _, v := range videos {
			if !v.IsRemoved {
				dates = append(dates, v.ParsedDate)
			}
		}
		return nil
	})
	return dates, err
}

// EachVideo calls fn for every stored record in creation order.
func (s *Store) EachVideo(ctx context.Context, fn func(*domain.Video) error) error {
	var videos []*domain.Video
	err := s.view(ctx, func(txn *badger.Txn) error {
		return s.videos.each(txn, func(v *domain.Video) error {
			videos = append(videos, v)
			return nil
		})
	})
	if err != nil {
		return err
	}

	slices.SortFunc(videos, func(a, b *domain.Video) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}
