// Package store defines the persistence contract for users, sessions, video
// records and import receipts. Backends live in sub-packages.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/normalize"
)

// Store is the full persistence surface used by the services.
type Store interface {
	UserStore
	SessionStore
	VideoStore
	ImportStore
	Close() error
}

// UserStore persists accounts.
type UserStore interface {
	// CreateUser returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

// SessionStore persists refresh-token sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshHash(ctx context.Context, hash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// VideoStore answers read queries over a user's records.
type VideoStore interface {
	// ListVideos returns records newest first. The cursor is an opaque offset.
	ListVideos(ctx context.Context, userID string, filter VideoFilter, page PaginationParams) (*PaginatedResult[*domain.Video], error)
	// GetVideosByIDs returns the user's records for ids, preserving the order of ids.
	// Unknown ids are skipped.
	GetVideosByIDs(ctx context.Context, userID string, ids []string) ([]*domain.Video, error)
	// ListChannels returns distinct channels of live records, byte-wise sorted.
	ListChannels(ctx context.Context, userID string) ([]string, error)
	CountVideos(ctx context.Context, userID string, removed bool) (int, error)
	// ListLiveParsedDates returns the grouping date of every live record.
	ListLiveParsedDates(ctx context.Context, userID string) ([]string, error)
	// EachVideo calls fn for every stored record of every user.
	EachVideo(ctx context.Context, fn func(*domain.Video) error) error
}

// ImportStore applies reconciliation batches and keeps their receipts.
type ImportStore interface {
	// RunImport executes fn inside one atomic unit scoped to (userID, ct).
	// If fn returns an error nothing it wrote is kept.
	RunImport(ctx context.Context, userID string, ct domain.ContentType, fn func(tx ImportTx) error) error
	// ListImports returns the user's receipts, newest first.
	ListImports(ctx context.Context, userID string) ([]*domain.ImportReceipt, error)
}

// ImportTx is the view of the store available while an import runs.
type ImportTx interface {
	// CategoryVideos returns every record in the import's category, removed ones included.
	CategoryVideos(ctx context.Context) ([]*domain.Video, error)
	// URLInOtherCategory reports whether the user has url under a different category.
	URLInOtherCategory(ctx context.Context, url string) (bool, error)
	// InsertVideo stores a new record and assigns its Seq.
	InsertVideo(ctx context.Context, v *domain.Video) error
	// UpdateVideo overwrites an existing record.
	UpdateVideo(ctx context.Context, v *domain.Video) error
	InsertReceipt(ctx context.Context, r *domain.ImportReceipt) error
}

// VideoFilter narrows a listing. Zero values mean "no constraint".
type VideoFilter struct {
	// Search matches records whose folded title contains every folded term.
	Search      string
	Channel     string
	Date        string // exact grouping date
	Removed     *bool  // nil lists both live and removed records
	ContentType domain.ContentType
	Year        string // grouping date prefix
	Month       string // grouping date prefix, YYYY-MM
}

// Matches applies the filter to a single record. Backends without query
// support filter in memory with it.
func (f VideoFilter) Matches(v *domain.Video) bool {
	if f.Channel != "" && v.Channel != f.Channel {
		return false
	}
	if f.Date != "" && v.ParsedDate != f.Date {
		return false
	}
	if f.Removed != nil && v.IsRemoved != *f.Removed {
		return false
	}
	if f.ContentType != "" && v.ContentType != f.ContentType {
		return false
	}
	if f.Year != "" && !strings.HasPrefix(v.ParsedDate, f.Year) {
		return false
	}
	if f.Month != "" && !strings.HasPrefix(v.ParsedDate, f.Month) {
		return false
	}
	if f.Search != "" {
		title := normalize.Fold(v.Title)
		for _, term := range normalize.Terms(f.Search) {
			if !strings.Contains(title, term) {
				return false
			}
		}
	}
	return true
}
