// Package badgerdb is an embedded key-value store backend built on Badger.
// Records are JSON values under prefixed keys with secondary index keys.
package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/store"
)

const (
	userPrefix    = "user:"
	sessionPrefix = "sess:"
	videoPrefix   = "vid:"
	importPrefix  = "imp:"

	videoSeqKey = "seq:videos"
)

// Store provides Badger-backed persistence.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	seq    *badger.Sequence

	users    *entity[domain.User]
	sessions *entity[domain.Session]
	videos   *entity[domain.Video]
	imports  *entity[domain.ImportReceipt]
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a Badger database in the directory at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	seq, err := db.GetSequence([]byte(videoSeqKey), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open video sequence: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Store{
		db:     db,
		logger: logger,
		seq:    seq,

		users: newEntity[domain.User](userPrefix).
			withUniqueIndex("email", func(u *domain.User) []string {
				if key := emailKey(u.Email); key != "" {
					return []string{key}
				}
				return nil
			}),

		sessions: newEntity[domain.Session](sessionPrefix).
			withUniqueIndex("refresh", func(s *domain.Session) []string {
				if s.RefreshTokenHash == "" {
					return nil
				}
				return []string{s.RefreshTokenHash}
			}),

		videos: newEntity[domain.Video](videoPrefix).
			withIndex("user", func(v *domain.Video) []string {
				return []string{v.UserID + sep + seqKey(v.Seq)}
			}).
			withIndex("cat", func(v *domain.Video) []string {
				return []string{v.UserID + sep + string(v.ContentType)}
			}).
			withIndex("url", func(v *domain.Video) []string {
				return []string{v.UserID + sep + v.URL}
			}),

		imports: newEntity[domain.ImportReceipt](importPrefix).
			withIndex("user", func(r *domain.ImportReceipt) []string {
				return []string{r.UserID + sep + r.ImportedAt.UTC().Format(timeKeyLayout)}
			}),
	}, nil
}

// Close releases the video sequence lease and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.logger.Warn("failed to release video sequence", "error", err)
	}
	return s.db.Close()
}

// nextSeq returns the next creation sequence number, starting at 1.
func (s *Store) nextSeq() (int64, error) {
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate sequence: %w", err)
	}
	return int64(n) + 1, nil
}

// seqKey renders seq so that byte order matches numeric order.
func seqKey(seq int64) string {
	return fmt.Sprintf("%016x", seq)
}

// timeKeyLayout is a fixed-width timestamp so byte order matches time order.
const timeKeyLayout = "2006-01-02T15:04:05.000000000Z"

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// view runs fn in a read-only transaction after checking ctx.
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

// update runs fn in a read-write transaction after checking ctx.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(fn)
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return s.users.create(txn, user.ID, user)
	})
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u *domain.User
	err := s.view(ctx, func(txn *badger.Txn) (err error) {
		u, err = s.users.get(txn, id)
		return err
	})
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	key := emailKey(email)
	if key == "" {
		return nil, store.ErrNotFound
	}

	var u *domain.User
	err := s.view(ctx, func(txn *badger.Txn) (err error) {
		u, err = s.users.lookup(txn, "email", key)
		return err
	})
	return u, err
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return s.users.update(txn, user.ID, user)
	})
}

// Sessions

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return s.sessions.create(txn, session.ID, session)
	})
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var sess *domain.Session
	err := s.view(ctx, func(txn *badger.Txn) (err error) {
		sess, err = s.sessions.get(txn, id)
		return err
	})
	return sess, err
}

func (s *Store) GetSessionByRefreshHash(ctx context.Context, hash string) (*domain.Session, error) {
	if hash == "" {
		return nil, store.ErrNotFound
	}

	var sess *domain.Session
	err := s.view(ctx, func(txn *badger.Txn) (err error) {
		sess, err = s.sessions.lookup(txn, "refresh", hash)
		return err
	})
	return sess, err
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return s.sessions.update(txn, session.ID, session)
	})
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return s.sessions.delete(txn, id)
	})
}

// DeleteExpiredSessions removes every session that expired before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	var expired []string
	err := s.view(ctx, func(txn *badger.Txn) error {
		return s.sessions.each(txn, func(sess *domain.Session) error {
			if sess.ExpiresAt.Before(now) {
				expired = append(expired, sess.ID)
			}
			return nil
		})
	})
	if err != nil || len(expired) == 0 {
		return 0, err
	}

	err = s.update(ctx, func(txn *badger.Txn) error {
		for _, id := range expired {
			if err := s.sessions.delete(txn, id); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}
