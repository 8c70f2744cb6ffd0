package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/store"
)

// RunImport executes fn inside a single transaction. The transaction is
// rolled back if fn fails or the context is canceled before commit.
func (s *Store) RunImport(ctx context.Context, userID string, ct domain.ContentType, fn func(tx store.ImportTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(&importTx{tx: tx, userID: userID, contentType: ct}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// importTx scopes store access to one (user, category) pair.
type importTx struct {
	tx          *sql.Tx
	userID      string
	contentType domain.ContentType
}

func (t *importTx) CategoryVideos(ctx context.Context) ([]*domain.Video, error) {
	return queryVideos(ctx, t.tx,
		`SELECT `+videoColumns+` FROM videos
		WHERE user_id = ? AND content_type = ? ORDER BY seq ASC`,
		t.userID, string(t.contentType))
}

func (t *importTx) URLInOtherCategory(ctx context.Context, url string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `
		SELECT 1 FROM videos
		WHERE user_id = ? AND url = ? AND content_type <> ? LIMIT 1`,
		t.userID, url, string(t.contentType)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (t *importTx) InsertVideo(ctx context.Context, v *domain.Video) error {
	return insertVideo(ctx, t.tx, v)
}

func (t *importTx) UpdateVideo(ctx context.Context, v *domain.Video) error {
	return updateVideo(ctx, t.tx, v)
}

func (t *importTx) InsertReceipt(ctx context.Context, r *domain.ImportReceipt) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO imports (id, user_id, import_id, imported_at, video_count, content_type)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.UserID,
		r.ImportID,
		formatTime(r.ImportedAt),
		r.VideoCount,
		string(r.ContentType),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// ListImports returns the user's receipts, newest first.
func (s *Store) ListImports(ctx context.Context, userID string) ([]*domain.ImportReceipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, import_id, imported_at, video_count, content_type
		FROM imports WHERE user_id = ?
		ORDER BY imported_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := []*domain.ImportReceipt{}
	for rows.Next() {
		var (
			r           domain.ImportReceipt
			importedAt  string
			contentType string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.ImportID, &importedAt, &r.VideoCount, &contentType); err != nil {
			return nil, err
		}
		if r.ImportedAt, err = parseTime(importedAt); err != nil {
			return nil, err
		}
		r.ContentType = domain.ContentType(contentType)
		receipts = append(receipts, &r)
	}
	return receipts, rows.Err()
}
