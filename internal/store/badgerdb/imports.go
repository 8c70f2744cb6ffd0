package badgerdb

import (
	"cmp"
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/store"
)

// RunImport executes fn inside a single read-write transaction. Nothing fn
// wrote is kept if it fails. Very large batches can exceed Badger's
// transaction limits, in which case badger.ErrTxnTooBig is returned.
func (s *Store) RunImport(ctx context.Context, userID string, ct domain.ContentType, fn func(tx store.ImportTx) error) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return fn(&importTx{store: s, txn: txn, userID: userID, contentType: ct})
	})
}

// importTx scopes store access to one (user, category) pair.
type importTx struct {
	store       *Store
	txn         *badger.Txn
	userID      string
	contentType domain.ContentType
}

func (t *importTx) CategoryVideos(ctx context.Context) ([]*domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, err := t.store.videos.scan(t.txn, "cat", t.userID+sep+string(t.contentType)+sep, false)
	if err != nil {
		return nil, err
	}
	videos, err := t.store.loadVideos(t.txn, ids)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(videos, func(a, b *domain.Video) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return videos, nil
}

func (t *importTx) URLInOtherCategory(ctx context.Context, url string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	ids, err := t.store.videos.scan(t.txn, "url", t.userID+sep+url+sep, false)
	if err != nil {
		return false, err
	}
	videos, err := t.store.loadVideos(t.txn, ids)
	if err != nil {
		return false, err
	}
	for _, v := range videos {
		if v.ContentType != t.contentType {
			return true, nil
		}
	}
	return false, nil
}

func (t *importTx) InsertVideo(ctx context.Context, v *domain.Video) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	seq, err := t.store.nextSeq()
	if err != nil {
		return err
	}
	v.Seq = seq
	return t.store.videos.create(t.txn, v.ID, v)
}

func (t *importTx) UpdateVideo(ctx context.Context, v *domain.Video) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	old, err := t.store.videos.get(t.txn, v.ID)
	if err != nil {
		return err
	}
	if old.UserID != v.UserID {
		return store.ErrNotFound
	}
	return t.store.videos.update(t.txn, v.ID, v)
}

func (t *importTx) InsertReceipt(ctx context.Context, r *domain.ImportReceipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.store.imports.create(t.txn, r.ID, r)
}

// ListImports returns the user's receipts, newest first.
func (s *Store) ListImports(ctx context.Context, userID string) ([]*domain.ImportReceipt, error) {
	receipts := []*domain.ImportReceipt{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		ids, err := s.imports.scan(txn, "user", userID+sep, true)
		if err != nil {
			return err
		}
		for _, id := range ids {
			r, err := s.imports.get(txn, id)
			if err != nil {
				return err
			}
			receipts = append(receipts, r)
		}
		return nil
	})
	return receipts, err
}
