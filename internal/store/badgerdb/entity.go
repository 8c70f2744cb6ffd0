package badgerdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/tubearchive/tubearchive-server/internal/store"
)

// sep joins the parts of composite index values. It sorts before every
// printable byte so a prefix scan on "a"+sep never matches "ab".
const sep = "\x00"

// entity provides transactional CRUD with secondary indexes for one type.
// Primary keys are prefix+id; index keys live under prefix+"idx:".
type entity[T any] struct {
	prefix  string
	indexes []index[T]
}

// index defines a secondary index on an entity.
// Unique index keys map value -> id. Non-unique keys append sep+id to the
// value so several records can share it; they are read with scan.
type index[T any] struct {
	name   string
	unique bool
	keyGen func(*T) []string
}

func newEntity[T any](prefix string) *entity[T] {
	return &entity[T]{prefix: prefix}
}

// withIndex adds a non-unique secondary index.
func (e *entity[T]) withIndex(name string, keyGen func(*T) []string) *entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, keyGen: keyGen})
	return e
}

// withUniqueIndex adds a secondary index whose values may belong to one record only.
func (e *entity[T]) withUniqueIndex(name string, keyGen func(*T) []string) *entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, unique: true, keyGen: keyGen})
	return e
}

func (e *entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *entity[T]) indexPrefix(name string) string {
	return e.prefix + "idx:" + name + ":"
}

func (e *entity[T]) indexKey(idx index[T], value, id string) []byte {
	if idx.unique {
		return []byte(e.indexPrefix(idx.name) + value)
	}
	return []byte(e.indexPrefix(idx.name) + value + sep + id)
}

// create stores a new record and its index keys.
// Returns store.ErrAlreadyExists if the id or a unique index value is taken.
func (e *entity[T]) create(txn *badger.Txn, id string, v *T) error {
	_, err := txn.Get(e.key(id))
	if err == nil {
		return store.ErrAlreadyExists
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to check existing key: %w", err)
	}

	if err := e.checkUnique(txn, v, nil); err != nil {
		return err
	}
	return e.write(txn, id, v)
}

// get loads a record by id. Returns store.ErrNotFound if it does not exist.
func (e *entity[T]) get(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(e.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var v T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &v, nil
}

// lookup resolves a unique index value to its record.
func (e *entity[T]) lookup(txn *badger.Txn, name, value string) (*T, error) {
	item, err := txn.Get([]byte(e.indexPrefix(name) + value))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var id string
	if err := item.Value(func(val []byte) error {
		id = string(val)
		return nil
	}); err != nil {
		return nil, err
	}
	return e.get(txn, id)
}

// update replaces an existing record and moves its index keys.
// Returns store.ErrNotFound if the record does not exist.
func (e *entity[T]) update(txn *badger.Txn, id string, v *T) error {
	old, err := e.get(txn, id)
	if err != nil {
		return err
	}
	if err := e.checkUnique(txn, v, old); err != nil {
		return err
	}
	if err := e.deleteIndexes(txn, id, old); err != nil {
		return err
	}
	return e.write(txn, id, v)
}

// delete removes a record and its index keys.
// Returns store.ErrNotFound if the record does not exist.
func (e *entity[T]) delete(txn *badger.Txn, id string) error {
	old, err := e.get(txn, id)
	if err != nil {
		return err
	}
	if err := e.deleteIndexes(txn, id, old); err != nil {
		return err
	}
	return txn.Delete(e.key(id))
}

// scan returns the ids stored under a non-unique index whose value starts
// with valuePrefix, in key order or reversed.
func (e *entity[T]) scan(txn *badger.Txn, name, valuePrefix string, reverse bool) ([]string, error) {
	prefix := []byte(e.indexPrefix(name) + valuePrefix)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = true
	opts.Reverse = reverse

	it := txn.NewIterator(opts)
	defer it.Close()

	seek := prefix
	if reverse {
		seek = append(append([]byte{}, prefix...), 0xFF)
	}

	var ids []string
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// each calls fn for every record of the entity in id order.
func (e *entity[T]) each(txn *badger.Txn, fn func(*T) error) error {
	prefix := []byte(e.prefix)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = true

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if strings.HasPrefix(string(it.Item().Key()[len(prefix):]), "idx:") {
			continue
		}

		var v T
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		})
		if err != nil {
			return fmt.Errorf("failed to unmarshal entity: %w", err)
		}
		if err := fn(&v); err != nil {
			return err
		}
	}
	return nil
}

// checkUnique fails if a unique index value of v belongs to another record.
// Values already held by old are not conflicts.
func (e *entity[T]) checkUnique(txn *badger.Txn, v, old *T) error {
	for _, idx := range e.indexes {
		if !idx.unique {
			continue
		}

		held := make(map[string]bool)
		if old != nil {
			for _, value := range idx.keyGen(old) {
				held[value] = true
			}
		}

		for _, value := range idx.keyGen(v) {
			if held[value] {
				continue
			}
			_, err := txn.Get([]byte(e.indexPrefix(idx.name) + value))
			if err == nil {
				return fmt.Errorf("index %s conflict on key %s: %w", idx.name, value, store.ErrAlreadyExists)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
		}
	}
	return nil
}

func (e *entity[T]) write(txn *badger.Txn, id string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	if err := txn.Set(e.key(id), data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(v) {
			if err := txn.Set(e.indexKey(idx, value, id), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
	}
	return nil
}

func (e *entity[T]) deleteIndexes(txn *badger.Txn, id string, old *T) error {
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(old) {
			if err := txn.Delete(e.indexKey(idx, value, id)); err != nil {
				return fmt.Errorf("failed to delete index key: %w", err)
			}
		}
	}
	return nil
}
