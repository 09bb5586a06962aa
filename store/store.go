// Package store holds entity snapshots and materialized view documents in
// Redis, one logical index per entity or view. Documents are written by full
// replacement only. Fields declared at construction are kept in secondary
// index sets so reverse lookups are set reads instead of scans.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"salesai-streams/domain"
)

// ErrFieldNotIndexed is returned by FindByField for a field that was not
// declared for its index. A reverse lookup over an unindexed field means the
// view registry and the store disagree, which is a configuration bug.
var ErrFieldNotIndexed = errors.New("field not indexed")

// Store is a document store over Redis.
type Store struct {
	rc        *redis.Client
	namespace string
	indexed   map[string][]string
}

// New creates a store. indexed maps an index name to the document fields
// that must support FindByField.
func New(rc *redis.Client, namespace string, indexed map[string][]string) *Store {
	if indexed == nil {
		indexed = map[string][]string{}
	}
	return &Store{rc: rc, namespace: namespace, indexed: indexed}
}

func (s *Store) docKey(index, id string) string {
	return s.namespace + "_" + index + ":" + id
}

func (s *Store) idsKey(index string) string {
	return s.namespace + "_" + index + ":ids"
}

func (s *Store) fieldKey(index, field, value string) string {
	return s.namespace + "_" + index + ":by:" + field + ":" + value
}

// Get returns the document, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, index, id string) (domain.Document, error) {
	data, err := s.rc.Get(ctx, s.docKey(index, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", index, id, err)
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", index, id, err)
	}
	return doc, nil
}

// Upsert replaces the document wholesale and refreshes its secondary-index
// membership.
func (s *Store) Upsert(ctx context.Context, index string, doc domain.Document) error {
	id := doc.ID()
	if id == "" {
		return fmt.Errorf("upsert %s: document has no id", index)
	}
	prev, err := s.Get(ctx, index, id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", index, id, err)
	}
	pipe := s.rc.TxPipeline()
	pipe.Set(ctx, s.docKey(index, id), data, 0)
	pipe.SAdd(ctx, s.idsKey(index), id)
	for _, field := range s.indexed[index] {
		oldVal := ""
		if prev != nil {
			oldVal = domain.FieldString(prev[field])
		}
		newVal := domain.FieldString(doc[field])
		if prev != nil && oldVal != newVal && oldVal != "" {
			pipe.SRem(ctx, s.fieldKey(index, field, oldVal), id)
		}
		if newVal != "" {
			pipe.SAdd(ctx, s.fieldKey(index, field, newVal), id)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", index, id, err)
	}
	return nil
}

// Delete removes the document and its index memberships. Deleting a missing
// document is a no-op.
func (s *Store) Delete(ctx context.Context, index, id string) error {
	prev, err := s.Get(ctx, index, id)
	if err != nil {
		return err
	}
	pipe := s.rc.TxPipeline()
	pipe.Del(ctx, s.docKey(index, id))
	pipe.SRem(ctx, s.idsKey(index), id)
	if prev != nil {
		for _, field := range s.indexed[index] {
			if v := domain.FieldString(prev[field]); v != "" {
				pipe.SRem(ctx, s.fieldKey(index, field, v), id)
			}
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete %s/%s: %w", index, id, err)
	}
	return nil
}

// FindByField returns the ids of documents whose field equals value. The
// field must have been declared for the index.
func (s *Store) FindByField(ctx context.Context, index, field string, value any) ([]string, error) {
	if !s.fieldIndexed(index, field) {
		return nil, fmt.Errorf("%s.%s: %w", index, field, ErrFieldNotIndexed)
	}
	ids, err := s.rc.SMembers(ctx, s.fieldKey(index, field, domain.FieldString(value))).Result()
	if err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", index, field, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// List returns every document id in the index.
func (s *Store) List(ctx context.Context, index string) ([]string, error) {
	ids, err := s.rc.SMembers(ctx, s.idsKey(index)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", index, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// FindDocs loads the documents whose field equals value.
func (s *Store) FindDocs(ctx context.Context, index, field string, value any) ([]domain.Document, error) {
	ids, err := s.FindByField(ctx, index, field, value)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, index, ids)
}

// Stats counts documents and sums sumField over them. With matchField set,
// only documents whose matchField equals matchValue participate; sumField may
// be empty when only the count is wanted.
func (s *Store) Stats(ctx context.Context, index, matchField string, matchValue any, sumField string) (int, float64, error) {
	var (
		ids []string
		err error
	)
	if matchField == "" {
		ids, err = s.List(ctx, index)
	} else {
		ids, err = s.FindByField(ctx, index, matchField, matchValue)
	}
	if err != nil {
		return 0, 0, err
	}
	docs, err := s.fetch(ctx, index, ids)
	if err != nil {
		return 0, 0, err
	}
	var sum float64
	if sumField != "" {
		for _, doc := range docs {
			if v, ok := doc[sumField].(float64); ok {
				sum += v
			}
		}
	}
	return len(docs), sum, nil
}

func (s *Store) fetch(ctx context.Context, index string, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(index, id)
	}
	vals, err := s.rc.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", index, err)
	}
	docs := make([]domain.Document, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var doc domain.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("fetch %s: %w", index, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Store) fieldIndexed(index, field string) bool {
	for _, f := range s.indexed[index] {
		if f == field {
			return true
		}
	}
	return false
}
