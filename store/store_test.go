package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"salesai-streams/domain"
)

func newTestStore(t *testing.T, indexed map[string][]string) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })
	return New(rc, "salesai1", indexed)
}

func TestUpsertGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	doc := domain.Document{"id": "s1", "name": "Downtown", "city": "Izmir"}
	if err := s.Upsert(ctx, "store", doc); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.Get(ctx, "store", "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Fatalf("round trip mismatch:\n%#v\n%#v", doc, got)
	}

	if err := s.Delete(ctx, "store", "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = s.Get(ctx, "store", "s1")
	if err != nil || got != nil {
		t.Fatalf("expected nil after delete, got %#v %v", got, err)
	}
	// Deleting again is a no-op.
	if err := s.Delete(ctx, "store", "s1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := newTestStore(t, nil)
	doc, err := s.Get(context.Background(), "store", "nope")
	if err != nil || doc != nil {
		t.Fatalf("expected nil, nil; got %#v %v", doc, err)
	}
}

func TestUpsertReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	if err := s.Upsert(ctx, "store", domain.Document{"id": "s1", "name": "Old", "phone": "123"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Upsert(ctx, "store", domain.Document{"id": "s1", "name": "New"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _ := s.Get(ctx, "store", "s1")
	if _, stale := got["phone"]; stale {
		t.Fatalf("stale field survived full replacement: %#v", got)
	}
	if got.String("name") != "New" {
		t.Fatalf("unexpected document: %#v", got)
	}
}

func TestFindByFieldTracksUpdates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, map[string][]string{"saleTransaction": {"storeId"}})

	for _, d := range []domain.Document{
		{"id": "t1", "storeId": "s1"},
		{"id": "t2", "storeId": "s1"},
		{"id": "t3", "storeId": "s2"},
	} {
		if err := s.Upsert(ctx, "saleTransaction", d); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	ids, err := s.FindByField(ctx, "saleTransaction", "storeId", "s1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"t1", "t2"}) {
		t.Fatalf("unexpected ids: %v", ids)
	}

	// Moving t2 to another store must update both sets.
	if err := s.Upsert(ctx, "saleTransaction", domain.Document{"id": "t2", "storeId": "s2"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	ids, _ = s.FindByField(ctx, "saleTransaction", "storeId", "s1")
	if !reflect.DeepEqual(ids, []string{"t1"}) {
		t.Fatalf("old set not pruned: %v", ids)
	}
	ids, _ = s.FindByField(ctx, "saleTransaction", "storeId", "s2")
	if !reflect.DeepEqual(ids, []string{"t2", "t3"}) {
		t.Fatalf("new set not updated: %v", ids)
	}

	if err := s.Delete(ctx, "saleTransaction", "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ids, _ = s.FindByField(ctx, "saleTransaction", "storeId", "s1")
	if len(ids) != 0 {
		t.Fatalf("deleted id still indexed: %v", ids)
	}
}

func TestFindByFieldNumericValue(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, map[string][]string{"lowStockAlert": {"alertType"}})

	// JSON round trips integers as float64; lookups by int must still match.
	if err := s.Upsert(ctx, "lowStockAlert", domain.Document{"id": "a1", "alertType": 1.0}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	ids, err := s.FindByField(ctx, "lowStockAlert", "alertType", 1)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a1"}) {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestFindByFieldUndeclared(t *testing.T) {
	s := newTestStore(t, map[string][]string{"saleTransaction": {"storeId"}})
	_, err := s.FindByField(context.Background(), "saleTransaction", "sellerId", "u1")
	if !errors.Is(err, ErrFieldNotIndexed) {
		t.Fatalf("expected ErrFieldNotIndexed, got %v", err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	for _, id := range []string{"b", "a", "c"} {
		if err := s.Upsert(ctx, "store", domain.Document{"id": id}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	ids, err := s.List(ctx, "store")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestFindDocs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, map[string][]string{"storeAssignment": {"storeId"}})
	for _, d := range []domain.Document{
		{"id": "g1", "storeId": "s1", "role": "seller"},
		{"id": "g2", "storeId": "s1", "role": "manager"},
		{"id": "g3", "storeId": "s2", "role": "seller"},
	} {
		if err := s.Upsert(ctx, "storeAssignment", d); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	docs, err := s.FindDocs(ctx, "storeAssignment", "storeId", "s1")
	if err != nil {
		t.Fatalf("find docs: %v", err)
	}
	if len(docs) != 2 || docs[0].ID() != "g1" || docs[1].ID() != "g2" {
		t.Fatalf("unexpected docs: %#v", docs)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, map[string][]string{"saleTransaction": {"storeId"}})
	for _, d := range []domain.Document{
		{"id": "t1", "storeId": "s1", "amount": 10.5},
		{"id": "t2", "storeId": "s1", "amount": 4.5},
		{"id": "t3", "storeId": "s2", "amount": 100.0},
	} {
		if err := s.Upsert(ctx, "saleTransaction", d); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	count, sum, err := s.Stats(ctx, "saleTransaction", "storeId", "s1", "amount")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 2 || sum != 15.0 {
		t.Fatalf("unexpected stats: count=%d sum=%v", count, sum)
	}

	count, sum, err = s.Stats(ctx, "saleTransaction", "", nil, "amount")
	if err != nil {
		t.Fatalf("stats all: %v", err)
	}
	if count != 3 || sum != 115.0 {
		t.Fatalf("unexpected stats: count=%d sum=%v", count, sum)
	}

	count, sum, err = s.Stats(ctx, "saleTransaction", "storeId", "s2", "")
	if err != nil {
		t.Fatalf("stats count only: %v", err)
	}
	if count != 1 || sum != 0 {
		t.Fatalf("unexpected stats: count=%d sum=%v", count, sum)
	}
}
