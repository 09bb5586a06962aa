package view

import (
	"context"
	"testing"

	"salesai-streams/domain"
)

func TestRepairViewRebuildsAllDocuments(t *testing.T) {
	fs := newFakeStore()
	fs.put("store", domain.Document{"id": "s1", "name": "Downtown"})
	fs.put("user", domain.Document{"id": "u1", "fullName": "Ada"})
	fs.put("saleTransaction", domain.Document{"id": "t1", "storeId": "s1", "sellerId": "u1", "amount": 5.0})
	fs.put("saleTransaction", domain.Document{"id": "t2", "storeId": "s1", "sellerId": "u1", "amount": 6.0})

	def := defByName(t, "salesDashboardView")
	r := NewRepairer(fs, NewAggregator(fs))
	if err := r.RepairView(context.Background(), def); err != nil {
		t.Fatalf("repair: %v", err)
	}
	for _, id := range []string{"t1", "t2"} {
		doc, _ := fs.Get(context.Background(), def.Index(), id)
		if doc == nil {
			t.Fatalf("document %s not rebuilt", id)
		}
		if info, ok := doc.Sub("storeInfo"); !ok || info.String("name") != "Downtown" {
			t.Fatalf("document %s not joined: %#v", id, doc)
		}
	}
}

func TestRepairViewEmptyIndex(t *testing.T) {
	fs := newFakeStore()
	r := NewRepairer(fs, NewAggregator(fs))
	if err := r.RepairView(context.Background(), defByName(t, "salesDashboardView")); err != nil {
		t.Fatalf("repair over empty index: %v", err)
	}
	if len(fs.upserts) != 0 {
		t.Fatalf("unexpected writes: %#v", fs.upserts)
	}
}
