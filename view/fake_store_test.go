package view

import (
	"context"
	"sort"

	"salesai-streams/domain"
)

// fakeStore implements Store over in-memory maps. FindByField scans instead
// of keeping secondary indexes; the contract is the same.
type fakeStore struct {
	docs    map[string]map[string]domain.Document
	upserts map[string]int
	deletes []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]map[string]domain.Document{}, upserts: map[string]int{}}
}

func (f *fakeStore) put(index string, doc domain.Document) {
	if f.docs[index] == nil {
		f.docs[index] = map[string]domain.Document{}
	}
	f.docs[index][doc.ID()] = doc
}

func (f *fakeStore) Get(ctx context.Context, index, id string) (domain.Document, error) {
	doc, ok := f.docs[index][id]
	if !ok {
		return nil, nil
	}
	return doc, nil
}

func (f *fakeStore) Upsert(ctx context.Context, index string, doc domain.Document) error {
	f.put(index, doc)
	f.upserts[index+"/"+doc.ID()]++
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, index, id string) error {
	delete(f.docs[index], id)
	f.deletes = append(f.deletes, index+"/"+id)
	return nil
}

func (f *fakeStore) FindByField(ctx context.Context, index, field string, value any) ([]string, error) {
	var ids []string
	for id, doc := range f.docs[index] {
		if domain.FieldString(doc[field]) == domain.FieldString(value) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) FindDocs(ctx context.Context, index, field string, value any) ([]domain.Document, error) {
	ids, _ := f.FindByField(ctx, index, field, value)
	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, f.docs[index][id])
	}
	return docs, nil
}

func (f *fakeStore) Stats(ctx context.Context, index, matchField string, matchValue any, sumField string) (int, float64, error) {
	var count int
	var sum float64
	for _, doc := range f.docs[index] {
		if matchField != "" && domain.FieldString(doc[matchField]) != domain.FieldString(matchValue) {
			continue
		}
		count++
		if sumField != "" {
			if v, ok := doc[sumField].(float64); ok {
				sum += v
			}
		}
	}
	return count, sum, nil
}

func (f *fakeStore) List(ctx context.Context, index string) ([]string, error) {
	var ids []string
	for id := range f.docs[index] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
