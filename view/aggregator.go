package view

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"salesai-streams/domain"
)

// Store defines the document-store operations aggregation relies on.
type Store interface {
	Get(ctx context.Context, index, id string) (domain.Document, error)
	Upsert(ctx context.Context, index string, doc domain.Document) error
	Delete(ctx context.Context, index, id string) error
	FindByField(ctx context.Context, index, field string, value any) ([]string, error)
	FindDocs(ctx context.Context, index, field string, value any) ([]domain.Document, error)
	Stats(ctx context.Context, index, matchField string, matchValue any, sumField string) (int, float64, error)
	List(ctx context.Context, index string) ([]string, error)
}

// Aggregator recomputes view documents from current source snapshots. A
// rebuild carries no state between calls: the produced document is a pure
// function of what the source indexes hold at read time, which is what makes
// at-least-once redelivery harmless.
type Aggregator struct {
	st Store
}

func NewAggregator(st Store) Aggregator { return Aggregator{st: st} }

// Rebuild recomputes the view document for id and replaces it wholesale.
// With tombstone set (primary deleted) the document is removed instead. A
// missing primary snapshot outside deletion is not an error: the primary may
// not be queryable yet, and a later event for the same id will reconcile.
func (a Aggregator) Rebuild(ctx context.Context, def Definition, id string, tombstone bool) error {
	if tombstone {
		return a.st.Delete(ctx, def.Index(), id)
	}
	primary, err := a.st.Get(ctx, def.PrimaryEntity, id)
	if err != nil {
		return err
	}
	if primary == nil {
		log.WithFields(log.Fields{"view": def.Name, "id": id}).Debug("primary snapshot not queryable yet, skipping rebuild")
		return nil
	}

	doc := a.projectPrimary(def, primary)
	for _, join := range def.Objects {
		ok, err := a.joinObject(ctx, join, primary, doc)
		if err != nil {
			return fmt.Errorf("rebuild %s/%s: %w", def.Name, id, err)
		}
		if !ok {
			log.WithFields(log.Fields{"view": def.Name, "id": id, "join": join.TargetField}).Debug("required snapshot missing, skipping rebuild")
			return nil
		}
	}
	for _, join := range def.Collections {
		if err := a.joinCollection(ctx, join, id, primary, doc); err != nil {
			return fmt.Errorf("rebuild %s/%s: %w", def.Name, id, err)
		}
	}
	for _, join := range def.Stats {
		if err := a.joinStats(ctx, join, id, primary, doc); err != nil {
			return fmt.Errorf("rebuild %s/%s: %w", def.Name, id, err)
		}
	}
	return a.st.Upsert(ctx, def.Index(), doc)
}

func (a Aggregator) projectPrimary(def Definition, primary domain.Document) domain.Document {
	doc := domain.Document{}
	if len(def.PrimaryFields) == 0 {
		for k, v := range primary {
			doc[k] = v
		}
		return doc
	}
	for _, field := range def.PrimaryFields {
		if v, ok := primary[field]; ok {
			doc[field] = v
		}
	}
	doc["id"] = primary.ID()
	return doc
}

func (a Aggregator) joinObject(ctx context.Context, join ObjectJoin, primary, doc domain.Document) (bool, error) {
	key := domain.FieldString(primary[join.KeyField])
	if key == "" {
		return !join.Required, nil
	}
	related, err := a.st.Get(ctx, join.Entity, key)
	if err != nil {
		return false, err
	}
	if related == nil {
		return !join.Required, nil
	}
	doc[join.TargetField] = related
	return true, nil
}

func (a Aggregator) joinCollection(ctx context.Context, join CollectionJoin, id string, primary, doc domain.Document) error {
	match := a.keyValue(join.KeyField, id, primary)
	related, err := a.st.FindDocs(ctx, join.Entity, join.MatchField, match)
	if err != nil {
		return err
	}
	out := make([]domain.Document, 0, len(related))
	for _, rel := range related {
		if matchesFilter(rel, join.Filter) {
			out = append(out, rel)
		}
	}
	doc[join.TargetField] = out
	return nil
}

func (a Aggregator) joinStats(ctx context.Context, join StatsJoin, id string, primary, doc domain.Document) error {
	var matchValue any
	if join.MatchField != "" {
		matchValue = a.keyValue(join.KeyField, id, primary)
	}
	count, sum, err := a.st.Stats(ctx, join.Entity, join.MatchField, matchValue, join.SumField)
	if err != nil {
		return err
	}
	stats := domain.Document{join.CountAs: count}
	if join.SumField != "" {
		stats[join.SumAs] = sum
	}
	doc[join.TargetField] = stats
	return nil
}

func (a Aggregator) keyValue(keyField, id string, primary domain.Document) any {
	if keyField == "" || keyField == "id" {
		return id
	}
	return primary[keyField]
}

func matchesFilter(doc domain.Document, filter map[string]any) bool {
	for field, want := range filter {
		if domain.FieldString(doc[field]) != domain.FieldString(want) {
			return false
		}
	}
	return true
}
