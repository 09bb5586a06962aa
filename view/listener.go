package view

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"salesai-streams/domain"
	"salesai-streams/metrics"
)

// Listener re-aggregates one view in response to one entity's change events.
// A nil dep means the listener covers the view's primary entity.
type Listener struct {
	def Definition
	dep *Dependency
	agg Aggregator
	st  Store
}

func NewPrimaryListener(def Definition, agg Aggregator, st Store) Listener {
	return Listener{def: def, agg: agg, st: st}
}

func NewDependencyListener(def Definition, dep Dependency, agg Aggregator, st Store) Listener {
	return Listener{def: def, dep: &dep, agg: agg, st: st}
}

// Group returns the listener's consumer group name.
func (l Listener) Group() string {
	if l.dep == nil {
		return l.def.PrimaryGroup()
	}
	return l.def.DependencyGroup(*l.dep)
}

// Handle resolves the view ids affected by ev and rebuilds each. Rebuild
// failures for one id do not stop the remaining ids.
func (l Listener) Handle(ctx context.Context, ev domain.Event) error {
	ids, tombstone, err := l.affectedIDs(ctx, ev)
	if err != nil {
		metrics.Rebuilds.WithLabelValues(l.def.Name, "error").Inc()
		return err
	}
	var firstErr error
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := l.agg.Rebuild(ctx, l.def, id, tombstone); err != nil {
			metrics.Rebuilds.WithLabelValues(l.def.Name, "error").Inc()
			log.WithError(err).WithFields(log.Fields{"view": l.def.Name, "id": id, "topic": ev.Topic}).Error("rebuild failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		outcome := "rebuilt"
		if tombstone {
			outcome = "deleted"
		}
		metrics.Rebuilds.WithLabelValues(l.def.Name, outcome).Inc()
	}
	return firstErr
}

// affectedIDs maps the changed entity onto view ids. Primary events affect
// exactly their own id. Secondary events either name the view id directly in
// a snapshot field, or require a reverse lookup against the view index for
// documents whose foreign key matches.
func (l Listener) affectedIDs(ctx context.Context, ev domain.Event) ([]string, bool, error) {
	if l.dep == nil {
		return []string{ev.EntityID}, ev.IsDelete(), nil
	}
	rel := l.dep.Relation
	secondaryField := rel.SecondaryField
	if secondaryField == "" {
		secondaryField = "id"
	}
	value := domain.FieldString(ev.Snapshot[secondaryField])
	if value == "" {
		return nil, false, fmt.Errorf("%s event %s has no %s", ev.EntityName, ev.EntityID, secondaryField)
	}
	if rel.ViewField == "id" {
		return []string{value}, false, nil
	}
	ids, err := l.st.FindByField(ctx, l.def.Index(), rel.ViewField, value)
	if err != nil {
		return nil, false, err
	}
	return ids, false, nil
}
