package view

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Repairer rebuilds entire views from their primary entity index. It covers
// the gaps the event path can leave behind: dropped updates, a view added
// after its entities already existed, or a wiped view index.
type Repairer struct {
	st  Store
	agg Aggregator
}

func NewRepairer(st Store, agg Aggregator) Repairer {
	return Repairer{st: st, agg: agg}
}

// RepairView rebuilds every document of one view.
func (r Repairer) RepairView(ctx context.Context, def Definition) error {
	log.WithField("view", def.Name).Info("repair started")
	ids, err := r.st.List(ctx, def.PrimaryEntity)
	if err != nil {
		return fmt.Errorf("repair %s: %w", def.Name, err)
	}
	var failed int
	for _, id := range ids {
		if err := r.agg.Rebuild(ctx, def, id, false); err != nil {
			failed++
			log.WithError(err).WithFields(log.Fields{"view": def.Name, "id": id}).Error("repair rebuild failed")
		}
	}
	log.WithFields(log.Fields{"view": def.Name, "total": len(ids), "failed": failed}).Info("repair finished")
	if failed > 0 {
		return fmt.Errorf("repair %s: %d of %d rebuilds failed", def.Name, failed, len(ids))
	}
	return nil
}

// RepairAll rebuilds every registered view, continuing past per-view
// failures.
func (r Repairer) RepairAll(ctx context.Context, defs []Definition) error {
	var firstErr error
	for _, def := range defs {
		if err := r.RepairView(ctx, def); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
