package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"salesai-streams/domain"
	"salesai-streams/metrics"
)

// ViewReader fetches materialized view documents.
type ViewReader interface {
	Get(ctx context.Context, index, id string) (domain.Document, error)
}

// Dispatcher delivers one envelope. Delivery and storage are its concern;
// this package never retries a failed dispatch.
type Dispatcher interface {
	Dispatch(ctx context.Context, env Envelope) error
}

// Listener evaluates one rule against incoming trigger events.
type Listener struct {
	rule  Rule
	views ViewReader
	disp  Dispatcher
}

func NewListener(rule Rule, views ViewReader, disp Dispatcher) Listener {
	return Listener{rule: rule, views: views, disp: disp}
}

// Handle fetches the rule's view document for the event's entity, applies the
// predicate, and dispatches one envelope per recipient per recipient field.
// An absent view document means the view has not materialized yet; the rule
// does not fire and the event is not an error.
func (l Listener) Handle(ctx context.Context, ev domain.Event) error {
	doc, err := l.views.Get(ctx, l.rule.ViewIndex(), ev.EntityID)
	if err != nil {
		metrics.Notifications.WithLabelValues(l.rule.Name, "error").Inc()
		return fmt.Errorf("rule %s: %w", l.rule.Name, err)
	}
	if doc == nil {
		log.WithFields(log.Fields{"rule": l.rule.Name, "id": ev.EntityID}).Warn("view document not materialized, rule does not fire")
		metrics.Notifications.WithLabelValues(l.rule.Name, "missing_view").Inc()
		return nil
	}
	if l.rule.Predicate != nil && !l.rule.Predicate(doc) {
		log.WithFields(log.Fields{"rule": l.rule.Name, "id": ev.EntityID, "condition": l.rule.Condition}).Info("condition not met")
		metrics.Notifications.WithLabelValues(l.rule.Name, "predicate_failed").Inc()
		return nil
	}

	metadata := l.metadata(ev, doc)
	for _, field := range l.rule.RecipientFields {
		recipients := recipientsOf(doc, field)
		if len(recipients) == 0 {
			log.WithFields(log.Fields{"rule": l.rule.Name, "id": ev.EntityID, "field": field}).Warn("recipient field empty")
			continue
		}
		for _, to := range recipients {
			env := Envelope{
				ID:       uuid.NewString(),
				Types:    l.rule.Channels,
				IsStored: l.rule.IsStored,
				Template: l.rule.Template,
				Metadata: metadata,
				To:       to,
			}
			if err := l.disp.Dispatch(ctx, env); err != nil {
				log.WithError(err).WithFields(log.Fields{"rule": l.rule.Name, "id": ev.EntityID}).Error("dispatch failed")
				metrics.Notifications.WithLabelValues(l.rule.Name, "dispatch_error").Inc()
				continue
			}
			metrics.Notifications.WithLabelValues(l.rule.Name, "dispatched").Inc()
		}
	}
	return nil
}

// metadata carries the raw event fields, the action hints, and the full view
// document under dataSource.
func (l Listener) metadata(ev domain.Event, doc domain.Document) domain.Document {
	md := make(domain.Document, len(ev.Snapshot)+3)
	for k, v := range ev.Snapshot {
		md[k] = v
	}
	if l.rule.ActionDeepLink != "" {
		md["actionDeepLink"] = l.rule.ActionDeepLink
	}
	if l.rule.ActionText != "" {
		md["actionText"] = l.rule.ActionText
	}
	md["dataSource"] = doc
	return md
}

// recipientsOf reads a recipient field off the view document. Arrays fan out
// per element; a scalar or object is a single recipient.
func recipientsOf(doc domain.Document, field string) []any {
	switch v := doc[field].(type) {
	case nil:
		return nil
	case []any:
		return v
	case []domain.Document:
		out := make([]any, len(v))
		for i, d := range v {
			out[i] = d
		}
		return out
	default:
		return []any{v}
	}
}
