// Package notify watches raw domain events, consults the materialized view
// for enrichment, and fans notification envelopes out to recipient groups.
package notify

import (
	"strings"

	"salesai-streams/domain"
)

// Rule binds a trigger topic, a view lookup, a predicate, and one or more
// recipient groups to a dispatch action.
type Rule struct {
	Name         string
	TriggerTopic string
	ViewName     string
	// Predicate gates firing on the fetched view document; nil always fires.
	Predicate func(domain.Document) bool
	// Condition is the human-readable predicate, logged on non-match.
	Condition string
	// RecipientFields name view-document fields holding recipient identities,
	// scalar or array. Each field is fanned out independently.
	RecipientFields []string
	Channels        []string
	Template        string
	IsStored        bool
	ActionDeepLink  string
	ActionText      string
}

// ViewIndex is the document-store index the rule reads its view from.
func (r Rule) ViewIndex() string { return strings.ToLower(r.ViewName) }

// Group returns the rule's dedicated consumer group.
func (r Rule) Group(namespace string) string {
	return namespace + "-notification-service-" + r.Name + "-group"
}
