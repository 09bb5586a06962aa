// Package view materializes denormalized view documents from entity
// snapshots and keeps them converged as domain events arrive.
package view

import "strings"

// Relation maps a secondary entity's change onto affected view ids. The value
// read from SecondaryField on the changed snapshot is matched against
// ViewField on existing view documents; ViewField "id" short-circuits to a
// direct id, no store lookup needed.
type Relation struct {
	ViewField      string
	SecondaryField string
}

// Dependency declares that a view joins data from another entity and must be
// re-aggregated when that entity changes.
type Dependency struct {
	EntityName string
	Verbs      []string
	Relation   Relation
}

// ObjectJoin embeds a single related document under TargetField, located by a
// foreign key on the primary snapshot. A Required join whose source document
// is missing aborts the rebuild: the view is incomplete without it, and a
// later event for the missing entity triggers reconciliation.
type ObjectJoin struct {
	TargetField string
	Entity      string
	KeyField    string
	Required    bool
}

// CollectionJoin embeds every related document whose MatchField equals the
// primary's KeyField value ("id" for the view id itself), optionally narrowed
// by exact-match Filter fields.
type CollectionJoin struct {
	TargetField string
	Entity      string
	MatchField  string
	KeyField    string
	Filter      map[string]any
}

// StatsJoin embeds a {count, sum} rollup over an entity index. An empty
// MatchField rolls up the whole index.
type StatsJoin struct {
	TargetField string
	Entity      string
	MatchField  string
	KeyField    string
	CountAs     string
	SumField    string
	SumAs       string
}

// Definition is the static declaration of one materialized view.
type Definition struct {
	Name          string
	PrimaryEntity string
	PrimaryVerbs  []string
	PrimaryFields []string
	Objects       []ObjectJoin
	Collections   []CollectionJoin
	Stats         []StatsJoin
	Dependencies  []Dependency
}

// Index is the document-store index holding this view's documents.
func (d Definition) Index() string { return strings.ToLower(d.Name) }

// PrimaryGroup is the consumer group shared by the view's primary-entity
// listeners.
func (d Definition) PrimaryGroup() string { return d.Name }

// DependencyGroup is the consumer group for one secondary dependency. Each
// dependency gets its own group so a stall in one never blocks another.
func (d Definition) DependencyGroup(dep Dependency) string {
	return d.Name + "-" + dep.EntityName
}
