package view

import (
	"sort"

	"salesai-streams/domain"
)

var allVerbs = []string{domain.VerbCreated, domain.VerbUpdated, domain.VerbDeleted}

// definitions is the static view registry. Adding a view or a dependency is
// an addition here; nothing else needs to change.
var definitions = []Definition{
	{
		Name:          "salesDashboardView",
		PrimaryEntity: "saleTransaction",
		PrimaryVerbs:  allVerbs,
		PrimaryFields: []string{"id", "transactionDate", "amount", "currency", "status", "sellerId", "storeId"},
		Objects: []ObjectJoin{
			{TargetField: "storeInfo", Entity: "store", KeyField: "storeId"},
			{TargetField: "sellerInfo", Entity: "user", KeyField: "sellerId"},
		},
		Stats: []StatsJoin{
			{TargetField: "saleTransaction", Entity: "saleTransaction", CountAs: "totalSalesCount", SumField: "amount", SumAs: "totalSalesAmount"},
		},
		Dependencies: []Dependency{
			{EntityName: "store", Verbs: allVerbs, Relation: Relation{ViewField: "storeId", SecondaryField: "id"}},
			{EntityName: "user", Verbs: allVerbs, Relation: Relation{ViewField: "sellerId", SecondaryField: "id"}},
		},
	},
	{
		Name:          "inventoryDashboardView",
		PrimaryEntity: "inventoryItem",
		PrimaryVerbs:  allVerbs,
		PrimaryFields: []string{"id", "storeId", "productId", "quantity", "status", "lowStockThreshold"},
		Objects: []ObjectJoin{
			{TargetField: "storeInfo", Entity: "store", KeyField: "storeId", Required: true},
		},
		Collections: []CollectionJoin{
			{TargetField: "lowStockAlerts", Entity: "lowStockAlert", MatchField: "inventoryItemId", KeyField: "id"},
		},
		Stats: []StatsJoin{
			{TargetField: "inventoryItem", Entity: "inventoryItem", CountAs: "totalProducts"},
		},
		Dependencies: []Dependency{
			{EntityName: "store", Verbs: allVerbs, Relation: Relation{ViewField: "storeId", SecondaryField: "id"}},
			{EntityName: "lowStockAlert", Verbs: allVerbs, Relation: Relation{ViewField: "id", SecondaryField: "inventoryItemId"}},
		},
	},
	{
		Name:          "lowStockAlertView",
		PrimaryEntity: "lowStockAlert",
		PrimaryVerbs:  allVerbs,
		PrimaryFields: []string{"id", "inventoryItemId", "storeId", "alertType", "alertTimestamp", "resolved", "resolvedByUserId", "resolvedTimestamp"},
		Objects: []ObjectJoin{
			{TargetField: "inventoryItem", Entity: "inventoryItem", KeyField: "inventoryItemId"},
			{TargetField: "storeInfo", Entity: "store", KeyField: "storeId"},
		},
		Collections: []CollectionJoin{
			{TargetField: "storeSellers", Entity: "storeAssignment", MatchField: "storeId", KeyField: "storeId", Filter: map[string]any{"role": "seller"}},
			{TargetField: "storeManagers", Entity: "storeAssignment", MatchField: "storeId", KeyField: "storeId", Filter: map[string]any{"role": "manager"}},
		},
		Dependencies: []Dependency{
			{EntityName: "inventoryItem", Verbs: allVerbs, Relation: Relation{ViewField: "inventoryItemId", SecondaryField: "id"}},
			{EntityName: "store", Verbs: allVerbs, Relation: Relation{ViewField: "storeId", SecondaryField: "id"}},
			{EntityName: "storeAssignment", Verbs: allVerbs, Relation: Relation{ViewField: "storeId", SecondaryField: "storeId"}},
		},
	},
	{
		Name:          "storeOverrideGrantedView",
		PrimaryEntity: "storeAssignment",
		PrimaryVerbs:  allVerbs,
		Objects: []ObjectJoin{
			{TargetField: "userInfo", Entity: "user", KeyField: "userId"},
			{TargetField: "storeInfo", Entity: "store", KeyField: "storeId"},
		},
		Dependencies: []Dependency{
			{EntityName: "user", Verbs: allVerbs, Relation: Relation{ViewField: "userId", SecondaryField: "id"}},
			{EntityName: "store", Verbs: allVerbs, Relation: Relation{ViewField: "storeId", SecondaryField: "id"}},
		},
	},
	{
		Name:          "accountRegistrationConfirmationView",
		PrimaryEntity: "storeAssignment",
		PrimaryVerbs:  allVerbs,
		Objects: []ObjectJoin{
			{TargetField: "userInfo", Entity: "user", KeyField: "userId"},
			{TargetField: "storeInfo", Entity: "store", KeyField: "storeId"},
		},
		Dependencies: []Dependency{
			{EntityName: "user", Verbs: allVerbs, Relation: Relation{ViewField: "userId", SecondaryField: "id"}},
			{EntityName: "store", Verbs: allVerbs, Relation: Relation{ViewField: "storeId", SecondaryField: "id"}},
		},
	},
	{
		Name:          "saleTransactionCorrectionAuditView",
		PrimaryEntity: "saleTransactionHistory",
		PrimaryVerbs:  allVerbs,
		Objects: []ObjectJoin{
			{TargetField: "sellerInfo", Entity: "user", KeyField: "sellerId"},
			{TargetField: "saleTransaction", Entity: "saleTransaction", KeyField: "saleTransactionId"},
		},
		Dependencies: []Dependency{
			{EntityName: "user", Verbs: allVerbs, Relation: Relation{ViewField: "sellerId", SecondaryField: "id"}},
			{EntityName: "saleTransaction", Verbs: allVerbs, Relation: Relation{ViewField: "saleTransactionId", SecondaryField: "id"}},
		},
	},
	{
		Name:          "reportReadyForDownloadView",
		PrimaryEntity: "reportFile",
		PrimaryVerbs:  allVerbs,
		Objects: []ObjectJoin{
			{TargetField: "requestingUser", Entity: "user", KeyField: "requestedByUserId"},
		},
		Dependencies: []Dependency{
			{EntityName: "user", Verbs: allVerbs, Relation: Relation{ViewField: "requestedByUserId", SecondaryField: "id"}},
		},
	},
	{
		Name:          "systemHealthIncidentView",
		PrimaryEntity: "anomalyEvent",
		PrimaryVerbs:  allVerbs,
		Objects: []ObjectJoin{
			{TargetField: "reviewedByUser", Entity: "user", KeyField: "reviewedByUserId"},
		},
		Dependencies: []Dependency{
			{EntityName: "user", Verbs: allVerbs, Relation: Relation{ViewField: "reviewedByUserId", SecondaryField: "id"}},
		},
	},
	{
		Name:          "ciCdJobStatusNotificationView",
		PrimaryEntity: "cicdJob",
		PrimaryVerbs:  []string{domain.VerbCreated, domain.VerbUpdated, domain.VerbStatusChanged, domain.VerbDeleted},
		Objects: []ObjectJoin{
			{TargetField: "triggeredByUser", Entity: "user", KeyField: "triggeredByUserId"},
		},
		Dependencies: []Dependency{
			{EntityName: "user", Verbs: allVerbs, Relation: Relation{ViewField: "triggeredByUserId", SecondaryField: "id"}},
		},
	},
	{
		Name:          "auditLogView",
		PrimaryEntity: "auditLog",
		PrimaryVerbs:  allVerbs,
		Objects: []ObjectJoin{
			{TargetField: "userInfo", Entity: "user", KeyField: "userId"},
		},
		Dependencies: []Dependency{
			{EntityName: "user", Verbs: allVerbs, Relation: Relation{ViewField: "userId", SecondaryField: "id"}},
		},
	},
	{
		Name:          "crossStoreComparisonView",
		PrimaryEntity: "store",
		PrimaryVerbs:  allVerbs,
		Stats: []StatsJoin{
			{TargetField: "sales", Entity: "saleTransaction", MatchField: "storeId", KeyField: "id", CountAs: "salesCount", SumField: "amount", SumAs: "totalAmount"},
		},
		Dependencies: []Dependency{
			{EntityName: "saleTransaction", Verbs: allVerbs, Relation: Relation{ViewField: "id", SecondaryField: "storeId"}},
		},
	},
}

// Definitions returns every registered view.
func Definitions() []Definition { return definitions }

// DefinitionsForEntity returns the views that must re-aggregate when the
// given entity changes with the given verb, either as their primary entity or
// through a declared dependency.
func DefinitionsForEntity(entityName, verb string) []Definition {
	var out []Definition
	for _, def := range definitions {
		if def.PrimaryEntity == entityName && hasVerb(def.PrimaryVerbs, verb) {
			out = append(out, def)
			continue
		}
		for _, dep := range def.Dependencies {
			if dep.EntityName == entityName && hasVerb(dep.Verbs, verb) {
				out = append(out, def)
				break
			}
		}
	}
	return out
}

// IndexedFields derives, per store index, the fields the registry's reverse
// lookups and collection joins query by. The store maintains secondary
// indexes for exactly these.
func IndexedFields(defs []Definition) map[string][]string {
	seen := map[string]map[string]bool{}
	add := func(index, field string) {
		if field == "" || field == "id" {
			return
		}
		if seen[index] == nil {
			seen[index] = map[string]bool{}
		}
		seen[index][field] = true
	}
	for _, def := range defs {
		for _, dep := range def.Dependencies {
			add(def.Index(), dep.Relation.ViewField)
		}
		for _, join := range def.Collections {
			add(join.Entity, join.MatchField)
		}
		for _, join := range def.Stats {
			add(join.Entity, join.MatchField)
		}
	}
	out := make(map[string][]string, len(seen))
	for index, fields := range seen {
		for field := range fields {
			out[index] = append(out[index], field)
		}
		sort.Strings(out[index])
	}
	return out
}

func hasVerb(verbs []string, verb string) bool {
	for _, v := range verbs {
		if v == verb {
			return true
		}
	}
	return false
}
