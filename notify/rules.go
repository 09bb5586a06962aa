package notify

import "salesai-streams/domain"

// rules is the static notification rule registry.
var rules = []Rule{
	{
		Name:         "lowStockAlert",
		TriggerTopic: "inventoryManagement.lowStockAlert.created",
		ViewName:     "lowStockAlertView",
		Predicate: func(doc domain.Document) bool {
			t, ok := doc.Int("alertType")
			return ok && (t == 0 || t == 1)
		},
		Condition:       "alertType == 0 || alertType == 1",
		RecipientFields: []string{"storeSellers", "storeManagers"},
		Channels:        []string{"push"},
		Template:        "lowStockAlertPush",
		IsStored:        true,
		ActionDeepLink:  "/inventory/alerts/{id}",
		ActionText:      "View Alert Details",
	},
	{
		Name:         "storeOverrideGranted",
		TriggerTopic: "storeManagement.storeAssignment.updated",
		ViewName:     "storeOverrideGrantedView",
		Predicate: func(doc domain.Document) bool {
			at, ok1 := doc.Int("assignmentType")
			st, ok2 := doc.Int("status")
			return ok1 && ok2 && at == 1 && st == 0
		},
		Condition:       "assignmentType == 1 && status == 0",
		RecipientFields: []string{"userInfo"},
		Channels:        []string{"email"},
		Template:        "storeOverrideGrantedEmail",
		IsStored:        true,
		ActionDeepLink:  "/stores/assignments/{id}",
		ActionText:      "Review Override",
	},
	{
		Name:            "accountRegistrationConfirmation",
		TriggerTopic:    "storeManagement.storeAssignment.created",
		ViewName:        "accountRegistrationConfirmationView",
		RecipientFields: []string{"userInfo"},
		Channels:        []string{"email"},
		Template:        "accountRegistrationConfirmationEmail",
		IsStored:        true,
	},
	{
		Name:         "transactionCorrectionAudit",
		TriggerTopic: "salesManagement.saleTransactionHistory.created",
		ViewName:     "saleTransactionCorrectionAuditView",
		Predicate: func(doc domain.Document) bool {
			t, ok := doc.Int("changeType")
			return ok && (t == 0 || t == 1)
		},
		Condition:       "changeType == 0 || changeType == 1",
		RecipientFields: []string{"sellerInfo"},
		Channels:        []string{"email"},
		Template:        "transactionCorrectionAuditEmail",
		IsStored:        true,
	},
	{
		Name:            "reportReadyForDownload",
		TriggerTopic:    "reporting.reportFile.created",
		ViewName:        "reportReadyForDownloadView",
		RecipientFields: []string{"requestingUser"},
		Channels:        []string{"email"},
		Template:        "reportReadyForDownloadEmail",
		IsStored:        true,
	},
	{
		Name:         "systemHealthIncident",
		TriggerTopic: "observability.anomalyEvent.created",
		ViewName:     "systemHealthIncidentView",
		Predicate: func(doc domain.Document) bool {
			kind := doc.String("anomalyType")
			sev, ok := doc.Int("severity")
			return ok && (kind == "systemFailure" || kind == "healthIncident") && (sev == 2 || sev == 3)
		},
		Condition:       `(anomalyType == "systemFailure" || anomalyType == "healthIncident") && (severity == 2 || severity == 3)`,
		RecipientFields: []string{"reviewedByUser"},
		Channels:        []string{"push"},
		Template:        "systemHealthIncidentPush",
		IsStored:        true,
	},
	{
		Name:            "adminCICDStatus",
		TriggerTopic:    "platformAdmin.cicdJob.statusChanged",
		ViewName:        "ciCdJobStatusNotificationView",
		RecipientFields: []string{"triggeredByUser"},
		Channels:        []string{"email"},
		Template:        "adminCICDStatusEmail",
		IsStored:        true,
	},
}

// Rules returns every registered notification rule.
func Rules() []Rule { return rules }
