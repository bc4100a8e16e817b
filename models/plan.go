package models

// PlanName is the closed set of subscription tiers.
type PlanName string

const (
	PlanBasic        PlanName = "Basic"
	PlanProfessional PlanName = "Professional"
	PlanEnterprise   PlanName = "Enterprise"
)

// Unlimited marks a count-based limit with no cap.
const Unlimited int64 = -1

// Resource is a countable, plan-limited resource type.
type Resource string

const (
	ResourceClients  Resource = "clients"
	ResourceBooks    Resource = "books"
	ResourceInvoices Resource = "invoices"
)

// Feature is a plan-gated boolean capability.
type Feature string

const (
	FeaturePaymentReminders   Feature = "paymentReminders"
	FeatureAIInsights         Feature = "aiInsights"
	FeatureWhatsappAutomation Feature = "whatsappAutomation"
	FeatureBulkEmail          Feature = "bulkEmail"
	FeatureAPIAccess          Feature = "apiAccess"
	FeatureMultiUser          Feature = "multiUser"
	FeatureAnalytics          Feature = "analytics"
	FeatureWhiteLabel         Feature = "whiteLabel"
)

// PlanLimits holds the numeric caps and feature flags of one tier.
// Invoice counting is per calendar month.
type PlanLimits struct {
	MaxClients          int64 `json:"maxClients"`
	MaxBooks            int64 `json:"maxBooks"`
	MaxInvoicesPerMonth int64 `json:"maxInvoicesPerMonth"`

	PaymentReminders   bool `json:"paymentReminders"`
	AIInsights         bool `json:"aiInsights"`
	WhatsappAutomation bool `json:"whatsappAutomation"`
	BulkEmail          bool `json:"bulkEmail"`
	APIAccess          bool `json:"apiAccess"`
	MultiUser          bool `json:"multiUser"`
	Analytics          bool `json:"analytics"`
	WhiteLabel         bool `json:"whiteLabel"`

	MonthlyPrice float64 `json:"monthlyPrice"`
}

// planTable is the authoritative plan configuration. Callers go through
// GetPlanLimits so an unknown name falls back to the most restrictive tier.
var planTable = map[PlanName]PlanLimits{
	PlanBasic: {
		MaxClients:          5,
		MaxBooks:            1,
		MaxInvoicesPerMonth: 20,
		MonthlyPrice:        0,
	},
	PlanProfessional: {
		MaxClients:          Unlimited,
		MaxBooks:            Unlimited,
		MaxInvoicesPerMonth: Unlimited,
		PaymentReminders:    true,
		AIInsights:          true,
		WhatsappAutomation:  true,
		BulkEmail:           true,
		MonthlyPrice:        299,
	},
	PlanEnterprise: {
		MaxClients:          Unlimited,
		MaxBooks:            Unlimited,
		MaxInvoicesPerMonth: Unlimited,
		PaymentReminders:    true,
		AIInsights:          true,
		WhatsappAutomation:  true,
		BulkEmail:           true,
		APIAccess:           true,
		MultiUser:           true,
		Analytics:           true,
		WhiteLabel:          true,
		MonthlyPrice:        999,
	},
}

// GetPlanLimits returns the limits for a plan, defaulting to Basic for
// unknown names.
func GetPlanLimits(plan PlanName) PlanLimits {
	if l, ok := planTable[plan]; ok {
		return l
	}
	return planTable[PlanBasic]
}

// AllPlans returns the plan table keyed by name for listing endpoints.
func AllPlans() map[PlanName]PlanLimits {
	out := make(map[PlanName]PlanLimits, len(planTable))
	for k, v := range planTable {
		out[k] = v
	}
	return out
}

// Limit returns the cap for one resource type.
func (l PlanLimits) Limit(resource Resource) int64 {
	switch resource {
	case ResourceClients:
		return l.MaxClients
	case ResourceBooks:
		return l.MaxBooks
	case ResourceInvoices:
		return l.MaxInvoicesPerMonth
	}
	return 0
}

// HasFeature reports whether the flag is enabled on this tier.
func (l PlanLimits) HasFeature(feature Feature) bool {
	switch feature {
	case FeaturePaymentReminders:
		return l.PaymentReminders
	case FeatureAIInsights:
		return l.AIInsights
	case FeatureWhatsappAutomation:
		return l.WhatsappAutomation
	case FeatureBulkEmail:
		return l.BulkEmail
	case FeatureAPIAccess:
		return l.APIAccess
	case FeatureMultiUser:
		return l.MultiUser
	case FeatureAnalytics:
		return l.Analytics
	case FeatureWhiteLabel:
		return l.WhiteLabel
	}
	return false
}

// Level orders plans for upgrade/downgrade checks: Basic(1) <
// Professional(2) < Enterprise(3). Unknown names rank lowest.
func (p PlanName) Level() int {
	switch p {
	case PlanBasic:
		return 1
	case PlanProfessional:
		return 2
	case PlanEnterprise:
		return 3
	}
	return 0
}

// IsValid reports whether the name is one of the known tiers.
func (p PlanName) IsValid() bool {
	_, ok := planTable[p]
	return ok
}
