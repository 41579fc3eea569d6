// -----------------------------------------------------------------------
// Research Input - Validated request shape for creating a research job
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ResearchInput is the request that creates a research job.
// All fields except Address are optional.
type ResearchInput struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	APN     string `json:"apn,omitempty"`

	Strategy string `json:"strategy,omitempty" validate:"omitempty,oneof=flip rental wholesale"`
	Mode     string `json:"mode,omitempty" validate:"omitempty,oneof=pipeline orchestrated"`

	Assumptions map[string]interface{} `json:"assumptions,omitempty"`
	Limits      *JobLimits             `json:"limits,omitempty"`
}

// Validate validates the input using go-playground/validator.
func (i *ResearchInput) Validate() error {
	validate := validator.New()
	return validate.Struct(i)
}

// ApplyDefaults fills unset fields with stock values
func (i *ResearchInput) ApplyDefaults() {
	if i.Strategy == "" {
		i.Strategy = string(StrategyWholesale)
	}
	if i.Mode == "" {
		i.Mode = string(ExecutionModePipeline)
	}
	if i.Assumptions == nil {
		i.Assumptions = make(map[string]interface{})
	}
	if i.Limits == nil {
		limits := DefaultJobLimits()
		i.Limits = &limits
	}
	// Mode rides inside limits so the job snapshot is self-contained
	i.Limits.ExecutionMode = i.Mode
	if i.Limits.MaxSteps <= 0 {
		i.Limits.MaxSteps = 9
	}
	if i.Limits.MaxWebCalls <= 0 {
		i.Limits.MaxWebCalls = 30
	}
	if i.Limits.TimeoutSecondsPerStep <= 0 {
		i.Limits.TimeoutSecondsPerStep = 20
	}
	if i.Limits.MaxParallelAgents <= 0 {
		i.Limits.MaxParallelAgents = 1
	}
}

// Assumptions is the closed, typed view of the free-form assumptions map.
// Unrecognized keys are surfaced as warnings at job creation rather than
// silently dropped. Nil pointer fields mean "not provided".
type Assumptions struct {
	RequireEnrichedData bool `json:"require_enriched_data"`
	EnrichedMaxAgeHours *int `json:"enriched_max_age_hours" validate:"omitempty,gt=0"`

	RehabTier string `json:"rehab_tier"` // invalid values coerce to medium downstream

	ClosingCost                *float64 `json:"closing_cost" validate:"omitempty,gte=0"`
	HoldingCost                *float64 `json:"holding_cost" validate:"omitempty,gte=0"`
	AssignmentFee              *float64 `json:"assignment_fee" validate:"omitempty,gte=0"`
	MiscFee                    *float64 `json:"misc_fee" validate:"omitempty,gte=0"`
	TargetMargin               *float64 `json:"target_margin" validate:"omitempty,gt=0,lt=1"`
	ValuationConflictThreshold *float64 `json:"valuation_conflict_threshold" validate:"omitempty,gt=0"`

	SalesRadiusMi          *float64 `json:"sales_radius_mi" validate:"omitempty,gt=0"`
	RentalRadiusMi         *float64 `json:"rental_radius_mi" validate:"omitempty,gt=0"`
	SalesFallbackRadiusMi  *float64 `json:"sales_fallback_radius_mi" validate:"omitempty,gt=0"`
	RentalFallbackRadiusMi *float64 `json:"rental_fallback_radius_mi" validate:"omitempty,gt=0"`
	MinSalesComps          *int     `json:"min_sales_comps" validate:"omitempty,gte=1"`
	MinRentalComps         *int     `json:"min_rental_comps" validate:"omitempty,gte=1"`

	ExtraAgents     []string `json:"extra_agents" validate:"omitempty,dive,oneof=subdivision_research extensive"`
	SubdivisionGoal string   `json:"subdivision_goal"`
}

// Validate validates the typed assumptions using go-playground/validator.
func (a *Assumptions) Validate() error {
	validate := validator.New()
	return validate.Struct(a)
}

// assumptionKeys enumerates every recognized assumptions map key
var assumptionKeys = map[string]bool{
	"require_enriched_data":        true,
	"enriched_max_age_hours":       true,
	"rehab_tier":                   true,
	"closing_cost":                 true,
	"holding_cost":                 true,
	"assignment_fee":               true,
	"misc_fee":                     true,
	"target_margin":                true,
	"valuation_conflict_threshold": true,
	"sales_radius_mi":              true,
	"rental_radius_mi":             true,
	"sales_fallback_radius_mi":     true,
	"rental_fallback_radius_mi":    true,
	"min_sales_comps":              true,
	"min_rental_comps":             true,
	"extra_agents":                 true,
	"subdivision_goal":             true,
}

// ParseAssumptions converts the free-form map into the typed record.
// Returns the record, a warning per unrecognized key, and an error when a
// recognized key carries a malformed value.
func ParseAssumptions(raw map[string]interface{}) (*Assumptions, []string, error) {
	a := &Assumptions{}
	var warnings []string

	if raw == nil {
		return a, nil, nil
	}

	for key := range raw {
		if !assumptionKeys[key] {
			warnings = append(warnings, fmt.Sprintf("unrecognized assumption key: %s", key))
		}
	}

	if v, ok := mapBool(raw, "require_enriched_data"); ok {
		a.RequireEnrichedData = v
	}
	if v, ok := mapInt(raw, "enriched_max_age_hours"); ok {
		a.EnrichedMaxAgeHours = &v
	}
	if v, ok := mapString(raw, "rehab_tier"); ok {
		a.RehabTier = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := mapFloat(raw, "closing_cost"); ok {
		a.ClosingCost = &v
	}
	if v, ok := mapFloat(raw, "holding_cost"); ok {
		a.HoldingCost = &v
	}
	if v, ok := mapFloat(raw, "assignment_fee"); ok {
		a.AssignmentFee = &v
	}
	if v, ok := mapFloat(raw, "misc_fee"); ok {
		a.MiscFee = &v
	}
	if v, ok := mapFloat(raw, "target_margin"); ok {
		a.TargetMargin = &v
	}
	if v, ok := mapFloat(raw, "valuation_conflict_threshold"); ok {
		a.ValuationConflictThreshold = &v
	}
	if v, ok := mapFloat(raw, "sales_radius_mi"); ok {
		a.SalesRadiusMi = &v
	}
	if v, ok := mapFloat(raw, "rental_radius_mi"); ok {
		a.RentalRadiusMi = &v
	}
	if v, ok := mapFloat(raw, "sales_fallback_radius_mi"); ok {
		a.SalesFallbackRadiusMi = &v
	}
	if v, ok := mapFloat(raw, "rental_fallback_radius_mi"); ok {
		a.RentalFallbackRadiusMi = &v
	}
	if v, ok := mapInt(raw, "min_sales_comps"); ok {
		a.MinSalesComps = &v
	}
	if v, ok := mapInt(raw, "min_rental_comps"); ok {
		a.MinRentalComps = &v
	}
	if v, ok := mapStringSlice(raw, "extra_agents"); ok {
		a.ExtraAgents = v
	}
	if v, ok := mapString(raw, "subdivision_goal"); ok {
		a.SubdivisionGoal = v
	}

	if err := a.Validate(); err != nil {
		return nil, warnings, fmt.Errorf("invalid assumptions: %w", err)
	}

	return a, warnings, nil
}

// Map accessors tolerate JSON decoding quirks (numbers arrive as float64)

func mapString(m map[string]interface{}, key string) (string, bool) {
	val, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}

func mapBool(m map[string]interface{}, key string) (bool, bool) {
	val, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

func mapInt(m map[string]interface{}, key string) (int, bool) {
	val, ok := m[key]
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func mapFloat(m map[string]interface{}, key string) (float64, bool) {
	val, ok := m[key]
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func mapStringSlice(m map[string]interface{}, key string) ([]string, bool) {
	val, ok := m[key]
	if !ok {
		return nil, false
	}
	switch v := val.(type) {
	case []string:
		return v, true
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			result = append(result, s)
		}
		return result, true
	default:
		return nil, false
	}
}
