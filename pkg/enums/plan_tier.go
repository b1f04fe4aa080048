package enums

import (
	"fmt"
	"strings"
)

// PlanTier identifies the paid launch plan attached to an order.
type PlanTier string

const (
	PlanTierFree     PlanTier = "free"
	PlanTierJoin     PlanTier = "join"
	PlanTierSkip     PlanTier = "skip"
	PlanTierRelaunch PlanTier = "relaunch"
)

var validPlanTiers = []PlanTier{
	PlanTierFree,
	PlanTierJoin,
	PlanTierSkip,
	PlanTierRelaunch,
}

// String implements fmt.Stringer.
func (p PlanTier) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlanTier.
func (p PlanTier) IsValid() bool {
	for _, candidate := range validPlanTiers {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlanTier converts raw input into a PlanTier.
func ParsePlanTier(value string) (PlanTier, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPlanTiers {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan tier %q", value)
}
