// Package entitlements gates plan-dependent features of an organization.
package entitlements

import "spaces/internal/platform/models"

type SpaceEntitlements struct {
	Open    bool `json:"open"`
	Private bool `json:"private"`
}

// Entitlements lists what an organization's plan allows.
type Entitlements struct {
	Plan        string            `json:"plan"`
	Space       SpaceEntitlements `json:"space"`
	SpaceStatus bool              `json:"spaceStatus"`
}

type Checker struct{}

func NewChecker() *Checker {
	return &Checker{}
}

// For returns the entitlements of plan. Unknown plans get the free tier.
func (c *Checker) For(plan string) Entitlements {
	switch plan {
	case models.PlanPro, models.PlanEnterprise:
		return Entitlements{
			Plan:        plan,
			Space:       SpaceEntitlements{Open: true, Private: true},
			SpaceStatus: true,
		}
	default:
		return Entitlements{
			Plan:  models.PlanFree,
			Space: SpaceEntitlements{Open: true},
		}
	}
}

func (c *Checker) CanUsePrivateSpaces(plan string) bool {
	return c.For(plan).Space.Private
}

func (c *Checker) CanUseStatuses(plan string) bool {
	return c.For(plan).SpaceStatus
}
