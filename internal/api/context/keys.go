package context

import (
	"context"

	"spaces/internal/platform/auth"
)

type Key string

const (
	Claims Key = "claims"
	Org    Key = "org"
	Params Key = "params"
	Client Key = "client"
)

// OrgContext is the caller's resolved organization membership for an
// organization-scoped route.
type OrgContext struct {
	OrgID        string
	OrgShortcode string
	PlanTier     string
	MemberID     string
	Role         string
}

// ClientInfo describes where a request came from, for audit records.
type ClientInfo struct {
	IP        string
	UserAgent string
}

func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(Claims).(*auth.Claims)
	return claims, ok && claims != nil
}

func OrgFrom(ctx context.Context) (*OrgContext, bool) {
	org, ok := ctx.Value(Org).(*OrgContext)
	return org, ok && org != nil
}

func ClientFrom(ctx context.Context) ClientInfo {
	if info, ok := ctx.Value(Client).(ClientInfo); ok {
		return info
	}
	return ClientInfo{IP: "unknown", UserAgent: "unknown"}
}
