package models

const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

const (
	OrgRoleOwner  = "owner"
	OrgRoleAdmin  = "admin"
	OrgRoleMember = "member"
)

type Organization struct {
	ID        string `json:"id"`
	Shortcode string `json:"shortcode"`
	Name      string `json:"name"`
	PlanTier  string `json:"planTier"`
	CreatedAt int64  `json:"createdAt"`
}

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"createdAt"`
}

// OrgMember is a user's membership of an organization. A member with a
// non-nil RemovedAt or a status other than "active" has no access.
type OrgMember struct {
	ID            string  `json:"id"`
	OrgID         string  `json:"orgId"`
	UserID        string  `json:"userId"`
	UserProfileID *string `json:"userProfileId,omitempty"`
	Role          string  `json:"role"`
	Status        string  `json:"status"`
	AddedAt       int64   `json:"addedAt"`
	RemovedAt     *int64  `json:"removedAt,omitempty"`
}

type Team struct {
	ID              string  `json:"id"`
	OrgID           string  `json:"orgId"`
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	Color           *string `json:"color"`
	AvatarTimestamp *int64  `json:"avatarTimestamp"`
	CreatedAt       int64   `json:"createdAt"`
}
