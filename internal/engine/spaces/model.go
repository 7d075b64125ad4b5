package spaces

import "errors"

const (
	TypeOpen    = "open"
	TypePrivate = "private"
)

const (
	BucketOpen   = "open"
	BucketActive = "active"
	BucketClosed = "closed"
)

const (
	RoleAdmin   = "admin"
	RoleMember  = "member"
	RoleWatcher = "watcher"
	RoleGuest   = "guest"
)

var (
	// ErrNotFoundOrForbidden means a mutation matched no row: the space or
	// status does not exist in the caller's organization, or the caller is
	// not an admin of the space.
	ErrNotFoundOrForbidden = errors.New("space not found or caller is not a space admin")
	ErrNotEntitled         = errors.New("organization plan does not include this feature")
	ErrShortcodeExhausted  = errors.New("failed to generate unique space shortcode")
	ErrOrderConflict       = errors.New("status order kept colliding with concurrent inserts")
)

// Caller is the organization member a procedure runs for.
type Caller struct {
	OrgID    string
	MemberID string
	PlanTier string
}

// SpaceRef is the projection of a related space (parent or sub-space).
type SpaceRef struct {
	PublicID        string  `json:"publicId"`
	Shortcode       string  `json:"shortcode"`
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	Color           string  `json:"color"`
	Icon            string  `json:"icon"`
	AvatarTimestamp *int64  `json:"avatarTimestamp"`
}

type Profile struct {
	PublicID        string  `json:"publicId"`
	AvatarTimestamp *int64  `json:"avatarTimestamp"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Handle          string  `json:"handle"`
	Title           *string `json:"title"`
	Blurb           *string `json:"blurb"`
}

type OrgMemberRef struct {
	PublicID string   `json:"publicId"`
	Profile  *Profile `json:"profile"`
}

type TeamRef struct {
	PublicID        string  `json:"publicId"`
	Name            string  `json:"name"`
	Color           *string `json:"color"`
	AvatarTimestamp *int64  `json:"avatarTimestamp"`
	Description     *string `json:"description"`
}

// Capabilities are independent flags; none implies another.
type Capabilities struct {
	CanCreate             bool `json:"canCreate"`
	CanRead               bool `json:"canRead"`
	CanComment            bool `json:"canComment"`
	CanReply              bool `json:"canReply"`
	CanDelete             bool `json:"canDelete"`
	CanChangeStatus       bool `json:"canChangeStatus"`
	CanSetStatusToClosed  bool `json:"canSetStatusToClosed"`
	CanAddTags            bool `json:"canAddTags"`
	CanMoveToAnotherSpace bool `json:"canMoveToAnotherSpace"`
	CanAddToAnotherSpace  bool `json:"canAddToAnotherSpace"`
	CanMergeConvos        bool `json:"canMergeConvos"`
	CanAddParticipants    bool `json:"canAddParticipants"`
}

func AllCapabilities() Capabilities {
	return Capabilities{true, true, true, true, true, true, true, true, true, true, true, true}
}

// Member is either an org member or a team; exactly one of OrgMember and
// Team is set.
type Member struct {
	PublicID  string `json:"publicId"`
	Role      string `json:"role"`
	AddedAt   int64  `json:"addedAt"`
	RemovedAt *int64 `json:"removedAt"`
	Capabilities
	OrgMember *OrgMemberRef `json:"orgMember"`
	Team      *TeamRef      `json:"team"`
}

type Status struct {
	PublicID    string  `json:"publicId"`
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Icon        string  `json:"icon"`
	Description *string `json:"description"`
	Disabled    bool    `json:"disabled"`
	Order       int     `json:"order"`
}

type Tag struct {
	PublicID             string  `json:"publicId"`
	Label                string  `json:"label"`
	Description          *string `json:"description"`
	Color                string  `json:"color"`
	CreatedByOrgMemberID string  `json:"createdByOrgMemberId"`
	CreatedAt            int64   `json:"createdAt"`
}

// Settings is the full settings snapshot of one space.
type Settings struct {
	PublicID                 string        `json:"publicId"`
	Shortcode                string        `json:"shortcode"`
	Name                     string        `json:"name"`
	Description              *string       `json:"description"`
	Type                     string        `json:"type"`
	AvatarTimestamp          *int64        `json:"avatarTimestamp"`
	ConvoPrefix              *string       `json:"convoPrefix"`
	InheritParentPermissions bool          `json:"inheritParentPermissions"`
	Color                    string        `json:"color"`
	Icon                     string        `json:"icon"`
	PersonalSpace            bool          `json:"personalSpace"`
	CreatedAt                int64         `json:"createdAt"`
	ParentSpace              *SpaceRef     `json:"parentSpace"`
	SubSpaces                []SpaceRef    `json:"subSpaces"`
	CreatedByOrgMember       *OrgMemberRef `json:"createdByOrgMember"`
	Members                  []Member      `json:"members"`
	Statuses                 []Status      `json:"statuses"`
	Tags                     []Tag         `json:"tags"`
}

// SettingsResult carries the snapshot and the caller's role in the space.
// Settings is nil when the space does not exist in the organization.
type SettingsResult struct {
	Settings *Settings `json:"settings"`
	Role     *string   `json:"role"`
}

// Statuses groups a space's statuses by bucket, each ordered by Order.
type Statuses struct {
	Open   []Status `json:"open"`
	Active []Status `json:"active"`
	Closed []Status `json:"closed"`
}

// MemberSpace is one entry of the caller's space switcher.
type MemberSpace struct {
	PublicID      string  `json:"publicId"`
	Shortcode     string  `json:"shortcode"`
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	Type          string  `json:"type"`
	Color         string  `json:"color"`
	Icon          string  `json:"icon"`
	PersonalSpace bool    `json:"personalSpace"`
	ParentID      *string `json:"parentSpacePublicId"`
	Role          *string `json:"role"`
}

type SettingsInput struct {
	SpaceShortcode string `json:"spaceShortcode" validate:"required,min=1,max=64"`
}

type SetNameInput struct {
	SpaceShortcode string `json:"spaceShortcode" validate:"required,min=1,max=64"`
	SpaceName      string `json:"spaceName" validate:"required,min=1,max=64"`
}

type SetDescriptionInput struct {
	SpaceShortcode   string `json:"spaceShortcode" validate:"required,min=1,max=64"`
	SpaceDescription string `json:"spaceDescription" validate:"required,min=1,max=64"`
}

type SetColorInput struct {
	SpaceShortcode string `json:"spaceShortcode" validate:"required,min=1,max=64"`
	SpaceColor     string `json:"spaceColor" validate:"required,uicolor"`
}

type SetTypeInput struct {
	SpaceShortcode string `json:"spaceShortcode" validate:"required,min=1,max=64"`
	SpaceType      string `json:"spaceType" validate:"required,oneof=open private"`
}

type CreateInput struct {
	SpaceName            string  `json:"spaceName" validate:"required,min=1,max=64"`
	SpaceDescription     *string `json:"spaceDescription" validate:"omitempty,max=64"`
	SpaceColor           string  `json:"spaceColor" validate:"required,uicolor"`
	SpaceType            string  `json:"spaceType" validate:"required,oneof=open private"`
	ParentSpaceShortcode *string `json:"parentSpaceShortcode" validate:"omitempty,min=1,max=64"`
}

type CreateResult struct {
	SpaceID        string `json:"spaceId"`
	SpaceShortcode string `json:"spaceShortcode"`
}

type AddStatusInput struct {
	SpaceShortcode string `json:"spaceShortcode" validate:"required,min=1,max=64"`
	Type           string `json:"type" validate:"required,oneof=open active closed"`
	Name           string `json:"name" validate:"required,min=1,max=32"`
	Description    string `json:"description" validate:"max=128"`
	Color          string `json:"color" validate:"required,uicolor"`
}

type AddStatusResult struct {
	StatusID string `json:"statusId"`
	Order    int    `json:"order"`
}

type EditStatusInput struct {
	SpaceShortcode string `json:"spaceShortcode" validate:"required,min=1,max=64"`
	StatusID       string `json:"spaceStatusPublicId" validate:"required,min=1,max=64"`
	Name           string `json:"name" validate:"required,min=1,max=32"`
	Description    string `json:"description" validate:"max=128"`
	Color          string `json:"color" validate:"required,uicolor"`
}
