package profiles

import "errors"

var (
	// ErrNotCreated means the insert reported no new row.
	ErrNotCreated = errors.New("profile was not created")
	// ErrNotFound means no profile with that id belongs to the caller.
	ErrNotFound    = errors.New("profile not found")
	ErrHandleTaken = errors.New("handle is already taken")
)

type Profile struct {
	PublicID  string  `json:"publicId"`
	AvatarID  *string `json:"avatarId"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Handle    string  `json:"handle"`
	Title     *string `json:"title"`
	Blurb     *string `json:"blurb"`
}

type CreateInput struct {
	FirstName      string  `json:"fName" validate:"max=64"`
	LastName       string  `json:"lName" validate:"max=64"`
	ImageID        *string `json:"imageId" validate:"omitempty,uuid"`
	Handle         string  `json:"handle" validate:"required,min=2,max=20"`
	DefaultProfile bool    `json:"defaultProfile"`
}

type CreateResult struct {
	ProfileID string  `json:"profileId"`
	AvatarID  *string `json:"avatarId"`
}

type UpdateInput struct {
	ProfilePublicID string  `json:"profilePublicId" validate:"required,min=3,max=64"`
	FirstName       string  `json:"fName" validate:"max=64"`
	LastName        string  `json:"lName" validate:"max=64"`
	Title           string  `json:"title" validate:"max=64"`
	Blurb           string  `json:"blurb" validate:"max=256"`
	ImageID         *string `json:"imageId" validate:"omitempty,uuid"`
	Handle          string  `json:"handle" validate:"required,min=2,max=20"`
}
