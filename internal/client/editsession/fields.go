package editsession

import (
	"context"

	"spaces/internal/engine/spaces"
	"spaces/internal/pkg/validator"
)

// SpaceMutator is the part of the API client that changes space settings.
type SpaceMutator interface {
	SetName(ctx context.Context, org, space, name string) error
	SetDescription(ctx context.Context, org, space, description string) error
	SetColor(ctx context.Context, org, space, color string) error
	SetType(ctx context.Context, org, space, spaceType string) error
}

// Editable space setting fields.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldColor       = "color"
	FieldType        = "type"
)

// SpaceField returns the editable field name of a space, validated with the
// same rules the server applies. ok is false for unknown fields.
func SpaceField(m SpaceMutator, org, space, name string) (Field, bool) {
	switch name {
	case FieldName:
		return Field{
			Name: name,
			Validate: func(v string) error {
				return validator.Check(spaces.SetNameInput{SpaceShortcode: space, SpaceName: v})
			},
			Commit: func(ctx context.Context, v string) error { return m.SetName(ctx, org, space, v) },
		}, true
	case FieldDescription:
		return Field{
			Name: name,
			Validate: func(v string) error {
				return validator.Check(spaces.SetDescriptionInput{SpaceShortcode: space, SpaceDescription: v})
			},
			Commit: func(ctx context.Context, v string) error { return m.SetDescription(ctx, org, space, v) },
		}, true
	case FieldColor:
		return Field{
			Name: name,
			Validate: func(v string) error {
				return validator.Check(spaces.SetColorInput{SpaceShortcode: space, SpaceColor: v})
			},
			Commit: func(ctx context.Context, v string) error { return m.SetColor(ctx, org, space, v) },
		}, true
	case FieldType:
		return Field{
			Name: name,
			Validate: func(v string) error {
				return validator.Check(spaces.SetTypeInput{SpaceShortcode: space, SpaceType: v})
			},
			Commit: func(ctx context.Context, v string) error { return m.SetType(ctx, org, space, v) },
		}, true
	}
	return Field{}, false
}

// CurrentValue reads the field's value out of a settings snapshot.
func CurrentValue(settings *spaces.Settings, name string) string {
	if settings == nil {
		return ""
	}
	switch name {
	case FieldName:
		return settings.Name
	case FieldDescription:
		if settings.Description != nil {
			return *settings.Description
		}
	case FieldColor:
		return settings.Color
	case FieldType:
		return settings.Type
	}
	return ""
}
