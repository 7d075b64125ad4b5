package validator

import (
	"strings"
	"testing"
)

type sample struct {
	Name  string  `json:"name" validate:"required,min=1,max=64"`
	Color string  `json:"color" validate:"required,uicolor"`
	Blurb *string `json:"blurb" validate:"omitempty,max=8"`
}

func TestCheck(t *testing.T) {
	long := strings.Repeat("x", 65)
	blurb := "too long for this"

	tests := []struct {
		name       string
		input      sample
		wantFields []string
	}{
		{"valid", sample{Name: "Engineering", Color: "cyan"}, nil},
		{"empty name", sample{Name: "", Color: "cyan"}, []string{"name"}},
		{"long name", sample{Name: long, Color: "cyan"}, []string{"name"}},
		{"unknown color", sample{Name: "Eng", Color: "mauve"}, []string{"color"}},
		{"several", sample{Name: "", Color: "mauve", Blurb: &blurb}, []string{"blurb", "color", "name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.input)
			if tt.wantFields == nil {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}

			fe, ok := AsFieldErrors(err)
			if !ok {
				t.Fatalf("Expected FieldErrors, got %v", err)
			}
			if len(fe) != len(tt.wantFields) {
				t.Fatalf("Expected %d field errors, got %v", len(tt.wantFields), fe)
			}
			for i, field := range tt.wantFields {
				if fe[i].Field != field {
					t.Errorf("Expected field %s at %d, got %s", field, i, fe[i].Field)
				}
				if fe[i].Err == "" {
					t.Errorf("Expected a message for %s", field)
				}
			}
		})
	}
}

func TestCheck_PaletteMessage(t *testing.T) {
	err := Check(sample{Name: "Eng", Color: "mauve"})
	fe, _ := AsFieldErrors(err)
	if got := fe.Fields()["color"]; got != "color must be one of the palette colors" {
		t.Errorf("Unexpected palette message %q", got)
	}
}

func TestIsUIColor(t *testing.T) {
	if len(UIColors) != 20 {
		t.Errorf("Expected 20 palette colors, got %d", len(UIColors))
	}
	if !IsUIColor("grass") || IsUIColor("Grass") {
		t.Error("Expected palette matching to be exact")
	}
}
