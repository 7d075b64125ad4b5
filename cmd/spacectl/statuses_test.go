package main

import (
	"testing"

	"spaces/internal/engine/spaces"
)

func TestStatusChanges_KeepsUnsetFields(t *testing.T) {
	desc := "Needs a first look"
	current := spaces.Status{PublicID: "sts_1", Type: spaces.BucketOpen, Name: "Triage", Color: "tomato", Description: &desc, Order: 1}

	renamed := "Inbox"
	purple := "purple"
	empty := ""

	tests := []struct {
		name    string
		changes statusChanges
		want    spaces.EditStatusInput
	}{
		{
			"rename only",
			statusChanges{Name: &renamed},
			spaces.EditStatusInput{SpaceShortcode: "eng", StatusID: "sts_1", Name: "Inbox", Description: desc, Color: "tomato"},
		},
		{
			"recolor only",
			statusChanges{Color: &purple},
			spaces.EditStatusInput{SpaceShortcode: "eng", StatusID: "sts_1", Name: "Triage", Description: desc, Color: "purple"},
		},
		{
			"clear description",
			statusChanges{Description: &empty},
			spaces.EditStatusInput{SpaceShortcode: "eng", StatusID: "sts_1", Name: "Triage", Description: "", Color: "tomato"},
		},
		{
			"nothing given",
			statusChanges{},
			spaces.EditStatusInput{SpaceShortcode: "eng", StatusID: "sts_1", Name: "Triage", Description: desc, Color: "tomato"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.changes.apply("eng", current)
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestFindStatus(t *testing.T) {
	grouped := spaces.GroupStatuses([]spaces.Status{
		{PublicID: "sts_1", Type: spaces.BucketOpen, Name: "Triage"},
		{PublicID: "sts_2", Type: spaces.BucketClosed, Name: "Done"},
	})

	st, ok := findStatus(grouped, "sts_2")
	if !ok || st.Name != "Done" {
		t.Errorf("Expected Done, got %+v (found=%v)", st, ok)
	}
	if _, ok := findStatus(grouped, "sts_9"); ok {
		t.Error("Expected unknown status to be missing")
	}
}
