package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"spaces/internal/engine/spaces"
)

func statusesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statuses <space>",
		Short: "List a space's statuses by bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := requireOrg()
			if err != nil {
				return err
			}
			grouped, err := api.Statuses(cmd.Context(), org, args[0])
			if err != nil {
				return err
			}
			for _, bucket := range []struct {
				name string
				list []spaces.Status
			}{
				{spaces.BucketOpen, grouped.Open},
				{spaces.BucketActive, grouped.Active},
				{spaces.BucketClosed, grouped.Closed},
			} {
				fmt.Printf("%s:\n", bucket.name)
				for _, st := range bucket.list {
					disabled := ""
					if st.Disabled {
						disabled = " (disabled)"
					}
					fmt.Printf("  %2d. %-32s %-8s %s%s\n", st.Order, st.Name, st.Color, st.PublicID, disabled)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(addStatusCmd(), editStatusCmd())
	return cmd
}

func addStatusCmd() *cobra.Command {
	var in spaces.AddStatusInput

	cmd := &cobra.Command{
		Use:   "add <space> <name>",
		Short: "Append a status to a bucket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := requireOrg()
			if err != nil {
				return err
			}
			in.SpaceShortcode, in.Name = args[0], args[1]

			res, err := api.AddStatus(cmd.Context(), org, args[0], in)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}

	cmd.Flags().StringVar(&in.Type, "type", spaces.BucketOpen, "bucket: open, active or closed")
	cmd.Flags().StringVar(&in.Color, "color", "blue", "status color")
	cmd.Flags().StringVar(&in.Description, "description", "", "status description")
	return cmd
}

func editStatusCmd() *cobra.Command {
	var name, description, color string

	cmd := &cobra.Command{
		Use:   "edit <space> <status-id> [name]",
		Short: "Rename or recolor a status; its bucket and order are kept",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := requireOrg()
			if err != nil {
				return err
			}
			space, statusID := args[0], args[1]

			grouped, err := api.Statuses(cmd.Context(), org, space)
			if err != nil {
				return err
			}
			current, ok := findStatus(grouped, statusID)
			if !ok {
				return fmt.Errorf("status %q not found in %s", statusID, space)
			}

			var changes statusChanges
			if len(args) == 3 {
				changes.Name = &args[2]
			} else if cmd.Flags().Changed("name") {
				changes.Name = &name
			}
			if cmd.Flags().Changed("description") {
				changes.Description = &description
			}
			if cmd.Flags().Changed("color") {
				changes.Color = &color
			}

			if err := api.EditStatus(cmd.Context(), org, space, changes.apply(space, current)); err != nil {
				return err
			}
			fmt.Println("saved")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "status name")
	cmd.Flags().StringVar(&color, "color", "", "status color")
	cmd.Flags().StringVar(&description, "description", "", "status description; empty clears it")
	return cmd
}

// statusChanges holds the fields given on the command line. Nil fields keep
// the status's current value, since the server replaces all three at once.
type statusChanges struct {
	Name        *string
	Description *string
	Color       *string
}

func (c statusChanges) apply(space string, current spaces.Status) spaces.EditStatusInput {
	in := spaces.EditStatusInput{
		SpaceShortcode: space,
		StatusID:       current.PublicID,
		Name:           current.Name,
		Color:          current.Color,
	}
	if current.Description != nil {
		in.Description = *current.Description
	}

	if c.Name != nil {
		in.Name = *c.Name
	}
	if c.Description != nil {
		in.Description = *c.Description
	}
	if c.Color != nil {
		in.Color = *c.Color
	}
	return in
}

func findStatus(grouped *spaces.Statuses, id string) (spaces.Status, bool) {
	for _, bucket := range [][]spaces.Status{grouped.Open, grouped.Active, grouped.Closed} {
		for _, st := range bucket {
			if st.PublicID == id {
				return st, true
			}
		}
	}
	return spaces.Status{}, false
}
