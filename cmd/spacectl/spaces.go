package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"spaces/internal/client/editsession"
	"spaces/internal/engine/spaces"
)

func spacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spaces",
		Short: "List the spaces you can see in the organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := requireOrg()
			if err != nil {
				return err
			}
			list, err := api.Spaces(cmd.Context(), org)
			if err != nil {
				return err
			}
			for _, s := range list {
				role := "-"
				if s.Role != nil {
					role = *s.Role
				}
				fmt.Printf("%-24s %-32s %-8s %-8s %s\n", s.Shortcode, s.Name, s.Type, s.Color, role)
			}
			return nil
		},
	}
}

func createCmd() *cobra.Command {
	var in spaces.CreateInput
	var description, parent string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a space; you become its admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := requireOrg()
			if err != nil {
				return err
			}
			in.SpaceName = args[0]
			if description != "" {
				in.SpaceDescription = &description
			}
			if parent != "" {
				in.ParentSpaceShortcode = &parent
			}

			res, err := api.CreateSpace(cmd.Context(), org, in)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "space description")
	cmd.Flags().StringVar(&in.SpaceColor, "color", "cyan", "space color")
	cmd.Flags().StringVar(&in.SpaceType, "type", spaces.TypeOpen, "open or private")
	cmd.Flags().StringVar(&parent, "parent", "", "parent space shortcode")
	return cmd
}

func settingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings <space>",
		Short: "Show a space's settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := requireOrg()
			if err != nil {
				return err
			}
			res, err := api.Settings(cmd.Context(), org, args[0])
			if err != nil {
				return err
			}
			if res == nil {
				return fmt.Errorf("space %q not found in %s", args[0], org)
			}
			return printJSON(res)
		},
	}
}

// setCmd changes a field once, validating locally first.
func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set <space> <field> <value>",
		Short:     "Change a space setting (name, description, color, type)",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{editsession.FieldName, editsession.FieldDescription, editsession.FieldColor, editsession.FieldType},
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := requireOrg()
			if err != nil {
				return err
			}
			field, ok := editsession.SpaceField(api, org, args[0], args[1])
			if !ok {
				return fmt.Errorf("unknown field %q", args[1])
			}
			if err := field.Validate(args[2]); err != nil {
				return err
			}
			if err := field.Commit(cmd.Context(), args[2]); err != nil {
				return err
			}
			fmt.Println("saved")
			return nil
		},
	}
}

// editCmd feeds stdin lines into an edit session, as if typed into the
// settings form. Each line replaces the value.
func editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <space> <field>",
		Short: "Edit a space setting interactively with auto-save",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := requireOrg()
			if err != nil {
				return err
			}
			space, name := args[0], args[1]

			field, ok := editsession.SpaceField(api, org, space, name)
			if !ok {
				return fmt.Errorf("unknown field %q", name)
			}

			res, err := api.Settings(cmd.Context(), org, space)
			if err != nil {
				return err
			}
			if res == nil {
				return fmt.Errorf("space %q not found in %s", space, org)
			}
			isAdmin := res.Role != nil && *res.Role == spaces.RoleAdmin

			session := editsession.New(field, editsession.CurrentValue(res.Settings, name), isAdmin, editsession.Config{
				Debounce: cfg.Client.Debounce,
				SavedFor: cfg.Client.SavedIndicator,
				OnChange: func(s editsession.Snapshot) {
					switch s.State {
					case editsession.StateError:
						fmt.Fprintf(os.Stderr, "[%s] %v (kept %q)\n", s.State, s.Err, s.Committed)
					default:
						fmt.Fprintf(os.Stderr, "[%s] %s\n", s.State, s.Value)
					}
				},
			})
			if err := session.Begin(); err != nil {
				return err
			}

			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				if err := session.Change(strings.TrimRight(scanner.Text(), "\r")); err != nil {
					return err
				}
			}
			if err := scanner.Err(); err != nil {
				session.Cancel()
				return err
			}

			return session.Flush(cmd.Context())
		},
	}
}
