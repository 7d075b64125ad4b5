package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"spaces/internal/engine/profiles"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your default profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := api.Profile(cmd.Context())
			if err != nil {
				return err
			}
			if p == nil {
				fmt.Println("no profile yet; create one with `spacectl profile create <handle>`")
				return nil
			}
			return printJSON(p)
		},
	}

	cmd.AddCommand(createProfileCmd(), avatarCmd())
	return cmd
}

func createProfileCmd() *cobra.Command {
	var in profiles.CreateInput
	var imageID string

	cmd := &cobra.Command{
		Use:   "create <handle>",
		Short: "Create a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Handle = args[0]
			if imageID != "" {
				in.ImageID = &imageID
			}
			res, err := api.CreateProfile(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}

	cmd.Flags().StringVar(&in.FirstName, "first", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last", "", "last name")
	cmd.Flags().StringVar(&imageID, "image", "", "avatar image id from `profile avatar`")
	cmd.Flags().BoolVar(&in.DefaultProfile, "default", true, "make this your default profile")
	return cmd
}

// avatarCmd uploads an image and waits until the provider has processed it.
func avatarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <file>",
		Short: "Upload an avatar image and print its image id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upload, err := api.AvatarUpload(cmd.Context())
			if err != nil {
				return err
			}
			if err := api.UploadAvatarFile(cmd.Context(), upload.UploadURL, args[0]); err != nil {
				return fmt.Errorf("upload file: %w", err)
			}

			res, err := api.AwaitAvatar(cmd.Context(), upload.ID)
			if err != nil {
				return err
			}
			fmt.Println(res.ImageID)
			return nil
		},
	}
}
