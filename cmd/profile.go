package cmd

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/s0up4200/flickpick/profile"
)

var (
	profileName  string
	profileEmail string
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit your profile",
	RunE:  runProfileShow,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change your display name or email",
	Args:  cobra.NoArgs,
	RunE:  runProfileSet,
}

var profileAvatarCmd = &cobra.Command{
	Use:   "avatar <image-file>",
	Short: "Upload a JPEG, PNG or WebP profile picture",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileAvatar,
}

func init() {
	profileSetCmd.Flags().StringVar(&profileName, "name", "", "display name")
	profileSetCmd.Flags().StringVar(&profileEmail, "email", "", "email address")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileAvatarCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	p, err := profiles.Get(cmd.Context(), currentUser())
	if errors.Is(err, profile.ErrNotFound) {
		fmt.Println("No profile yet. Create one with: flickpick profile set --name <name>")
		return nil
	}
	if err != nil {
		return explainIdentity(err)
	}

	fmt.Print(formatter.FormatProfile(p))
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	if profileName == "" && profileEmail == "" {
		return errors.New("nothing to change: pass --name and/or --email")
	}

	p, err := profiles.Update(cmd.Context(), currentUser(), profile.Changes{
		Name:  profileName,
		Email: profileEmail,
	})
	if err != nil {
		return explainIdentity(err)
	}

	fmt.Println("✓ Profile updated")
	fmt.Print(formatter.FormatProfile(p))
	return nil
}

func runProfileAvatar(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	// Unknown extensions are sniffed from the content
	contentType := mime.TypeByExtension(filepath.Ext(path))

	url, err := profiles.UploadAvatar(cmd.Context(), currentUser(), contentType, f)
	if err != nil {
		if errors.Is(err, profile.ErrStorageDisabled) {
			return fmt.Errorf("%w: set profile.bucket in the config", err)
		}
		return explainIdentity(err)
	}

	fmt.Printf("✓ Avatar uploaded: %s\n", url)
	return nil
}
