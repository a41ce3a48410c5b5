package main

import (
	"fmt"
	"os"

	"slurpsocial/internal/service"

	"github.com/spf13/cobra"
)

var (
	signupUsername    string
	signupEmail       string
	signupPassword    string
	signupDisplayName string

	loginEmail    string
	loginPassword string

	whoamiRefresh bool

	profileDisplayName string
	profileBio         string
	profileImageURL    string
)

// passwordOr falls back to SLURP_PASSWORD so passwords stay out of shell history.
func passwordOr(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("SLURP_PASSWORD")
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := rt.Auth.SignUp(cmd.Context(), signupUsername, signupEmail, passwordOr(signupPassword), signupDisplayName)
		if err != nil {
			return err
		}
		out.message("Welcome, %s!", user.DisplayName)
		return out.user(user)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := rt.Auth.Login(cmd.Context(), loginEmail, passwordOr(loginPassword))
		if err != nil {
			return err
		}
		out.message("Signed in as @%s", user.Username)
		return out.user(user)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := rt.Auth.Logout(cmd.Context())
		out.message("Signed out")
		if err != nil {
			return fmt.Errorf("the saved session could not be erased: %w", err)
		}
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if whoamiRefresh && rt.Auth.IsLoggedIn() {
			user, err := rt.Auth.RefreshCurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			return out.user(user)
		}
		return out.user(rt.Auth.CurrentUser())
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Edit your display name, bio, or profile image URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		var in service.UpdateProfileInput
		if cmd.Flags().Changed("display-name") {
			in.DisplayName = &profileDisplayName
		}
		if cmd.Flags().Changed("bio") {
			in.Bio = &profileBio
		}
		if cmd.Flags().Changed("image-url") {
			in.ProfileImageURL = &profileImageURL
		}
		user, err := rt.Auth.UpdateProfile(cmd.Context(), in)
		if err != nil {
			return err
		}
		out.message("Profile updated")
		return out.user(user)
	},
}

func init() {
	signupCmd.Flags().StringVar(&signupUsername, "username", "", "Username")
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "Email address")
	signupCmd.Flags().StringVar(&signupPassword, "password", "", "Password (or set SLURP_PASSWORD)")
	signupCmd.Flags().StringVar(&signupDisplayName, "display-name", "", "Display name (defaults to username)")

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email address")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (or set SLURP_PASSWORD)")

	whoamiCmd.Flags().BoolVar(&whoamiRefresh, "refresh", false, "Reload the profile from the server")

	profileCmd.Flags().StringVar(&profileDisplayName, "display-name", "", "New display name")
	profileCmd.Flags().StringVar(&profileBio, "bio", "", "New bio")
	profileCmd.Flags().StringVar(&profileImageURL, "image-url", "", "New profile image URL")

	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd, profileCmd)
}
