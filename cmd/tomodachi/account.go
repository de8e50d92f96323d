package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ripper-jc/tomodachi-hub/internal/auth"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/tui/styles"
	"github.com/spf13/cobra"
)

var loginName string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the server",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		prompter := auth.NewPrompter(os.Stdin, os.Stdout)
		login, password, err := prompter.Credentials(loginName)
		if err != nil {
			return err
		}

		user, err := a.session.SignIn(ctx, login, password)
		if err != nil {
			return err
		}
		fmt.Println(styles.SuccessStyle.Render("Signed in as " + user.UserName))
		return nil
	}),
}

var (
	signupEmail    string
	signupUsername string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		prompter := auth.NewPrompter(os.Stdin, os.Stdout)
		req, err := prompter.SignUpForm(domain.SignUpRequest{Email: signupEmail, Username: signupUsername})
		if err != nil {
			return err
		}

		if err := a.session.SignUp(ctx, req); err != nil {
			return err
		}
		fmt.Println(styles.SuccessStyle.Render("Account created. Run 'tomodachi login' to sign in."))
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the session",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if err := a.session.SignOut(ctx); err != nil {
			// the local session is gone either way
			fmt.Println(styles.DimStyle.Render("Server sign out failed: " + err.Error()))
		}
		fmt.Println("Signed out")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		user, err := a.session.CurrentUser(ctx)
		if errors.Is(err, domain.ErrNotSignedIn) {
			fmt.Println("Not signed in")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Println(styles.TitleStyle.Render(user.UserName))
		fmt.Printf("%s %d\n", styles.DimStyle.Render("ID     "), user.ID)
		fmt.Printf("%s %s\n", styles.DimStyle.Render("Email  "), user.Email)
		if len(user.Roles) > 0 {
			fmt.Printf("%s %s\n", styles.DimStyle.Render("Roles  "), strings.Join(user.Roles, ", "))
		}
		if exp, ok, expired := a.session.Expiry(); ok {
			state := "expires " + exp.Local().Format(time.DateTime)
			if expired {
				state = "expired, refreshed on next request"
			}
			fmt.Printf("%s %s\n", styles.DimStyle.Render("Token  "), state)
		}
		return nil
	}),
}

func init() {
	loginCmd.Flags().StringVarP(&loginName, "user", "u", "", "login name or email")
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "email address")
	signupCmd.Flags().StringVarP(&signupUsername, "user", "u", "", "user name")
}
