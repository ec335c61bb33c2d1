package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jrsteele09/star-console/sessions"
	"github.com/jrsteele09/star-console/token"
	"github.com/spf13/cobra"
)

var errNotSignedIn = errors.New("not signed in, run `console login` first")

func loginCmd() *cobra.Command {
	var email string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			password, err := readPassword(passwordStdin)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.session.Login(cmd.Context(), sessions.Credentials{Email: email, Password: password})
			a.printFeed()
			if err != nil {
				return err
			}
			fmt.Printf("  Signed in as %s\n", user.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			a.session.Logout(cmd.Context(), sessions.LogoutOptions{})
			a.printFeed()
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			a.session.Initialize(cmd.Context())
			a.printFeed()
			user := a.session.User()
			if user == nil {
				return errNotSignedIn
			}

			fmt.Printf("  Subject:  %s\n", user.Sub)
			fmt.Printf("  Name:     %s\n", user.DisplayName())
			fmt.Printf("  Email:    %s\n", user.Email)
			fmt.Printf("  Role:     %s\n", user.Role)
			if exp, ok := token.ExpiresAt(a.session.AccessToken()); ok {
				fmt.Printf("  Expires:  %s\n", exp.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Renew the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if a.session.AccessToken() == "" {
				return errNotSignedIn
			}
			tok, err := a.session.RefreshAccessToken(cmd.Context())
			a.printFeed()
			if err != nil {
				return fmt.Errorf("refresh failed, the session was cleared: %w", err)
			}
			if exp, ok := token.ExpiresAt(tok); ok {
				fmt.Printf("  Token renewed, expires %s\n", exp.Local().Format("2006-01-02 15:04:05"))
				return nil
			}
			fmt.Println("  Token renewed")
			return nil
		},
	}
}

func readPassword(fromStdin bool) (string, error) {
	if !fromStdin {
		fmt.Print("Password: ")
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}
