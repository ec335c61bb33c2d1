package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "console",
		Short: "Dashboard and session tools for the GitHub star organizer",
		Long: `console holds one authenticated session against the star curation backend.

It serves the local dashboard and offers a few session commands that share
the same stored access token:

  console serve     start the dashboard
  console login     sign in and store the access token
  console whoami    show the signed in account
  console refresh   renew the stored access token
  console logout    sign out and forget the token`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		refreshCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}
