/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/campdir/apiserver/config"
	"github.com/campdir/apiserver/internal/db"
	"github.com/campdir/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var demoteFlag bool

// promoteCmd grants or revokes admin rights for an existing account.
// This is the only path to admin: registration never elevates, so the
// shared secret the old app accepted at sign-up has no equivalent here.
var promoteCmd = &cobra.Command{
	Use:   "promote <username>",
	Short: "Grant admin rights to a user",
	Long: `Grants admin rights to an existing user account. Usage:

	campdir promote alice
	campdir promote --demote alice
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer func() {
			_ = dbConn.Close()
		}()

		username := args[0]
		userRepo := store.NewUserRepository(dbConn)
		if err := userRepo.SetAdmin(cmd.Context(), username, !demoteFlag); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no user named %q", username)
			}
			return err
		}

		if demoteFlag {
			fmt.Printf("%s is no longer an admin\n", username)
		} else {
			fmt.Printf("%s is now an admin\n", username)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promoteCmd)
	promoteCmd.Flags().BoolVar(&demoteFlag, "demote", false, "revoke admin rights instead of granting them")
}
