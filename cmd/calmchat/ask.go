package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/calmchat/internal/app"
	"github.com/suPer8Hu/calmchat/internal/auth"
	"github.com/suPer8Hu/calmchat/internal/safety"
)

var (
	askSession string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Run one message through the chat pipeline",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		reply := a.Service.Respond(cmd.Context(), askSession, strings.Join(args, " "))
		if askJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reply)
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply.Response)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [message]",
	Short: "Report whether a message trips the crisis filter",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		phrase, ok := safety.Match(strings.Join(args, " "))
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no crisis phrase matched")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "crisis: matched %q\n", phrase)
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id to continue")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full reply as JSON")
}
