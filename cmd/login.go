package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/classroomhq/faceattend/internal/credentials"
)

func newLoginCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the API token used for recognition requests",
		Long: `Stores the bearer token issued by the school management API.

The token is read from --token, or from stdin when --token is "-". Expired
tokens are rejected.`,
		Example: `  faceattend login --token "$JWT"
  echo "$JWT" | faceattend login --token -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := v.GetString("token")
			if token == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read token from stdin: %w", err)
				}
				token = string(data)
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("--token is required")
			}

			store := tokenStore(v)
			if err := store.Set(token); err != nil {
				return err
			}
			if _, err := store.Token(); errors.Is(err, credentials.ErrTokenExpired) {
				_ = store.Clear()
				return fmt.Errorf("refusing to store token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Logged in, token saved to %s\n", store.Path())
			return nil
		},
	}

	cmd.Flags().String("token", "", "Bearer token, or - to read it from stdin")
	return cmd
}

func newLogoutCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := tokenStore(v)
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
