package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	v := newConfig()

	cmd := &cobra.Command{
		Use:   "faceattend",
		Short: "Face recognition attendance for classroom sessions",
		Long: `Faceattend captures camera frames during a class session, submits them to the
school's face recognition service and marks recognized students as present.

Configuration is read from flags, then FACEATTEND_* environment variables
(a .env file in the working directory is loaded first), then defaults.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			if err := bindFlags(v, cmd); err != nil {
				return err
			}
			setupLogging(v)
			return nil
		},
	}

	cmd.PersistentFlags().String("api-url", "", "Base URL of the school management API (env FACEATTEND_API_URL)")
	cmd.PersistentFlags().String("origin", "", "Public origin used in shareable links (env FACEATTEND_ORIGIN)")
	cmd.PersistentFlags().String("token-file", "", "Where the login token is kept (env FACEATTEND_TOKEN_FILE)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newLoginCmd(v))
	cmd.AddCommand(newLogoutCmd(v))
	cmd.AddCommand(newCaptureCmd(v))
	cmd.AddCommand(newRosterCmd(v))
	cmd.AddCommand(newLinkCmd(v))
	cmd.AddCommand(newReportCmd(v))
	cmd.AddCommand(newServeCmd(v))

	return cmd
}
