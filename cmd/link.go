package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/classroomhq/faceattend/internal/link"
)

func newLinkCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Print the shareable public capture link of a session",
		Example: `  faceattend link --class-id 12 --session-date 2024-05-01 --origin https://school.example
  faceattend link --class-id 12 --qr link.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := sessionKeys(v)
			if err != nil {
				return err
			}
			origin := v.GetString("origin")

			fmt.Fprintln(cmd.OutOrStdout(), link.Shareable(origin, keys.ClassID, keys.SessionDate))

			if path := v.GetString("qr"); path != "" {
				png, err := link.QRCode(origin, keys.ClassID, keys.SessionDate, v.GetInt("qr-size"))
				if err != nil {
					return err
				}
				if err := os.WriteFile(path, png, 0644); err != nil {
					return fmt.Errorf("failed to write QR code: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "QR code saved to: %s\n", path)
			}
			return nil
		},
	}

	addSessionFlags(cmd)
	cmd.Flags().String("qr", "", "Also write the link as a PNG QR code to this path")
	cmd.Flags().Int("qr-size", 256, "QR code size in pixels")

	return cmd
}
