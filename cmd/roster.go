package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/classroomhq/faceattend/internal/attendance"
	"github.com/classroomhq/faceattend/internal/notify"
	"github.com/classroomhq/faceattend/internal/report"
)

func newRosterCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Show the class roster with attendance statuses",
		Example: `  faceattend roster --class-id 12 --session-date 2024-05-01
  faceattend roster --class-id 12 --output roster.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := sessionKeys(v)
			if err != nil {
				return err
			}

			session := attendance.New(keys, attendance.Config{
				API:      apiClient(v),
				Notifier: notify.NewConsole(cmd.ErrOrStderr()),
			})
			if err := session.Load(cmd.Context()); err != nil {
				return err
			}
			rep := report.FromRoster(keys, session.Roster())

			if path := v.GetString("output"); path != "" {
				return report.Save(rep, path)
			}

			format := report.Format(v.GetString("format"))
			if format == report.FormatParquet {
				return fmt.Errorf("parquet output needs --output")
			}
			return report.Write(cmd.OutOrStdout(), rep, format)
		},
	}

	addSessionFlags(cmd)
	cmd.Flags().StringP("format", "f", "table", "Output format: table, yaml, json or jsonl")
	cmd.Flags().StringP("output", "o", "", "Write to a file instead; the format follows the extension")

	return cmd
}
