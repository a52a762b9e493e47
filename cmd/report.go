package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/classroomhq/faceattend/internal/report"
)

func newReportCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Print a roster saved by capture --export or roster --output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := report.Load(args[0])
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), rep, report.Format(v.GetString("format")))
		},
	}

	cmd.Flags().StringP("format", "f", "table", "Output format: table, yaml, json or jsonl")
	return cmd
}
