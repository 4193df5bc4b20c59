package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetpulse/internal/utils"
)

var (
	exportOutput string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the grouped records to a CSV or XLSX file (same as /csv)",
	Long: `Write the filtered records grouped by category and status. Without -o the file is
named <export_prefix>_<YYYYMMDD>.<ext> in the current directory; a directory given to -o
keeps that name.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := setup(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		format := exportFormat
		if format == "" {
			format = p.Config().ExportFormat
		}
		exp, err := p.ExportAs(cmd.Context(), format)
		if err != nil {
			return err
		}
		path := utils.OutputPath(exportOutput, exp.Filename)
		if err := utils.SafeWriteFile(path, exp.Data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d rows to %s\n", exp.Rows, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file or directory")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "csv or xlsx (default from config)")
}
