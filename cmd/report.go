package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the headline summary (same as /data)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := setup(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		text, err := p.SummaryText(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the per-category, per-status breakdown (same as /stats)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := setup(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		text, err := p.DetailedStatsText(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category <name>",
	Short: "Print the records of one category grouped by status (same as /tm)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := setup(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		name := strings.Join(args, " ")
		res, err := p.FilteredByCategory(cmd.Context(), name)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		if !res.Found {
			return fmt.Errorf("category not found: %s", res.Category)
		}
		return nil
	},
}

var profileTop int

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile the raw sheet columns before any filter is applied",
	Long: `Profile the raw sheet: per-column fill rate, distinct values and the most frequent
values. Use it to check column names and status/category values before setting
allowed_statuses or excluded_categories.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := setup(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		name := cfg.SourceFile
		if name == "" {
			name = cfg.WorksheetName
		}
		rep, err := p.Profile(cmd.Context(), name, profileTop)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rep.Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().IntVar(&profileTop, "top", 5, "most frequent values listed per column")
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(categoryCmd)
}
