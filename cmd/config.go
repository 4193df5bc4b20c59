package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/sheetpulse/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set SheetPulse configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "telegram_token: %s\n", mask(cfg.TelegramToken))
		if cfg.SourceFile != "" {
			fmt.Fprintf(out, "source_file: %s\n", cfg.SourceFile)
			if cfg.SourceSheet != "" {
				fmt.Fprintf(out, "source_sheet: %s\n", cfg.SourceSheet)
			}
			if cfg.SourceDelimiter != "" {
				fmt.Fprintf(out, "source_delimiter: %q\n", cfg.SourceDelimiter)
			}
		} else {
			fmt.Fprintf(out, "credentials_file: %s\n", cfg.CredentialsFile)
			fmt.Fprintf(out, "spreadsheet_url: %s\n", cfg.SpreadsheetURL)
			fmt.Fprintf(out, "worksheet_name: %s\n", cfg.WorksheetName)
		}
		fmt.Fprintf(out, "name_column: %s\n", cfg.NameColumn)
		fmt.Fprintf(out, "category_column: %s\n", cfg.CategoryColumn)
		fmt.Fprintf(out, "status_column: %s\n", cfg.StatusColumn)
		fmt.Fprintf(out, "allowed_statuses: %s\n", quoteList(cfg.AllowedStatuses))
		fmt.Fprintf(out, "excluded_categories: %s\n", quoteList(cfg.ExcludedCategories))
		fmt.Fprintf(out, "selected_columns: %s\n", quoteList(cfg.SelectedColumns))
		fmt.Fprintf(out, "new_label: %s\n", cfg.NewLabel)
		fmt.Fprintf(out, "export_prefix: %s\n", cfg.ExportPrefix)
		fmt.Fprintf(out, "export_format: %s\n", cfg.ExportFormat)
		if cfg.ExportDelimiter != "" {
			fmt.Fprintf(out, "export_delimiter: %q\n", cfg.ExportDelimiter)
		}
		fmt.Fprintf(out, "export_status_header: %s\n", cfg.ExportStatusHeader)
		fmt.Fprintf(out, "stats_name_limit: %d\n", cfg.StatsNameLimit)
		fmt.Fprintf(out, "names_per_line: %d\n", cfg.NamesPerLine)
		fmt.Fprintf(out, "max_message_chars: %d\n", cfg.MaxMessageChars)
		fmt.Fprintf(out, "fetch_timeout_sec: %d\n", cfg.FetchTimeoutSec)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		if cfg.LogFile != "" {
			fmt.Fprintf(out, "log_file: %s\n", cfg.LogFile)
		}
		if cfg.WebhookURL != "" {
			fmt.Fprintf(out, "webhook_url: %s\n", cfg.WebhookURL)
			fmt.Fprintf(out, "webhook_listen: %s\n", cfg.WebhookListen)
		}
		fmt.Fprintf(out, "send_rate_per_sec: %.1f\n", cfg.SendRatePerSec)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk. List keys (allowed_statuses, excluded_categories,
selected_columns) take a comma-separated value; an empty item matches blank cells, so
",J" excludes blank and J categories.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setKey(cfg, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			dir, err := cfgpkg.Dir()
			if err != nil {
				return err
			}
			path = filepath.Join(dir, "config.yaml")
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("config already exists: %s (use --force to overwrite)", path)
		}
		if err := cfgpkg.Save(cfgpkg.Default(), cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Config initialized: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
}

func setKey(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "telegram_token":
		c.TelegramToken = val
	case "credentials_file":
		c.CredentialsFile = val
	case "spreadsheet_url":
		c.SpreadsheetURL = val
	case "worksheet_name":
		c.WorksheetName = val
	case "source_file":
		c.SourceFile = val
	case "source_sheet":
		c.SourceSheet = val
	case "source_delimiter", "export_delimiter":
		if _, err := cfgpkg.ParseDelimiter(val); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		if key == "source_delimiter" {
			c.SourceDelimiter = val
		} else {
			c.ExportDelimiter = val
		}
	case "name_column":
		c.NameColumn = val
	case "category_column":
		c.CategoryColumn = val
	case "status_column":
		c.StatusColumn = val
	case "allowed_statuses":
		c.AllowedStatuses = splitList(val)
	case "excluded_categories":
		c.ExcludedCategories = splitList(val)
	case "selected_columns":
		cols := splitList(val)
		for _, col := range cols {
			if col == "" {
				return errors.New("selected_columns cannot contain an empty name")
			}
		}
		c.SelectedColumns = cols
	case "new_label":
		c.NewLabel = val
	case "export_prefix":
		c.ExportPrefix = val
	case "export_status_header":
		c.ExportStatusHeader = val
	case "export_format":
		switch strings.ToLower(val) {
		case "csv", "xlsx":
			c.ExportFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid export_format: %s (use csv or xlsx)", val)
		}
	case "stats_name_limit", "names_per_line", "max_message_chars", "fetch_timeout_sec":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "stats_name_limit":
			c.StatsNameLimit = i
		case "names_per_line":
			c.NamesPerLine = i
		case "max_message_chars":
			c.MaxMessageChars = i
		default:
			c.FetchTimeoutSec = i
		}
	case "log_level":
		c.LogLevel = val
	case "log_file":
		c.LogFile = val
	case "webhook_url":
		c.WebhookURL = val
	case "webhook_listen":
		c.WebhookListen = val
	case "send_rate_per_sec":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for send_rate_per_sec: %v", val)
		}
		c.SendRatePerSec = f
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func quoteList(items []string) string {
	q := make([]string, len(items))
	for i, s := range items {
		q[i] = strconv.Quote(s)
	}
	return "[" + strings.Join(q, ", ") + "]"
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
