package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/sheetpulse/internal/analysis"
	"github.com/KaramelBytes/sheetpulse/internal/export"
	"github.com/KaramelBytes/sheetpulse/internal/pipeline"
)

// Global configuration structure.
type Global struct {
	TelegramToken string `mapstructure:"telegram_token" yaml:"telegram_token"`

	// Google Sheets source
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	SpreadsheetURL  string `mapstructure:"spreadsheet_url" yaml:"spreadsheet_url"`
	WorksheetName   string `mapstructure:"worksheet_name" yaml:"worksheet_name"`
	// Local file source; takes precedence over Google Sheets when set.
	SourceFile  string `mapstructure:"source_file" yaml:"source_file"`
	SourceSheet string `mapstructure:"source_sheet" yaml:"source_sheet"`
	// Field separator of a delimited source file; empty picks by extension.
	SourceDelimiter string `mapstructure:"source_delimiter" yaml:"source_delimiter"`

	// Columns and filters
	NameColumn         string   `mapstructure:"name_column" yaml:"name_column"`
	CategoryColumn     string   `mapstructure:"category_column" yaml:"category_column"`
	StatusColumn       string   `mapstructure:"status_column" yaml:"status_column"`
	AllowedStatuses    []string `mapstructure:"allowed_statuses" yaml:"allowed_statuses"`
	ExcludedCategories []string `mapstructure:"excluded_categories" yaml:"excluded_categories"`
	SelectedColumns    []string `mapstructure:"selected_columns" yaml:"selected_columns"`

	// Output
	NewLabel        string `mapstructure:"new_label" yaml:"new_label"`
	ExportPrefix    string `mapstructure:"export_prefix" yaml:"export_prefix"`
	ExportFormat    string `mapstructure:"export_format" yaml:"export_format"`
	ExportDelimiter string `mapstructure:"export_delimiter" yaml:"export_delimiter"`
	// Header of the status column in exports; empty keeps status_column.
	ExportStatusHeader string `mapstructure:"export_status_header" yaml:"export_status_header"`
	StatsNameLimit     int    `mapstructure:"stats_name_limit" yaml:"stats_name_limit"`
	NamesPerLine       int    `mapstructure:"names_per_line" yaml:"names_per_line"`
	MaxMessageChars    int    `mapstructure:"max_message_chars" yaml:"max_message_chars"`
	FetchTimeoutSec    int    `mapstructure:"fetch_timeout_sec" yaml:"fetch_timeout_sec"`

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`

	// Transport: webhook mode when WebhookURL is set, long polling otherwise.
	WebhookURL     string  `mapstructure:"webhook_url" yaml:"webhook_url"`
	WebhookListen  string  `mapstructure:"webhook_listen" yaml:"webhook_listen"`
	SendRatePerSec float64 `mapstructure:"send_rate_per_sec" yaml:"send_rate_per_sec"`
}

// Dir returns ~/.sheetpulse.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".sheetpulse"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.sheetpulse/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SHEETPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The token also honours the variable BotFather guides use.
	_ = v.BindEnv("telegram_token", "SHEETPULSE_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Default returns the built-in configuration without reading files or env.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

func setDefaults(v *viper.Viper) {
	d := pipeline.DefaultConfig()
	v.SetDefault("worksheet_name", "유입 결과")
	v.SetDefault("name_column", d.NameColumn)
	v.SetDefault("category_column", d.CategoryColumn)
	v.SetDefault("status_column", d.StatusColumn)
	v.SetDefault("allowed_statuses", d.AllowedStatuses)
	v.SetDefault("excluded_categories", d.ExcludedCategories)
	v.SetDefault("selected_columns", d.SelectedColumns)
	v.SetDefault("new_label", d.NewLabel)
	v.SetDefault("export_prefix", d.ExportPrefix)
	v.SetDefault("export_format", d.ExportFormat)
	v.SetDefault("export_status_header", d.ExportStatusHeader)
	v.SetDefault("stats_name_limit", d.Layout.NameLimit)
	v.SetDefault("names_per_line", d.Layout.NamesPerLine)
	v.SetDefault("max_message_chars", d.MaxMessageChars)
	v.SetDefault("fetch_timeout_sec", int(d.FetchTimeout/time.Second))
	v.SetDefault("log_level", "info")
	v.SetDefault("webhook_listen", ":8080")
	v.SetDefault("send_rate_per_sec", 20.0)
}

// Validate checks the values the pipeline depends on.
func (c *Global) Validate() error {
	var problems []string
	if c.CategoryColumn == "" || c.StatusColumn == "" {
		problems = append(problems, "category_column and status_column are required")
	}
	if len(c.SelectedColumns) == 0 {
		problems = append(problems, "selected_columns must list at least one column")
	}
	switch strings.ToLower(c.ExportFormat) {
	case "", export.FormatCSV, export.FormatXLSX:
	default:
		problems = append(problems, fmt.Sprintf("invalid export_format: %s (use csv or xlsx)", c.ExportFormat))
	}
	if _, err := ParseDelimiter(c.SourceDelimiter); err != nil {
		problems = append(problems, fmt.Sprintf("invalid source_delimiter: %v", err))
	}
	if _, err := ParseDelimiter(c.ExportDelimiter); err != nil {
		problems = append(problems, fmt.Sprintf("invalid export_delimiter: %v", err))
	}
	if c.SourceFile == "" && c.SpreadsheetURL == "" {
		problems = append(problems, "set source_file or spreadsheet_url")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Pipeline converts the global configuration into the explicit value the
// pipeline runs with.
func (c *Global) Pipeline() pipeline.Config {
	p := pipeline.DefaultConfig()
	p.NameColumn = c.NameColumn
	p.CategoryColumn = c.CategoryColumn
	p.StatusColumn = c.StatusColumn
	p.AllowedStatuses = append([]string(nil), c.AllowedStatuses...)
	p.ExcludedCategories = append([]string(nil), c.ExcludedCategories...)
	p.SelectedColumns = append([]string(nil), c.SelectedColumns...)
	if c.NewLabel != "" {
		p.NewLabel = c.NewLabel
	}
	if c.ExportPrefix != "" {
		p.ExportPrefix = c.ExportPrefix
	}
	if c.ExportFormat != "" {
		p.ExportFormat = strings.ToLower(c.ExportFormat)
	}
	p.ExportDelimiter, _ = ParseDelimiter(c.ExportDelimiter)
	p.ExportStatusHeader = c.ExportStatusHeader
	p.Layout = analysis.Layout{NameLimit: c.StatsNameLimit, NamesPerLine: c.NamesPerLine}
	p.MaxMessageChars = c.MaxMessageChars
	p.FetchTimeout = time.Duration(c.FetchTimeoutSec) * time.Second
	return p
}

// SourceDelimiterRune is the parsed source_delimiter; 0 when unset or invalid.
func (c *Global) SourceDelimiterRune() rune {
	r, _ := ParseDelimiter(c.SourceDelimiter)
	return r
}

// ParseDelimiter reads a field separator setting. "" yields 0 (the default),
// "tab" and "\t" yield a tab, and any other value must be a single character
// that encoding/csv accepts as a separator.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("%q is not a single character", s)
	}
	switch r {
	case '"', '\r', '\n':
		return 0, fmt.Errorf("%q cannot separate fields", s)
	}
	return r, nil
}
