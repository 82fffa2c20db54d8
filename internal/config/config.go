package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// History
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Reading
	Delimiter          string   `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator   string   `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string   `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	NAValues           []string `mapstructure:"na_values" yaml:"na_values"`
	SheetName          string   `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex         int      `mapstructure:"sheet_index" yaml:"sheet_index"`

	// Display
	PreviewRows   int `mapstructure:"preview_rows" yaml:"preview_rows"`
	HistogramBins int `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	BarTop        int `mapstructure:"bar_top" yaml:"bar_top"`

	// Export
	ExportBOM bool `mapstructure:"export_bom" yaml:"export_bom"`
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"history_limit", "log_level", "log_format",
	"delimiter", "decimal_separator", "thousands_separator", "na_values",
	"sheet_name", "sheet_index",
	"preview_rows", "histogram_bins", "bar_top",
	"export_bom",
}

// DefaultPath returns ~/.wrangle/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".wrangle", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.wrangle/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	return load(cfgFile, true)
}

// LoadFile loads configuration from file and defaults only. Use it when the
// result is saved back, so env overrides never end up on disk.
func LoadFile(cfgFile string) (*Global, error) {
	return load(cfgFile, false)
}

func load(cfgFile string, env bool) (*Global, error) {
	v := viper.New()
	if env {
		v.SetEnvPrefix("WRANGLE")
		v.AutomaticEnv()
	}

	v.SetDefault("history_limit", 100)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_separator", ".")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("na_values", []string{})
	v.SetDefault("sheet_name", "")
	v.SetDefault("sheet_index", 1)
	v.SetDefault("preview_rows", 10)
	v.SetDefault("histogram_bins", 30)
	v.SetDefault("bar_top", 20)
	v.SetDefault("export_bom", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".wrangle"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read; an explicit file that exists must parse
	if err := v.ReadInConfig(); err != nil && cfgFile != "" {
		if _, statErr := os.Stat(cfgFile); statErr == nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.HistoryLimit < 0 {
		return nil, fmt.Errorf("history_limit must be >= 0, got %d", c.HistoryLimit)
	}
	return &c, nil
}

// Set assigns one key from its string form.
func (c *Global) Set(key, val string) error {
	switch key {
	case "history_limit", "sheet_index", "preview_rows", "histogram_bins", "bar_top":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid non-negative int for %s: %v", key, val)
		}
		switch key {
		case "history_limit":
			c.HistoryLimit = i
		case "sheet_index":
			c.SheetIndex = i
		case "preview_rows":
			c.PreviewRows = i
		case "histogram_bins":
			c.HistogramBins = i
		case "bar_top":
			c.BarTop = i
		}
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "warning", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use text|json)", val)
		}
	case "delimiter":
		if _, err := ParseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "decimal_separator":
		if _, err := ParseDecimal(val); err != nil {
			return err
		}
		c.DecimalSeparator = val
	case "thousands_separator":
		if _, err := ParseThousands(val); err != nil {
			return err
		}
		c.ThousandsSeparator = val
	case "na_values":
		c.NAValues = nil
		for _, p := range strings.Split(val, ",") {
			c.NAValues = append(c.NAValues, strings.TrimSpace(p))
		}
	case "sheet_name":
		c.SheetName = val
	case "export_bom":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for export_bom: %v", val)
		}
		c.ExportBOM = b
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// Get renders one key for display.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "history_limit":
		return strconv.Itoa(c.HistoryLimit), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "delimiter":
		return c.Delimiter, nil
	case "decimal_separator":
		return c.DecimalSeparator, nil
	case "thousands_separator":
		return c.ThousandsSeparator, nil
	case "na_values":
		return strings.Join(c.NAValues, ","), nil
	case "sheet_name":
		return c.SheetName, nil
	case "sheet_index":
		return strconv.Itoa(c.SheetIndex), nil
	case "preview_rows":
		return strconv.Itoa(c.PreviewRows), nil
	case "histogram_bins":
		return strconv.Itoa(c.HistogramBins), nil
	case "bar_top":
		return strconv.Itoa(c.BarTop), nil
	case "export_bom":
		return strconv.FormatBool(c.ExportBOM), nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// ParseDelimiter maps a delimiter setting to a rune; "" means sniff.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", "tab", `\t`:
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported delimiter: %q (use ','|';'|'tab'|'|')", s)
}

// ParseDecimal maps a decimal separator setting to a rune; "" means '.'.
func ParseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", ".", "dot":
		return '.', nil
	case ",", "comma":
		return ',', nil
	}
	return 0, fmt.Errorf("unsupported decimal separator: %q (use '.'|'comma')", s)
}

// ParseThousands maps a thousands separator setting to a rune; "" means none.
func ParseThousands(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	case " ", "space":
		return ' ', nil
	case "'", "apostrophe":
		return '\'', nil
	}
	return 0, fmt.Errorf("unsupported thousands separator: %q (use ','|'.'|'space')", s)
}
