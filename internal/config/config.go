// Package config loads the JSON settings file for lapdelta.
//
// Every field is optional. Pointer fields distinguish "not set" from a zero
// value, and the Get* accessors return the built-in default for anything the
// file leaves out, so partial files are safe.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/banshee-data/lapdelta/internal/alignment"
	"github.com/banshee-data/lapdelta/internal/comparison"
	"github.com/banshee-data/lapdelta/internal/fsutil"
	"github.com/banshee-data/lapdelta/internal/units"
)

// DefaultConfigPath is the checked-in defaults file, relative to the repo root.
const DefaultConfigPath = "config/lapdelta.defaults.json"

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Config is the root settings object.
type Config struct {
	// Alignment
	GridResolution *float64 `json:"grid_resolution,omitempty"` // grid points per meter

	// Comparison
	MaxDrivers *int `json:"max_drivers,omitempty"`
	Workers    *int `json:"workers,omitempty"` // 0 means one per CPU

	// Loading
	InputSpeedUnits *string `json:"input_speed_units,omitempty"`
	RebaseTime      *bool   `json:"rebase_time,omitempty"`

	// Output
	DisplaySpeedUnits *string           `json:"display_speed_units,omitempty"`
	ExportFormat      *string           `json:"export_format,omitempty"`
	DriverColors      map[string]string `json:"driver_colors,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() *Config {
	return &Config{
		GridResolution:    ptrFloat64(alignment.DefaultGridResolution),
		MaxDrivers:        ptrInt(comparison.DefaultMaxDrivers),
		Workers:           ptrInt(0),
		InputSpeedUnits:   ptrString(units.KPH),
		RebaseTime:        ptrBool(true),
		DisplaySpeedUnits: ptrString(units.KPH),
		ExportFormat:      ptrString(FormatCSV),
	}
}

// LoadConfig loads a Config from a JSON file on fsys.
// The file must have a .json extension and be under 1MB.
func LoadConfig(fsys fsutil.FileSystem, path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.GridResolution != nil {
		r := *c.GridResolution
		if !(r > 0) || math.IsInf(r, 0) {
			return fmt.Errorf("grid_resolution must be a positive number, got %v", r)
		}
	}
	if c.MaxDrivers != nil && *c.MaxDrivers < 2 {
		return fmt.Errorf("max_drivers must be at least 2, got %d", *c.MaxDrivers)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.InputSpeedUnits != nil {
		if _, err := units.Parse(*c.InputSpeedUnits); err != nil {
			return fmt.Errorf("input_speed_units: %w", err)
		}
	}
	if c.DisplaySpeedUnits != nil {
		if _, err := units.Parse(*c.DisplaySpeedUnits); err != nil {
			return fmt.Errorf("display_speed_units: %w", err)
		}
	}
	if c.ExportFormat != nil {
		if f := strings.ToLower(*c.ExportFormat); f != FormatCSV && f != FormatJSON {
			return fmt.Errorf("export_format must be %q or %q, got %q", FormatCSV, FormatJSON, *c.ExportFormat)
		}
	}
	for code, color := range c.DriverColors {
		if !hexColor.MatchString(color) {
			return fmt.Errorf("driver_colors[%s]: %q is not a #RRGGBB color", code, color)
		}
	}
	return nil
}

// GetGridResolution returns grid points per meter.
func (c *Config) GetGridResolution() float64 {
	if c.GridResolution == nil {
		return alignment.DefaultGridResolution
	}
	return *c.GridResolution
}

// GetMaxDrivers returns how many drivers a comparison may include,
// reference included.
func (c *Config) GetMaxDrivers() int {
	if c.MaxDrivers == nil {
		return comparison.DefaultMaxDrivers
	}
	return *c.MaxDrivers
}

// GetWorkers returns the number of pairs aligned in parallel.
func (c *Config) GetWorkers() int {
	if c.Workers == nil || *c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return *c.Workers
}

// GetInputSpeedUnits returns the units of the Speed column in trace files.
func (c *Config) GetInputSpeedUnits() string {
	if c.InputSpeedUnits == nil {
		return units.KPH
	}
	u, err := units.Parse(*c.InputSpeedUnits)
	if err != nil {
		return units.KPH
	}
	return u
}

// GetDisplaySpeedUnits returns the units used in the summary table.
func (c *Config) GetDisplaySpeedUnits() string {
	if c.DisplaySpeedUnits == nil {
		return units.KPH
	}
	u, err := units.Parse(*c.DisplaySpeedUnits)
	if err != nil {
		return units.KPH
	}
	return u
}

// GetRebaseTime reports whether trace times are shifted to start at zero.
func (c *Config) GetRebaseTime() bool {
	if c.RebaseTime == nil {
		return true
	}
	return *c.RebaseTime
}

// GetExportFormat returns "csv" or "json".
func (c *Config) GetExportFormat() string {
	if c.ExportFormat == nil {
		return FormatCSV
	}
	return strings.ToLower(*c.ExportFormat)
}

// ColorFor returns the configured color for a driver code, or "".
func (c *Config) ColorFor(code string) string {
	return c.DriverColors[code]
}

// AlignmentConfig returns the engine settings.
func (c *Config) AlignmentConfig() alignment.Config {
	return alignment.Config{GridResolution: c.GetGridResolution()}
}
