// Command lapdelta aligns two or more laps by track distance and reports the
// running time gap of each driver to a reference driver.
//
//	lapdelta -trace VER=ver.csv -trace LEC=lec.csv -ref VER -out deltas
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/lapdelta/internal/alignment"
	"github.com/banshee-data/lapdelta/internal/comparison"
	"github.com/banshee-data/lapdelta/internal/config"
	"github.com/banshee-data/lapdelta/internal/export"
	"github.com/banshee-data/lapdelta/internal/fsutil"
	"github.com/banshee-data/lapdelta/internal/telemetry"
	"github.com/banshee-data/lapdelta/internal/units"
	"github.com/banshee-data/lapdelta/internal/version"
)

var (
	configFile   = flag.String("config", "", "Path to JSON config file (defaults to "+config.DefaultConfigPath+" when present)")
	refDriver    = flag.String("ref", "", "Reference driver code (defaults to the first -trace)")
	outDir       = flag.String("out", "", "Directory for per-driver delta files (no files when empty)")
	exportFormat = flag.String("format", "", "Export format: csv or json (overrides config)")
	speedUnits   = flag.String("speed-units", "", "Units of the Speed column in trace files (overrides config)")
	displayUnits = flag.String("display-units", "", "Units for speeds in the summary table (overrides config)")
	reportJSON   = flag.Bool("report-json", false, "Print the full report as JSON instead of the summary table")
	showVersion  = flag.Bool("version", false, "Print version and exit")

	traces traceFlags
)

func init() {
	flag.Var(&traces, "trace", "Driver lap as CODE=path.csv (repeat for each driver)")
}

// traceSpec is one -trace value.
type traceSpec struct {
	Code string
	Path string
}

// traceFlags collects repeated -trace flags in order.
type traceFlags []traceSpec

func (f *traceFlags) String() string {
	parts := make([]string, len(*f))
	for i, t := range *f {
		parts[i] = t.Code + "=" + t.Path
	}
	return strings.Join(parts, ",")
}

func (f *traceFlags) Set(v string) error {
	code, path, ok := strings.Cut(v, "=")
	code, path = strings.TrimSpace(code), strings.TrimSpace(path)
	if !ok || code == "" || path == "" {
		return fmt.Errorf("expected CODE=path, got %q", v)
	}
	*f = append(*f, traceSpec{Code: strings.ToUpper(code), Path: path})
	return nil
}

// applyOverrides copies non-empty flag values onto cfg and revalidates it.
func applyOverrides(cfg *config.Config, format, inputUnits, outputUnits string) error {
	if format != "" {
		cfg.ExportFormat = &format
	}
	if inputUnits != "" {
		cfg.InputSpeedUnits = &inputUnits
	}
	if outputUnits != "" {
		cfg.DisplaySpeedUnits = &outputUnits
	}
	return cfg.Validate()
}

// loadConfig reads path, or the checked-in defaults file when path is empty
// and that file exists, or falls back to the built-in defaults.
func loadConfig(fsys fsutil.FileSystem, path string) (*config.Config, error) {
	if path == "" {
		if !fsys.Exists(config.DefaultConfigPath) {
			return config.DefaultConfig(), nil
		}
		path = config.DefaultConfigPath
	}
	cfg, err := config.LoadConfig(fsys, path)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded config %s", path)
	return cfg, nil
}

// loadField reads every trace and builds the comparison field.
func loadField(fsys fsutil.FileSystem, cfg *config.Config, specs []traceSpec) (*comparison.Field, error) {
	laps := make([]comparison.DriverLap, 0, len(specs))
	for _, s := range specs {
		tr, err := telemetry.LoadFile(fsys, s.Path, telemetry.ReadOptions{
			Driver:     s.Code,
			SpeedUnits: cfg.GetInputSpeedUnits(),
			RebaseTime: cfg.GetRebaseTime(),
		})
		if err != nil {
			return nil, err
		}
		log.Printf("loaded %s: %d samples, %.1f m", s.Code, tr.Len(), tr.MaxDistance())
		laps = append(laps, comparison.NewDriverLap(s.Code, tr, cfg.ColorFor(s.Code)))
	}
	return comparison.NewField(laps...)
}

// run loads the traces, compares them against reference and writes the
// summary to stdout and delta files to outDir.
func run(ctx context.Context, fsys fsutil.FileSystem, cfg *config.Config, specs []traceSpec, reference, dir string, asJSON bool, stdout io.Writer) (*comparison.Report, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one -trace is required")
	}
	if reference == "" {
		reference = specs[0].Code
	}
	reference = strings.ToUpper(reference)

	field, err := loadField(fsys, cfg, specs)
	if err != nil {
		return nil, err
	}

	cmp := comparison.NewComparator(alignment.NewEngine(cfg.AlignmentConfig()), comparison.Options{
		Workers:    cfg.GetWorkers(),
		MaxDrivers: cfg.GetMaxDrivers(),
	})
	report, err := cmp.Compare(ctx, field, reference)
	if err != nil {
		return nil, err
	}
	for _, sk := range report.Skipped {
		log.Printf("warning: %s not compared: %s", sk.Driver, sk.Reason)
	}

	if asJSON {
		if err := export.WriteReportJSON(stdout, report); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
	} else {
		export.RenderSummary(stdout, field, report, cfg.GetDisplaySpeedUnits())
	}

	if dir != "" {
		paths, err := export.WriteFiles(fsys, dir, report, cfg.GetExportFormat())
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			log.Printf("wrote %s", p)
		}
	}
	return report, nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if len(traces) == 0 {
		log.Fatal("at least one -trace CODE=path.csv is required")
	}

	fsys := fsutil.OSFileSystem{}

	cfg, err := loadConfig(fsys, *configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := applyOverrides(cfg, *exportFormat, *speedUnits, *displayUnits); err != nil {
		log.Fatalf("invalid flags (speed units: %s): %v", units.GetValidUnitsString(), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := run(ctx, fsys, cfg, traces, *refDriver, *outDir, *reportJSON, os.Stdout)
	if err != nil {
		log.Fatalf("comparison failed: %v", err)
	}
	log.Printf("report %s: %d compared, %d skipped in %s", report.ID, len(report.Results), len(report.Skipped), report.Elapsed)
}
