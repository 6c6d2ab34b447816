package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"
	"golang.org/x/term"

	cwtlogger "github.com/ramorimdias/cwtlogger"
	"github.com/ramorimdias/cwtlogger/internal/adapters/sim"
	"github.com/ramorimdias/cwtlogger/internal/api"
	"github.com/ramorimdias/cwtlogger/internal/cliconfig"
	logAdapter "github.com/ramorimdias/cwtlogger/pkg/log"
)

const helpBanner = `
 ██████╗██╗    ██╗████████╗   ██╗      ██████╗  ██████╗
██╔════╝██║    ██║╚══██╔══╝   ██║     ██╔═══██╗██╔════╝
██║     ██║ █╗ ██║   ██║      ██║     ██║   ██║██║  ███╗
██║     ██║███╗██║   ██║      ██║     ██║   ██║██║   ██║
╚██████╗╚███╔███╔╝   ██║      ███████╗╚██████╔╝╚██████╔╝
 ╚═════╝ ╚══╝╚══╝    ╚═╝      ╚══════╝ ╚═════╝  ╚═════╝
`

const helpDescription = `
Log multi-channel resistance from a GW Instek GPP-4323 bench supply.

Highlights:
  - Drives up to four channels at the test voltage and samples resistance on a fixed cadence.
  - Appends every sample to a crash-safe CSV and refreshes an Excel workbook on a timer.
  - Serves a local HTTP API with a live readout and a 48-hour plotting window.
  - Survives restarts: resume the previous session or archive it and start fresh.
  - Configure via file, environment, or flags; --simulate runs without hardware.
`

var longHelp = strings.TrimSpace(helpBanner) + "\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  cwtlogger --port /dev/ttyUSB0
  cwtlogger --simulate --start --channels 1,2
  cwtlogger --config $HOME/.cwtlogger/config.toml --fresh
  cwtlogger export --data-dir ~/cwt_logs
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var (
		cfgPath   string
		channels  []int
		autoStart bool
		autoCheck bool
		resume    bool
		fresh     bool
	)

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "cwtlogger",
		Short:   "Log multi-channel resistance from a GW Instek GPP-4323 bench supply",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.cwtlogger/config.toml),
			// then environment, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Apply environment variables (CWTLOGGER_*)
			// These override file config but are overridden by flags.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			// Resolve --port auto against the attached serial devices.
			if err := cliconfig.ResolveSerialPort(&cfg); err != nil {
				return err
			}

			// Validate and set derived defaults
			if err := cfg.Validate(); err != nil {
				return err
			}

			log = log.Level(logAdapter.ParseLevel(cfg.LogLevel))
			log.Info().Interface("config", cfg).Msg("configuration")

			libCfg := cwtlogger.Config{
				DataDir:        cfg.DataDir,
				ArtifactPrefix: cfg.ArtifactPrefix,
				Port:           cfg.Port,
				Baud:           cfg.Baud,
				SetVoltage:     cfg.SetVoltage,
				CurrentLimit:   cfg.CurrentLimit,
				SampleInterval: cfg.SampleInterval,
				ExportInterval: cfg.ExportInterval,
				CachePoints:    cfg.CachePoints,
			}

			// Create zerolog adapter for the library
			zerologAdapter := logAdapter.NewZerologAdapterWithLogger(log)

			opts := []cwtlogger.Option{
				cwtlogger.WithLogger(zerologAdapter),
			}
			if cfg.Simulate {
				opts = append(opts, cwtlogger.WithPowerSource(sim.New()))
			}
			if cfg.Retention {
				opts = append(opts, cwtlogger.WithRetentionConfig(cwtlogger.RetentionConfig{
					Enabled:       true,
					Schedule:      cfg.ArchiveSchedule,
					CheckInterval: cfg.ArchiveCheck,
					HighWatermark: cfg.ArchiveHighWater,
					LowWatermark:  cfg.ArchiveLowWater,
				}))
			}

			rec, err := cwtlogger.New(libCfg, opts...)
			if err != nil {
				return fmt.Errorf("create recorder: %w", err)
			}
			defer rec.Close()

			// Decide what to do with history from a previous process. Flags
			// win; otherwise ask on a terminal and default to resuming.
			if rec.HasPriorData() {
				keep := true
				switch {
				case fresh:
					keep = false
				case resume:
					keep = true
				case term.IsTerminal(int(os.Stdin.Fd())):
					keep = confirmResume(rec.Session().Rows)
				}
				if keep {
					log.Info().Int("rows", rec.Session().Rows).Msg("resuming previous session")
				} else {
					if err := rec.ClearCache(); err != nil {
						return fmt.Errorf("clear history: %w", err)
					}
					log.Info().Msg("previous session archived, starting fresh")
				}
			}

			// Setup signal handling for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			// Serve the control API until shutdown.
			apiErrCh := make(chan error, 1)
			go func() {
				apiErrCh <- api.Start(ctx, api.Options{
					Controller:   rec,
					Addr:         cfg.APIAddr,
					WindowSpan:   cfg.WindowSpan,
					CurrentLimit: cfg.CurrentLimit,
					Logger:       zerologAdapter,
				})
			}()

			// Push sampling cadence edits from the config file to the
			// running recorder; everything else needs a restart.
			watcher := cliconfig.NewConfigWatcher(cfgFile, func(fc cliconfig.FileConfig) {
				if fc.SampleInterval == "" {
					return
				}
				d, err := time.ParseDuration(fc.SampleInterval)
				if err != nil {
					log.Warn().Err(err).Msg("ignoring config edit: bad sample_interval")
					return
				}
				if err := rec.SetInterval(d); err != nil {
					log.Warn().Err(err).Msg("ignoring config edit")
					return
				}
				log.Info().Dur("interval", d).Msg("sampling interval updated from config")
			})
			go watcher.Run(ctx)

			if autoStart || autoCheck {
				if len(channels) == 0 {
					return fmt.Errorf("--channels is required with --start or --check")
				}
				start := rec.StartLogging
				if autoCheck {
					start = rec.StartCheck
				}
				if err := start(ctx, channels, 0); err != nil {
					return fmt.Errorf("start run: %w", err)
				}
			}

			// Wait for a signal or an API server failure.
			var apiErr error
			select {
			case <-sigCh:
				log.Info().Msg("received signal, stopping...")
			case apiErr = <-apiErrCh:
				if apiErr != nil {
					log.Error().Err(apiErr).Msg("api server failed")
				}
			}

			cancel()
			if err := rec.Stop(); err != nil {
				return fmt.Errorf("stop recorder: %w", err)
			}
			return apiErr
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.cwtlogger/config.toml)")
	root.Flags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for the CSV log, spreadsheets, and archives (default: ~/cwt_logs)")
	root.Flags().StringVar(&cfg.ArtifactPrefix, "artifact-prefix", cfg.ArtifactPrefix, "prefix for minted spreadsheet names")

	root.Flags().StringVar(&cfg.Port, "port", cfg.Port, fmt.Sprintf("serial device of the instrument (%q probes attached ports)", cliconfig.PortAuto))
	root.Flags().IntVar(&cfg.Baud, "baud", cfg.Baud, "serial line rate")
	root.Flags().BoolVar(&cfg.Simulate, "simulate", cfg.Simulate, "run against a simulated instrument instead of hardware")

	root.Flags().Float64Var(&cfg.SetVoltage, "set-voltage", cfg.SetVoltage, "test voltage applied to enabled channels (the fixture is characterized at 5V)")
	if err := root.Flags().MarkHidden("set-voltage"); err != nil {
		log.Info().Err(err).Msg("failed to hide set-voltage flag")
	}
	root.Flags().Float64Var(&cfg.CurrentLimit, "current-limit", cfg.CurrentLimit, "per-channel current limit in amps")

	root.Flags().DurationVar(&cfg.SampleInterval, "interval", cfg.SampleInterval, "sampling cadence")
	root.Flags().DurationVar(&cfg.ExportInterval, "export-interval", cfg.ExportInterval, "spreadsheet refresh cadence during a run")
	root.Flags().DurationVar(&cfg.WindowSpan, "window", cfg.WindowSpan, "default history span served to plots")
	root.Flags().IntVar(&cfg.CachePoints, "cache-points", cfg.CachePoints, "samples kept in memory for window queries")

	root.Flags().StringVar(&cfg.APIAddr, "api-addr", cfg.APIAddr, "control API listen address")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	root.Flags().BoolVar(&cfg.Retention, "retention", cfg.Retention, "cap the archive directory by sweeping the oldest archives")
	root.Flags().StringVar(&cfg.ArchiveSchedule, "archive-schedule", cfg.ArchiveSchedule, "cron expression for retention sweeps (overrides --archive-check)")
	root.Flags().DurationVar(&cfg.ArchiveCheck, "archive-check", cfg.ArchiveCheck, "how often to check the archive directory size")
	root.Flags().Int64Var(&cfg.ArchiveHighWater, "archive-high-water", cfg.ArchiveHighWater, "archive size in bytes that triggers a sweep")
	root.Flags().Int64Var(&cfg.ArchiveLowWater, "archive-low-water", cfg.ArchiveLowWater, "archive size in bytes a sweep stops at")

	root.Flags().IntSliceVar(&channels, "channels", nil, "1-based channels for --start or --check, e.g. 1,2")
	root.Flags().BoolVar(&autoStart, "start", false, "begin a logging run immediately")
	root.Flags().BoolVar(&autoCheck, "check", false, "begin a check run immediately")
	root.Flags().BoolVar(&resume, "resume", false, "keep history from a previous session without asking")
	root.Flags().BoolVar(&fresh, "fresh", false, "archive history from a previous session without asking")
	root.MarkFlagsMutuallyExclusive("start", "check")
	root.MarkFlagsMutuallyExclusive("resume", "fresh")

	root.AddCommand(exportCommand())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("cwtlogger")
		os.Exit(1)
	}
}

// confirmResume asks whether to keep the persisted history. Defaults to yes.
func confirmResume(rows int) bool {
	fmt.Fprintf(os.Stderr, "Found %d samples from a previous session. Resume appending? [Y/n] ", rows)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

// exportCommand writes the spreadsheet for the persisted history and exits.
// Useful after a crash, or to pull a workbook without stopping anything.
func exportCommand() *cobra.Command {
	var (
		dataDir string
		prefix  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the spreadsheet for the persisted history and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataDir == "" {
				dataDir = cliconfig.DefaultDataDir()
			}

			// Exports never talk to the instrument, so any source satisfies
			// the recorder here.
			rec, err := cwtlogger.New(cwtlogger.Config{
				DataDir:        dataDir,
				ArtifactPrefix: prefix,
			}, cwtlogger.WithPowerSource(sim.New()))
			if err != nil {
				return err
			}
			defer rec.Close()

			path, err := rec.ExportNow(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory holding the CSV log (default: ~/cwt_logs)")
	cmd.Flags().StringVar(&prefix, "artifact-prefix", "gpp_", "prefix for a newly minted spreadsheet name")
	return cmd
}
