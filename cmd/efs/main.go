package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/efs/internal/config"
	"github.com/bamsammich/efs/internal/image"
	"github.com/bamsammich/efs/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	disk        string
	diskType    string
	format      string
	maxEntries  uint32
	verbose     bool
	logFile     string
	noChecksum  bool
	showVersion bool
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "efs [-d image] [-t mbr|gpt] [-f true|false]",
		Short: "Format or inspect an EFS metadata image",
		Long: `Format or inspect an EFS metadata image.

With -f true the image is (re)created: a header followed by an entry table
whose first slot holds the root directory. Any previous content is replaced.
Otherwise the image is loaded and a summary of its header and root entry is
printed.

Images whose name ends in .zst are stored zstd-compressed.`,
		Example: `  # Create a fresh image in the current directory
  efs -f true

  # Format a GPT-tagged image, then inspect it
  efs -d disk.img -t gpt -f true
  efs -d disk.img -t gpt

  # Compressed image with a JSON log of what happened
  efs -d disk.img.zst -f true --log efs.log`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.showVersion {
				fmt.Fprintf(stdout, "efs %s\n", version)
				return nil
			}

			// Load optional config file.
			cfg, cfgErr := config.Load()
			applyConfigDefaults(cmd.Flags(), cfg.Defaults, &opts)

			closeLog, err := setupLogging(cmd.ErrOrStderr(), opts.verbose, opts.logFile)
			if err != nil {
				return err
			}
			defer closeLog()

			if cfgErr != nil {
				slog.Warn("failed to load config", "path", config.Path(), "error", cfgErr)
			}

			return execute(stdout, opts)
		},
	}

	f := rootCmd.Flags()
	f.StringVarP(&opts.disk, "disk", "d", image.DefaultDiskName, "image file to format or load")
	f.StringVarP(&opts.diskType, "type", "t", "", "disk type: mbr or gpt (informational)")
	f.StringVarP(&opts.format, "format", "f", "false", "format the image (true or false)")
	f.Uint32Var(&opts.maxEntries, "max-entries", image.DefaultMaxEntries,
		"refuse to load images declaring more entries than this")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	f.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")
	f.BoolVar(&opts.noChecksum, "no-checksum", false, "skip the BLAKE3 digest in the load summary")
	f.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	rootCmd.AddCommand(docsCmd)
	return rootCmd
}

func execute(stdout io.Writer, opts options) error {
	disk := image.Disk{
		Name: opts.disk,
		Type: image.ParseDiskType(opts.diskType),
	}
	if opts.diskType != "" {
		fmt.Fprintf(stdout, "Type: %s\n", strings.ToUpper(opts.diskType))
	}

	imgOpts := image.Options{MaxEntries: opts.maxEntries}

	if strings.EqualFold(strings.TrimSpace(opts.format), "true") {
		if err := image.Format(disk, imgOpts); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		fmt.Fprintln(stdout, "Header written successfully.")
		return nil
	}

	fs, err := image.Load(disk, imgOpts)
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	summary := ui.Summary{
		Path:   disk.Name,
		Header: fs.Header,
		Root:   *fs.Root(),
	}
	if disk.Type != image.DiskTypeNone {
		summary.DiskType = disk.Type.String()
	}
	if !opts.noChecksum {
		sum, err := image.Checksum(disk.Name)
		if err != nil {
			slog.Warn("checksum failed", "path", disk.Name, "error", err)
		} else {
			summary.Checksum = sum
		}
	}

	return ui.PrintSummary(stdout, summary, isTerminal(stdout))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.IsTTY(f.Fd())
}

// setupLogging installs the default slog logger. The returned func closes
// the JSON log file, if any.
func setupLogging(stderr io.Writer, verbose bool, logFile string) (func(), error) {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	textHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	var logHandler slog.Handler = textHandler
	closeFn := func() {}
	if logFile != "" {
		lf, err := os.Create(logFile)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		closeFn = func() { lf.Close() }
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))
	return closeFn, nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(flags *pflag.FlagSet, defaults config.DefaultsConfig, opts *options) {
	if !flags.Changed("disk") && defaults.Disk != nil {
		opts.disk = *defaults.Disk
	}
	if !flags.Changed("type") && defaults.Type != nil {
		opts.diskType = *defaults.Type
	}
	if !flags.Changed("max-entries") && defaults.MaxEntries != nil {
		opts.maxEntries = *defaults.MaxEntries
	}
	if !flags.Changed("verbose") && defaults.Verbose != nil {
		opts.verbose = *defaults.Verbose
	}
}
