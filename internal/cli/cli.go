package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"contao-l10n-sync/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := setupContext()
	defer cancel()

	if err := newRootCmd(afero.NewOsFs()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// globalOptions are the flags shared by every command. Set flags override
// the configuration file and the environment.
type globalOptions struct {
	configFile   string
	contaoDir    string
	xliffDir     string
	baseLanguage string
	languages    []string
	logLevel     string
	dryRun       bool
}

func newRootCmd(fsys afero.Fs) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "ctb",
		Short: "Synchronise Contao language files with XLIFF and Transifex",
		Long: `ctb converts Contao language files (<lang>/<domain>.php) to XLIFF 1.2
documents and back, and exchanges the XLIFF files with a Transifex project.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "project file (default ./"+config.DefaultProjectFile+" if present)")
	flags.StringVar(&opts.contaoDir, "contao", "", "Contao languages directory")
	flags.StringVar(&opts.xliffDir, "xliff", "", "XLIFF directory")
	flags.StringVar(&opts.baseLanguage, "base-language", "", "language the translations are made from")
	flags.StringSliceVar(&opts.languages, "languages", nil, "languages to process (default: all found)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "report changes without writing files")

	rootCmd.AddCommand(toXliffCmd(fsys, opts))
	rootCmd.AddCommand(fromXliffCmd(fsys, opts))
	rootCmd.AddCommand(uploadCmd(fsys, opts))
	rootCmd.AddCommand(downloadCmd(fsys, opts))
	rootCmd.AddCommand(historyCmd(opts))

	return rootCmd
}

// loadConfig resolves the configuration of a command invocation.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("contao") {
		cfg.ContaoDir = opts.contaoDir
	}
	if flags.Changed("xliff") {
		cfg.XliffDir = opts.xliffDir
	}
	if flags.Changed("base-language") {
		cfg.BaseLanguage = opts.baseLanguage
	}
	if flags.Changed("languages") {
		cfg.Languages = opts.languages
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	cfg.DryRun = opts.dryRun

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)
	return cfg, nil
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
