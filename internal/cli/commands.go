package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"contao-l10n-sync/internal/config"
	"contao-l10n-sync/internal/journal"
	"contao-l10n-sync/internal/textutil"
	"contao-l10n-sync/internal/transifex"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func toXliffCmd(fsys afero.Fs, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "to-xliff",
		Short: "Convert Contao language files to XLIFF",
		Long: `Writes the base language strings as XLIFF sources and the strings of every
other language as XLIFF targets. Units whose key left the base language are
removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, fsys, opts, "to-xliff", (*runner).ToXliff)
		},
	}
}

func fromXliffCmd(fsys afero.Fs, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "from-xliff",
		Short: "Write XLIFF translations back to Contao language files",
		Long: `Replaces the content of every non-base Contao language file with the XLIFF
targets. Keys without a target are removed; a file left without keys is
deleted. Targets whose placeholders differ from the source are reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, fsys, opts, "from-xliff", (*runner).FromXliff)
		},
	}
}

func uploadCmd(fsys afero.Fs, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload",
		Short: "Upload the base language XLIFF files to Transifex",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTransifex(cmd, fsys, opts, "upload", (*runner).Upload)
		},
	}
}

func downloadCmd(fsys afero.Fs, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Download translations from Transifex into the XLIFF files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTransifex(cmd, fsys, opts, "download", (*runner).Download)
		},
	}
}

func historyCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the latest journal entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			j, err := journal.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tCOMMAND\tLANGUAGE\tDOMAIN\tOP\tKEY")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.Local().Format(time.DateTime), e.Command, e.Language, e.Domain, e.Op, textutil.Truncate(e.Key, 60))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show")
	return cmd
}

// withRunner loads the configuration and journal and runs fn.
func withRunner(cmd *cobra.Command, fsys afero.Fs, opts *globalOptions, name string, fn func(*runner, context.Context) error) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	j, err := journal.Open(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer j.Close()

	return fn(newRunner(cfg, fsys, j, name), cmd.Context())
}

// withTransifex is withRunner for commands that talk to Transifex.
func withTransifex(cmd *cobra.Command, fsys afero.Fs, opts *globalOptions, name string, fn func(*runner, context.Context, *transifex.Client) error) error {
	return withRunner(cmd, fsys, opts, name, func(r *runner, ctx context.Context) error {
		if err := requireTransifex(r.cfg); err != nil {
			return err
		}
		return fn(r, ctx, transifex.NewClient(r.cfg.TransifexURL, r.cfg.Project, r.cfg.TransifexToken))
	})
}

func requireTransifex(cfg *config.Config) error {
	if cfg.Project == "" {
		return errors.New("no Transifex project configured (CTB_PROJECT or project in the project file)")
	}
	if cfg.TransifexToken == "" {
		return errors.New("TRANSIFEX_TOKEN is not set")
	}
	return nil
}
