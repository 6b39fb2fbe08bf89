package cli

import (
	"context"
	"errors"
	"slices"
	"time"

	"contao-l10n-sync/internal/config"
	"contao-l10n-sync/internal/contao"
	"contao-l10n-sync/internal/filewalker"
	"contao-l10n-sync/internal/interpolation"
	"contao-l10n-sync/internal/journal"
	"contao-l10n-sync/internal/translation"
	"contao-l10n-sync/internal/worker"
	"contao-l10n-sync/internal/xliff"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// runner executes one sync command. Every language is handled by one worker
// that owns the files it loads.
type runner struct {
	cfg     *config.Config
	fs      afero.Fs
	walker  *filewalker.Walker
	journal *journal.Journal
	command string
	runID   string
	now     func() time.Time
}

func newRunner(cfg *config.Config, fsys afero.Fs, j *journal.Journal, command string) *runner {
	return &runner{
		cfg:     cfg,
		fs:      fsys,
		walker:  filewalker.NewWalker(fsys, cfg.SkipFiles),
		journal: j,
		command: command,
		runID:   journal.NewRunID(),
		now:     time.Now,
	}
}

// savable is a store that is written back to disk.
type savable interface {
	Path() string
	Changed() bool
	Save() error
}

// targetLanguages returns the configured languages, or the languages found
// under root, without the base language.
func (r *runner) targetLanguages(root string) ([]string, error) {
	langs := r.cfg.Languages
	if len(langs) == 0 {
		found, err := r.walker.Languages(root)
		if err != nil {
			return nil, err
		}
		langs = found
	}
	return slices.DeleteFunc(slices.Clone(langs), func(l string) bool { return l == r.cfg.BaseLanguage }), nil
}

// forEachLanguage runs fn for every language on the worker pool and joins
// the errors.
func (r *runner) forEachLanguage(ctx context.Context, langs []string, fn func(ctx context.Context, lang string) (int, error)) error {
	pool := worker.NewPool[string, int](r.cfg.WorkerCount, fn)
	tasks := pool.Execute(ctx, langs)

	changed := 0
	for _, task := range tasks {
		changed += task.Result
		log.Info().
			Str("language", task.Input).
			Int("changed", task.Result).
			Bool("failed", task.Err != nil).
			Msg("Language processed")
	}
	log.Info().Str("command", r.command).Int("languages", len(langs)).Int("changed", changed).Msg("Done")

	return errors.Join(worker.Errors(tasks)...)
}

// forEachDomain runs fn for every domain, logging failures per file and
// carrying on with the next domain.
func (r *runner) forEachDomain(ctx context.Context, lang string, domains []string, fn func(ctx context.Context, domain string) (bool, error)) (int, error) {
	changed := 0
	var errs []error
	for _, domain := range domains {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		ok, err := fn(ctx, domain)
		if err != nil {
			log.Error().Err(err).Str("language", lang).Str("domain", domain).Msg("Sync failed")
			errs = append(errs, err)
			continue
		}
		if ok {
			changed++
		}
	}
	return changed, errors.Join(errs...)
}

func (r *runner) syncer(lang, domain string) *translation.Syncer {
	return translation.NewSyncer(log.With().Str("language", lang).Str("domain", domain).Logger())
}

// save writes a changed file and journals the changes that led to it.
func (r *runner) save(ctx context.Context, f savable, scope journal.Scope, changes []translation.Change) (bool, error) {
	if !f.Changed() {
		return false, nil
	}
	if r.cfg.DryRun {
		log.Info().Str("file", f.Path()).Int("changes", len(changes)).Msg("Would update file (dry run)")
		return true, nil
	}
	if err := f.Save(); err != nil {
		return false, err
	}
	log.Info().Str("file", f.Path()).Int("changes", len(changes)).Msg("Updated file")

	if err := r.journal.Record(ctx, journal.Entries(scope, changes)...); err != nil {
		log.Warn().Err(err).Str("file", f.Path()).Msg("Failed to record journal entries")
	}
	return true, nil
}

func (r *runner) scope(lang, domain string) journal.Scope {
	return journal.Scope{RunID: r.runID, Command: r.command, Language: lang, Domain: domain}
}

func (r *runner) contaoPath(lang, domain string) string {
	return filewalker.Path(r.cfg.ContaoDir, lang, domain, filewalker.ExtPHP)
}

func (r *runner) xliffPath(lang, domain string) string {
	return filewalker.Path(r.cfg.XliffDir, lang, domain, filewalker.ExtXLIFF)
}

func (r *runner) loadContao(lang, domain string) (*contao.File, error) {
	return contao.Load(r.fs, r.contaoPath(lang, domain), lang,
		contao.WithHeader(r.cfg.PHPFileHeader),
		contao.WithProject(r.cfg.Project),
		contao.WithClock(r.now),
	)
}

func (r *runner) loadXliff(lang, domain string) (*xliff.File, error) {
	f, err := xliff.Load(r.fs, r.xliffPath(lang, domain), xliff.WithClock(r.now))
	if err != nil {
		return nil, err
	}
	f.SetOriginal(domain)
	f.SetSourceLanguage(r.cfg.BaseLanguage)
	if lang != r.cfg.BaseLanguage {
		f.SetTargetLanguage(lang)
	}
	return f, nil
}

// ToXliff converts the base language files into XLIFF sources and every
// other language into XLIFF targets.
func (r *runner) ToXliff(ctx context.Context) error {
	langs, err := r.targetLanguages(r.cfg.ContaoDir)
	if err != nil {
		return err
	}
	domains, err := r.walker.Domains(r.cfg.ContaoDir, r.cfg.BaseLanguage, filewalker.ExtPHP)
	if err != nil {
		return err
	}

	return r.forEachLanguage(ctx, append([]string{r.cfg.BaseLanguage}, langs...), func(ctx context.Context, lang string) (int, error) {
		return r.forEachDomain(ctx, lang, domains, func(ctx context.Context, domain string) (bool, error) {
			return r.toXliffFile(ctx, lang, domain)
		})
	})
}

func (r *runner) toXliffFile(ctx context.Context, lang, domain string) (bool, error) {
	base, err := r.loadContao(r.cfg.BaseLanguage, domain)
	if err != nil {
		return false, err
	}
	doc, err := r.loadXliff(lang, domain)
	if err != nil {
		return false, err
	}

	s := r.syncer(lang, domain)
	if lang != r.cfg.BaseLanguage {
		local, err := r.loadContao(lang, domain)
		if err != nil {
			return false, err
		}
		// Targets first: removing a target drops the whole unit, which the
		// source pass below restores without it.
		if _, err := s.Sync(translation.WithKeys(local, base.Keys()), doc.Mode(xliff.Target)); err != nil {
			return false, err
		}
	}
	if _, err := s.SyncFrom(base, doc.Mode(xliff.Source), true); err != nil {
		return false, err
	}

	return r.save(ctx, doc, r.scope(lang, domain), s.Changes())
}

// FromXliff writes the XLIFF targets back into the Contao language files.
func (r *runner) FromXliff(ctx context.Context) error {
	langs, err := r.targetLanguages(r.cfg.XliffDir)
	if err != nil {
		return err
	}

	return r.forEachLanguage(ctx, langs, func(ctx context.Context, lang string) (int, error) {
		domains, err := r.walker.Domains(r.cfg.XliffDir, lang, filewalker.ExtXLIFF)
		if err != nil {
			return 0, err
		}
		return r.forEachDomain(ctx, lang, domains, func(ctx context.Context, domain string) (bool, error) {
			return r.fromXliffFile(ctx, lang, domain)
		})
	})
}

func (r *runner) fromXliffFile(ctx context.Context, lang, domain string) (bool, error) {
	doc, err := xliff.Load(r.fs, r.xliffPath(lang, domain))
	if err != nil {
		return false, err
	}
	local, err := r.loadContao(lang, domain)
	if err != nil {
		return false, err
	}

	if err := checkPlaceholders(doc, lang, domain); err != nil {
		return false, err
	}

	s := r.syncer(lang, domain)
	if _, err := s.SyncFrom(doc.Mode(xliff.Target), local, true); err != nil {
		return false, err
	}
	return r.save(ctx, local, r.scope(lang, domain), s.Changes())
}

// checkPlaceholders warns about targets whose placeholders differ from their
// source.
func checkPlaceholders(doc *xliff.File, lang, domain string) error {
	for _, key := range doc.Keys() {
		source, ok, err := doc.Get(xliff.Source, key)
		if err != nil {
			return err
		}
		target, tok, err := doc.Get(xliff.Target, key)
		if err != nil {
			return err
		}
		if !ok || !tok {
			continue
		}
		if m := interpolation.Compare(source, target); !m.Empty() {
			log.Warn().
				Str("language", lang).
				Str("domain", domain).
				Str("key", key).
				Strs("missing", m.Missing).
				Strs("extra", m.Extra).
				Msg("Placeholder mismatch")
		}
	}
	return nil
}
