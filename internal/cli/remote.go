package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lerrors "contao-l10n-sync/internal/errors"
	"contao-l10n-sync/internal/filewalker"
	"contao-l10n-sync/internal/transifex"
	"contao-l10n-sync/internal/translation"
	"contao-l10n-sync/internal/xliff"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Upload pushes the base language XLIFF files to Transifex, creating
// resources that do not exist yet.
func (r *runner) Upload(ctx context.Context, tx *transifex.Client) error {
	domains, err := r.walker.Domains(r.cfg.XliffDir, r.cfg.BaseLanguage, filewalker.ExtXLIFF)
	if err != nil {
		return err
	}
	resources, err := tx.ListResources(ctx)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(resources))
	for _, res := range resources {
		existing[res.Slug] = true
	}

	_, err = r.forEachDomain(ctx, r.cfg.BaseLanguage, domains, func(ctx context.Context, domain string) (bool, error) {
		slug := r.cfg.ResourceSlug(domain)
		path := r.xliffPath(r.cfg.BaseLanguage, domain)
		content, err := afero.ReadFile(r.fs, path)
		if err != nil {
			return false, lerrors.NewIO("read", path, err)
		}

		if r.cfg.DryRun {
			log.Info().Str("resource", slug).Bool("exists", existing[slug]).Msg("Would upload (dry run)")
			return false, nil
		}
		if !existing[slug] {
			return true, tx.CreateResource(ctx, slug, domain, content)
		}
		result, err := tx.UploadSource(ctx, slug, content)
		if err != nil {
			return false, err
		}
		log.Info().
			Str("resource", slug).
			Int("added", result.Added).
			Int("updated", result.Updated).
			Int("deleted", result.Deleted).
			Msg("Uploaded source")
		return result.Added+result.Updated+result.Deleted > 0, nil
	})
	return err
}

// Download fetches the translations of every project resource and merges
// them into the XLIFF targets.
func (r *runner) Download(ctx context.Context, tx *transifex.Client) error {
	langs, err := r.targetLanguages(r.cfg.XliffDir)
	if err != nil {
		return err
	}
	resources, err := tx.ListResources(ctx)
	if err != nil {
		return err
	}

	var domains []string
	for _, res := range resources {
		if !strings.HasPrefix(res.Slug, r.cfg.Prefix) {
			continue
		}
		domains = append(domains, strings.TrimPrefix(res.Slug, r.cfg.Prefix))
	}

	return r.forEachLanguage(ctx, langs, func(ctx context.Context, lang string) (int, error) {
		return r.forEachDomain(ctx, lang, domains, func(ctx context.Context, domain string) (bool, error) {
			return r.downloadFile(ctx, tx, lang, domain)
		})
	})
}

func (r *runner) downloadFile(ctx context.Context, tx *transifex.Client, lang, domain string) (bool, error) {
	data, err := tx.DownloadTranslation(ctx, r.cfg.ResourceSlug(domain), lang)
	if err != nil {
		if transifex.IsNotFound(err) {
			log.Debug().Str("language", lang).Str("domain", domain).Msg("No translation on Transifex")
			return false, nil
		}
		return false, err
	}
	remote, err := xliff.Parse(r.fs, "", data)
	if err != nil {
		return false, fmt.Errorf("downloaded %s/%s: %w", lang, domain, err)
	}

	base, err := xliff.Load(r.fs, r.xliffPath(r.cfg.BaseLanguage, domain))
	if err != nil {
		return false, err
	}
	if base.Len() == 0 {
		return false, errors.New("no base language XLIFF file, run to-xliff first")
	}
	local, err := r.loadXliff(lang, domain)
	if err != nil {
		return false, err
	}

	s := r.syncer(lang, domain)
	if _, err := s.Sync(translation.Restrict(remote.Mode(xliff.Target), base.Keys()), local.Mode(xliff.Target)); err != nil {
		return false, err
	}
	if _, err := s.SyncFrom(base.Mode(xliff.Source), local.Mode(xliff.Source), true); err != nil {
		return false, err
	}
	return r.save(ctx, local, r.scope(lang, domain), s.Changes())
}
