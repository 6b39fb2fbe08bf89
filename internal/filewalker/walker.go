// Package filewalker discovers the language directories and domain files of
// a Contao or XLIFF tree laid out as <root>/<language>/<domain>.<ext>.
package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/text/language"
)

// Extensions of the two tree kinds.
const (
	ExtPHP   = ".php"
	ExtXLIFF = ".xlf"
)

// Walker lists languages and domains on a filesystem.
type Walker struct {
	fs   afero.Fs
	skip map[string]bool
}

// NewWalker creates a Walker. Domains named in skipFiles are never reported.
func NewWalker(fsys afero.Fs, skipFiles []string) *Walker {
	skip := make(map[string]bool, len(skipFiles))
	for _, name := range skipFiles {
		skip[strings.TrimSuffix(strings.TrimSuffix(name, ExtPHP), ExtXLIFF)] = true
	}
	return &Walker{fs: fsys, skip: skip}
}

// FileEntry is one discovered domain file.
type FileEntry struct {
	Language string
	Domain   string
	Path     string
}

// Languages returns the sorted names of the subdirectories of root that are
// valid language tags. A missing root has no languages.
func (w *Walker) Languages(root string) ([]string, error) {
	infos, err := afero.ReadDir(w.fs, root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read directory %s: %w", root, err)
	}

	var langs []string
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		if _, err := language.Parse(info.Name()); err != nil {
			log.Debug().Str("dir", info.Name()).Msg("Skipping directory that is not a language")
			continue
		}
		langs = append(langs, info.Name())
	}
	slices.Sort(langs)
	return langs, nil
}

// Domains returns the sorted domain names of the files with extension ext in
// root/lang.
func (w *Walker) Domains(root, lang, ext string) ([]string, error) {
	dir := filepath.Join(root, lang)
	infos, err := afero.ReadDir(w.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var domains []string
	for _, info := range infos {
		if info.IsDir() || !strings.EqualFold(filepath.Ext(info.Name()), ext) {
			continue
		}
		domain := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
		if domain == "" || w.skip[domain] {
			continue
		}
		domains = append(domains, domain)
	}
	slices.Sort(domains)
	return domains, nil
}

// Walk discovers every domain file with extension ext below root.
func (w *Walker) Walk(root, ext string) ([]FileEntry, error) {
	langs, err := w.Languages(root)
	if err != nil {
		return nil, err
	}

	var entries []FileEntry
	for _, lang := range langs {
		domains, err := w.Domains(root, lang, ext)
		if err != nil {
			log.Warn().Err(err).Str("language", lang).Msg("Error reading language directory")
			continue
		}
		for _, domain := range domains {
			entries = append(entries, FileEntry{
				Language: lang,
				Domain:   domain,
				Path:     Path(root, lang, domain, ext),
			})
		}
	}

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}

// Path returns the location of a domain file.
func Path(root, lang, domain, ext string) string {
	return filepath.Join(root, lang, domain+ext)
}
