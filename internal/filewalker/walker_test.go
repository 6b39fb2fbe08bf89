package filewalker

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func newTree(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for _, f := range files {
		if err := afero.WriteFile(fsys, filepath.FromSlash(f), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return fsys
}

func TestLanguages(t *testing.T) {
	fsys := newTree(t,
		"languages/en/default.php",
		"languages/de/default.php",
		"languages/pt_BR/default.php",
		"languages/templates/x.php",
		"languages/README.md",
	)

	got, err := NewWalker(fsys, nil).Languages("languages")
	if err != nil {
		t.Fatalf("Languages failed: %v", err)
	}
	if diff := cmp.Diff([]string{"de", "en", "pt_BR"}, got); diff != "" {
		t.Errorf("Languages mismatch (-want +got):\n%s", diff)
	}
}

func TestLanguagesMissingRoot(t *testing.T) {
	got, err := NewWalker(afero.NewMemMapFs(), nil).Languages("nowhere")
	if err != nil || got != nil {
		t.Errorf("Languages = %v, %v; want nil, nil", got, err)
	}
}

func TestDomains(t *testing.T) {
	fsys := newTree(t,
		"xliff/de/default.xlf",
		"xliff/de/tl_page.xlf",
		"xliff/de/modules.xlf",
		"xliff/de/notes.txt",
		"xliff/de/default.php",
	)

	tests := []struct {
		name string
		skip []string
		want []string
	}{
		{"all", nil, []string{"default", "modules", "tl_page"}},
		{"skip by domain", []string{"modules"}, []string{"default", "tl_page"}},
		{"skip by file name", []string{"tl_page.php"}, []string{"default", "modules"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewWalker(fsys, tt.skip).Domains("xliff", "de", ExtXLIFF)
			if err != nil {
				t.Fatalf("Domains failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Domains mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWalk(t *testing.T) {
	fsys := newTree(t,
		"contao/en/default.php",
		"contao/en/tl_page.php",
		"contao/fr/default.php",
	)

	got, err := NewWalker(fsys, nil).Walk("contao", ExtPHP)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	want := []FileEntry{
		{Language: "en", Domain: "default", Path: filepath.Join("contao", "en", "default.php")},
		{Language: "en", Domain: "tl_page", Path: filepath.Join("contao", "en", "tl_page.php")},
		{Language: "fr", Domain: "default", Path: filepath.Join("contao", "fr", "default.php")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Walk mismatch (-want +got):\n%s", diff)
	}
}
