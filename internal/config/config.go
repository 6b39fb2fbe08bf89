package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultProjectFile is read from the working directory when no project file
// is given.
const DefaultProjectFile = "ctb.yml"

type Config struct {
	Project       string
	Prefix        string
	ContaoDir     string
	XliffDir      string
	BaseLanguage  string
	Languages     []string
	SkipFiles     []string
	PHPFileHeader string

	TransifexToken string
	TransifexURL   string
	DatabaseURL    string
	WorkerCount    int
	LogLevel       string
	DryRun         bool
}

// projectFile is the YAML layout of ctb.yml.
type projectFile struct {
	Project       string   `yaml:"project"`
	Prefix        string   `yaml:"prefix"`
	Contao        string   `yaml:"contao"`
	Xliff         string   `yaml:"xliff"`
	BaseLanguage  string   `yaml:"base_language"`
	Languages     []string `yaml:"languages"`
	SkipFiles     []string `yaml:"skip_files"`
	PHPFileHeader string   `yaml:"php_file_header"`
}

// Load builds the configuration from, in increasing precedence: built-in
// defaults, the YAML project file, a .env file and the environment. An empty
// path reads DefaultProjectFile if it exists.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}
	return load(afero.NewOsFs(), path)
}

func load(fsys afero.Fs, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultProjectFile
	}

	var pf projectFile
	data, err := afero.ReadFile(fsys, path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("parse project file %s: %w", path, err)
		}
		log.Debug().Str("file", path).Msg("Loaded project file")
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read project file %s: %w", path, err)
	}

	return &Config{
		Project:       getEnv("CTB_PROJECT", pf.Project),
		Prefix:        getEnv("CTB_PREFIX", pf.Prefix),
		ContaoDir:     getEnv("CTB_CONTAO_DIR", orDefault(pf.Contao, "languages")),
		XliffDir:      getEnv("CTB_XLIFF_DIR", orDefault(pf.Xliff, "xliff")),
		BaseLanguage:  getEnv("CTB_BASE_LANGUAGE", orDefault(pf.BaseLanguage, "en")),
		Languages:     getEnvList("CTB_LANGUAGES", pf.Languages),
		SkipFiles:     getEnvList("CTB_SKIP_FILES", pf.SkipFiles),
		PHPFileHeader: pf.PHPFileHeader,

		TransifexToken: getEnv("TRANSIFEX_TOKEN", ""),
		TransifexURL:   getEnv("TRANSIFEX_URL", "https://www.transifex.com"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		WorkerCount:    getEnvInt("WORKER_COUNT", 4),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.ContaoDir == "" {
		return errors.New("contao directory is not set")
	}
	if c.XliffDir == "" {
		return errors.New("xliff directory is not set")
	}
	if _, err := language.Parse(c.BaseLanguage); err != nil {
		return fmt.Errorf("invalid base language %q: %w", c.BaseLanguage, err)
	}
	for _, lang := range c.Languages {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("invalid language %q: %w", lang, err)
		}
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker count must be positive, got %d", c.WorkerCount)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// ResourceSlug returns the Transifex resource of a domain.
func (c *Config) ResourceSlug(domain string) string {
	return c.Prefix + domain
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring non-numeric setting")
		return fallback
	}
	return n
}

// getEnvList splits a comma separated variable.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
