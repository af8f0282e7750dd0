package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile     = "config/atomicactions.yaml"
	DefaultOfficialTests  = "tests/official"
	DefaultCustomTests    = "tests/custom"
	DefaultExclusionsFile = "config/excluded_tests.csv"
	DefaultLogFile        = "logs/atomicactions.jsonl"

	DefaultArchiveURL = "https://github.com/redcanaryco/atomic-red-team/archive/refs/heads/master.zip"
	// DefaultArchiveAtomicsDir is the folder inside the archive's top-level
	// directory that holds the technique folders.
	DefaultArchiveAtomicsDir = "atomics"
)

type Config struct {
	WorkDir           string
	OfficialTestsPath string
	CustomTestsPath   string
	ExclusionsPath    string
	LogPath           string
	ArchiveURL        string
	ArchiveAtomicsDir string
}

// fileConfig is the optional YAML override file. Relative paths resolve
// against the working directory.
type fileConfig struct {
	OfficialTests     string `yaml:"official_tests"`
	CustomTests       string `yaml:"custom_tests"`
	Exclusions        string `yaml:"exclusions"`
	Log               string `yaml:"log"`
	ArchiveURL        string `yaml:"archive_url"`
	ArchiveAtomicsDir string `yaml:"archive_atomics_dir"`
}

// Load resolves the workspace layout under workDir (the current directory
// when empty). logPath overrides both the default and the config file.
func Load(workDir, logPath string) (*Config, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		workDir = wd
	}
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, err
	}

	fc := fileConfig{
		OfficialTests:     DefaultOfficialTests,
		CustomTests:       DefaultCustomTests,
		Exclusions:        DefaultExclusionsFile,
		Log:               DefaultLogFile,
		ArchiveURL:        DefaultArchiveURL,
		ArchiveAtomicsDir: DefaultArchiveAtomicsDir,
	}
	if err := loadFile(filepath.Join(workDir, DefaultConfigFile), &fc); err != nil {
		return nil, err
	}
	if logPath != "" {
		fc.Log = logPath
	}

	return &Config{
		WorkDir:           workDir,
		OfficialTestsPath: resolve(workDir, fc.OfficialTests),
		CustomTestsPath:   resolve(workDir, fc.CustomTests),
		ExclusionsPath:    resolve(workDir, fc.Exclusions),
		LogPath:           resolve(workDir, fc.Log),
		ArchiveURL:        fc.ArchiveURL,
		ArchiveAtomicsDir: fc.ArchiveAtomicsDir,
	}, nil
}

// TestDirs lists the technique directories in load order.
func (c *Config) TestDirs() []string {
	return []string{c.OfficialTestsPath, c.CustomTestsPath}
}

// Directories lists the directories a fresh workspace needs.
func (c *Config) Directories() []string {
	return []string{
		c.OfficialTestsPath,
		c.CustomTestsPath,
		filepath.Dir(c.ExclusionsPath),
		filepath.Dir(c.LogPath),
	}
}

// loadFile overlays non-empty fields of the YAML file at path onto fc.
// A missing file is not an error.
func loadFile(path string, fc *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var override fileConfig
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	overlay(&fc.OfficialTests, override.OfficialTests)
	overlay(&fc.CustomTests, override.CustomTests)
	overlay(&fc.Exclusions, override.Exclusions)
	overlay(&fc.Log, override.Log)
	overlay(&fc.ArchiveURL, override.ArchiveURL)
	overlay(&fc.ArchiveAtomicsDir, override.ArchiveAtomicsDir)
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

// EnsureDir creates path if it does not exist.
func EnsureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}
	return nil
}
