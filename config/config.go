// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/CrawX/go-mbox-jobsort/dedupe"
	"github.com/CrawX/go-mbox-jobsort/log"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultConfigFile = "config.toml"

	SourceMbox = "mbox"
	SourceImap = "imap"

	EnvConfigFile = "JOBSORT_CONFIG"
	EnvLoglevel   = "JOBSORT_LOGLEVEL"
)

// Mbox paths that can be set without a config file, with their optional labels.
var envSources = []struct{ path, label string }{
	{"MBOX_PATH", "MBOX_LABEL"},
	{"MBOX_PATH2", "MBOX_LABEL2"},
}

type Source struct {
	Label string
	Type  string

	// mbox file or directory
	Path string

	ImapHost  string
	User      string
	Password  string
	Folders   []string
	Recursive bool
}

type Config struct {
	Sources []Source

	RawOutput     string
	DedupedOutput string
	Database      string

	DedupePolicy  string
	PreviewLength int
	RulesFile     string

	Loglevel *string
}

// LoadDotEnv loads the given env files, .env in the working directory by default, into the environment. Missing
// files are ignored, variables that are already set are not overridden.
func LoadDotEnv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not read .env: %w", err)
	}
	return nil
}

// ConfigFile returns the config file name, JOBSORT_CONFIG overrides the default.
func ConfigFile() string {
	if f := strings.TrimSpace(os.Getenv(EnvConfigFile)); f != "" {
		return f
	}
	return DefaultConfigFile
}

// ReadConfig reads filename and applies the environment on top of it. A missing file is not an error as long as
// the environment configures at least one source.
func ReadConfig(filename string) (*Config, error) {
	config := &Config{
		RawOutput:     "job_emails_raw.csv",
		DedupedOutput: "job_emails_deduped.csv",
		DedupePolicy:  string(dedupe.LastWins),
		PreviewLength: 200,
	}

	_, err := toml.DecodeFile(filename, config)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()

	err = config.validate()
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv() {
	for _, e := range envSources {
		path := strings.TrimSpace(os.Getenv(e.path))
		if path == "" {
			continue
		}
		c.Sources = append(c.Sources, Source{
			Label: strings.TrimSpace(os.Getenv(e.label)),
			Type:  SourceMbox,
			Path:  path,
		})
	}

	if level := strings.TrimSpace(os.Getenv(EnvLoglevel)); level != "" {
		c.Loglevel = &level
	}
}

func (c *Config) applyDefaults() {
	// explicit labels are reserved first, duplicates among them are left for validate
	taken := map[string]bool{}
	for _, s := range c.Sources {
		if label := strings.TrimSpace(s.Label); label != "" {
			taken[label] = true
		}
	}

	for i := range c.Sources {
		s := &c.Sources[i]
		s.Type = strings.ToLower(strings.TrimSpace(s.Type))
		if s.Type == "" {
			s.Type = SourceMbox
		}

		if s.Type == SourceImap && len(s.Folders) == 0 {
			s.Folders = []string{"INBOX"}
		}

		if strings.TrimSpace(s.Label) == "" {
			var label string
			switch s.Type {
			case SourceMbox:
				label = filepath.Base(s.Path)
			case SourceImap:
				label = s.User + "@" + s.ImapHost
			default:
				continue
			}
			s.Label = uniqueLabel(label, taken)
			taken[s.Label] = true
		}
	}
}

// uniqueLabel appends " (2)", " (3)", ... until label is not taken. Two exports of a mail client commonly share a
// file name like Inbox.
func uniqueLabel(label string, taken map[string]bool) string {
	if !taken[label] {
		return label
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", label, n)
		if !taken[candidate] {
			return candidate
		}
	}
}

func (c *Config) validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources configured, add [[Sources]] to the config file or set MBOX_PATH")
	}

	labels := map[string]bool{}
	for i, s := range c.Sources {
		if labels[s.Label] {
			return fmt.Errorf("source %d: Label %q is used more than once", i+1, s.Label)
		}
		labels[s.Label] = true

		err := s.validate()
		if err != nil {
			return fmt.Errorf("source %d (%s): %w", i+1, s.Label, err)
		}
	}

	if err := validateNonEmptyStringField(c.RawOutput, "RawOutput must not be empty, set to a filename for the raw csv export"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.DedupedOutput, "DedupedOutput must not be empty, set to a filename for the deduplicated csv export"); err != nil {
		return err
	}

	if _, err := dedupe.ParsePolicy(c.DedupePolicy); err != nil {
		return fmt.Errorf("invalid DedupePolicy: %w", err)
	}

	if c.PreviewLength <= 0 {
		return fmt.Errorf("PreviewLength must be positive")
	}

	if c.Loglevel != nil {
		if _, err := log.ParseLevel(*c.Loglevel); err != nil {
			return fmt.Errorf("invalid Loglevel: %w", err)
		}
	}

	return nil
}

func (s *Source) validate() error {
	switch s.Type {
	case SourceMbox:
		return validateNonEmptyStringField(s.Path, "Path must not be empty, set to an mbox file or a directory of mbox files")
	case SourceImap:
		if err := validateNonEmptyStringField(s.ImapHost, "ImapHost must not be empty, set to host:port of the imap server"); err != nil {
			return err
		}

		if err := validateNonEmptyStringField(s.User, "User must not be empty, set to username on the imap server"); err != nil {
			return err
		}

		return validateNonEmptyStringField(s.Password, "Password must not be empty, set to password of User on the imap server")
	}

	return fmt.Errorf("unknown Type %q, use %s or %s", s.Type, SourceMbox, SourceImap)
}

func validateNonEmptyStringField(field string, err string) error {
	if len(strings.TrimSpace(field)) == 0 {
		return errors.New(err)
	}

	return nil
}
