// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// AppName is the directory name used under the user config directory
	AppName = "projmake"
	// DefaultTemplate is used when neither the command line nor the settings file names one
	DefaultTemplate = "default"

	templatesDirName = "templates"
)

// 📄 FileNames lists the settings files Load looks for, in order
var FileNames = []string{
	"config.hcl",
	"config.yaml",
	"config.yml",
	"config.json",
	"config.toml",
}

// 🔌 Parser is the interface for settings parsers
type Parser interface {
	// 📝 Parse parses the settings from bytes
	Parse(ctx context.Context, data []byte) (*Settings, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Settings is the optional user settings file stored in the config root
type Settings struct {
	// DefaultTemplate is the template name used when -t is not given
	DefaultTemplate string `json:"default_template,omitempty" yaml:"default_template,omitempty" toml:"default_template,omitempty" validate:"omitempty,excludesall=/\\,ne=.,ne=.."`
	// Ignore holds doublestar patterns, relative to the template root, that are never copied
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty" toml:"ignore,omitempty" validate:"dive,required"`
	// TemplatesDir overrides <root>/templates
	TemplatesDir string `json:"templates_dir,omitempty" yaml:"templates_dir,omitempty" toml:"templates_dir,omitempty"`

	location string
}

// Location returns the file the settings were read from, or "" for defaults
func (s *Settings) Location() string {
	return s.location
}

// 🏭 Default returns the settings used when no settings file exists
func Default(root string) *Settings {
	s := &Settings{}
	s.applyDefaults(root)
	return s
}

func (s *Settings) applyDefaults(root string) {
	if s.DefaultTemplate == "" {
		s.DefaultTemplate = DefaultTemplate
	}
	switch {
	case s.TemplatesDir == "":
		s.TemplatesDir = TemplatesDir(root)
	default:
		dir := expandHome(s.TemplatesDir)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		s.TemplatesDir = filepath.Clean(dir)
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// 🔍 Validate checks if the settings are valid
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return errors.Errorf("invalid settings: %w", err)
	}
	for _, pattern := range s.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	return nil
}

// 📝 String returns a string representation of the settings
func (s *Settings) String() string {
	return fmt.Sprintf("templates=%s default=%s ignore=%d", s.TemplatesDir, s.DefaultTemplate, len(s.Ignore))
}

// 🎯 Load reads the first settings file found in root. A missing file is not
// an error; Default(root) is returned instead.
func Load(ctx context.Context, root string) (*Settings, error) {
	logger := zerolog.Ctx(ctx)

	for _, name := range FileNames {
		path := filepath.Join(root, name)

		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Errorf("reading settings file: %w", err)
		}

		logger.Debug().Str("path", path).Msg("loading settings")

		p := GetParser(path)
		if p == nil {
			return nil, errors.Errorf("no parser found for file: %s", path)
		}

		s, err := p.Parse(ctx, data)
		if err != nil {
			return nil, errors.Errorf("parsing %s: %w", path, err)
		}
		s.location = path
		s.applyDefaults(root)

		if err := s.Validate(); err != nil {
			return nil, errors.Errorf("validating %s: %w", path, err)
		}

		return s, nil
	}

	logger.Debug().Str("root", root).Msg("no settings file, using defaults")
	return Default(root), nil
}

// 🏠 RootDir returns the configuration root. override wins when set;
// otherwise it is ~/.config/projmake.
func RootDir(override string) (string, error) {
	if override != "" {
		abs, err := filepath.Abs(expandHome(override))
		if err != nil {
			return "", errors.Errorf("resolving config root: %w", err)
		}
		return abs, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// TemplatesDir returns <root>/templates
func TemplatesDir(root string) string {
	return filepath.Join(root, templatesDirName)
}

// 🏗️ EnsureLayout creates root and root/templates if they are missing and
// returns the directories it created.
func EnsureLayout(ctx context.Context, root string) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	var created []string
	for _, dir := range []string{root, TemplatesDir(root)} {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return created, errors.Errorf("%s exists and is not a directory", dir)
			}
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return created, errors.Errorf("checking %s: %w", dir, err)
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, errors.Errorf("creating %s: %w", dir, err)
		}
		logger.Debug().Str("path", dir).Msg("created config directory")
		created = append(created, dir)
	}

	return created, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
