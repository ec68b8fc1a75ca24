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

package template

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/projmake/pkg/log"
	"gitlab.com/tozd/go/errors"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// 🔧 Options configures a Materializer
type Options struct {
	// TemplatesDir holds <language>/<template> trees
	TemplatesDir string
	// Fs defaults to the OS filesystem
	Fs afero.Fs
	// Ignore holds doublestar patterns matched against slash-separated paths
	// relative to the template root
	Ignore []string
	// Logger defaults to the logger stored in the context
	Logger *log.Logger
}

// 🏗️ Materializer copies a template tree into a destination directory
type Materializer struct {
	fs           afero.Fs
	templatesDir string
	ignore       []string
	logger       *log.Logger
}

// 🏭 New creates a new materializer
func New(opts Options) (*Materializer, error) {
	if opts.TemplatesDir == "" {
		return nil, errors.Errorf("templates dir is required")
	}
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	return &Materializer{
		fs:           opts.Fs,
		templatesDir: filepath.Clean(opts.TemplatesDir),
		ignore:       opts.Ignore,
		logger:       opts.Logger,
	}, nil
}

// 📍 Resolve returns <templates-dir>/<language>/<templateName>
func (m *Materializer) Resolve(language, templateName string) string {
	return filepath.Join(m.templatesDir, language, templateName)
}

// 📄 CopiedFile is a file written to the destination
type CopiedFile struct {
	Path   string // relative to the template root
	Kind   ContentKind
	Size   int
	Status log.FileStatus
}

// ⏭️ SkippedFile is a text file that failed to decode
type SkippedFile struct {
	Path string // relative to the template root
	Err  error
}

// 📊 Result describes what a materialization did
type Result struct {
	TemplateRoot string
	Destination  string
	Directories  []string // created, relative to the template root
	Files        []CopiedFile
	Skipped      []SkippedFile
	Ignored      []string // matched an ignore pattern
}

// run carries the state of a single Materialize call
type run struct {
	*Materializer
	ctx    context.Context
	logger *log.Logger
	zlog   *zerolog.Logger
	root   string
	dest   string
	// nested is the destination when it lies inside the template root
	nested string
	result *Result
}

// 🏃 Materialize resolves the template named by req and mirrors it into
// req.DestinationDir. A missing template fails before anything is touched.
// Text files that are not valid UTF-8 are skipped; every other failure stops
// the run where it happened and nothing already written is rolled back.
func (m *Materializer) Materialize(ctx context.Context, req Request) (*Result, error) {
	req = req.withDefaults()

	logger := m.logger
	if logger == nil {
		logger = log.FromContext(ctx)
	}

	root := m.Resolve(req.Language, req.TemplateName)
	info, err := m.fs.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, errors.WithStack(&NotFoundError{Path: root})
	case err != nil:
		return nil, errors.Errorf("checking template %s: %w", root, err)
	case !info.IsDir():
		return nil, errors.WithStack(&NotFoundError{Path: root})
	}

	nested, err := nestedDestination(root, req.DestinationDir)
	if err != nil {
		return nil, err
	}

	logger.TemplateSelected(root)

	r := &run{
		Materializer: m,
		ctx:          ctx,
		logger:       logger,
		zlog:         zerolog.Ctx(ctx),
		root:         root,
		dest:         req.DestinationDir,
		nested:       nested,
		result: &Result{
			TemplateRoot: root,
			Destination:  req.DestinationDir,
		},
	}

	// The trailing separator makes the walk follow a symlinked template root.
	if err := afero.Walk(m.fs, root+string(filepath.Separator), r.visit); err != nil {
		return r.result, err
	}

	return r.result, nil
}

// 🚶 visit handles one walk entry
func (r *run) visit(path string, info os.FileInfo, err error) error {
	if err != nil {
		return errors.Errorf("walking %s: %w", path, err)
	}
	if err := r.ctx.Err(); err != nil {
		return errors.Errorf("materializing cancelled: %w", err)
	}

	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return errors.Errorf("relativizing %s: %w", path, err)
	}

	if info.IsDir() {
		if rel != "." && r.isDestination(rel) {
			r.zlog.Debug().Str("directory", rel).Msg("not copying the destination into itself")
			return filepath.SkipDir
		}
		if rel != "." && r.ignored(rel) {
			r.zlog.Debug().Str("directory", rel).Msg("directory ignored by pattern")
			r.result.Ignored = append(r.result.Ignored, rel)
			return filepath.SkipDir
		}
		return r.mirrorDir(rel)
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := r.fs.Stat(path)
		if err != nil {
			return errors.Errorf("following symlink %s: %w", rel, err)
		}
		if target.IsDir() {
			r.zlog.Debug().Str("path", rel).Msg("not following symlinked directory")
			return nil
		}
	case !info.Mode().IsRegular():
		r.zlog.Debug().Str("path", rel).Str("mode", info.Mode().String()).Msg("skipping non-regular file")
		return nil
	}

	if r.ignored(rel) {
		r.zlog.Debug().Str("file", rel).Msg("file ignored by pattern")
		r.result.Ignored = append(r.result.Ignored, rel)
		return nil
	}

	return r.copyFile(rel, path)
}

// 📁 mirrorDir creates the destination counterpart of a template directory
func (r *run) mirrorDir(rel string) error {
	dest := filepath.Join(r.dest, rel)

	info, err := r.fs.Stat(dest)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return errors.Errorf("creating directory %s: a file is in the way", dest)
	case !errors.Is(err, fs.ErrNotExist):
		return errors.Errorf("checking directory %s: %w", dest, err)
	}

	if err := r.fs.MkdirAll(dest, dirMode); err != nil {
		return errors.Errorf("creating directory %s: %w", dest, err)
	}

	r.logger.DirectoryCreated(rel, dest)
	r.result.Directories = append(r.result.Directories, rel)
	return nil
}

// nestedDestination returns the cleaned absolute destination when it is strictly
// inside root, and "" otherwise
func nestedDestination(root, dest string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Errorf("resolving template root: %w", err)
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return "", errors.Errorf("resolving destination: %w", err)
	}
	if !within(absRoot, absDest) || absRoot == absDest {
		return "", nil
	}
	return absDest, nil
}

// within reports whether path is dir or lies under it. Both must be clean.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// isDestination reports whether the template directory rel is the destination
// or one of its descendants, which happens when the destination is inside the
// template root
func (r *run) isDestination(rel string) bool {
	if r.nested == "" {
		return false
	}
	abs, err := filepath.Abs(filepath.Join(r.root, rel))
	if err != nil {
		return false
	}
	return within(r.nested, abs)
}

// 🔍 ignored checks rel against the ignore patterns
func (r *run) ignored(rel string) bool {
	slashed := filepath.ToSlash(rel)
	for _, pattern := range r.ignore {
		if doublestar.MatchUnvalidated(pattern, slashed) {
			return true
		}
	}
	return false
}
