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
	"bytes"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/walteh/projmake/pkg/log"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// 📄 copyFile copies one template file into its mirrored directory
func (r *run) copyFile(rel, src string) error {
	name := filepath.Base(src)
	destDir := filepath.Join(r.dest, filepath.Dir(rel))
	destPath := filepath.Join(destDir, name)
	kind := ContentKindOf(src)

	var content []byte
	var err error
	switch kind {
	case Binary:
		content, err = afero.ReadFile(r.fs, src)
		if err != nil {
			return errors.Errorf("reading %s: %w", rel, err)
		}
	default:
		content, err = readText(r.fs, src)
		if errors.Is(err, ErrDecode) {
			r.logger.FileSkipped(rel, name, err)
			r.result.Skipped = append(r.result.Skipped, SkippedFile{Path: rel, Err: err})
			return nil
		}
		if err != nil {
			return errors.Errorf("reading %s: %w", rel, err)
		}
	}

	status := compare(r.fs, destPath, content)

	if err := afero.WriteFile(r.fs, destPath, content, fileMode); err != nil {
		return errors.Errorf("writing %s: %w", destPath, err)
	}

	r.logger.FileCopied(log.FileOperation{
		Path:    rel,
		Name:    name,
		DestDir: destDir,
		Kind:    kind.String(),
		Status:  status,
		Size:    len(content),
	})
	r.result.Files = append(r.result.Files, CopiedFile{
		Path:   rel,
		Kind:   kind,
		Size:   len(content),
		Status: status,
	})

	return nil
}

// 📖 readText reads a whole file and checks that it is UTF-8. The content is
// returned unchanged; no newline or BOM handling is done.
func readText(fsys afero.Fs, path string) ([]byte, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(transform.NewReader(f, encoding.UTF8Validator))
	if errors.Is(err, encoding.ErrInvalidUTF8) {
		// content holds the valid prefix, so its length is the offset of the bad byte
		return nil, errors.Errorf("%w (byte offset %d)", ErrDecode, len(content))
	}
	if err != nil {
		return nil, errors.Errorf("reading: %w", err)
	}
	return content, nil
}

// 🔄 compare reports what writing content to path will do
func compare(fsys afero.Fs, path string, content []byte) log.FileStatus {
	info, err := fsys.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return log.StatusNew
	}
	if err != nil || !info.Mode().IsRegular() {
		return log.StatusUnknown
	}
	if info.Size() != int64(len(content)) {
		return log.StatusModified
	}

	current, err := afero.ReadFile(fsys, path)
	if err != nil {
		return log.StatusUnknown
	}
	if bytes.Equal(current, content) {
		return log.StatusUnchanged
	}
	return log.StatusModified
}
