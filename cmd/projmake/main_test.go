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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	color.NoColor = true
	os.Exit(m.Run())
}

// writeTemplate creates <root>/templates/<lang>/<name> with the given files
func writeTemplate(t *testing.T, root, lang, name string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, "templates", lang, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

type cmdResult struct {
	code   int
	stdout string
	stderr string
}

func runCmd(t *testing.T, args ...string) cmdResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return cmdResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// isolate points HOME and the env overrides at fresh temp dirs
func isolate(t *testing.T) (home string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PROJMAKE_CONFIG_ROOT", "")
	t.Setenv("PROJMAKE_DEBUG", "")
	return home
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name           string
		setup          func(t *testing.T, root string)
		args           func(root, dest string) []string
		wantCode       int
		stdoutContains []string
		stderrContains []string
		validate       func(t *testing.T, dest string)
	}{
		{
			name: "default_template",
			setup: func(t *testing.T, root string) {
				writeTemplate(t, root, "go", "default", map[string]string{
					"main.go":     "package main\n",
					"cmd/doc.txt": "docs",
				})
			},
			args:     func(root, dest string) []string { return []string{"-l", "go", "--config-root", root, dest} },
			wantCode: 0,
			stdoutContains: []string{
				"Using template from: ",
				"Created directory: cmd",
				"Copied file: main.go",
				"✅ created ",
				"2 directories, 2 files",
			},
			validate: func(t *testing.T, dest string) {
				content, err := os.ReadFile(filepath.Join(dest, "main.go"))
				require.NoError(t, err)
				assert.Equal(t, "package main\n", string(content))
				assert.FileExists(t, filepath.Join(dest, "cmd", "doc.txt"))
			},
		},
		{
			name: "named_template_long_flags",
			setup: func(t *testing.T, root string) {
				writeTemplate(t, root, "python", "flask", map[string]string{"app.py": "app = None\n"})
			},
			args: func(root, dest string) []string {
				return []string{"--lang", "python", "--template", "flask", "--config-root", root, dest}
			},
			wantCode: 0,
			validate: func(t *testing.T, dest string) {
				assert.FileExists(t, filepath.Join(dest, "app.py"))
			},
		},
		{
			name: "template_from_settings",
			setup: func(t *testing.T, root string) {
				writeTemplate(t, root, "go", "cli", map[string]string{"cli.go": "package cli\n"})
				require.NoError(t, os.WriteFile(filepath.Join(root, "config.yaml"), []byte("default_template: cli\n"), 0o644))
			},
			args:     func(root, dest string) []string { return []string{"-l", "go", "--config-root", root, dest} },
			wantCode: 0,
			validate: func(t *testing.T, dest string) {
				assert.FileExists(t, filepath.Join(dest, "cli.go"))
			},
		},
		{
			name: "ignore_from_settings",
			setup: func(t *testing.T, root string) {
				writeTemplate(t, root, "go", "default", map[string]string{
					"keep.txt":  "keep",
					"drop.tmp":  "drop",
					"a/b.tmp":   "drop",
					"a/keep.md": "keep",
				})
				require.NoError(t, os.WriteFile(filepath.Join(root, "config.toml"), []byte("ignore = [\"**/*.tmp\"]\n"), 0o644))
			},
			args:     func(root, dest string) []string { return []string{"-l", "go", "--config-root", root, dest} },
			wantCode: 0,
			validate: func(t *testing.T, dest string) {
				assert.FileExists(t, filepath.Join(dest, "keep.txt"))
				assert.FileExists(t, filepath.Join(dest, "a", "keep.md"))
				assert.NoFileExists(t, filepath.Join(dest, "drop.tmp"))
				assert.NoFileExists(t, filepath.Join(dest, "a", "b.tmp"))
			},
		},
		{
			name: "skipped_file_is_reported",
			setup: func(t *testing.T, root string) {
				writeTemplate(t, root, "go", "default", map[string]string{
					"ok.txt":  "ok",
					"bad.txt": "\xff\xfe",
				})
			},
			args:           func(root, dest string) []string { return []string{"-l", "go", "--config-root", root, dest} },
			wantCode:       0,
			stdoutContains: []string{"Error reading file: bad.txt", "⚠️  1 files were not valid UTF-8", "bad.txt"},
			validate: func(t *testing.T, dest string) {
				assert.FileExists(t, filepath.Join(dest, "ok.txt"))
				assert.NoFileExists(t, filepath.Join(dest, "bad.txt"))
			},
		},
		{
			name:           "template_not_found",
			args:           func(root, dest string) []string { return []string{"-l", "cobol", "--config-root", root, dest} },
			wantCode:       1,
			stderrContains: []string{"template not found", filepath.Join("templates", "cobol", "default")},
			validate: func(t *testing.T, dest string) {
				assert.NoDirExists(t, dest)
			},
		},
		{
			name:           "missing_lang",
			args:           func(root, dest string) []string { return []string{"--config-root", root, dest} },
			wantCode:       1,
			stderrContains: []string{`required flag(s) "lang" not set`},
		},
		{
			name:           "language_is_a_path",
			args:           func(root, dest string) []string { return []string{"-l", "../go", "--config-root", root, dest} },
			wantCode:       1,
			stderrContains: []string{"must be a single path segment"},
			validate: func(t *testing.T, dest string) {
				assert.NoDirExists(t, dest)
			},
		},
		{
			name:           "too_many_args",
			args:           func(root, dest string) []string { return []string{"-l", "go", "--config-root", root, dest, "extra"} },
			wantCode:       1,
			stderrContains: []string{"accepts at most 1 arg(s)"},
		},
		{
			name: "invalid_settings",
			setup: func(t *testing.T, root string) {
				require.NoError(t, os.WriteFile(filepath.Join(root, "config.json"), []byte(`{"default_template": "../up"}`), 0o644))
			},
			args:           func(root, dest string) []string { return []string{"-l", "go", "--config-root", root, dest} },
			wantCode:       1,
			stderrContains: []string{"loading settings"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			root := t.TempDir()
			dest := filepath.Join(t.TempDir(), "project")
			if tt.setup != nil {
				tt.setup(t, root)
			}

			res := runCmd(t, tt.args(root, dest)...)

			assert.Equal(t, tt.wantCode, res.code, "stdout:\n%s\nstderr:\n%s", res.stdout, res.stderr)
			for _, want := range tt.stdoutContains {
				assert.Contains(t, res.stdout, want)
			}
			for _, want := range tt.stderrContains {
				assert.Contains(t, res.stderr, want)
			}
			if tt.validate != nil {
				tt.validate(t, dest)
			}
		})
	}
}

func TestExecuteBootstrapsConfigRoot(t *testing.T) {
	home := isolate(t)

	res := runCmd(t, "-l", "go", filepath.Join(t.TempDir(), "project"))
	assert.Equal(t, 1, res.code, "no templates exist yet")
	assert.Contains(t, res.stderr, "template not found")

	assert.DirExists(t, filepath.Join(home, ".config", "projmake"))
	assert.DirExists(t, filepath.Join(home, ".config", "projmake", "templates"))
	assert.Contains(t, res.stdout, "Created config directory: "+filepath.Join(home, ".config", "projmake", "templates"))

	// second run creates nothing new
	res = runCmd(t, "-l", "go", filepath.Join(t.TempDir(), "project"))
	assert.NotContains(t, res.stdout, "Created config directory")
}

func TestExecuteConfigRootFromEnv(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTemplate(t, root, "rust", "default", map[string]string{"Cargo.toml": "[package]\n"})
	t.Setenv("PROJMAKE_CONFIG_ROOT", root)

	dest := filepath.Join(t.TempDir(), "crate")
	res := runCmd(t, "-l", "rust", dest)
	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(dest, "Cargo.toml"))
}

func TestExecuteFlagBeatsEnv(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTemplate(t, root, "go", "default", map[string]string{"a.txt": "a"})
	t.Setenv("PROJMAKE_CONFIG_ROOT", t.TempDir())

	dest := filepath.Join(t.TempDir(), "out")
	res := runCmd(t, "-l", "go", "--config-root", root, dest)
	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(dest, "a.txt"))
}

func TestExecuteDebugLogging(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTemplate(t, root, "go", "default", map[string]string{"a.txt": "a"})
	dest := filepath.Join(t.TempDir(), "out")

	res := runCmd(t, "-l", "go", "--config-root", root, dest)
	require.Equal(t, 0, res.code)
	assert.NotContains(t, res.stderr, "copied file")

	t.Setenv("PROJMAKE_DEBUG", "true")
	res = runCmd(t, "-l", "go", "--config-root", root, dest)
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stderr, "configuration loaded")
	assert.Contains(t, res.stderr, "copied file")
}

func TestExecuteDefaultsToCurrentDirectory(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTemplate(t, root, "go", "default", map[string]string{"here.txt": "here"})

	dest := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dest))
	defer func() { _ = os.Chdir(wd) }()

	res := runCmd(t, "-l", "go", "--config-root", root)
	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(dest, "here.txt"))
}

func TestExecuteVersion(t *testing.T) {
	res := runCmd(t, "--version")
	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "projmake version ")
}

func TestVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.String(), info.Platform)

	prev := version
	version = "v1.2.3"
	defer func() { version = prev }()
	assert.Equal(t, "v1.2.3", GetVersionInfo().Version)
}
