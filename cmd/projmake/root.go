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
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/walteh/projmake/cmd/projmake/opts"
	"github.com/walteh/projmake/pkg/config"
	"github.com/walteh/projmake/pkg/log"
	"github.com/walteh/projmake/pkg/template"
	"gitlab.com/tozd/go/errors"
)

const envPrefix = "PROJMAKE"

// newRootCmd builds the projmake command. Console output goes to stdout and
// structured logs plus failures go to stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()

	var (
		language     string
		templateName string
	)

	cmd := &cobra.Command{
		Use:   "projmake [flags] [target_directory]",
		Short: "Create a project skeleton from a language template",
		Long: `projmake copies ~/.config/projmake/templates/<lang>/<template> into the
target directory, creating every directory of the template and copying every
file. Existing files are overwritten.`,
		Example: `  projmake -l go ./myservice
  projmake -l python -t flask
  PROJMAKE_CONFIG_ROOT=/srv/templates projmake -l rust`,
		Args:          cobra.MaximumNArgs(1),
		Version:       GetVersionInfo().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			started := time.Now()

			target := "."
			if len(args) == 1 {
				target = args[0]
			}

			zlog := setupLogging(stderr, v.GetBool("debug"))
			ctx := zlog.WithContext(cmd.Context())

			o, err := newRootOpts(ctx, v.GetString("config-root"), stdout, zlog, started)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("template") {
				templateName = o.Settings.DefaultTemplate
			}

			return run(ctx, o, template.NewRequest(language, templateName, target))
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("projmake version {{.Version}}\n")

	addRootFlags(cmd, &language, &templateName)
	bindEnv(cmd, v)

	return cmd
}

// addRootFlags adds the command line flags
func addRootFlags(cmd *cobra.Command, language, templateName *string) {
	cmd.Flags().StringVarP(language, "lang", "l", "", "language for which to create the project structure (e.g. python, go, csharp)")
	cmd.Flags().StringVarP(templateName, "template", "t", config.DefaultTemplate, "template directory within the language")
	cmd.Flags().String("config-root", "", "configuration root holding templates/ (default ~/.config/projmake) [$PROJMAKE_CONFIG_ROOT]")
	cmd.Flags().BoolP("debug", "d", false, "enable debug logging [$PROJMAKE_DEBUG]")
	_ = cmd.MarkFlagRequired("lang")
}

// bindEnv lets PROJMAKE_* variables stand in for the flags that are not set
func bindEnv(cmd *cobra.Command, v *viper.Viper) {
	_ = v.BindPFlag("config-root", cmd.Flags().Lookup("config-root"))
	_ = v.BindPFlag("debug", cmd.Flags().Lookup("debug"))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// setupLogging configures zerolog based on flags
func setupLogging(w io.Writer, debug bool) zerolog.Logger {
	// the console lines already carry info and warnings
	level := zerolog.ErrorLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

// newRootOpts creates the config root if needed and loads its settings
func newRootOpts(ctx context.Context, configRoot string, console io.Writer, zlog zerolog.Logger, started time.Time) (*opts.RootOpts, error) {
	root, err := config.RootDir(configRoot)
	if err != nil {
		return nil, err
	}

	created, err := config.EnsureLayout(ctx, root)
	if err != nil {
		return nil, errors.Errorf("preparing config root: %w", err)
	}

	settings, err := config.Load(ctx, root)
	if err != nil {
		return nil, errors.Errorf("loading settings: %w", err)
	}

	zlog.Debug().Str("root", root).Stringer("settings", settings).Msg("configuration loaded")

	logger := log.New(console, zlog, started)
	for _, dir := range created {
		logger.Infof("Created config directory: %s", dir)
	}

	return &opts.RootOpts{
		Settings: settings,
		Logger:   logger,
	}, nil
}

// 🏃 run validates the request and materializes it
func run(ctx context.Context, o *opts.RootOpts, req template.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	dest, err := filepath.Abs(req.DestinationDir)
	if err != nil {
		return errors.Errorf("resolving target directory: %w", err)
	}
	req = template.NewRequest(req.Language, req.TemplateName, dest)

	m, err := template.New(template.Options{
		TemplatesDir: o.Settings.TemplatesDir,
		Fs:           afero.NewOsFs(),
		Ignore:       o.Settings.Ignore,
		Logger:       o.Logger,
	})
	if err != nil {
		return errors.Errorf("creating materializer: %w", err)
	}

	result, err := m.Materialize(ctx, req)
	if err != nil {
		return err
	}

	report(o.Logger, req, result)
	return nil
}

// 📊 report prints the summary of a successful run
func report(logger *log.Logger, req template.Request, result *template.Result) {
	logger.Successf("created %s from %s/%s: %d directories, %d files",
		result.Destination, req.Language, req.TemplateName, len(result.Directories), len(result.Files))

	if len(result.Skipped) > 0 {
		logger.Warningf("%d files were not valid UTF-8 and were skipped", len(result.Skipped))
		for _, s := range result.Skipped {
			logger.Warningf("  %s", s.Path)
		}
	}
}
