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
	"os"
	"os/signal"

	"github.com/pterm/pterm"
	"github.com/walteh/projmake/pkg/template"
	"gitlab.com/tozd/go/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command and maps its outcome to an exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		printFailure(stderr, err)
		return 1
	}
	return 0
}

// printFailure writes err for a person to read
func printFailure(w io.Writer, err error) {
	printer := pterm.Error.WithWriter(w)

	var nf *template.NotFoundError
	if errors.As(err, &nf) {
		printer.Printfln("template not found: %s", nf.Path)
		pterm.Info.WithWriter(w).Printfln("create it, or pass -t to pick another template")
		return
	}

	printer.Println(err.Error())
}
