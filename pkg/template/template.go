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
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gitlab.com/tozd/go/errors"
)

// DefaultName is the template used when the caller does not pick one
const DefaultName = "default"

var (
	// ErrTemplateNotFound is matched by the error returned when the resolved
	// template path is missing or is not a directory.
	ErrTemplateNotFound = errors.Base("template not found")
	// ErrInvalidRequest is returned by Request.Validate.
	ErrInvalidRequest = errors.Base("invalid language or template")
	// ErrDecode marks a text file that is not valid UTF-8. It is never
	// returned from Materialize; the file is skipped and recorded instead.
	ErrDecode = errors.Base("text is not valid UTF-8")
)

// 🔍 NotFoundError carries the template path that could not be found
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template directory %q does not exist", e.Path)
}

// Is makes errors.Is(err, ErrTemplateNotFound) hold
func (e *NotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// IsNotFound reports whether err means the requested template does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// 📦 ContentKind is how a file is copied
type ContentKind int

const (
	Text ContentKind = iota
	Binary
)

func (k ContentKind) String() string {
	if k == Binary {
		return "binary"
	}
	return "text"
}

// binaryExtensions is the fixed classification set. Anything else is text,
// even when it is not.
var binaryExtensions = map[string]struct{}{
	".pyc": {},
	".exe": {},
	".dll": {},
	".so":  {},
	".dat": {},
}

// ContentKindOf classifies a file purely by extension
func ContentKindOf(path string) ContentKind {
	if _, ok := binaryExtensions[filepath.Ext(path)]; ok {
		return Binary
	}
	return Text
}

// IsBinary reports whether path is copied byte for byte
func IsBinary(path string) bool {
	return ContentKindOf(path) == Binary
}

// 📝 Request selects a template and a destination
type Request struct {
	Language       string `json:"language" validate:"required,excludesall=/\\,ne=.,ne=.."`
	TemplateName   string `json:"template" validate:"required,excludesall=/\\,ne=.,ne=.."`
	DestinationDir string `json:"destination"`
}

// NewRequest builds a request, defaulting the template name to "default" and
// the destination to the current directory.
func NewRequest(language, templateName, destinationDir string) Request {
	return Request{
		Language:       language,
		TemplateName:   templateName,
		DestinationDir: destinationDir,
	}.withDefaults()
}

func (r Request) withDefaults() Request {
	if r.TemplateName == "" {
		r.TemplateName = DefaultName
	}
	if r.DestinationDir == "" {
		r.DestinationDir = "."
	}
	return r
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}()

// 🔍 Validate checks that language and template are usable as single path
// segments. Materialize does not call it; any string is structurally accepted
// there and simply fails to resolve.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return errors.Errorf("%w: %s is required", ErrInvalidRequest, fe.Field())
		}
		return errors.Errorf("%w: %s %q must be a single path segment", ErrInvalidRequest, fe.Field(), fe.Value())
	}
	return errors.Errorf("%w: %s", ErrInvalidRequest, err.Error())
}

func (r Request) String() string {
	return fmt.Sprintf("%s/%s -> %s", r.Language, r.TemplateName, r.DestinationDir)
}
