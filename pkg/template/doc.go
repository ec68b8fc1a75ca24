/*
Package template materializes a user template into a project directory.

A template lives at <templates-dir>/<language>/<name>. Materialize walks it
parents-first, creates every directory it finds under the destination, and
copies each file next to it under the same name:

	templates/go/default/            ./
	├── README.md          ──text──▶ ├── README.md
	├── bin/                         ├── bin/
	│   └── tool.exe       ──bytes─▶ │   └── tool.exe
	└── cmd/app/main.go    ──text──▶ └── cmd/app/main.go

Files ending in .pyc, .exe, .dll, .so or .dat are copied byte for byte. All
other files must be valid UTF-8; one that is not is skipped with a warning and
the walk continues. Existing destination files are overwritten.
*/
package template
