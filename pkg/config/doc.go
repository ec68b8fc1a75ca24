// Package config locates the projmake configuration root and reads the optional
// settings file stored in it.
//
//	~/.config/projmake/            (RootDir, or --config-root / PROJMAKE_CONFIG_ROOT)
//	├── config.{hcl,yaml,yml,json,toml}   (optional, first match wins)
//	└── templates/                 (TemplatesDir, or settings.templates_dir)
//	    └── <language>/<template>/...
//
//	            +-------------+
//	            |  Settings   |
//	            +------+------+
//	                   |
//	   +-------+-------+-------+-------+
//	   |       |               |       |
//	+--+--+ +--+--+        +---+--+ +--+---+
//	| HCL | | YAML|        | JSON | | TOML |
//	+-----+ +-----+        +------+ +------+
//
// 🎯 Purpose:
// - Resolve the configuration root
// - Bootstrap root and root/templates on first run (EnsureLayout)
// - Parse and validate the settings file
//
// A missing settings file is normal. Load returns Default(root) in that case,
// which selects the "default" template, ignores nothing, and reads templates
// from root/templates.
//
// 🔍 Example settings (config.hcl):
//
//	default_template = "cli"
//	ignore           = [".git/**", "**/.DS_Store"]
//	templates_dir    = "${home}/src/templates"
package config
