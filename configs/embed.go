// Package configs provides the embedded configuration template for docsift.
//
// The template is embedded at build time with //go:embed so it is available
// in every distribution, source builds and binary releases alike. It is
// written out by `docsift config init` and kept in sync with the Config
// struct by the tests in this package.
//
// To change the template, edit docsift.example.yaml and rebuild.
package configs

import _ "embed"

// ConfigTemplate is the commented starter configuration written by
// `docsift config init`. Every key mirrors internal/config.Config;
// commented-out keys show optional settings at their defaults.
//
//go:embed docsift.example.yaml
var ConfigTemplate string
