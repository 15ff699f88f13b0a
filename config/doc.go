// Package config loads the settings used to assemble agents and clans.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables prefixed with UNISON_. Nested keys are separated by
// a double underscore, so UNISON_HISTORY__BACKEND=sqlite sets
// history.backend and UNISON_MODELS__DEFAULT__API_KEY sets
// models.default.api_key.
package config
