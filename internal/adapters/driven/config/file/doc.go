// Package file provides file-based implementations of driven port interfaces.
//
// ConfigStore keeps settings in a TOML file, ~/.docugraph/config.toml by
// default. Keys are dot-separated ("confluence.base_url") and are written
// back as nested tables so the file stays easy to edit by hand.
package file
