package parser

import "github.com/go-logr/logr"

var log = logr.Discard()

// SetLogger sets the logger the parsers report oddities to. It's package-wide
// as the parsers are pure functions that otherwise take no dependencies.
func SetLogger(l logr.Logger) {
	log = l.WithName("parser")
}
