package probes

import (
	"errors"

	"github.com/mt-inside/host-inspect/pkg/codec"
)

// Every stage error wraps exactly one of these.
var (
	ErrResolution = errors.New("address resolution failed")
	ErrSocket     = errors.New("socket setup failed")
	ErrHTTP       = errors.New("HTTPS request failed")
	ErrTLS        = errors.New("TLS session failed")
	ErrCertParse  = codec.ErrCertParse
	ErrProcess    = errors.New("trace process failed")
)
