package state

import (
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/mt-inside/host-inspect/internal/build"
	"github.com/mt-inside/host-inspect/pkg/utils"
)

const DefaultPort = 443

type RequestData struct {
	Target       string // name or IP, as given
	FallbackHost string // compared against when Target sends no security headers

	Port int
	Path string

	Timeout      time.Duration // per network stage
	TraceTimeout time.Duration
	MaxHops      int

	ResolvConf string
	DNSSEC     bool

	// nil means the system pool
	RootCAs *x509.CertPool

	Trace     bool
	UserAgent string
}

func RequestDataFromViper() (*RequestData, error) {
	requestData := &RequestData{
		Target:       viper.GetString("target"),
		FallbackHost: viper.GetString("fallback-host"),
		Port:         DefaultPort,
		Path:         viper.GetString("path"),
		Timeout:      viper.GetDuration("timeout"),
		TraceTimeout: viper.GetDuration("trace-timeout"),
		MaxHops:      viper.GetInt("max-hops"),
		ResolvConf:   viper.GetString("resolv-conf"),
		DNSSEC:       viper.GetBool("dnssec"),
		Trace:        viper.GetBool("trace"),
		UserAgent:    build.UserAgent(),
	}

	if requestData.Target == "" {
		return nil, fmt.Errorf("no target given")
	}
	if requestData.FallbackHost != "" && !utils.ServerNameConformant(requestData.FallbackHost) {
		return nil, fmt.Errorf("fallback-host must be a DNS name with no port, got %q", requestData.FallbackHost)
	}
	if requestData.Path == "" || requestData.Path[0] != '/' {
		requestData.Path = "/" + requestData.Path
	}
	if requestData.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", requestData.Timeout)
	}
	if requestData.TraceTimeout <= 0 {
		return nil, fmt.Errorf("trace-timeout must be positive, got %s", requestData.TraceTimeout)
	}
	if requestData.MaxHops < 1 || requestData.MaxHops > 255 {
		return nil, fmt.Errorf("max-hops must be 1-255, got %d", requestData.MaxHops)
	}

	/* Load TLS material */

	if caPath := viper.GetString("ca"); caPath != "" {
		bytes, err := os.ReadFile(caPath)
		if err != nil {
			return nil, fmt.Errorf("reading CA bundle: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			// Not available on every platform; extra CAs alone is still useful
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(bytes) {
			return nil, fmt.Errorf("no PEM certificates found in %s", caPath)
		}
		requestData.RootCAs = pool
	}

	return requestData, nil
}
