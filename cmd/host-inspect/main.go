package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/logrusorgru/aurora/v3"
	"github.com/mt-inside/http-log/pkg/bios"
	"github.com/mt-inside/http-log/pkg/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mt-inside/host-inspect/internal/build"
	"github.com/mt-inside/host-inspect/pkg/parser"
	"github.com/mt-inside/host-inspect/pkg/probes"
	"github.com/mt-inside/host-inspect/pkg/state"
)

func init() {
	spew.Config.DisableMethods = true
	spew.Config.DisablePointerMethods = true
}

func main() {
	cmd := &cobra.Command{
		Use:     "host-inspect [flags] target",
		Short:   "Inspect one host: DNS, endpoint, HTTPS headers and body, TLS certificate, and route",
		Args:    cobra.ExactArgs(1),
		Version: build.UserAgent(),
		Run:     appMain,
	}

	cmd.PersistentFlags().String("config", "", "Config file (yaml, toml, json, ...)")

	cmd.Flags().String("fallback-host", "google.fr", "Host whose security headers are shown when the target sends none")
	cmd.Flags().StringP("path", "p", "/", "HTTP path to request")
	cmd.Flags().DurationP("timeout", "t", 10*time.Second, "Timeout for each network stage")
	cmd.Flags().Duration("trace-timeout", 20*time.Second, "Timeout for the traceroute process")
	cmd.Flags().Int("max-hops", 15, "Traceroute hop limit")
	cmd.Flags().String("resolv-conf", "/etc/resolv.conf", "Resolver config to read DNS servers and search path from")
	cmd.Flags().StringP("ca", "C", "", "Path to extra TLS serving CA certificates (PEM), trusted alongside the system's")
	cmd.Flags().Bool("dnssec", false, "Validate the target's DNSSEC chain")
	cmd.Flags().Bool("trace", true, "Run traceroute to the target")
	cmd.Flags().Bool("no-color", false, "Don't colour output")
	cmd.Flags().CountP("verbosity", "v", "Log more to stderr; repeat for more")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config")); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("HOST_INSPECT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := cmd.Execute(); err != nil {
		// cobra's already printed it
		os.Exit(1)
	}
}

func appMain(cmd *cobra.Command, args []string) {
	s := output.NewTtyStyler(aurora.NewAurora(!viper.GetBool("no-color")))
	b := bios.NewTtyBios(s)

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		b.Unwrap(viper.ReadInConfig())
	}

	viper.Set("target", args[0])

	log, err := newLogger(viper.GetInt("verbosity"), !viper.GetBool("no-color"))
	b.Unwrap(err)
	parser.SetLogger(log)

	requestData, err := state.RequestDataFromViper()
	b.Unwrap(err)
	log.V(2).Info("Request", "data", spew.Sdump(requestData))

	responseData, err := probes.Probe(context.Background(), log, requestData)
	responseData.Print(s, os.Stdout)
	if err != nil {
		// The partial report is on stdout; the reason it stopped goes to stderr
		fmt.Fprintln(os.Stderr, s.RenderErr(err.Error()))
		os.Exit(1)
	}

	fmt.Println()
}

// Verbosity 0 is errors only; each -v after that opens up one more logr V-level.
func newLogger(verbosity int, colour bool) (logr.Logger, error) {
	level := zapcore.ErrorLevel
	if verbosity > 0 {
		// zapr maps V(n) to zap level -n
		level = zapcore.Level(-verbosity)
	}

	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true
	if colour {
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zl, err := zc.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl).WithName(build.Name), nil
}
