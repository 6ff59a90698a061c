package probes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/go-logr/logr"

	"github.com/mt-inside/host-inspect/pkg/parser"
	"github.com/mt-inside/host-inspect/pkg/state"
)

type traceCommand struct {
	name string
	args func(host string, maxHops int) []string
}

// Numeric output everywhere: reverse lookups per hop would blow the timeout.
var traceCommands = map[string]traceCommand{
	"windows": {
		name: "tracert",
		args: func(host string, maxHops int) []string {
			return []string{"-d", "-h", strconv.Itoa(maxHops), host}
		},
	},
}

var defaultTraceCommand = traceCommand{
	name: "traceroute",
	args: func(host string, maxHops int) []string {
		return []string{"-n", "-m", strconv.Itoa(maxHops), host}
	},
}

func traceCommandFor(goos string) traceCommand {
	if c, ok := traceCommands[goos]; ok {
		return c
	}
	return defaultTraceCommand
}

// Trace runs the platform's traceroute against host. Running out of time, or
// the tool exiting non-zero, still yields whatever hops it printed; only
// failing to start it at all is an error.
func Trace(ctx context.Context, log logr.Logger, requestData *state.RequestData, host string) ([]parser.TraceHop, error) {
	return runTrace(ctx, log.WithName("trace"), traceCommandFor(runtime.GOOS), host, requestData.MaxHops, requestData.TraceTimeout)
}

func runTrace(ctx context.Context, log logr.Logger, tc traceCommand, host string, maxHops int, timeout time.Duration) ([]parser.TraceHop, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := tc.args(host, maxHops)
	cmd := exec.CommandContext(ctx, tc.name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	// Children can hold stdout open after the kill
	cmd.WaitDelay = time.Second

	log.V(1).Info("Running", "cmd", tc.name, "args", args)
	err := cmd.Run()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		log.V(1).Info("Trace timed out; using partial output", "timeout", timeout)
	case errors.As(err, &exitErr):
		log.V(1).Info("Trace exited non-zero; using its output anyway", "code", exitErr.ExitCode())
	default:
		return nil, fmt.Errorf("%w: %s: %v", ErrProcess, tc.name, err)
	}
	log.V(2).Info("Trace output", "stdout", stdout.String())

	return parser.ParseTraceHops(stdout.Bytes()), nil
}
