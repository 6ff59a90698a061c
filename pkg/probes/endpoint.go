package probes

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/go-logr/logr"

	"github.com/mt-inside/host-inspect/pkg/state"
)

// ProbeEndpoint learns which local address and port the OS would use to reach
// ip:port. It "connects" a UDP socket, which only sets the default peer and
// picks a route; no packet is sent.
func ProbeEndpoint(ctx context.Context, log logr.Logger, ip net.IP, port int) (*state.EndpointTuple, error) {
	log = log.WithName("endpoint")

	dialer := &net.Dialer{
		LocalAddr: &net.UDPAddr{IP: nil, Port: 0}, // wildcard; the kernel fills both in
	}
	remote := net.JoinHostPort(ip.String(), strconv.Itoa(port))
	conn, err := dialer.DialContext(ctx, "udp", remote)
	if err != nil {
		return nil, fmt.Errorf("%w: associating UDP socket with %s: %v", ErrSocket, remote, err)
	}
	defer conn.Close()

	local, lok := conn.LocalAddr().(*net.UDPAddr)
	peer, pok := conn.RemoteAddr().(*net.UDPAddr)
	if !lok || !pok {
		return nil, fmt.Errorf("%w: unexpected address types %T, %T", ErrSocket, conn.LocalAddr(), conn.RemoteAddr())
	}
	if local.Port == 0 {
		return nil, fmt.Errorf("%w: OS assigned no local port", ErrSocket)
	}
	log.V(1).Info("Associated", "local", local, "remote", peer)

	return &state.EndpointTuple{
		LocalIP:    local.IP,
		LocalPort:  local.Port,
		RemoteIP:   peer.IP,
		RemotePort: peer.Port,
	}, nil
}
