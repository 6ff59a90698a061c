//go:build !cgo || netgo

package probes

const DnsResolverName = "system resolver, pure Go (/etc/hosts and resolv.conf only)"
