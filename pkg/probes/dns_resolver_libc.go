//go:build cgo && !netgo

package probes

/* No way to directly detect which resolution functions the system resolver ends up using.
* Best we can do is reproduce the linker's logic: libc iff cgo is in use and netgo hasn't been explicitly set.
* Just checking netgo is insufficient; it's not set by CGO_ENABLED=0
*
*         netgo  !netgo
* cgo     g      c
* !cgo    g      g
*
* (g == Go, c - libC)
 */

const DnsResolverName = "system resolver via cgo (libc getaddrinfo(), honours nsswitch.conf)"
