/* host-inspect
*
* Given one target (a name or an IP), runs these stages in order and prints a section for each.
*
* DNS
* * An IP target is used as-is.
* * A name is converted to its IDNA ASCII form and looked up "manually", by asking the servers in `--resolv-conf` in turn, over each search-path candidate, for A then AAAA.
*   * The first A answer is used; failing that the first AAAA.
*   * We print which server answered, the CNAME chain, TTL, and any PTR names for the chosen address.
*   * `--dnssec` additionally validates the chain of trust for the name, from the root down.
* * If there's no resolver config, or DNS has no answer, the Go std library resolver is asked instead. Depending on how this binary was built that's either libc's `getaddrinfo()` via cgo (so nsswitch, /etc/hosts, LDAP, ...) or Go's own (/etc/hosts and DNS only). We say which.
* * Failing to find an address is fatal.
*
* Endpoint
* * A UDP socket is bound to the wildcard address and "connected" to the address on 443. Nothing is sent; this is just to learn the local address and port the OS would use.
*
* HTTP
* * One HTTPS GET of `--path`, connecting to the chosen address, with the target as Host and SNI. HTTP/1.1, so the response head can be captured off the wire with the server's header order and casing.
* * Security headers are those whose name contains content-security-policy, strict-transport-security, x-frame-options, x-content-type-options, referrer-policy, or permissions-policy.
* * If there are none, `--fallback-host` is fetched and its security headers shown for comparison. If that fails, nothing is said.
* * The Content-Type is classified, the tag reference lists printed with counts, and the first <h1> shown.
* * A failed request is fatal.
*
* Certificate
* * A separate TLS handshake, verified against the system roots plus `--ca`. SNI isn't sent for IP targets.
* * The leaf certificate's DER is decoded field by field (not with crypto/x509) and printed, binary fields as hex.
* * Handshake or decode failures are printed in place of the section.
*
* Trace
* * `traceroute -n` (`tracert -d` on Windows), bounded by `--max-hops` and `--trace-timeout`. The first IPv4 address on each output line is a hop. If the tool can't be run the section is left out.
 */
package main
