package probes

import (
	"context"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-logr/logr"

	"github.com/mt-inside/host-inspect/pkg/codec"
	"github.com/mt-inside/host-inspect/pkg/parser"
	"github.com/mt-inside/host-inspect/pkg/state"
)

// Probe runs every stage against requestData.Target, in order. Resolution and
// the HTTPS fetch are fatal: their error is returned along with whatever was
// found before them. Everything else records its failure and carries on.
func Probe(ctx context.Context, log logr.Logger, requestData *state.RequestData) (*state.ResponseData, error) {
	responseData := state.NewResponseData(requestData)

	/* Address */

	dnsRes, err := NewResolver(log, requestData).Resolve(ctx, requestData.Target)
	if err != nil {
		return responseData, err
	}
	responseData.DNS = dnsRes
	host := asciiHost(requestData.Target)

	/* Endpoint */

	ep, err := ProbeEndpoint(ctx, log, dnsRes.IP, requestData.Port)
	if err != nil {
		responseData.EndpointErr = err
	} else {
		responseData.Endpoint = ep
	}

	/* HTTP */

	httpRes, err := FetchHTTPS(ctx, log, requestData, host, dnsRes.IP)
	if err != nil {
		return responseData, err
	}
	responseData.HTTP = httpRes
	responseData.SecurityHeaders = parser.SecurityHeaders(httpRes.Headers)
	if len(responseData.SecurityHeaders) == 0 && requestData.FallbackHost != "" {
		responseData.FallbackHeaders = fallbackHeaders(ctx, log, requestData)
	}
	responseData.ContentLabel = parser.ClassifyContentType(httpRes.ContentType)

	/* HTML */

	responseData.TagCounts = parser.CountTags(httpRes.Body)
	if h1, ok := parser.FirstH1(httpRes.Body); ok {
		responseData.H1 = &h1
	}

	/* TLS */

	inspectCertificate(ctx, log, requestData, host, dnsRes, responseData)

	/* Trace */

	if requestData.Trace {
		hops, err := Trace(ctx, log, requestData, host)
		if err != nil {
			log.V(1).Info("Trace unavailable; omitting", "error", err)
		} else {
			responseData.TraceRan = true
			responseData.Hops = hops
		}
	}

	return responseData, nil
}

// fallbackHeaders is purely for comparison, so any failure just means there's
// nothing to compare with.
func fallbackHeaders(ctx context.Context, log logr.Logger, requestData *state.RequestData) parser.HeaderReport {
	res, err := FetchHTTPS(ctx, log, requestData, requestData.FallbackHost, nil)
	if err != nil {
		log.V(1).Info("Fallback host fetch failed; not comparing", "host", requestData.FallbackHost, "error", err)
		return nil
	}
	return parser.SecurityHeaders(res.Headers)
}

func inspectCertificate(ctx context.Context, log logr.Logger, requestData *state.RequestData, host string, dnsRes *state.DNSResult, responseData *state.ResponseData) {
	sess, err := InspectTLS(ctx, log, requestData, host, dnsRes.IP)
	if err != nil {
		responseData.TLSErr = err
		return
	}
	defer sess.Close()
	responseData.TLS = sess.Info()

	leaf, ok := sess.Leaf()
	if !ok {
		return
	}
	cert, err := codec.DecodeCertificate(leaf)
	if err != nil {
		responseData.CertErr = err
		return
	}
	responseData.Cert = cert

	if log.V(2).Enabled() {
		log.V(2).Info("Decoded leaf", "cert", spew.Sdump(cert))
	}
}
