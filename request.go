package wikidata

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Format selects the response representation negotiated with the endpoint.
type Format int

const (
	// FormatJSON requests SPARQL JSON results and decodes them into Results.
	FormatJSON Format = iota
	// FormatCSV requests CSV and passes the body through untouched.
	FormatCSV
)

// acceptTypes is the closed format → MIME lookup table. A Format outside
// this table is a caller error, rejected before any network contact.
var acceptTypes = map[Format]string{
	FormatJSON: "application/sparql-results+json",
	FormatCSV:  "text/csv",
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	default:
		return "unknown"
	}
}

const (
	// queryParam is the wire name for the query text, both as a URL
	// parameter (GET) and as a form field (POST).
	queryParam = "query"

	// maxGetQueryLength is the query length above which the request switches
	// to POST regardless of the caller's method hint.
	maxGetQueryLength = 4000
)

// Request describes a single query call. It is ephemeral: one value per
// call, never retained by the client.
type Request struct {
	// Query is the SPARQL query text.
	Query string

	// Format selects the response representation. The zero value is
	// FormatJSON.
	Format Format

	// ForcePOST sends the query via POST even when it would fit in a GET.
	ForcePOST bool

	// Timeout bounds each individual HTTP attempt. Zero means the client
	// default.
	Timeout time.Duration
}

// usePOST reports whether the request must be sent as a POST.
func (r Request) usePOST() bool {
	return r.ForcePOST || len(r.Query) > maxGetQueryLength
}

// newHTTPRequest builds the outgoing request: method selection, content
// negotiation, and query encoding. An unsupported format fails here, before
// the network is touched.
func (c *Client) newHTTPRequest(ctx context.Context, r Request) (*http.Request, error) {
	accept, ok := acceptTypes[r.Format]
	if !ok {
		return nil, &ClientError{
			Type:    ErrorTypeConfig,
			Message: "unsupported response format",
		}
	}

	if timeout := r.Timeout; timeout > 0 {
		ctx = withAttemptTimeout(ctx, timeout)
	}

	params := url.Values{queryParam: {r.Query}}

	var req *http.Request
	var err error
	if r.usePOST() {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	}
	if err != nil {
		return nil, &ClientError{
			Type:    ErrorTypeConfig,
			Message: "building request failed",
			Cause:   err,
		}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	return req, nil
}
