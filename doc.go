// Package wikidata provides a resilient client for the Wikidata SPARQL Query
// Service (and any compatible SPARQL endpoint) with two independent retry
// layers:
//
//   - Transient server errors (500, 502, 503, 504) are retried at the
//     transport boundary with exponential backoff.
//   - Rate limiting (429) is retried at the orchestration layer, waiting the
//     server-dictated Retry-After duration between attempts.
//
// The two loops stay separate on purpose: a 5xx is a server malfunction that
// backoff smooths over, while a 429 is an explicit instruction to slow down
// for a specific amount of time.
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - Strict User-Agent policy compliance, validated at construction
//   - Safe concurrent use of a single *Client instance
//   - Optional Prometheus metrics and lightweight structured debug logging
//
// Typical usage:
//
//	client, err := wikidata.New(
//	    wikidata.WithUserAgent("MyBot/1.0 (https://example.org; bot@example.org)"),
//	    wikidata.WithMaxRetries(5),
//	    wikidata.WithRateLimitRetries(3),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	results, err := client.QueryJSON(ctx, "SELECT ?item WHERE { ?item wdt:P31 wd:Q146 } LIMIT 10")
//
// Queries longer than 4000 characters are sent via POST automatically; the
// response format (SPARQL JSON results or raw CSV) is selected per request
// through content negotiation. All failures surface as *ClientError values
// carrying a stable Type, so callers can branch on the failure class without
// string matching.
package wikidata
