package wikidata

import "encoding/json"

// Results is the W3C SPARQL 1.1 query results JSON document.
// https://www.w3.org/TR/sparql11-results-json/
type Results struct {
	Head    Head      `json:"head"`
	Boolean *bool     `json:"boolean,omitempty"`
	Results *Bindings `json:"results,omitempty"`
}

// Head lists the variables projected by the query.
type Head struct {
	Vars []string `json:"vars"`
	Link []string `json:"link,omitempty"`
}

// Bindings holds the solution sequence of a SELECT query.
type Bindings struct {
	Bindings []Binding `json:"bindings"`
}

// Binding maps a variable name to its bound value for one solution.
type Binding map[string]Value

// Value is a single RDF term in a binding.
type Value struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Len returns the number of solutions. An empty (but well-formed) result is
// a valid success with Len() == 0.
func (r *Results) Len() int {
	if r == nil || r.Results == nil {
		return 0
	}
	return len(r.Results.Bindings)
}

// decodeResults parses a SPARQL JSON results body. A body that is not valid
// JSON is a protocol failure; a well-formed document with zero bindings is
// not.
func decodeResults(body []byte) (*Results, error) {
	var results Results
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &ClientError{
			Type:    ErrorTypeProtocol,
			Message: "malformed SPARQL results body",
			Cause:   err,
		}
	}
	return &results, nil
}

// Response is the terminal outcome of a successful query call.
type Response struct {
	// Format echoes the negotiated response format.
	Format Format

	// StatusCode is the final HTTP status (always 2xx).
	StatusCode int

	// Results holds the decoded document for FormatJSON; nil otherwise.
	Results *Results

	// Text holds the raw body for FormatCSV; empty otherwise.
	Text string
}
