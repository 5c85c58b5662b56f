// Package shared holds the JSON plumbing every handler uses: error envelopes
// and the pagination envelope. Domain logic never lives here.
package shared

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	dErrors "basket/pkg/domain-errors"
)

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError centralizes domain error translation to HTTP responses so every
// handler produces the same envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":             string(code),
		"error_description": dErrors.MessageOf(err),
	})
}

// Envelope is the pagination wrapper for collection responses.
type Envelope struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// Paginate windows results into a fixed-size page taken from the ?page query
// parameter (1-based). The full ordered sequence is produced upstream; only
// windowing happens here.
func Paginate[T any](r *http.Request, pageSize int, results []T) Envelope {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}

	total := len(results)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	var next, previous *string
	if end < total {
		next = pageURL(r.URL, page+1)
	}
	if page > 1 {
		previous = pageURL(r.URL, page-1)
	}

	return Envelope{
		Count:    total,
		Next:     next,
		Previous: previous,
		Results:  results[start:end],
	}
}

func pageURL(u *url.URL, page int) *string {
	copied := *u
	q := copied.Query()
	q.Set("page", strconv.Itoa(page))
	copied.RawQuery = q.Encode()
	s := copied.String()
	return &s
}
