package gateway

import (
	"net/url"
	"time"
)

// TTLClass selects the freshness window of a cache entry.
type TTLClass string

const (
	// TTLShort is used for single-asset and price lookups.
	TTLShort TTLClass = "short"
	// TTLLong is used for the wide multi-asset scan lookup.
	TTLLong TTLClass = "long"
)

// Request identifies one upstream call.
type Request struct {
	Endpoint string
	Params   url.Values
	// Route labels metrics and logs when Endpoint embeds an id. Defaults to Endpoint.
	Route string
	// Validate, when set, must accept a live payload before it is cached.
	// A rejected payload counts as a failed live call.
	Validate func(payload []byte) error
}

func (r Request) route() string {
	if r.Route != "" {
		return r.Route
	}
	return r.Endpoint
}

// Signature is the cache key: endpoint plus canonically encoded parameters.
func (r Request) Signature() string {
	if len(r.Params) == 0 {
		return r.Endpoint
	}
	return r.Endpoint + "?" + r.Params.Encode()
}

// Entry is a cached upstream payload.
type Entry struct {
	Payload   []byte    `json:"payload"`
	FetchedAt time.Time `json:"fetched_at"`
	Class     TTLClass  `json:"class"`
}

// Result is what a gateway fetch hands back.
type Result struct {
	Payload   []byte
	FetchedAt time.Time
	// Stale is set when a refetch failed and an expired entry was served.
	Stale bool
	// Cached is set when the payload came from a fresh cache entry.
	Cached bool
}
