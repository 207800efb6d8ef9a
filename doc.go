// Package inferencecache serves text classifications through a bounded,
// recency-ordered cache so repeated inputs skip the expensive model call.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│        service.Server (HTTP)        │  /analyze /readability
//	│                                     │  /health /ready /stats
//	└─────────────────────────────────────┘
//	           ↓ calls
//	┌─────────────────────────────────────┐
//	│         service.Analyzer            │  get-or-compute,
//	│                                     │  coalesced misses
//	└─────────────────────────────────────┘
//	      ↓ Get/Put            ↓ on miss
//	┌──────────────────┐ ┌────────────────┐
//	│ pkg/cache        │ │ classifier     │  retry, rate limit
//	│ RecencyCache     │ │ HTTPClient     │
//	└──────────────────┘ └────────────────┘
//
// The cache never computes values and performs no I/O. The caller looks a
// key up, computes the value on a miss and stores it with Put. A Put of a
// new key into a full cache evicts exactly one entry, the least recently
// used one. Get and Put both promote the key to most recently used.
//
// # Packages
//
//   - pkg/cache: generic RecencyCache with statistics and Prometheus metrics
//   - pkg/retry: exponential backoff for upstream calls
//   - classifier: Classifier interface and the HTTP inference client
//   - readability: Flesch-Kincaid grade level scoring
//   - service: Analyzer and the HTTP API
//   - config: JSON/YAML configuration with environment overrides
//   - metric: Prometheus registry and exposition server
//   - health: component health aggregation
//   - errors: transient/invalid/fatal error classification
//
// Run the service with:
//
//	go run ./cmd/inferencecache -config configs/inferencecache.yaml
package inferencecache
