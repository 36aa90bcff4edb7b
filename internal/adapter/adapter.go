// Package adapter converts vendor-specific log envelopes into canonical log
// records. Each indexing provider delivers logs in its own shape; a
// Normalizer flattens and scrubs one provider's payload into event.Log
// values the pipeline can consume.
package adapter

import (
	"fmt"

	"github.com/monad-developers/kuru-terminal/internal/event"
)

// Normalizer reduces one vendor's raw payload to canonical logs. Logs
// missing topics or data are filtered out, not reported as errors; an error
// means the payload itself could not be parsed.
type Normalizer interface {
	// Source returns the vendor identifier this normalizer handles.
	Source() string

	// Normalize parses a raw payload into canonical logs.
	Normalize(payload []byte) ([]event.Log, error)
}

// Registry holds the known normalizers keyed by source name.
type Registry struct {
	normalizers map[string]Normalizer
}

// NewRegistry builds a registry with every supported source registered.
func NewRegistry() *Registry {
	reg := &Registry{
		normalizers: make(map[string]Normalizer),
	}

	reg.Register(NewGoldskyNormalizer())
	reg.Register(NewQuickNodeNormalizer())
	reg.Register(NewStreamNormalizer())

	return reg
}

// Register adds a normalizer, replacing any previous one for the source.
func (r *Registry) Register(n Normalizer) {
	r.normalizers[n.Source()] = n
}

// Get returns the normalizer for a source.
func (r *Registry) Get(source string) (Normalizer, bool) {
	n, ok := r.normalizers[source]
	return n, ok
}

// Normalize dispatches a payload to the normalizer registered for source.
func (r *Registry) Normalize(source string, payload []byte) ([]event.Log, error) {
	n, ok := r.Get(source)
	if !ok {
		return nil, fmt.Errorf("no normalizer registered for source: %s", source)
	}
	return n.Normalize(payload)
}
