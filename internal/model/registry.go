package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Decoder builds a Model from the raw model.json document.
type Decoder func(raw json.RawMessage) (Model, error)

// Registry maps model kind strings to their decoders.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

// DefaultRegistry returns a Registry with every built-in model kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindLogistic, decodeLogistic)
	r.Register(KindTreeEnsemble, decodeTreeEnsemble)
	return r
}

// Register adds a decoder. Panics on duplicate kind to surface misconfiguration early.
func (r *Registry) Register(kind string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.decoders[kind]; exists {
		panic(fmt.Sprintf("model registry: duplicate kind %q", kind))
	}
	r.decoders[kind] = d
}

// Get returns the decoder for the given kind.
func (r *Registry) Get(kind string) (Decoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decoders[kind]
	if !ok {
		return nil, fmt.Errorf("no decoder registered for model kind %q", kind)
	}
	return d, nil
}

// Kinds returns all registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.decoders))
	for k := range r.decoders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Decode reads the "kind" field of data and hands the document to its decoder.
func (r *Registry) Decode(data []byte) (Model, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if head.Kind == "" {
		return nil, fmt.Errorf("model: missing kind")
	}
	d, err := r.Get(head.Kind)
	if err != nil {
		return nil, err
	}
	return d(data)
}
