// Package registry provides persistent backends for signature.Registry.
//
// The schematic signature registry is shared, read-only data: once a
// program is built, every Transaction consults the same
// ComponentSignature set without ever mutating it. Each backend persists
// one (namespace, operation name) pair per signature rather than any kind
// of per-execution state.
//
// Each subpackage (memory, sqlite, postgres, redis) implements Store;
// AsRegistry in this package adapts any of them to a signature.Registry, so
// it can be handed to interpreter.Build in place of
// signature.NewMemoryRegistry.
package registry

import (
	"encoding/json"
	"fmt"

	"github.com/flowmesh/flowmesh/signature"
)

// Record pairs a signature with the namespace it is registered under.
type Record struct {
	Namespace string
	Signature signature.OperationSignature
}

// Store persists OperationSignatures keyed by (namespace, name). All
// backends in this tree implement it; none of them persist Transaction,
// NodeInstance, or PortBuffer state — that stays in-memory only per
// spec.md's non-goals.
type Store interface {
	Put(namespace string, sig signature.OperationSignature) error
	Get(namespace, name string) (signature.OperationSignature, bool, error)
	List(namespace string) ([]signature.OperationSignature, error)
	Delete(namespace, name string) error
	Clear(namespace string) error
	Close() error
}

// wireField mirrors Field with an exported, JSON-stable shape; Field's own
// pointer-based FieldType doesn't round-trip through encoding/json without
// help for the recursive Of case.
type wireField struct {
	Name string        `json:"name"`
	Type wireFieldType `json:"type"`
}

type wireFieldType struct {
	Kind       signature.FieldKind `json:"kind"`
	Of         *wireFieldType      `json:"of,omitempty"`
	StructName string              `json:"struct_name,omitempty"`
}

type wireSignature struct {
	Name    string      `json:"name"`
	Inputs  []wireField `json:"inputs"`
	Outputs []wireField `json:"outputs"`
}

func toWireType(t signature.FieldType) wireFieldType {
	w := wireFieldType{Kind: t.Kind, StructName: t.StructName}
	if t.Of != nil {
		of := toWireType(*t.Of)
		w.Of = &of
	}
	return w
}

func fromWireType(w wireFieldType) signature.FieldType {
	t := signature.FieldType{Kind: w.Kind, StructName: w.StructName}
	if w.Of != nil {
		of := fromWireType(*w.Of)
		t.Of = &of
	}
	return t
}

func toWireFields(fs []signature.Field) []wireField {
	out := make([]wireField, len(fs))
	for i, f := range fs {
		out[i] = wireField{Name: f.Name, Type: toWireType(f.Type)}
	}
	return out
}

func fromWireFields(fs []wireField) []signature.Field {
	out := make([]signature.Field, len(fs))
	for i, f := range fs {
		out[i] = signature.Field{Name: f.Name, Type: fromWireType(f.Type)}
	}
	return out
}

// Encode serializes a signature to the JSON form every backend stores.
func Encode(sig signature.OperationSignature) ([]byte, error) {
	w := wireSignature{
		Name:    sig.Name,
		Inputs:  toWireFields(sig.Inputs),
		Outputs: toWireFields(sig.Outputs),
	}
	return json.Marshal(w)
}

// Decode parses the JSON form produced by Encode.
func Decode(data []byte) (signature.OperationSignature, error) {
	var w wireSignature
	if err := json.Unmarshal(data, &w); err != nil {
		return signature.OperationSignature{}, fmt.Errorf("registry: decode signature: %w", err)
	}
	return signature.OperationSignature{
		Name:    w.Name,
		Inputs:  fromWireFields(w.Inputs),
		Outputs: fromWireFields(w.Outputs),
	}, nil
}

// AsRegistry adapts any Store to a signature.Registry, with in-process
// results only (errors from the backend collapse to "not found" the same
// way an absent row would, matching Registry.Lookup's (sig, bool) shape).
func AsRegistry(s Store) signature.Registry { return &storeRegistry{s} }

type storeRegistry struct{ store Store }

func (r *storeRegistry) Lookup(namespace, name string) (signature.OperationSignature, bool) {
	sig, ok, err := r.store.Get(namespace, name)
	if err != nil || !ok {
		return signature.OperationSignature{}, false
	}
	return sig, true
}
