// Package typetable implements the process-wide type descriptor
// registry (spec.md C2): one Descriptor per kind, forming a jump table
// that drives encode/decode/copy/clear/equality uniformly for every
// built-in and user-registered type.
//
// The table is immutable after Init per the Runtime design note in
// spec.md §9 ("global state -> explicit context objects"): Register
// calls happen once at process startup (package init for built-ins,
// explicit calls for generated Struct/Union types), and Table is read
// concurrently thereafter; every Lookup takes the table's mutex.
package typetable

import (
	"fmt"
	"sync"

	"github.com/ua-stack/opcua/pkg/ua/binary"
	"github.com/ua-stack/opcua/pkg/ua/status"
	"github.com/ua-stack/opcua/pkg/ua/types"
)

// Kind extends types.BuiltinKind with the structured kinds spec.md §3
// names: Enum, Struct, OptStruct, Union, BitfieldCluster.
type Kind int

const (
	KindEnum Kind = iota + 100
	KindStruct
	KindOptStruct
	KindUnion
	KindBitfieldCluster
)

func builtinKind(k types.BuiltinKind) Kind { return Kind(k) }

// Descriptor is the uniform per-kind operations bundle: init, copy,
// clear, binary-encode, binary-decode and equality; it has no
// calc-size entry. XML encode/decode live in package uaxml as
// per-type functions and are not reachable through this table, which
// keeps its bundle focused on the binary path every component
// (channel, dispatch) actually drives.
type Descriptor struct {
	Kind Kind
	Name string
	Size int // in-memory size in bytes; 0 for variable-length kinds

	Init    func() any
	Copy    func(v any) any
	Clear   func(v any)
	Encode  func(w binary.Writer, v any) error
	Decode  func(r *binary.Reader) (any, error)
	Equal   func(a, b any) bool
}

// Table is the process-wide, append-only registry. Table.mu guards
// Register, Freeze and Lookup alike, before and after Freeze.
type Table struct {
	mu      sync.Mutex
	entries map[Kind]*Descriptor
	frozen  bool
}

// Global is the default table populated with all built-ins by this
// package's init(). Components that need to register user Struct/
// Union types during server startup call Global.Register before the
// first channel is opened; Runtime (see internal/runtime) holds a
// reference to Global rather than constructing its own, per the
// "global state -> explicit context object" design note.
var Global = NewTable()

func NewTable() *Table {
	return &Table{entries: make(map[Kind]*Descriptor)}
}

// Register adds a descriptor. It panics on a duplicate Kind or on a
// Register call after Freeze, since both indicate a programming error
// in startup wiring rather than a runtime condition to recover from.
func (t *Table) Register(d Descriptor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		panic(fmt.Sprintf("typetable: Register(%v) after Freeze", d.Kind))
	}
	if _, exists := t.entries[d.Kind]; exists {
		panic(fmt.Sprintf("typetable: duplicate registration for kind %v", d.Kind))
	}
	cp := d
	t.entries[d.Kind] = &cp
}

// Freeze forbids further registration. Called once by Runtime after
// all built-in and generated types have registered.
func (t *Table) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frozen = true
}

func (t *Table) Lookup(k Kind) (*Descriptor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.entries[k]
	return d, ok
}

// EncodeBinary looks up k's descriptor and encodes v, returning
// status.BadEncodingError if k is unregistered.
func (t *Table) EncodeBinary(w binary.Writer, k Kind, v any) error {
	d, ok := t.Lookup(k)
	if !ok {
		return status.BadEncodingError
	}
	return d.Encode(w, v)
}

// DecodeBinary looks up k's descriptor and decodes from r.
func (t *Table) DecodeBinary(r *binary.Reader, k Kind) (any, error) {
	d, ok := t.Lookup(k)
	if !ok {
		return nil, status.BadDecodingError
	}
	return d.Decode(r)
}
