package config

import "time"

// Model is the unified, format-agnostic representation of one operator
// network definition: the header, the initial shared data seed, and the
// operator list.
type Model struct {
	// Name is the user-defined name of the network.
	Name string
	// Description is free-form text carried for reporting only.
	Description string

	// Multiprocessing selects the process-backed worker pool. When false,
	// operators run inside the engine process.
	Multiprocessing bool
	// Workers caps pool concurrency. Zero means "pick a default"
	// (1 for sequential runs, GOMAXPROCS otherwise).
	Workers int
	// Sequential forces one-at-a-time in-process execution.
	Sequential bool

	// RepeatGroups is the number of full independent re-runs of the network.
	RepeatGroups int

	// SharedData seeds the shared state store at the start of every repeat
	// group.
	SharedData map[string]any

	// Operators is the ordered operator list as it appeared in the source
	// document. Order matters for positional dependency defaulting.
	Operators []*Operator
}

// Ref names the callable implementing an operator: a registered module and a
// symbol within it. The registry resolves it into an invocable at startup.
type Ref struct {
	Module string
	Name   string
}

// String returns the canonical "module.name" form used in ids and logs.
func (r Ref) String() string {
	return r.Module + "." + r.Name
}

// Binding is the canonical form of one shared-state input: the store key to
// read and the argument name to expose it under. Loaders normalize all
// accepted shapes ("key", "key as alias", lists and maps of those) into an
// ordered sequence of these pairs.
type Binding struct {
	Source string
	Dest   string
}

// Operator is one unit of work in the network.
type Operator struct {
	// ID is unique within the network. Loaders leave it empty for anonymous
	// operators; Normalize assigns a positional default.
	ID string

	// Ref locates the callable.
	Ref Ref

	// DependsOn lists the ids this operator waits on. A nil slice means the
	// source document said nothing, which Normalize resolves positionally
	// (previous operator, or root for the first). An empty non-nil slice is
	// an explicit root.
	DependsOn []string

	// Params are literal arguments fixed at definition time.
	Params map[string]any

	// Bindings are arguments drawn from the shared state store at dispatch
	// time, in canonical (source, dest) form.
	Bindings []Binding

	// SaveOutput captures the callable's return value.
	SaveOutput bool
	// SharedOutputName is the store key the output is written under.
	// Defaults to the operator id when SaveOutput is set.
	SharedOutputName string

	// Repeat re-invokes the operator body this many times before it counts
	// as complete. Normalize raises zero to 1.
	Repeat int
	// ReinitializeInRepeats re-reads the shared bindings before every
	// repeat instead of reusing the values resolved for the first one.
	ReinitializeInRepeats bool

	// Timeout bounds one dispatch (all repeats). Zero disables it.
	Timeout time.Duration
}
