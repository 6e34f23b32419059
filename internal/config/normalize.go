package config

import (
	"fmt"
	"sort"
	"strings"
)

// Normalize fills in every default the loaders leave open: anonymous operator
// ids, positional dependencies, repeat counts, group counts, and output names.
// It must run before Validate; loaders call both via Finalize.
func (m *Model) Normalize() {
	if m.RepeatGroups < 1 {
		m.RepeatGroups = 1
	}
	if m.SharedData == nil {
		m.SharedData = map[string]any{}
	}

	for i, op := range m.Operators {
		if op.ID == "" {
			op.ID = fmt.Sprintf("%s.%d", op.Ref, i)
		}
		if op.Repeat < 1 {
			op.Repeat = 1
		}
		if op.SaveOutput && op.SharedOutputName == "" {
			op.SharedOutputName = op.ID
		}

		// A nil DependsOn means the document was silent: chain positionally,
		// as strictly-linear definitions rely on. An empty non-nil slice is
		// an explicit root and stays one.
		if op.DependsOn == nil {
			if i == 0 {
				op.DependsOn = []string{}
			} else {
				op.DependsOn = []string{m.Operators[i-1].ID}
			}
		}
	}
}

// Validate checks the definition-level rules that do not need the full graph:
// unique ids, binding shape, and duplicate binding destinations. Graph-level
// rules (dangling references, cycles) belong to graph.Build.
func (m *Model) Validate() error {
	seen := make(map[string]struct{}, len(m.Operators))
	for _, op := range m.Operators {
		if _, dup := seen[op.ID]; dup {
			return Validationf("duplicate operator id %q", op.ID)
		}
		seen[op.ID] = struct{}{}

		dests := make(map[string]string, len(op.Bindings))
		for _, b := range op.Bindings {
			if b.Source == "" || b.Dest == "" {
				return Validationf("operator %q: empty shared binding", op.ID)
			}
			if prev, dup := dests[b.Dest]; dup {
				return Validationf(
					"operator %q: shared sources %q and %q both bind to argument %q",
					op.ID, prev, b.Source, b.Dest)
			}
			dests[b.Dest] = b.Source
		}

		if op.Repeat > 1 && op.SaveOutput && op.SharedOutputName == "" {
			return Validationf("operator %q: repeats save output but no output name resolved", op.ID)
		}
	}
	return nil
}

// Finalize normalizes and validates in one step.
func (m *Model) Finalize() error {
	m.Normalize()
	return m.Validate()
}

// ParseBinding parses the textual binding shapes accepted by the loaders:
// "key" binds the store key to an argument of the same name, and
// "key as alias" renames it for the local call.
func ParseBinding(raw string) (Binding, error) {
	parts := strings.Fields(raw)
	switch len(parts) {
	case 1:
		return Binding{Source: parts[0], Dest: parts[0]}, nil
	case 3:
		if parts[1] != "as" {
			break
		}
		return Binding{Source: parts[0], Dest: parts[2]}, nil
	}
	return Binding{}, Validationf("malformed shared binding %q (want \"key\" or \"key as alias\")", raw)
}

// BindingsFromMap converts the map binding shape {source: alias} into the
// canonical ordered form. Keys are sorted so the result is deterministic.
func BindingsFromMap(raw map[string]string) []Binding {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Binding, 0, len(raw))
	for _, k := range keys {
		dest := raw[k]
		if dest == "" {
			dest = k
		}
		out = append(out, Binding{Source: k, Dest: dest})
	}
	return out
}
