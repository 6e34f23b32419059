// Package hclcfg loads operator network definitions written in HCL: a
// network block for the header and one operator "module" "name" block per
// unit of work.
package hclcfg

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"opnet/internal/config"
	"opnet/internal/ctxlog"
)

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "network"},
		{Type: "operator", LabelNames: []string{"module", "name"}},
	},
}

// Loader reads .hcl definition files.
type Loader struct{}

// New returns an HCL definition loader.
func New() *Loader {
	return &Loader{}
}

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading definition file.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition file: %w", err)
	}
	return Parse(path, data)
}

// Parse builds a model from HCL source. filename is used in diagnostics only.
func Parse(filename string, src []byte) (*config.Model, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, config.Validationf("parsing hcl definition: %s", diags.Error())
	}

	content, diags := file.Body.Content(rootSchema)
	if diags.HasErrors() {
		return nil, config.Validationf("reading hcl definition: %s", diags.Error())
	}

	m := &config.Model{}
	sawNetwork := false
	for _, block := range content.Blocks {
		switch block.Type {
		case "network":
			if sawNetwork {
				return nil, config.Validationf("definition declares more than one network block")
			}
			sawNetwork = true
			if err := decodeNetwork(block, m); err != nil {
				return nil, err
			}
		case "operator":
			op, err := decodeOperator(block)
			if err != nil {
				return nil, err
			}
			m.Operators = append(m.Operators, op)
		}
	}

	if len(m.Operators) == 0 {
		return nil, config.Validationf("definition declares no operators")
	}
	if err := m.Finalize(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeNetwork(block *hcl.Block, m *config.Model) error {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return config.Validationf("network block: %s", diags.Error())
	}

	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return config.Validationf("network attribute %q: %s", name, diags.Error())
		}

		var err error
		switch name {
		case "name":
			m.Name, err = asString(val)
		case "description":
			m.Description, err = asString(val)
		case "multiprocessing":
			m.Multiprocessing, err = asBool(val)
		case "workers":
			m.Workers, err = asInt(val)
		case "sequential":
			m.Sequential, err = asBool(val)
		case "repeat_groups":
			m.RepeatGroups, err = asInt(val)
		case "shared_data":
			m.SharedData, err = asStringMap(val)
		default:
			err = fmt.Errorf("unknown attribute")
		}
		if err != nil {
			return config.Validationf("network attribute %q: %v", name, err)
		}
	}
	return nil
}

func decodeOperator(block *hcl.Block) (*config.Operator, error) {
	op := &config.Operator{
		Ref: config.Ref{Module: block.Labels[0], Name: block.Labels[1]},
	}

	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, config.Validationf("operator %s: %s", op.Ref, diags.Error())
	}

	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, config.Validationf("operator %s, attribute %q: %s", op.Ref, name, diags.Error())
		}

		var err error
		switch name {
		case "id":
			op.ID, err = asString(val)
		case "run_after":
			op.DependsOn, err = asRunAfter(val)
		case "params":
			op.Params, err = asStringMap(val)
		case "shared_inputs":
			op.Bindings, err = asBindings(val)
		case "save_output":
			op.SaveOutput, err = asBool(val)
		case "shared_output_name":
			op.SharedOutputName, err = asString(val)
		case "repeat":
			op.Repeat, err = asInt(val)
		case "reinitialize_in_repeats":
			op.ReinitializeInRepeats, err = asBool(val)
		case "timeout":
			op.Timeout, err = asTimeout(val)
		default:
			err = fmt.Errorf("unknown attribute")
		}
		if err != nil {
			return nil, config.Validationf("operator %s, attribute %q: %v", op.Ref, name, err)
		}
	}
	return op, nil
}

func asRunAfter(val cty.Value) ([]string, error) {
	if val.Type() == cty.String {
		s := val.AsString()
		if s == "" || s == "none" {
			return []string{}, nil
		}
		return []string{s}, nil
	}
	return asStringSlice(val)
}

func asBindings(val cty.Value) ([]config.Binding, error) {
	if val.Type().IsObjectType() || val.Type().IsMapType() {
		renames := make(map[string]string)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			if v.IsNull() {
				renames[k.AsString()] = ""
				continue
			}
			alias, err := asString(v)
			if err != nil {
				return nil, fmt.Errorf("alias for %q: %v", k.AsString(), err)
			}
			renames[k.AsString()] = alias
		}
		return config.BindingsFromMap(renames), nil
	}

	raw, err := asStringSlice(val)
	if err != nil {
		return nil, err
	}
	out := make([]config.Binding, 0, len(raw))
	for _, s := range raw {
		b, err := config.ParseBinding(s)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func asTimeout(val cty.Value) (time.Duration, error) {
	if val.Type() == cty.Number {
		secs, err := asInt(val)
		if err != nil {
			return 0, err
		}
		return time.Duration(secs) * time.Second, nil
	}
	s, err := asString(val)
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("malformed timeout %q: %v", s, err)
	}
	return d, nil
}
