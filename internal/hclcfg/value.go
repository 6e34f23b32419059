package hclcfg

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

func asString(val cty.Value) (string, error) {
	if val.Type() != cty.String {
		return "", fmt.Errorf("expected a string, got %s", val.Type().FriendlyName())
	}
	return val.AsString(), nil
}

func asBool(val cty.Value) (bool, error) {
	if val.Type() != cty.Bool {
		return false, fmt.Errorf("expected a bool, got %s", val.Type().FriendlyName())
	}
	return val.True(), nil
}

func asInt(val cty.Value) (int, error) {
	if val.Type() != cty.Number {
		return 0, fmt.Errorf("expected a number, got %s", val.Type().FriendlyName())
	}
	f, _ := val.AsBigFloat().Float64()
	n := int(f)
	if float64(n) != f {
		return 0, fmt.Errorf("expected a whole number, got %v", f)
	}
	return n, nil
}

func asStringSlice(val cty.Value) ([]string, error) {
	if !val.Type().IsTupleType() && !val.Type().IsListType() {
		return nil, fmt.Errorf("expected a list of strings, got %s", val.Type().FriendlyName())
	}
	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, v := it.Element()
		s, err := asString(v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func asStringMap(val cty.Value) (map[string]any, error) {
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("expected an object, got %s", val.Type().FriendlyName())
	}
	out := make(map[string]any)
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		converted, err := ctyToGo(v)
		if err != nil {
			return nil, fmt.Errorf("value for %q: %v", k.AsString(), err)
		}
		out[k.AsString()] = converted
	}
	return out, nil
}

// ctyToGo converts an HCL literal into the plain Go value the shared store
// and the callables work with.
func ctyToGo(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	if val.Type().IsPrimitiveType() {
		switch val.Type() {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			f, _ := val.AsBigFloat().Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type %s", val.Type().FriendlyName())
		}
	}
	if val.Type().IsObjectType() || val.Type().IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			converted, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = converted
		}
		return out, nil
	}
	if val.Type().IsTupleType() || val.Type().IsListType() {
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			converted, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", val.Type().FriendlyName())
}
