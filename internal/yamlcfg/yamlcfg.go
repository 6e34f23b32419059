// Package yamlcfg loads operator network definitions from YAML or JSON
// documents and normalizes their loose field shapes (run_after as string or
// list, shared inputs as string, list, or rename map) into the canonical
// config model.
package yamlcfg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"opnet/internal/config"
	"opnet/internal/ctxlog"
)

// Loader reads .yaml, .yml and .json definition files.
type Loader struct{}

// New returns a YAML/JSON definition loader.
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

	if strings.HasSuffix(path, ".json") {
		return ParseJSON(data)
	}
	return Parse(data)
}

// Parse builds a model from YAML bytes. JSON also parses here (it is a YAML
// subset), but ParseJSON gives JSON documents stricter errors.
func Parse(data []byte) (*config.Model, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, config.Validationf("parsing yaml definition: %v", err)
	}
	return doc.toModel()
}

// ParseJSON builds a model from a JSON document, such as an inline definition
// passed on the command line.
func ParseJSON(data []byte) (*config.Model, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, config.Validationf("parsing json definition: %v", err)
	}
	return doc.toModel()
}

// document mirrors the on-disk definition shape. Fields that accept more
// than one shape stay untyped until normalization.
type document struct {
	Name            string         `yaml:"name" json:"name"`
	Description     string         `yaml:"description" json:"description"`
	Multiprocessing bool           `yaml:"multiprocessing" json:"multiprocessing"`
	Workers         int            `yaml:"workers" json:"workers"`
	Sequential      bool           `yaml:"sequential" json:"sequential"`
	RepeatGroups    int            `yaml:"repeat_groups" json:"repeat_groups"`
	SharedData      map[string]any `yaml:"shared_data" json:"shared_data"`
	Operators       []operatorDoc  `yaml:"operators" json:"operators"`
}

type operatorDoc struct {
	ID                    string         `yaml:"id" json:"id"`
	Operator              string         `yaml:"operator" json:"operator"`
	RunAfter              any            `yaml:"run_after" json:"run_after"`
	InputParams           map[string]any `yaml:"input_params" json:"input_params"`
	SharedInputParams     any            `yaml:"shared_input_params" json:"shared_input_params"`
	SaveOutput            bool           `yaml:"save_output" json:"save_output"`
	SharedOutputName      string         `yaml:"shared_output_name" json:"shared_output_name"`
	Repeat                int            `yaml:"repeat" json:"repeat"`
	ReinitializeInRepeats bool           `yaml:"reinitialize_in_repeats" json:"reinitialize_in_repeats"`
	Timeout               any            `yaml:"timeout" json:"timeout"`
}

func (d *document) toModel() (*config.Model, error) {
	m := &config.Model{
		Name:            d.Name,
		Description:     d.Description,
		Multiprocessing: d.Multiprocessing,
		Workers:         d.Workers,
		Sequential:      d.Sequential,
		RepeatGroups:    d.RepeatGroups,
		SharedData:      d.SharedData,
	}
	if len(d.Operators) == 0 {
		return nil, config.Validationf("definition declares no operators")
	}

	for i, od := range d.Operators {
		op, err := od.toOperator(i)
		if err != nil {
			return nil, err
		}
		m.Operators = append(m.Operators, op)
	}

	if err := m.Finalize(); err != nil {
		return nil, err
	}
	return m, nil
}

func (od *operatorDoc) toOperator(index int) (*config.Operator, error) {
	ref, err := parseRef(od.Operator)
	if err != nil {
		return nil, config.Validationf("operator %d: %v", index, err)
	}

	dependsOn, err := parseRunAfter(od.RunAfter)
	if err != nil {
		return nil, config.Validationf("operator %d (%s): %v", index, ref, err)
	}

	bindings, err := parseSharedInputs(od.SharedInputParams)
	if err != nil {
		return nil, config.Validationf("operator %d (%s): %v", index, ref, err)
	}

	timeout, err := parseTimeout(od.Timeout)
	if err != nil {
		return nil, config.Validationf("operator %d (%s): %v", index, ref, err)
	}

	return &config.Operator{
		ID:                    od.ID,
		Ref:                   ref,
		DependsOn:             dependsOn,
		Params:                od.InputParams,
		Bindings:              bindings,
		SaveOutput:            od.SaveOutput,
		SharedOutputName:      od.SharedOutputName,
		Repeat:                od.Repeat,
		ReinitializeInRepeats: od.ReinitializeInRepeats,
		Timeout:               timeout,
	}, nil
}

// parseRef splits "module.name". The name is the part after the last dot so
// module paths may be dotted.
func parseRef(s string) (config.Ref, error) {
	i := strings.LastIndex(s, ".")
	if s == "" {
		return config.Ref{}, fmt.Errorf("missing operator reference")
	}
	if i <= 0 || i == len(s)-1 {
		return config.Ref{}, fmt.Errorf("malformed operator reference %q (want \"module.name\")", s)
	}
	return config.Ref{Module: s[:i], Name: s[i+1:]}, nil
}

// parseRunAfter accepts nothing (positional default), "none" (explicit
// root), a single id, or a list of ids.
func parseRunAfter(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" || strings.EqualFold(v, "none") {
			return []string{}, nil
		}
		return []string{v}, nil
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			id, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("run_after entries must be strings, got %T", item)
			}
			ids = append(ids, id)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("run_after must be a string or a list, got %T", raw)
	}
}

// parseSharedInputs accepts a single "key" (optionally "key as alias"),
// a list of those, or a {source: alias} map.
func parseSharedInputs(raw any) ([]config.Binding, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		b, err := config.ParseBinding(v)
		if err != nil {
			return nil, err
		}
		return []config.Binding{b}, nil
	case []any:
		out := make([]config.Binding, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("shared_input_params entries must be strings, got %T", item)
			}
			b, err := config.ParseBinding(s)
			if err != nil {
				return nil, err
			}
			out = append(out, b)
		}
		return out, nil
	case map[string]any:
		renames := make(map[string]string, len(v))
		for source, alias := range v {
			switch a := alias.(type) {
			case nil:
				renames[source] = ""
			case string:
				renames[source] = a
			default:
				return nil, fmt.Errorf("shared_input_params alias for %q must be a string, got %T", source, alias)
			}
		}
		return config.BindingsFromMap(renames), nil
	default:
		return nil, fmt.Errorf("shared_input_params must be a string, list, or map, got %T", raw)
	}
}

// parseTimeout accepts a duration string ("5s") or a plain number of
// seconds.
func parseTimeout(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("malformed timeout %q: %v", v, err)
		}
		return d, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("timeout must be a duration string or seconds, got %T", raw)
	}
}
