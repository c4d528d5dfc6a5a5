package dispatch

import (
	"math"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"

	"github.com/spance/android-operator/operator/faults"
)

type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
)

type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Default     any
	Enum        []string
}

// validateArgs checks the raw argument map against the declared parameters:
// required keys present, values coercible to the declared type, defaults
// filled in. The failing field is always named.
func validateArgs(params []Param, raw map[string]any) (Args, error) {
	args := make(Args, len(params))

	known := lo.SliceToMap(params, func(p Param) (string, Param) { return p.Name, p })
	for name := range raw {
		if _, ok := known[name]; !ok {
			return nil, faults.New(faults.InvalidArgument, "unexpected argument %q", name)
		}
	}

	for _, p := range params {
		value, present := raw[p.Name]
		if !present || value == nil {
			if p.Required {
				return nil, faults.New(faults.InvalidArgument, "missing required argument %q", p.Name)
			}
			if p.Default != nil {
				args[p.Name] = p.Default
			}
			continue
		}

		coerced, ok := coerce(p.Type, value)
		if !ok {
			return nil, faults.New(faults.InvalidArgument,
				"argument %q: expected %s, got %T", p.Name, p.Type, value)
		}
		if len(p.Enum) > 0 {
			s, _ := coerced.(string)
			if !lo.Contains(p.Enum, s) {
				return nil, faults.New(faults.InvalidArgument,
					"argument %q: must be one of %v", p.Name, p.Enum)
			}
		}
		args[p.Name] = coerced
	}

	return args, nil
}

// coerce converts a JSON-decoded value into the declared parameter type.
// JSON numbers arrive as float64 regardless of the declared type.
func coerce(t ParamType, value any) (any, bool) {
	switch t {
	case TypeString:
		s, ok := value.(string)
		return s, ok
	case TypeBoolean:
		b, ok := value.(bool)
		return b, ok
	case TypeNumber:
		switch v := value.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		}
		return nil, false
	case TypeInteger:
		switch v := value.(type) {
		case int:
			return v, true
		case float64:
			if v != math.Trunc(v) {
				return nil, false
			}
			return int(v), true
		}
		return nil, false
	}
	return nil, false
}

// decode maps validated args into a typed request struct.
func decode[T any](args Args) (T, error) {
	var req T
	if err := mapstructure.Decode(map[string]any(args), &req); err != nil {
		return req, faults.Wrap(faults.InvalidArgument, err, "decoding arguments")
	}
	return req, nil
}
