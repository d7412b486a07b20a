package config

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/NyankoNyan/buildgen/pkg/errors"
	"github.com/NyankoNyan/buildgen/pkg/param"
)

// ParseParameter builds a parameter from a decoded document node. All of
// the following are accepted:
//
//	5, 0.3, true, Grid          literal (text is tried as int, float, bool, then string)
//	$xsize                      reference
//	{value: 5}                  literal
//	{ref: xsize}                reference
//	[1, 6]                      random range
//	{rand_int: [1, 6]}          integer random range
//	{rand_float: [0.5, 1]}      float random range
//	[1, 2, 3]                   vector
//	{x: 1, z: 2}                vector, missing components are 0
//	{vec3: {x: 1, y: 2, z: 3}}  float vector
//	{vec3i: {x: 1, y: 2, z: 3}} integer vector
//	{mult: [$a, 2]}             operation, keyed by operation name
//	{node: {operation: "*", nodes: [$a, 2]}}
func ParseParameter(node any) (param.Parameter, error) {
	return parseParameter("", node)
}

// ParseParameterText parses a single parameter written in format, such as
// the value of a command line flag.
func ParseParameterText(text string, format Format) (param.Parameter, error) {
	tree, err := DecodeTree([]byte(text), format)
	if err != nil {
		return nil, err
	}
	return ParseParameter(tree)
}

func parseParameter(p path, node any) (param.Parameter, error) {
	if node == nil {
		return nil, p.errorf("missing parameter value")
	}
	if m, ok := asMap(node); ok {
		return parseMapping(p, m)
	}
	if l, ok := asList(node); ok {
		return parseSequence(p, l)
	}
	return parseScalar(p, node)
}

func parseScalar(p path, node any) (param.Parameter, error) {
	switch v := node.(type) {
	case int:
		return param.IntLiteral(v), nil
	case int64:
		return param.IntLiteral(int(v)), nil
	case uint64:
		if v > math.MaxInt {
			return nil, p.errorf("integer %d out of range", v)
		}
		return param.IntLiteral(int(v)), nil
	case float64:
		return param.FloatLiteral(v), nil
	case bool:
		return param.BoolLiteral(v), nil
	case json.Number:
		return parseScalarText(p, v.String())
	case string:
		return parseScalarText(p, v)
	}
	return nil, p.errorf("unsupported scalar of type %T", node)
}

func parseScalarText(p path, s string) (param.Parameter, error) {
	if name, ok := strings.CutPrefix(s, "$"); ok {
		if name == "" {
			return nil, p.errorf("reference without a name")
		}
		return param.Ref(name), nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return param.IntLiteral(n), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return param.FloatLiteral(f), nil
	}
	switch {
	case strings.EqualFold(s, "true"):
		return param.BoolLiteral(true), nil
	case strings.EqualFold(s, "false"):
		return param.BoolLiteral(false), nil
	}
	return param.StringLiteral(s), nil
}

func parseSequence(p path, l []any) (param.Parameter, error) {
	switch len(l) {
	case 2:
		return parseRange(p, l, param.Inferred)
	case 3:
		return parseVectorList(p, l, param.Inferred)
	}
	return nil, p.errorf("sequence must have 2 elements (random range) or 3 (vector), got %d", len(l))
}

func parseRange(p path, l []any, subtype param.Subtype) (param.Parameter, error) {
	if len(l) != 2 {
		return nil, p.errorf("random range needs 2 bounds, got %d", len(l))
	}
	lo, err := parseParameter(p.index(0), l[0])
	if err != nil {
		return nil, err
	}
	hi, err := parseParameter(p.index(1), l[1])
	if err != nil {
		return nil, err
	}
	return param.NewRandomRange(lo, hi, subtype), nil
}

func parseVectorList(p path, l []any, subtype param.Subtype) (param.Parameter, error) {
	if len(l) != 3 {
		return nil, p.errorf("vector needs 3 components, got %d", len(l))
	}
	var comps [3]param.Parameter
	for i, n := range l {
		c, err := parseParameter(p.index(i), n)
		if err != nil {
			return nil, err
		}
		comps[i] = c
	}
	return param.NewVector3(comps[0], comps[1], comps[2], subtype), nil
}

func parseVectorMapping(p path, m map[string]any, subtype param.Subtype) (param.Parameter, error) {
	comps := [3]param.Parameter{param.IntLiteral(0), param.IntLiteral(0), param.IntLiteral(0)}
	for _, k := range sortedKeys(m) {
		i := strings.Index("xyz", k)
		if len(k) != 1 || i < 0 {
			return nil, p.errorf("unknown vector component %q", k)
		}
		c, err := parseParameter(p.key(k), m[k])
		if err != nil {
			return nil, err
		}
		comps[i] = c
	}
	return param.NewVector3(comps[0], comps[1], comps[2], subtype), nil
}

func isVectorMapping(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if k != "x" && k != "y" && k != "z" {
			return false
		}
	}
	return true
}

func parseMapping(p path, m map[string]any) (param.Parameter, error) {
	if isVectorMapping(m) {
		return parseVectorMapping(p, m, param.Inferred)
	}
	if len(m) != 1 {
		return nil, p.errorf("parameter mapping must have exactly one key, got %v", sortedKeys(m))
	}

	key := sortedKeys(m)[0]
	val := m[key]
	at := p.key(key)

	switch key {
	case "value":
		if !isScalar(val) {
			return nil, at.errorf("value must be a scalar")
		}
		return parseScalar(at, val)

	case "ref":
		name, ok := scalarText(val)
		if !ok {
			return nil, at.errorf("reference must be a name")
		}
		name = strings.TrimPrefix(name, "$")
		if name == "" {
			return nil, at.errorf("reference without a name")
		}
		return param.Ref(name), nil

	case "node":
		return parseNode(at, val)

	case "rand_int", "rand_float":
		l, ok := asList(val)
		if !ok {
			return nil, at.errorf("random range must be a sequence of 2 bounds")
		}
		subtype := param.Int
		if key == "rand_float" {
			subtype = param.Float
		}
		return parseRange(at, l, subtype)

	case "vec3", "vec3i":
		subtype := param.Float
		if key == "vec3i" {
			subtype = param.Int
		}
		if vm, ok := asMap(val); ok {
			return parseVectorMapping(at, vm, subtype)
		}
		if l, ok := asList(val); ok {
			return parseVectorList(at, l, subtype)
		}
		return nil, at.errorf("vector must be a mapping of x, y, z or a sequence of 3")
	}

	op, ok := param.ParseOp(key)
	if !ok {
		return nil, p.errorf("unknown parameter form %q", key)
	}
	l, ok := asList(val)
	if !ok {
		return nil, at.errorf("operands must be a sequence")
	}
	return parseOperands(at, op, l)
}

func parseNode(p path, node any) (param.Parameter, error) {
	m, ok := asMap(node)
	if !ok {
		return nil, p.errorf("node must be a mapping with operation and nodes")
	}
	token, ok := scalarText(m["operation"])
	if !ok || token == "" {
		return nil, p.key("operation").errorf("missing operation")
	}
	// Unknown tokens are kept and fail when evaluated.
	op, known := param.ParseOp(token)
	if !known {
		op = param.Op(token)
	}

	raw, ok := m["nodes"]
	if !ok || raw == nil {
		return nil, p.key("nodes").errorf("operation %q has no operands", token)
	}
	l, ok := asList(raw)
	if !ok {
		l = []any{raw}
	}
	return parseOperands(p.key("nodes"), op, l)
}

func parseOperands(p path, op param.Op, l []any) (param.Parameter, error) {
	if len(l) == 0 {
		return nil, p.errorf("operation %q has no operands", op)
	}
	operands := make([]param.Parameter, len(l))
	for i, n := range l {
		o, err := parseParameter(p.index(i), n)
		if err != nil {
			return nil, err
		}
		operands[i] = o
	}
	return param.NewOperation(op, operands...), nil
}

func parseParameters(p path, node any) (map[string]param.Parameter, error) {
	if node == nil {
		return map[string]param.Parameter{}, nil
	}
	m, ok := asMap(node)
	if !ok {
		return nil, p.errorf("parameters must be a mapping")
	}
	out := make(map[string]param.Parameter, len(m))
	for _, name := range sortedKeys(m) {
		if err := errors.ValidateParameterName(name); err != nil {
			return nil, p.wrap(err)
		}
		v, err := parseParameter(p.key(name), m[name])
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
