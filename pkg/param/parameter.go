// Package param implements the parametric expression engine: a small,
// immutable expression tree ([Parameter]) evaluated against a chain of
// named scopes ([Scope]).
//
// # Variants
//
//   - [Literal]: an int, float, bool or string constant
//   - [Reference]: a named lookup, resolved through the scope chain
//   - [Operation]: a left fold of add/sub/mul/div over its operands
//   - [Vector3]: three component expressions producing a vector
//   - [RandomRange]: a fresh uniform draw on every evaluation
//
// # Evaluation
//
// An [Evaluator] owns the random source. Every top-level call to
// [Evaluator.Evaluate] gets its own reference stack, so scopes stay
// immutable and can be shared between evaluations:
//
//	scope := param.NewScope(map[string]param.Parameter{
//	    "floors": param.IntLiteral(3),
//	    "height": param.NewOperation(param.OpMul, param.Ref("floors"), param.FloatLiteral(2.5)),
//	})
//	v, err := param.NewEvaluator(param.NewRand(42)).Evaluate(param.Ref("height"), scope)
//	// v == 7.5
//
// References are resolved dynamically: a parameter found in an outer scope
// is evaluated in the scope that asked for it, so a global expression can
// pick up a value that a section overrides.
package param

import (
	"fmt"
	"strings"
)

// Parameter is an expression node. The set of implementations is closed:
// [Literal], [Reference], [Operation], [Vector3] and [RandomRange].
type Parameter interface {
	fmt.Stringer
	parameter()
}

// Subtype selects the numeric kind produced by [Vector3] and [RandomRange].
type Subtype uint8

const (
	// Inferred produces integers only when every input is an integer.
	Inferred Subtype = iota
	// Int forces integer output.
	Int
	// Float forces floating point output.
	Float
)

func (s Subtype) String() string {
	switch s {
	case Int:
		return "int"
	case Float:
		return "float"
	}
	return "inferred"
}

// Literal is a constant value.
type Literal struct {
	Value Value
}

// Reference resolves another parameter by name.
type Reference struct {
	Name string
}

// Operation folds Operands from left to right with Op.
type Operation struct {
	Op       Op
	Operands []Parameter
}

// Vector3 builds a vector from three component expressions.
type Vector3 struct {
	X, Y, Z Parameter
	Subtype Subtype
}

// RandomRange draws a uniform value between Min and Max. Integer ranges
// include Max, float ranges exclude it.
type RandomRange struct {
	Min, Max Parameter
	Subtype  Subtype
}

func (Literal) parameter()     {}
func (Reference) parameter()   {}
func (Operation) parameter()   {}
func (Vector3) parameter()     {}
func (RandomRange) parameter() {}

// IntLiteral returns an integer literal.
func IntLiteral(n int) Literal { return Literal{Value: IntValue(n)} }

// FloatLiteral returns a float literal.
func FloatLiteral(f float64) Literal { return Literal{Value: FloatValue(f)} }

// BoolLiteral returns a boolean literal.
func BoolLiteral(b bool) Literal { return Literal{Value: BoolValue(b)} }

// StringLiteral returns a string literal.
func StringLiteral(s string) Literal { return Literal{Value: StringValue(s)} }

// Ref returns a reference to name.
func Ref(name string) Reference { return Reference{Name: name} }

// NewOperation returns an operation over operands.
func NewOperation(op Op, operands ...Parameter) Operation {
	return Operation{Op: op, Operands: operands}
}

// NewVector3 returns a vector expression.
func NewVector3(x, y, z Parameter, subtype Subtype) Vector3 {
	return Vector3{X: x, Y: y, Z: z, Subtype: subtype}
}

// IntVector returns an integer vector of literals.
func IntVector(x, y, z int) Vector3 {
	return NewVector3(IntLiteral(x), IntLiteral(y), IntLiteral(z), Int)
}

// FloatVector returns a float vector of literals.
func FloatVector(x, y, z float64) Vector3 {
	return NewVector3(FloatLiteral(x), FloatLiteral(y), FloatLiteral(z), Float)
}

// NewRandomRange returns a random range expression.
func NewRandomRange(min, max Parameter, subtype Subtype) RandomRange {
	return RandomRange{Min: min, Max: max, Subtype: subtype}
}

func (p Literal) String() string {
	if p.Value.Kind() == KindString {
		return fmt.Sprintf("%q", p.Value.s)
	}
	return p.Value.String()
}

func (p Reference) String() string { return "$" + p.Name }

func (p Operation) String() string {
	parts := make([]string, len(p.Operands))
	for i, o := range p.Operands {
		parts[i] = stringOf(o)
	}
	return fmt.Sprintf("%s(%s)", p.Op, strings.Join(parts, ", "))
}

func (p Vector3) String() string {
	prefix := "vec3"
	if p.Subtype == Int {
		prefix = "vec3i"
	}
	return fmt.Sprintf("%s(%s, %s, %s)", prefix, stringOf(p.X), stringOf(p.Y), stringOf(p.Z))
}

func (p RandomRange) String() string {
	prefix := "rand"
	switch p.Subtype {
	case Int:
		prefix = "rand_int"
	case Float:
		prefix = "rand_float"
	}
	return fmt.Sprintf("%s(%s, %s)", prefix, stringOf(p.Min), stringOf(p.Max))
}

func stringOf(p Parameter) string {
	if p == nil {
		return "<nil>"
	}
	return p.String()
}
