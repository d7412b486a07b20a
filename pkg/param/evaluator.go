package param

import (
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/NyankoNyan/buildgen/pkg/errors"
)

// Rand is the uniform random source used by [RandomRange].
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Uint64() uint64
	Uint64N(n uint64) uint64
	Float64() float64
}

// NewRand returns a deterministic PCG source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// Evaluator evaluates parameters with an explicit random source.
//
// An Evaluator is not safe for concurrent use when its Rand is not; give
// each goroutine its own.
type Evaluator struct {
	rand Rand
}

// NewEvaluator returns an Evaluator drawing from r. A nil r uses a source
// seeded with 0.
func NewEvaluator(r Rand) *Evaluator {
	if r == nil {
		r = NewRand(0)
	}
	return &Evaluator{rand: r}
}

// Evaluate computes the value of p in scope.
func (e *Evaluator) Evaluate(p Parameter, scope *Scope) (Value, error) {
	ev := &evaluation{rand: e.rand}
	return ev.eval(p, scope)
}

// Named evaluates the parameter called name as seen from scope.
func (e *Evaluator) Named(name string, scope *Scope) (Value, error) {
	return e.Evaluate(Ref(name), scope)
}

// Int evaluates p and converts the result to an int.
func (e *Evaluator) Int(p Parameter, scope *Scope) (int, error) {
	v, err := e.Evaluate(p, scope)
	if err != nil {
		return 0, err
	}
	return v.AsInt()
}

// Float evaluates p and converts the result to a float64.
func (e *Evaluator) Float(p Parameter, scope *Scope) (float64, error) {
	v, err := e.Evaluate(p, scope)
	if err != nil {
		return 0, err
	}
	return v.AsFloat()
}

// Bool evaluates p and converts the result to a bool.
func (e *Evaluator) Bool(p Parameter, scope *Scope) (bool, error) {
	v, err := e.Evaluate(p, scope)
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

// String evaluates p and converts the result to a string.
func (e *Evaluator) String(p Parameter, scope *Scope) (string, error) {
	v, err := e.Evaluate(p, scope)
	if err != nil {
		return "", err
	}
	return v.AsString()
}

// Vec3 evaluates p and converts the result to a float vector.
func (e *Evaluator) Vec3(p Parameter, scope *Scope) (Vec3, error) {
	v, err := e.Evaluate(p, scope)
	if err != nil {
		return Vec3{}, err
	}
	return v.AsVec3()
}

// Vec3i evaluates p and converts the result to an integer vector.
func (e *Evaluator) Vec3i(p Parameter, scope *Scope) (Vec3i, error) {
	v, err := e.Evaluate(p, scope)
	if err != nil {
		return Vec3i{}, err
	}
	return v.AsVec3i()
}

// evaluation holds the reference stack of one top-level Evaluate call.
type evaluation struct {
	rand  Rand
	stack []string
}

func (ev *evaluation) eval(p Parameter, scope *Scope) (Value, error) {
	switch p := p.(type) {
	case Literal:
		if !p.Value.IsValid() {
			return Value{}, errors.New(errors.ErrCodeInvalidInput, "literal has no value")
		}
		return p.Value, nil
	case Reference:
		return ev.reference(p.Name, scope)
	case Operation:
		return ev.operation(p, scope)
	case Vector3:
		return ev.vector(p, scope)
	case RandomRange:
		return ev.random(p, scope)
	case nil:
		return Value{}, errors.New(errors.ErrCodeInvalidInput, "missing parameter")
	default:
		return Value{}, errors.New(errors.ErrCodeInternal, "unknown parameter type %T", p)
	}
}

func (ev *evaluation) reference(name string, scope *Scope) (Value, error) {
	if slices.Contains(ev.stack, name) {
		chain := append(slices.Clone(ev.stack), name)
		return Value{}, errors.New(errors.ErrCodeCircularReference,
			"circular reference: %s", strings.Join(chain, " -> "))
	}
	p, ok := scope.Lookup(name)
	if !ok {
		return Value{}, errors.New(errors.ErrCodeUnknownParameter, "parameter %q is not defined", name)
	}

	ev.stack = append(ev.stack, name)
	defer func() { ev.stack = ev.stack[:len(ev.stack)-1] }()

	return ev.eval(p, scope)
}

func (ev *evaluation) operation(p Operation, scope *Scope) (Value, error) {
	if !p.Op.Implemented() {
		return Value{}, errors.New(errors.ErrCodeUnsupportedOperation, "operation %q is not supported", p.Op)
	}
	if len(p.Operands) == 0 {
		return Value{}, errors.New(errors.ErrCodeInvalidInput, "operation %q has no operands", p.Op)
	}

	acc, err := ev.eval(p.Operands[0], scope)
	if err != nil {
		return Value{}, err
	}
	for _, operand := range p.Operands[1:] {
		v, err := ev.eval(operand, scope)
		if err != nil {
			return Value{}, err
		}
		if acc, err = arithmetic(p.Op, acc, v); err != nil {
			return Value{}, err
		}
	}
	return acc, nil
}

// arithmetic applies op to two numeric values. The result is an int only
// when both operands are ints; int division truncates toward zero.
func arithmetic(op Op, a, b Value) (Value, error) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Value{}, errors.New(errors.ErrCodeTypeCoercion,
			"operation %q needs numeric operands, got %s and %s", op, a.Kind(), b.Kind())
	}

	if a.kind == KindInt && b.kind == KindInt {
		switch op {
		case OpAdd:
			return IntValue(a.i + b.i), nil
		case OpSub:
			return IntValue(a.i - b.i), nil
		case OpMul:
			return IntValue(a.i * b.i), nil
		case OpDiv:
			if b.i == 0 {
				return Value{}, errors.New(errors.ErrCodeDivisionByZero, "integer division of %d by zero", a.i)
			}
			return IntValue(a.i / b.i), nil
		}
	}

	x, _ := a.AsFloat()
	y, _ := b.AsFloat()
	switch op {
	case OpAdd:
		return FloatValue(x + y), nil
	case OpSub:
		return FloatValue(x - y), nil
	case OpMul:
		return FloatValue(x * y), nil
	case OpDiv:
		return FloatValue(x / y), nil
	}
	return Value{}, errors.New(errors.ErrCodeUnsupportedOperation, "operation %q is not supported", op)
}

func (ev *evaluation) vector(p Vector3, scope *Scope) (Value, error) {
	var comps [3]Value
	for i, c := range [3]Parameter{p.X, p.Y, p.Z} {
		if c == nil {
			comps[i] = IntValue(0)
			continue
		}
		v, err := ev.eval(c, scope)
		if err != nil {
			return Value{}, err
		}
		if !v.IsNumeric() {
			return Value{}, errors.New(errors.ErrCodeTypeCoercion,
				"vector component %d is %s, want a number", i, v.Kind())
		}
		comps[i] = v
	}

	integral := p.Subtype == Int
	if p.Subtype == Inferred {
		integral = comps[0].kind == KindInt && comps[1].kind == KindInt && comps[2].kind == KindInt
	}

	if integral {
		var out Vec3i
		for i, c := range comps {
			n, err := c.AsInt()
			if err != nil {
				return Value{}, err
			}
			out[i] = n
		}
		return Vec3iValue(out), nil
	}

	var out Vec3
	for i, c := range comps {
		out[i], _ = c.AsFloat()
	}
	return Vec3Value(out), nil
}

func (ev *evaluation) random(p RandomRange, scope *Scope) (Value, error) {
	lo, err := ev.eval(p.Min, scope)
	if err != nil {
		return Value{}, err
	}
	hi, err := ev.eval(p.Max, scope)
	if err != nil {
		return Value{}, err
	}
	if !lo.IsNumeric() || !hi.IsNumeric() {
		return Value{}, errors.New(errors.ErrCodeTypeCoercion,
			"random range bounds must be numbers, got %s and %s", lo.Kind(), hi.Kind())
	}

	integral := p.Subtype == Int
	if p.Subtype == Inferred {
		integral = lo.kind == KindInt && hi.kind == KindInt
	}

	if integral {
		a, err := lo.AsInt()
		if err != nil {
			return Value{}, err
		}
		b, err := hi.AsInt()
		if err != nil {
			return Value{}, err
		}
		if b < a {
			a, b = b, a
		}
		return IntValue(ev.intBetween(a, b)), nil
	}

	a, _ := lo.AsFloat()
	b, _ := hi.AsFloat()
	if b < a {
		a, b = b, a
	}
	return FloatValue(a + ev.rand.Float64()*(b-a)), nil
}

// intBetween draws from [a, b] with a <= b. The span is computed in uint64
// so that ranges wider than math.MaxInt do not overflow.
func (ev *evaluation) intBetween(a, b int) int {
	span := uint64(b) - uint64(a) + 1
	switch {
	case span != 0 && span <= math.MaxInt:
		return a + ev.rand.IntN(int(span))
	case span == 0:
		return int(ev.rand.Uint64())
	default:
		return int(uint64(a) + ev.rand.Uint64N(span))
	}
}
