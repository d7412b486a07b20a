package param

// Op is an operation token of an [Operation] node.
type Op string

// Arithmetic operations with an evaluator.
const (
	OpAdd Op = "add"
	OpSub Op = "sub"
	OpMul Op = "mul"
	OpDiv Op = "div"
)

// Operations recognized by the configuration vocabulary that have no
// evaluator. Evaluating one fails with UNSUPPORTED_OPERATION.
const (
	OpPow    Op = "pow"
	OpIntDiv Op = "intdiv"
	OpMod    Op = "mod"
	OpNeg    Op = "neg"
	OpInt    Op = "int"
	OpRShift Op = "rshift"
	OpLShift Op = "lshift"
	OpBitNot Op = "bitnot"
	OpBitAnd Op = "bitand"
	OpBitOr  Op = "bitor"
	OpBitXor Op = "bitxor"
)

var opTokens = map[string]Op{
	"add": OpAdd, "+": OpAdd,
	"sub": OpSub, "-": OpSub,
	"mul": OpMul, "mult": OpMul, "*": OpMul,
	"div": OpDiv, "/": OpDiv,
	"pow":    OpPow,
	"intdiv": OpIntDiv,
	"mod":    OpMod, "%": OpMod,
	"neg":    OpNeg,
	"int":    OpInt,
	"rshift": OpRShift, ">>": OpRShift,
	"lshift": OpLShift, "<<": OpLShift,
	"bitnot": OpBitNot, "~": OpBitNot,
	"bitand": OpBitAnd, "&": OpBitAnd,
	"bitor":  OpBitOr, "|": OpBitOr,
	"bitxor": OpBitXor,
}

// ParseOp maps a name or symbol to its canonical Op. "mult" and "mul" are
// the same operation.
func ParseOp(token string) (Op, bool) {
	op, ok := opTokens[token]
	return op, ok
}

// Implemented reports whether op has an evaluator.
func (op Op) Implemented() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return true
	}
	return false
}

func (op Op) String() string { return string(op) }
