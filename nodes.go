package mexpr

import (
	"math"
	"strconv"
	"strings"
)

// Node is a node in the abstract syntax tree of an expression. The set of
// node types is closed: *Value, *Variable, *PrimitiveOp, and *FunctionCall.
// Nodes are immutable once constructed, and each node exclusively owns its
// children.
type Node interface {
	// NodeCount returns the number of nodes in the subtree rooted at the
	// node, including the node itself.
	NodeCount() int
	// ChildCount returns the number of direct children of the node.
	ChildCount() int
	// Child returns the i'th child of the node. It returns a *ChildError if
	// i is not less than ChildCount.
	Child(i int) (Node, error)
	// Eval evaluates the subtree recursively.
	Eval(env *Env) (float64, error)
	// Instruction returns the single instruction that represents the node in
	// compiled code. It does not describe the node's children.
	Instruction() Instruction
	// String formats the subtree with brackets around each term.
	String() string

	fmt(b *strings.Builder, square bool)
	label() string
}

// Op is a primitive binary operator.
type Op int8

const (
	OpAdd Op = iota + 1
	OpSub
	OpMul
	OpDiv
	OpPow
)

func (op Op) valid() bool {
	return OpAdd <= op && op <= OpPow
}

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpPow:
		return "^"
	default:
		return "Op(" + strconv.Itoa(int(op)) + ")"
	}
}

// Value is a constant.
type Value struct {
	v float64
}

// NewValue creates a constant node.
func NewValue(v float64) *Value {
	return &Value{v: v}
}

// Float returns the constant.
func (n *Value) Float() float64 {
	return n.v
}

func (n *Value) NodeCount() int  { return 1 }
func (n *Value) ChildCount() int { return 0 }

func (n *Value) Child(i int) (Node, error) {
	return nil, &ChildError{Index: i, Count: 0}
}

func (n *Value) Instruction() Instruction {
	return Instruction{Code: InstrValue, Value: n.v}
}

// Variable is a lookup of a single-letter variable.
type Variable struct {
	id byte
}

// NewVariable creates a variable node. The identifier must be an ASCII
// letter; otherwise the result is an *IdentError.
func NewVariable(id byte) (*Variable, error) {
	if !isIdent(id) {
		return nil, &IdentError{ID: id}
	}
	return &Variable{id: id}, nil
}

// ID returns the variable's identifier.
func (n *Variable) ID() byte {
	return n.id
}

func (n *Variable) NodeCount() int  { return 1 }
func (n *Variable) ChildCount() int { return 0 }

func (n *Variable) Child(i int) (Node, error) {
	return nil, &ChildError{Index: i, Count: 0}
}

func (n *Variable) Instruction() Instruction {
	return Instruction{Code: InstrVar, Var: n.id}
}

// PrimitiveOp is an application of a binary operator. It always has exactly
// two children.
type PrimitiveOp struct {
	op          Op
	left, right Node
	count       int
}

// NewPrimitiveOp creates a binary operation node. If op is not one of the
// five primitive operators, the result is an *OpError. Panics if either
// operand is nil.
func NewPrimitiveOp(op Op, left, right Node) (*PrimitiveOp, error) {
	if !op.valid() {
		return nil, &OpError{Op: op}
	}
	if left == nil || right == nil {
		panic("mexpr: nil operand to " + op.String())
	}
	return &PrimitiveOp{op: op, left: left, right: right, count: 1 + left.NodeCount() + right.NodeCount()}, nil
}

// newop is NewPrimitiveOp for operators known to be valid.
func newop(op Op, left, right Node) *PrimitiveOp {
	n, err := NewPrimitiveOp(op, left, right)
	if err != nil {
		panic(err)
	}
	return n
}

// Op returns the node's operator.
func (n *PrimitiveOp) Op() Op {
	return n.op
}

// Left returns the left operand.
func (n *PrimitiveOp) Left() Node {
	return n.left
}

// Right returns the right operand.
func (n *PrimitiveOp) Right() Node {
	return n.right
}

func (n *PrimitiveOp) NodeCount() int  { return n.count }
func (n *PrimitiveOp) ChildCount() int { return 2 }

func (n *PrimitiveOp) Child(i int) (Node, error) {
	switch i {
	case 0:
		return n.left, nil
	case 1:
		return n.right, nil
	default:
		return nil, &ChildError{Index: i, Count: 2}
	}
}

func (n *PrimitiveOp) Instruction() Instruction {
	switch n.op {
	case OpAdd:
		return Instruction{Code: InstrAdd}
	case OpSub:
		return Instruction{Code: InstrSub}
	case OpMul:
		return Instruction{Code: InstrMul}
	case OpDiv:
		return Instruction{Code: InstrDiv}
	case OpPow:
		return Instruction{Code: InstrPow}
	default:
		panic("mexpr: invalid operator " + n.op.String())
	}
}

// FunctionCall is a call to a native function. Its arity is the number of
// arguments it was constructed with.
type FunctionCall struct {
	name  string
	args  []Node
	count int
}

// NewFunctionCall creates a function call node. The function is resolved by
// name and arity when the node is evaluated, not when it is created. Panics
// if any argument is nil.
func NewFunctionCall(name string, args ...Node) *FunctionCall {
	n := FunctionCall{name: name, args: make([]Node, len(args)), count: 1}
	for i, a := range args {
		if a == nil {
			panic("mexpr: nil argument " + strconv.Itoa(i) + " to " + name)
		}
		n.args[i] = a
		n.count += a.NodeCount()
	}
	return &n
}

// Name returns the called function's name.
func (n *FunctionCall) Name() string {
	return n.name
}

func (n *FunctionCall) NodeCount() int  { return n.count }
func (n *FunctionCall) ChildCount() int { return len(n.args) }

func (n *FunctionCall) Child(i int) (Node, error) {
	if i < 0 || i >= len(n.args) {
		return nil, &ChildError{Index: i, Count: len(n.args)}
	}
	return n.args[i], nil
}

func (n *FunctionCall) Instruction() Instruction {
	return Instruction{Code: InstrCall, Name: n.name, Arity: len(n.args)}
}

// Depth returns the number of nodes on the longest path from n to a leaf.
func Depth(n Node) int {
	d := 0
	for i := 0; i < n.ChildCount(); i++ {
		c, err := n.Child(i)
		if err != nil {
			panic(err)
		}
		if k := Depth(c); k > d {
			d = k
		}
	}
	return d + 1
}

// tooDeep returns whether n is more than max nodes deep. It descends at most
// max+1 levels.
func tooDeep(n Node, max int) bool {
	if max <= 0 {
		return true
	}
	for i := 0; i < n.ChildCount(); i++ {
		c, err := n.Child(i)
		if err != nil {
			panic(err)
		}
		if tooDeep(c, max-1) {
			return true
		}
	}
	return false
}

func (n *Value) String() string        { return nodeString(n) }
func (n *Variable) String() string     { return nodeString(n) }
func (n *PrimitiveOp) String() string  { return nodeString(n) }
func (n *FunctionCall) String() string { return nodeString(n) }

func nodeString(n Node) string {
	var b strings.Builder
	n.fmt(&b, false)
	return b.String()
}

func brackets(square bool) (byte, byte) {
	if square {
		return '[', ']'
	}
	return '(', ')'
}

func (n *Value) fmt(b *strings.Builder, square bool) {
	l, r := brackets(square)
	b.WriteByte(l)
	// No exponent, so that the result parses back to the same tree. There is
	// no syntax for non-finite values; the # makes them fail to parse.
	if math.IsInf(n.v, 0) || math.IsNaN(n.v) {
		b.WriteByte('#')
	}
	b.WriteString(strconv.FormatFloat(n.v, 'f', -1, 64))
	b.WriteByte(r)
}

func (n *Variable) fmt(b *strings.Builder, square bool) {
	l, r := brackets(square)
	b.WriteByte(l)
	b.WriteByte(n.id)
	b.WriteByte(r)
}

func (n *PrimitiveOp) fmt(b *strings.Builder, square bool) {
	l, r := brackets(square)
	b.WriteByte(l)
	n.left.fmt(b, !square)
	b.WriteByte(' ')
	b.WriteString(n.op.String())
	b.WriteByte(' ')
	n.right.fmt(b, !square)
	b.WriteByte(r)
}

func (n *FunctionCall) fmt(b *strings.Builder, square bool) {
	l, r := brackets(square)
	b.WriteByte(l)
	b.WriteString(n.name)
	// Argument lists use the opposite bracket so they stand out from the
	// brackets around each argument.
	al, ar := brackets(!square)
	b.WriteByte(al)
	for i, a := range n.args {
		if i > 0 {
			b.WriteString(", ")
		}
		a.fmt(b, square)
	}
	b.WriteByte(ar)
	b.WriteByte(r)
}

// formatFloat formats a constant for diagnostic output.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var (
	_ Node = (*Value)(nil)
	_ Node = (*Variable)(nil)
	_ Node = (*PrimitiveOp)(nil)
	_ Node = (*FunctionCall)(nil)
)
