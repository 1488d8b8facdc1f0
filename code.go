package mexpr

import (
	"math"
	"strconv"
	"strings"
)

// Opcode identifies the operation of an Instruction.
type Opcode int8

const (
	InstrNone Opcode = iota

	InstrValue // push Value
	InstrVar   // push lookup(Var)
	InstrAdd   // pop two, push sum
	InstrSub   // pop two, push difference
	InstrMul   // pop two, push product
	InstrDiv   // pop two, push quotient
	InstrPow   // pop two, push power
	InstrCall  // replace Arity values with Name(values)
)

func (c Opcode) String() string {
	switch c {
	case InstrNone:
		return "NONE"
	case InstrValue:
		return "VALUE"
	case InstrVar:
		return "VARIABLE"
	case InstrAdd:
		return "ADD"
	case InstrSub:
		return "SUB"
	case InstrMul:
		return "MUL"
	case InstrDiv:
		return "DIV"
	case InstrPow:
		return "POW"
	case InstrCall:
		return "CALL"
	default:
		return "Opcode(" + strconv.Itoa(int(c)) + ")"
	}
}

// Instruction is a single step of compiled code. Only the fields relevant to
// Code are meaningful.
type Instruction struct {
	Code  Opcode
	Value float64
	Var   byte
	Name  string
	Arity int
}

func (in Instruction) String() string {
	switch in.Code {
	case InstrValue:
		return "VALUE " + formatFloat(in.Value)
	case InstrVar:
		return "VARIABLE " + string(rune(in.Var))
	case InstrCall:
		return "CALL " + in.Name + "/" + strconv.Itoa(in.Arity)
	default:
		return in.Code.String()
	}
}

// Code is an expression compiled to a linear sequence of instructions that
// run on a value stack. Code owns its stack, so it is not safe to evaluate
// the same Code concurrently; use Clone to get a Code for each goroutine.
type Code struct {
	ins   []Instruction
	depth int
	stack []float64
}

// Compile compiles the tree rooted at root. Each node becomes one
// instruction, emitted after the instructions for all of its children.
func Compile(root Node) *Code {
	c := Code{ins: make([]Instruction, 0, root.NodeCount())}
	cur := 0
	c.emit(root, &cur)
	if len(c.ins) != cap(c.ins) {
		panic("mexpr: compiled " + strconv.Itoa(len(c.ins)) + " instructions from " + strconv.Itoa(cap(c.ins)) + " nodes")
	}
	c.stack = make([]float64, c.depth)
	return &c
}

// emit appends the code for n. cur is the number of values on the stack
// before n's code runs.
func (c *Code) emit(n Node, cur *int) {
	k := n.ChildCount()
	for i := 0; i < k; i++ {
		ch, err := n.Child(i)
		if err != nil {
			panic(err)
		}
		c.emit(ch, cur)
	}
	c.ins = append(c.ins, n.Instruction())
	// The instruction consumes its children's k values and leaves one.
	*cur += 1 - k
	if *cur > c.depth {
		c.depth = *cur
	}
}

// Len returns the number of instructions, which is the number of nodes in
// the compiled tree.
func (c *Code) Len() int {
	return len(c.ins)
}

// MaxDepth returns the largest number of values simultaneously on the stack
// during evaluation.
func (c *Code) MaxDepth() int {
	return c.depth
}

// Instructions returns a copy of the instruction sequence.
func (c *Code) Instructions() []Instruction {
	return append([]Instruction(nil), c.ins...)
}

// Clone returns a Code with the same instructions and its own stack.
func (c *Code) Clone() *Code {
	return &Code{ins: c.ins, depth: c.depth, stack: make([]float64, c.depth)}
}

// Eval runs the code with env. The result is the same as evaluating the tree
// the code was compiled from with the same env.
func (c *Code) Eval(env *Env) (float64, error) {
	st := c.stack
	sp := 0
	for i := range c.ins {
		in := &c.ins[i]
		switch in.Code {
		case InstrValue:
			st[sp] = in.Value
			sp++
		case InstrVar:
			v, err := env.Var(in.Var)
			if err != nil {
				return 0, err
			}
			st[sp] = v
			sp++
		case InstrAdd:
			st[sp-2] += st[sp-1]
			sp--
		case InstrSub:
			st[sp-2] -= st[sp-1]
			sp--
		case InstrMul:
			st[sp-2] *= st[sp-1]
			sp--
		case InstrDiv:
			if st[sp-1] == 0 {
				return 0, ErrDivisionByZero
			}
			st[sp-2] /= st[sp-1]
			sp--
		case InstrPow:
			st[sp-2] = math.Pow(st[sp-2], st[sp-1])
			sp--
		case InstrCall:
			base := sp - in.Arity
			fn, err := env.Func(in.Name, in.Arity)
			if err != nil {
				return 0, err
			}
			r, err := fn(st[base:sp:sp])
			if err != nil {
				return 0, err
			}
			st[base] = r
			sp = base + 1
		default:
			panic("mexpr: invalid instruction " + in.String())
		}
	}
	if sp != 1 {
		panic("mexpr: inconsistent stack: " + strconv.Itoa(sp) + " items (bad code?)")
	}
	return st[0], nil
}

// String returns the instructions one per line.
func (c *Code) String() string {
	var b strings.Builder
	for _, in := range c.ins {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	return b.String()
}
