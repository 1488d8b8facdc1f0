package mexpr

import (
	"strings"
)

// Expr is an expression together with the environment it is evaluated in. An
// Expr starts out evaluating by walking its syntax tree; after Compile, it
// evaluates using compiled code instead.
//
// An Expr is not safe to use concurrently. Use Clone to get an Expr for each
// goroutine.
type Expr struct {
	// src is the source text, if the expression was parsed.
	src string
	// root is the root node of the syntax tree.
	root Node
	// code is the compiled form of root, or nil before Compile.
	code *Code
	// env is the evaluation environment. If owned is false, it belongs to
	// whoever passed it to New or FromTree.
	env   *Env
	owned bool
	// folded indicates that constant folding has been applied to root.
	folded bool
}

// New parses an expression. If env is nil, the expression gets its own
// environment containing the standard functions; otherwise it uses env, and
// setting variables or registering functions through the Expr modifies env.
func New(src string, env *Env, opts ...ParseOption) (*Expr, error) {
	root, err := Parse(strings.NewReader(src), opts...)
	if err != nil {
		return nil, err
	}
	e := newExpr(root, env)
	e.src = src
	return e, nil
}

// FromTree creates an expression from an already built syntax tree. env is
// handled as in New. If Depth(root) exceeds DefaultMaxDepth, the result is a
// *DepthError. Any tree that Parse returns with the default limit is
// accepted.
func FromTree(root Node, env *Env) (*Expr, error) {
	if root == nil {
		panic("mexpr: FromTree with nil root")
	}
	if tooDeep(root, DefaultMaxDepth) {
		return nil, &DepthError{Col: 0, Max: DefaultMaxDepth}
	}
	return newExpr(root, env), nil
}

func newExpr(root Node, env *Env) *Expr {
	e := Expr{root: root, env: env}
	if env == nil {
		e.env = StdEnv()
		e.owned = true
	}
	return &e
}

// CompileOption is an option for compiling.
type CompileOption interface {
	compileOption()
}

type foldopt struct{}

func (foldopt) compileOption() {}

// FoldConstants tells Compile to fold operations on constants before
// compiling. The folded expression evaluates to exactly the same results.
func FoldConstants() CompileOption {
	return foldopt{}
}

// Compile compiles the expression so that Eval uses the compiled code. If the
// expression is already compiled, Compile does nothing, unless constant
// folding is requested and changes the syntax tree, in which case the new
// tree is compiled in place of the old code.
func (e *Expr) Compile(opts ...CompileOption) {
	for _, opt := range opts {
		switch opt.(type) {
		case foldopt:
			if e.folded {
				continue
			}
			e.folded = true
			if n, ok := Fold(e.root); ok {
				e.root = n
				e.code = nil
			}
		case nil: // do nothing
		default:
			panic("mexpr: unknown compile option type")
		}
	}
	if e.code == nil {
		e.code = Compile(e.root)
	}
}

// Compiled returns whether the expression has been compiled.
func (e *Expr) Compiled() bool {
	return e.code != nil
}

// Eval evaluates the expression. If the expression is compiled, Eval runs the
// compiled code; otherwise it walks the syntax tree. Both give the same
// result.
func (e *Expr) Eval() (float64, error) {
	if e.code == nil {
		return e.root.Eval(e.env)
	}
	return e.code.Eval(e.env)
}

// EvalTree evaluates the expression by walking its syntax tree, even if it is
// compiled.
func (e *Expr) EvalTree() (float64, error) {
	return e.root.Eval(e.env)
}

// Set sets a variable in the expression's environment.
func (e *Expr) Set(id byte, v float64) error {
	return e.env.Set(id, v)
}

// Register registers a function in the expression's environment.
func (e *Expr) Register(name string, arity int, fn Func) error {
	return e.env.Register(name, arity, fn)
}

// Env returns the expression's environment.
func (e *Expr) Env() *Env {
	return e.env
}

// Root returns the root of the expression's syntax tree.
func (e *Expr) Root() Node {
	return e.root
}

// Code returns the expression's compiled code, or nil if it is not compiled.
func (e *Expr) Code() *Code {
	return e.code
}

// Source returns the text the expression was parsed from, or the empty string
// if it was created with FromTree.
func (e *Expr) Source() string {
	return e.src
}

// Vars returns the variables used in the expression in ASCII order.
func (e *Expr) Vars() []byte {
	var seen [128]bool
	vars(e.root, &seen)
	var r []byte
	for id, ok := range seen {
		if ok {
			r = append(r, byte(id))
		}
	}
	return r
}

func vars(n Node, seen *[128]bool) {
	if v, ok := n.(*Variable); ok {
		seen[v.id] = true
		return
	}
	for i := 0; i < n.ChildCount(); i++ {
		c, err := n.Child(i)
		if err != nil {
			panic(err)
		}
		vars(c, seen)
	}
}

// Clone returns a copy of the expression that can be used concurrently with
// e. The copy shares e's syntax tree, which is immutable, and gets its own
// compiled code stack. If e owns its environment, the copy gets a clone of
// it; otherwise both use the same environment.
func (e *Expr) Clone() *Expr {
	n := *e
	if e.code != nil {
		n.code = e.code.Clone()
	}
	if e.owned {
		n.env = e.env.Clone()
	}
	return &n
}

// RenderTree draws the expression's syntax tree.
func (e *Expr) RenderTree() string {
	return RenderTree(e.root)
}

// RenderCode lists the expression's compiled instructions, one per line. If
// the expression is not compiled, the result is the empty string.
func (e *Expr) RenderCode() string {
	if e.code == nil {
		return ""
	}
	return e.code.String()
}

// String creates a string representation of the parsed expression, with
// alternating round and square brackets grouping each term.
func (e *Expr) String() string {
	return e.root.String()
}
