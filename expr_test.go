package mexpr_test

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/zephyrtronium/mexpr"
)

// evalBoth evaluates e by walking the tree and by compiled code and checks
// that the two agree.
func evalBoth(t *testing.T, e *mexpr.Expr) (float64, error) {
	t.Helper()
	r, err := e.EvalTree()
	e.Compile()
	s, cerr := e.Eval()
	if (err == nil) != (cerr == nil) {
		t.Fatalf("engines disagree on errors: tree %v, compiled %v", err, cerr)
	}
	if err != nil {
		if reflect.TypeOf(err) != reflect.TypeOf(cerr) || err.Error() != cerr.Error() {
			t.Errorf("engines gave different errors: tree %#v, compiled %#v", err, cerr)
		}
		return 0, err
	}
	if math.Float64bits(r) != math.Float64bits(s) && !(math.IsNaN(r) && math.IsNaN(s)) {
		t.Errorf("engines gave different results: tree %v, compiled %v", r, s)
	}
	return r, nil
}

func TestEval(t *testing.T) {
	type vv struct {
		n byte
		v float64
	}
	type vc struct {
		vars []vv
		r    float64
	}
	cases := []struct {
		name string
		src  string
		r    []vc
	}{
		{"num", "1", []vc{{nil, 1}}},
		{"frac", ".25", []vc{{nil, 0.25}}},
		{"ident", "x", []vc{
			{[]vv{{'x', 4}}, 4},
			{[]vv{{'x', 5}}, 5},
			{[]vv{{'x', 6}}, 6},
		}},
		{"plus", "+x", []vc{
			{[]vv{{'x', 4}}, 4},
			{[]vv{{'x', 5}}, 5},
		}},
		{"neg", "-x", []vc{
			{[]vv{{'x', 4}}, -4},
			{[]vv{{'x', 5}}, -5},
		}},
		{"add", "4+5+6", []vc{{nil, 4 + 5 + 6}}},
		{"sub", "4-5-6", []vc{{nil, 4 - 5 - 6}}},
		{"mul", "4*5*6", []vc{{nil, 4 * 5 * 6}}},
		{"div", "4/5/6", []vc{{nil, 4.0 / 5.0 / 6.0}}},
		{"pow", "4^3^2", []vc{{nil, 262144}}},
		{"altmul", "4×5", []vc{{nil, 20}}},
		{"altdiv", "10÷4", []vc{{nil, 2.5}}},
		{"prec", "2+3*5", []vc{{nil, 17}}},
		{"div-exact", "10/2", []vc{{nil, 5}}},
		{"negpow", "-2^2", []vc{{nil, -4}}},
		{"subneg", "2--4", []vc{{nil, 6}}},
		{"implicit", "5x^3y^2", []vc{
			{[]vv{{'x', 3}, {'y', 4}}, 2160},
		}},
		{"implicit-div", "_cos(0)*_log10(100)/2_sqrt(16)", []vc{{nil, 0.25}}},
		{"brackets", "[2+{3}](1+1)", []vc{{nil, 10}}},
		{"pi", "_pi()", []vc{{nil, math.Pi}}},
		{"e", "_e()", []vc{{nil, math.E}}},
		{"exp", "_exp(1)", []vc{{nil, math.Exp(1)}}},
		{"log-base", "_log(8, 2)", []vc{{nil, math.Log(8) / math.Log(2)}}},
		{"atan2", "_atan2(1, 1)", []vc{{nil, math.Atan2(1, 1)}}},
		{"inf", "1" + strings.Repeat("0", 400), []vc{{nil, math.Inf(1)}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := mexpr.New(c.src, nil)
			if err != nil {
				t.Fatal(c.src, "failed to parse:", err)
			}
			for _, v := range c.r {
				for _, x := range v.vars {
					if err := e.Set(x.n, x.v); err != nil {
						t.Fatal(err)
					}
				}
				r, err := evalBoth(t, e)
				if err != nil {
					t.Error("evaluation error:", err)
				}
				if r != v.r {
					t.Errorf("wrong result: want %g, got %g", v.r, r)
				}
			}
		})
	}
}

func TestEvalLong(t *testing.T) {
	e, err := mexpr.New("-3(4xy^2x-2x)(8x^-(3x)+2y^-2)", nil)
	if err != nil {
		t.Fatal(err)
	}
	e.Set('x', 4)
	e.Set('y', -5)
	r, err := e.EvalTree()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r-(-382.082)) > 0.001 {
		t.Errorf("tree walk gave %g", r)
	}
	e.Compile()
	s, err := e.Eval()
	if err != nil {
		t.Fatal(err)
	}
	if s != r {
		t.Errorf("compiled code gave %g, tree walk gave %g", s, r)
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"zero", "10/0"},
		{"negzero", "10/-0.0"},
		{"alt", "10÷0"},
		{"zero-zero", "0/0"},
		{"var", "1/x"},
		{"nested", "1 + 2/(x-x)"},
		{"arg", "_sqrt(1/0)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := mexpr.New(c.src, nil)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			e.Set('x', 0)
			_, err = e.EvalTree()
			if !errors.Is(err, mexpr.ErrDivisionByZero) {
				t.Errorf("tree walk gave %v", err)
			}
			e.Compile()
			_, err = e.Eval()
			if !errors.Is(err, mexpr.ErrDivisionByZero) {
				t.Errorf("compiled code gave %v", err)
			}
		})
	}
}

func TestEvalUndefNames(t *testing.T) {
	cases := []struct {
		name string
		src  string
		r    []byte
		bad  byte
	}{
		{"x", "x", []byte("x"), 'x'},
		{"plus", "+x", []byte("x"), 'x'},
		{"neg", "-x", []byte("x"), 'x'},
		{"add-lhs", "x+1", []byte("x"), 'x'},
		{"add-rhs", "1+x", []byte("x"), 'x'},
		{"mul-rhs", "1*x", []byte("x"), 'x'},
		{"pow-lhs", "x^1", []byte("x"), 'x'},
		{"call", "_exp(x)", []byte("x"), 'x'},
		{"first", "y+x", []byte("xy"), 'y'},
		{"before-func", "_nope(x)", []byte("x"), 'x'},
	}
	ure := regexp.MustCompile(`(?i)\bundef`)
	vre := regexp.MustCompile(`(?i)\bvar`)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := mexpr.New(c.src, nil)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			if v := e.Vars(); !reflect.DeepEqual(c.r, v) {
				t.Errorf("%q gave wrong variables: want %q, got %q", c.src, c.r, v)
			}
			_, err = evalBoth(t, e)
			if err == nil {
				t.Fatalf("evaluating %q gave no error", c.src)
			}
			u, ok := err.(*mexpr.NameError)
			if !ok {
				t.Fatalf("error was %#v, not NameError", err)
			}
			if u.Var != c.bad {
				t.Errorf("NameError on %q, want %q", u.Var, c.bad)
			}
			msg := err.Error()
			if !ure.MatchString(msg) {
				t.Errorf(`%q doesn't mention "undef"`, msg)
			}
			if !vre.MatchString(msg) {
				t.Errorf(`%q doesn't mention "var"`, msg)
			}
		})
	}
}

func TestEvalFuncErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		err  error
	}{
		{"undefined", "_nope(1)", new(mexpr.UndefinedFuncError)},
		{"undefined0", "_nope()", new(mexpr.UndefinedFuncError)},
		{"arity", "_sqrt(1, 2)", new(mexpr.ArityError)},
		{"arity0", "_sqrt()", new(mexpr.ArityError)},
		{"nested", "1 + 2*_pi(1)", new(mexpr.ArityError)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := mexpr.New(c.src, nil)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			_, err = evalBoth(t, e)
			if reflect.TypeOf(err) != reflect.TypeOf(c.err) {
				t.Errorf("wrong error: want %T, got %#v", c.err, err)
			}
		})
	}
}

func TestEvalCallbackError(t *testing.T) {
	bad := errors.New("out of range")
	e, err := mexpr.New("1 + _check(x)", nil)
	if err != nil {
		t.Fatal(err)
	}
	err = e.Register("_check", 1, func(args []float64) (float64, error) {
		if args[0] < 0 {
			return 0, bad
		}
		return args[0], nil
	})
	if err != nil {
		t.Fatal(err)
	}
	e.Set('x', 1)
	if r, err := evalBoth(t, e); r != 2 || err != nil {
		t.Errorf("want 2, got %g with error %v", r, err)
	}
	e.Set('x', -1)
	if _, err := evalBoth(t, e); err != bad {
		t.Errorf("wrong error: want %v, got %v", bad, err)
	}
	// Errors don't disturb the environment.
	if v, ok := e.Env().Lookup('x'); v != -1 || !ok {
		t.Errorf("x changed to %g (set: %t)", v, ok)
	}
}

func TestEvalOrder(t *testing.T) {
	// Each call to _tick returns how many times it has been called, so the
	// result shows which operand was evaluated first.
	var calls []string
	e, err := mexpr.New("_tick() - _tick()*10", nil)
	if err != nil {
		t.Fatal(err)
	}
	tick := func(args []float64) (float64, error) {
		calls = append(calls, "tick")
		return float64(len(calls)), nil
	}
	if err := e.Register("_tick", 0, tick); err != nil {
		t.Fatal(err)
	}
	r, err := e.EvalTree()
	if err != nil {
		t.Fatal("tree walk failed:", err)
	}
	if r != -19 {
		t.Errorf("tree walk evaluated right before left: want -19, got %g", r)
	}
	if len(calls) != 2 {
		t.Errorf("tree walk called _tick %d times", len(calls))
	}
	calls = nil
	e.Compile()
	s, err := e.Eval()
	if err != nil {
		t.Fatal("compiled code failed:", err)
	}
	if s != r {
		t.Errorf("compiled code gave %g, tree walk gave %g", s, r)
	}
	if len(calls) != 2 {
		t.Errorf("compiled code called _tick %d times", len(calls))
	}
}

func TestOverloads(t *testing.T) {
	env := mexpr.StdEnv()
	sum2 := func(args []float64) (float64, error) { return args[0] + args[1], nil }
	sum3 := func(args []float64) (float64, error) { return 100 + args[0] + args[1] + args[2], nil }
	if err := env.Register("_sum", 2, sum2); err != nil {
		t.Fatal(err)
	}
	if err := env.Register("_sum", 3, sum3); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		src  string
		want float64
	}{
		{"_sum(1,2)", 3},
		{"_sum(1,2,3)", 106},
		{"_sum(1,_sum(2,3))", 6},
		{"_sum(1,2,_sum(3,4))", 110},
	}
	for _, c := range cases {
		e, err := mexpr.New(c.src, env)
		if err != nil {
			t.Fatalf("%q failed to parse: %v", c.src, err)
		}
		if r, err := evalBoth(t, e); r != c.want || err != nil {
			t.Errorf("%q: want %g, got %g with error %v", c.src, c.want, r, err)
		}
	}
}

func TestExprRegisterInvalid(t *testing.T) {
	e, err := mexpr.New("1", nil)
	if err != nil {
		t.Fatal(err)
	}
	err = e.Register("sum", 2, func(args []float64) (float64, error) { return 0, nil })
	if _, ok := err.(*mexpr.FuncNameError); !ok {
		t.Errorf("registering sum gave %#v, not *FuncNameError", err)
	}
	if _, err := e.Env().Func("sum", 2); err == nil {
		t.Error("sum is callable")
	}
	if err := e.Set('-', 3); err == nil {
		t.Error("setting - succeeded")
	}
}

func TestCompileIdempotent(t *testing.T) {
	e, err := mexpr.New("x^2 + 2x + 1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.Compiled() || e.Code() != nil || e.RenderCode() != "" {
		t.Fatal("new expression is compiled")
	}
	e.Set('x', 3)
	e.Compile()
	c := e.Code()
	r, err := e.Eval()
	if r != 16 || err != nil {
		t.Errorf("want 16, got %g with error %v", r, err)
	}
	e.Compile()
	if e.Code() != c {
		t.Error("second Compile replaced the code")
	}
	if s, err := e.Eval(); s != r || err != nil {
		t.Errorf("want %g, got %g with error %v", r, s, err)
	}
	if c.Len() != e.Root().NodeCount() {
		t.Errorf("%d instructions from %d nodes", c.Len(), e.Root().NodeCount())
	}
	// Setting variables after compiling affects results but not code.
	e.Set('x', 1)
	if s, _ := e.Eval(); s != 4 {
		t.Errorf("after setting x=1, want 4, got %g", s)
	}
	if e.Code() != c {
		t.Error("setting a variable replaced the code")
	}
}

func TestCompileFold(t *testing.T) {
	e, err := mexpr.New("x * (2+3) / 10/0", nil)
	if err != nil {
		t.Fatal(err)
	}
	e.Set('x', 1)
	e.Compile()
	before := e.Code()
	e.Compile(mexpr.FoldConstants())
	if e.Code() == before {
		t.Error("folding kept the old code")
	}
	if want := "([([x] * [5]) / (10)] / [0])"; e.String() != want {
		t.Errorf("wrong folded tree: want %s, got %s", want, e.String())
	}
	if e.Code().Len() != e.Root().NodeCount() {
		t.Errorf("%d instructions from %d nodes", e.Code().Len(), e.Root().NodeCount())
	}
	if _, err := evalBoth(t, e); !errors.Is(err, mexpr.ErrDivisionByZero) {
		t.Errorf("folding lost division by zero: %v", err)
	}
	after := e.Code()
	e.Compile(mexpr.FoldConstants())
	if e.Code() != after {
		t.Error("folding twice replaced the code")
	}
}

func TestExprClone(t *testing.T) {
	e, err := mexpr.New("x + 1", nil)
	if err != nil {
		t.Fatal(err)
	}
	e.Set('x', 1)
	e.Compile()
	c := e.Clone()
	c.Set('x', 2)
	if r, _ := e.Eval(); r != 2 {
		t.Errorf("original gave %g after setting x in clone", r)
	}
	if r, _ := c.Eval(); r != 3 {
		t.Errorf("clone gave %g", r)
	}
	if c.Code() == e.Code() {
		t.Error("clone shares code")
	}

	// Borrowed environments are shared.
	env := mexpr.NewEnv()
	env.Set('x', 1)
	b, err := mexpr.New("x + 1", env)
	if err != nil {
		t.Fatal(err)
	}
	d := b.Clone()
	d.Set('x', 5)
	if r, _ := b.Eval(); r != 6 {
		t.Errorf("borrowed env not shared: got %g", r)
	}
	if d.Env() != env {
		t.Error("clone doesn't use the borrowed env")
	}
}

func TestFromTree(t *testing.T) {
	x, err := mexpr.NewVariable('x')
	if err != nil {
		t.Fatal(err)
	}
	sum, err := mexpr.NewPrimitiveOp(mexpr.OpAdd, x, mexpr.NewValue(1))
	if err != nil {
		t.Fatal(err)
	}
	e, err := mexpr.FromTree(mexpr.NewFunctionCall("_sqrt", sum), nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.Source() != "" {
		t.Errorf("tree has source %q", e.Source())
	}
	e.Set('x', 15)
	if r, err := evalBoth(t, e); r != 4 || err != nil {
		t.Errorf("want 4, got %g with error %v", r, err)
	}

	var deep mexpr.Node = x
	for i := 0; i < mexpr.DefaultMaxDepth; i++ {
		deep, err = mexpr.NewPrimitiveOp(mexpr.OpAdd, deep, x)
		if err != nil {
			t.Fatal(err)
		}
	}
	if _, err := mexpr.FromTree(deep, nil); err == nil {
		t.Error("deep tree gave no error")
	} else if _, ok := err.(*mexpr.DepthError); !ok {
		t.Errorf("deep tree gave %#v, not *DepthError", err)
	}
}

func TestFlatDepth(t *testing.T) {
	cases := []struct {
		name  string
		terms int
		ok    bool
	}{
		{"limit", mexpr.DefaultMaxDepth, true},
		{"over", mexpr.DefaultMaxDepth + 1, false},
		{"long", 2000, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			src := "1" + strings.Repeat("+1", c.terms-1)
			e, err := mexpr.New(src, nil)
			if c.ok {
				if err != nil {
					t.Fatalf("%d terms failed to parse: %v", c.terms, err)
				}
				if _, err := mexpr.FromTree(e.Root(), nil); err != nil {
					t.Errorf("parsed tree rejected: %v", err)
				}
				if r, err := evalBoth(t, e); r != float64(c.terms) || err != nil {
					t.Errorf("want %d, got %g with error %v", c.terms, r, err)
				}
				return
			}
			if _, ok := err.(*mexpr.DepthError); !ok {
				t.Errorf("%d terms gave %#v, not *DepthError", c.terms, err)
			}
			var n mexpr.Node = mexpr.NewValue(1)
			for i := 1; i < c.terms; i++ {
				n, err = mexpr.NewPrimitiveOp(mexpr.OpAdd, n, mexpr.NewValue(1))
				if err != nil {
					t.Fatal(err)
				}
			}
			if _, err := mexpr.FromTree(n, nil); err == nil {
				t.Errorf("%d-term tree accepted", c.terms)
			} else if _, ok := err.(*mexpr.DepthError); !ok {
				t.Errorf("%d-term tree gave %#v, not *DepthError", c.terms, err)
			}
		})
	}
}

func TestExprRender(t *testing.T) {
	e, err := mexpr.New("2+3*5", nil)
	if err != nil {
		t.Fatal(err)
	}
	tree := "" +
		"[ + ]─[ 2 ]\n" +
		"  └───[ * ]─[ 3 ]\n" +
		"        └───[ 5 ]\n"
	if got := e.RenderTree(); got != tree {
		t.Errorf("wrong tree:\n%s\nwant:\n%s", got, tree)
	}
	e.Compile()
	code := "VALUE 2\nVALUE 3\nVALUE 5\nMUL\nADD\n"
	if got := e.RenderCode(); got != code {
		t.Errorf("wrong code:\n%s\nwant:\n%s", got, code)
	}
	if e.Source() != "2+3*5" {
		t.Errorf("wrong source %q", e.Source())
	}
}

func TestRenderTreeCall(t *testing.T) {
	e, err := mexpr.New("_f(x, 1, y)", nil)
	if err != nil {
		t.Fatal(err)
	}
	tree := "" +
		"[ _f ]─[ x ]\n" +
		"  ├────[ 1 ]\n" +
		"  └────[ y ]\n"
	if got := e.RenderTree(); got != tree {
		t.Errorf("wrong tree:\n%s\nwant:\n%s", got, tree)
	}
}

func BenchmarkEval(b *testing.B) {
	const src = "-3(4xy^2x-2x)(8x^-(3x)+2y^-2)"
	env := mexpr.StdEnv()
	env.Set('x', 4)
	env.Set('y', -5)
	b.Run("tree", func(b *testing.B) {
		b.ReportAllocs()
		e, err := mexpr.New(src, env)
		if err != nil {
			b.Fatal(err)
		}
		for i := 0; i < b.N; i++ {
			e.Eval()
		}
	})
	b.Run("code", func(b *testing.B) {
		b.ReportAllocs()
		e, err := mexpr.New(src, env)
		if err != nil {
			b.Fatal(err)
		}
		e.Compile()
		for i := 0; i < b.N; i++ {
			e.Eval()
		}
	})
	b.Run("call", func(b *testing.B) {
		b.ReportAllocs()
		e, err := mexpr.New("_hypot(x, y) + _sin(x)", env)
		if err != nil {
			b.Fatal(err)
		}
		e.Compile()
		for i := 0; i < b.N; i++ {
			e.Eval()
		}
	})
}

func Example() {
	var (
		fx, _   = mexpr.New("x^3/2 - x", nil)
		dfx, _  = mexpr.New("3 x^2/2 - 1", fx.Env())
		ddfx, _ = mexpr.New("3 x", fx.Env())
	)
	fx.Compile()
	dfx.Compile()
	ddfx.Compile()

	for i := 0; i < 4; i++ {
		fx.Set('x', float64(i))
		y, _ := fx.Eval()
		yp, _ := dfx.Eval()
		ypp, _ := ddfx.Eval()
		fmt.Printf("x = %d   y = %-4g  y' = %-4g  y'' = %g\n", i, y, yp, ypp)
	}

	// Output:
	// x = 0   y = 0     y' = -1    y'' = 0
	// x = 1   y = -0.5  y' = 0.5   y'' = 3
	// x = 2   y = 2     y' = 5     y'' = 6
	// x = 3   y = 10.5  y' = 12.5  y'' = 9
}
