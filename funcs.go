package mexpr

import (
	"math"
	"math/big"

	"github.com/zephyrtronium/bigfloat"
)

// Func is a native function. args holds the function's arguments in call
// order; its length is always the arity the function was registered with.
// On the compiled path, args is a window over the evaluation stack, so the
// function may use it as scratch space, but it must not retain it. The
// returned value replaces the arguments.
//
// A non-nil error aborts the evaluation and is returned from it unchanged.
type Func func(args []float64) (float64, error)

// Niladic wraps a function of no arguments, generally a constant, into a
// Func.
func Niladic(f func() float64) Func {
	return func(args []float64) (float64, error) {
		return f(), nil
	}
}

// Monadic wraps a function of one argument into a Func.
func Monadic(f func(x float64) float64) Func {
	return func(args []float64) (float64, error) {
		return f(args[0]), nil
	}
}

// Dyadic wraps a function of two arguments into a Func.
func Dyadic(f func(x, y float64) float64) Func {
	return func(args []float64) (float64, error) {
		return f(args[0], args[1]), nil
	}
}

// Constants for _pi and _e, computed at extended precision and rounded once.
var (
	constPi = constant(bigfloat.Pi)
	constE  = constant(func(out *big.Float) *big.Float {
		var one big.Float
		one.SetPrec(out.Prec()).SetFloat64(1)
		return bigfloat.Exp(out, &one)
	})
)

func constant(f func(out *big.Float) *big.Float) float64 {
	r := new(big.Float).SetPrec(128)
	f(r)
	v, _ := r.Float64()
	return v
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var stdfuncs = map[funcKey]Func{
	{"_acos", 1}:      Monadic(math.Acos),
	{"_asin", 1}:      Monadic(math.Asin),
	{"_atan", 1}:      Monadic(math.Atan),
	{"_atan2", 2}:     Dyadic(math.Atan2),
	{"_ceil", 1}:      Monadic(math.Ceil),
	{"_cos", 1}:       Monadic(math.Cos),
	{"_cosh", 1}:      Monadic(math.Cosh),
	{"_exp", 1}:       Monadic(math.Exp),
	{"_fabs", 1}:      Monadic(math.Abs),
	{"_floor", 1}:     Monadic(math.Floor),
	{"_fmod", 2}:      Dyadic(math.Mod),
	{"_log", 1}:       Monadic(math.Log),
	{"_log", 2}:       Dyadic(func(x, b float64) float64 { return math.Log(x) / math.Log(b) }),
	{"_log10", 1}:     Monadic(math.Log10),
	{"_sin", 1}:       Monadic(math.Sin),
	{"_sinh", 1}:      Monadic(math.Sinh),
	{"_sqrt", 1}:      Monadic(math.Sqrt),
	{"_tan", 1}:       Monadic(math.Tan),
	{"_tanh", 1}:      Monadic(math.Tanh),
	{"_erf", 1}:       Monadic(math.Erf),
	{"_erfc", 1}:      Monadic(math.Erfc),
	{"_hypot", 2}:     Dyadic(math.Hypot),
	{"_j0", 1}:        Monadic(math.J0),
	{"_j1", 1}:        Monadic(math.J1),
	{"_jn", 2}:        Dyadic(func(n, x float64) float64 { return math.Jn(int(n), x) }),
	{"_lgamma", 1}:    Monadic(func(x float64) float64 { r, _ := math.Lgamma(x); return r }),
	{"_y0", 1}:        Monadic(math.Y0),
	{"_y1", 1}:        Monadic(math.Y1),
	{"_yn", 2}:        Dyadic(func(n, x float64) float64 { return math.Yn(int(n), x) }),
	{"_isnan", 1}:     Monadic(func(x float64) float64 { return b2f(math.IsNaN(x)) }),
	{"_acosh", 1}:     Monadic(math.Acosh),
	{"_asinh", 1}:     Monadic(math.Asinh),
	{"_atanh", 1}:     Monadic(math.Atanh),
	{"_cbrt", 1}:      Monadic(math.Cbrt),
	{"_expm1", 1}:     Monadic(math.Expm1),
	{"_ilogb", 1}:     Monadic(func(x float64) float64 { return float64(math.Ilogb(x)) }),
	{"_log1p", 1}:     Monadic(math.Log1p),
	{"_logb", 1}:      Monadic(math.Logb),
	{"_nextafter", 2}: Dyadic(math.Nextafter),
	{"_remainder", 2}: Dyadic(math.Remainder),
	{"_rint", 1}:      Monadic(math.RoundToEven),
	{"_scalb", 2}:     Dyadic(func(x, n float64) float64 { return math.Ldexp(x, int(n)) }),

	// constants
	{"_pi", 0}: Niladic(func() float64 { return constPi }),
	{"_e", 0}:  Niladic(func() float64 { return constE }),
}
