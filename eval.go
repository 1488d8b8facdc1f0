package mexpr

import "math"

// arith applies a primitive operator. Both evaluation engines and constant
// folding compute through here so that they agree bit for bit.
func arith(op Op, l, r float64) (float64, error) {
	switch op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	case OpPow:
		return math.Pow(l, r), nil
	default:
		panic("mexpr: invalid operator " + op.String())
	}
}

// Eval returns the constant.
func (n *Value) Eval(env *Env) (float64, error) {
	return n.v, nil
}

// Eval looks up the variable in env. If the variable is not set, the result
// is a *NameError.
func (n *Variable) Eval(env *Env) (float64, error) {
	return env.Var(n.id)
}

// Eval evaluates the left operand, then the right, then applies the
// operator.
func (n *PrimitiveOp) Eval(env *Env) (float64, error) {
	l, err := n.left.Eval(env)
	if err != nil {
		return 0, err
	}
	r, err := n.right.Eval(env)
	if err != nil {
		return 0, err
	}
	return arith(n.op, l, r)
}

// Eval evaluates the arguments in order, then resolves the function by name
// and arity and calls it.
func (n *FunctionCall) Eval(env *Env) (float64, error) {
	// Most functions take one or two arguments. Avoid allocating for them.
	var buf [4]float64
	args := buf[:0]
	for _, a := range n.args {
		v, err := a.Eval(env)
		if err != nil {
			return 0, err
		}
		args = append(args, v)
	}
	fn, err := env.Func(n.name, len(n.args))
	if err != nil {
		return 0, err
	}
	return fn(args)
}
