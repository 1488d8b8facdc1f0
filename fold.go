package mexpr

// Fold returns a tree equivalent to n in which every operation on two
// constants is replaced by its result. The second result reports whether
// anything was folded; if not, the returned tree is n itself.
//
// Divisions by a constant zero are left in place so that evaluating the
// folded tree still fails. Function calls are never folded, because the
// function they name is resolved only when they are evaluated, but their
// arguments are.
func Fold(n Node) (Node, bool) {
	switch n := n.(type) {
	case *Value, *Variable:
		return n, false
	case *PrimitiveOp:
		l, lf := Fold(n.left)
		r, rf := Fold(n.right)
		lv, lok := l.(*Value)
		rv, rok := r.(*Value)
		if lok && rok {
			v, err := arith(n.op, lv.v, rv.v)
			if err == nil {
				return NewValue(v), true
			}
		}
		if !lf && !rf {
			return n, false
		}
		return newop(n.op, l, r), true
	case *FunctionCall:
		var args []Node
		for i, a := range n.args {
			f, ok := Fold(a)
			if !ok {
				continue
			}
			if args == nil {
				args = append(make([]Node, 0, len(n.args)), n.args...)
			}
			args[i] = f
		}
		if args == nil {
			return n, false
		}
		return NewFunctionCall(n.name, args...), true
	default:
		panic("mexpr: invalid node type")
	}
}
