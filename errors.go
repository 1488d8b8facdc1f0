package mexpr

import (
	"errors"
	"strconv"
)

// ErrDivisionByZero is returned when the right operand of a division is zero,
// either signed zero.
var ErrDivisionByZero = errors.New("division by zero")

// NameError is an error from a lookup for a variable that is not set in the
// environment.
type NameError struct {
	// Var is the variable that was missing.
	Var byte
}

func (err *NameError) Error() string {
	return "undefined variable " + strconv.QuoteRune(rune(err.Var))
}

// IdentError is an error indicating a variable identifier that is not an
// ASCII letter.
type IdentError struct {
	// ID is the rejected identifier.
	ID byte
}

func (err *IdentError) Error() string {
	return "invalid variable identifier " + strconv.QuoteRune(rune(err.ID)) + " (must be a letter a-z or A-Z)"
}

// FuncNameError is an error indicating a function registered under a name
// that does not begin with an underscore.
type FuncNameError struct {
	// Name is the rejected name.
	Name string
}

func (err *FuncNameError) Error() string {
	return "invalid function name " + strconv.Quote(err.Name) + " (must begin with _)"
}

// UndefinedFuncError is an error from a call to a function name that has no
// registration at any arity.
type UndefinedFuncError struct {
	// Name is the called function.
	Name string
	// Arity is the number of arguments in the call.
	Arity int
}

func (err *UndefinedFuncError) Error() string {
	return "undefined function " + err.Name
}

// ArityError is an error from a call to a function with a number of
// arguments it is not registered for, or from registering a function with a
// negative arity.
type ArityError struct {
	// Name is the function name.
	Name string
	// Arity is the number of arguments in the call or registration.
	Arity int
	// Have is the list of arities at which Name is registered, in increasing
	// order.
	Have []int
}

func (err *ArityError) Error() string {
	if err.Arity < 0 {
		return "invalid arity " + strconv.Itoa(err.Arity) + " for " + err.Name
	}
	r := "cannot call " + err.Name + " with " + strconv.Itoa(err.Arity) + " arguments"
	if len(err.Have) > 0 {
		r += " (want "
		for i, k := range err.Have {
			if i > 0 {
				r += " or "
			}
			r += strconv.Itoa(k)
		}
		r += ")"
	}
	return r
}

// ChildError is an error from asking a node for a child it does not have.
type ChildError struct {
	// Index is the requested child index.
	Index int
	// Count is the number of children the node has.
	Count int
}

func (err *ChildError) Error() string {
	return "child index " + strconv.Itoa(err.Index) + " out of range for node with " + strconv.Itoa(err.Count) + " children"
}

// OpError is an error from constructing an operation node with an operator
// that is not one of the primitive operators.
type OpError struct {
	// Op is the rejected operator.
	Op Op
}

func (err *OpError) Error() string {
	return "unknown primitive operator " + err.Op.String()
}
