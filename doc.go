// Package mexpr evaluates arithmetic expressions over float64 values.
//
// The syntax is the one you'd write in your notes. Variables are single
// ASCII letters, so "5xy^2" is 5 times x times y squared. Functions begin
// with an underscore and always take a bracketed argument list, as in
// "_sqrt(2)" or "_atan2(y, x)". Functions are overloaded by their number of
// arguments: "_log(x)" and "_log(x, 2)" call different functions.
//
// An Expr can be evaluated by walking its syntax tree, or compiled once into
// a flat instruction sequence that runs on a small fixed-size stack. The
// compiled form is meant for evaluating the same formula many times with
// different variable values. Both evaluate to the same result.
package mexpr
