package mexpr

// Env holds the variables and functions an expression is evaluated with. It
// is not safe to use an Env concurrently, including evaluating expressions
// with it while setting variables or registering functions.
type Env struct {
	vals  [128]float64
	set   [128]bool
	funcs map[funcKey]Func
}

// funcKey identifies a function registration. The same name at different
// arities is different functions.
type funcKey struct {
	name  string
	arity int
}

// NewEnv creates an environment with no variables and no functions.
func NewEnv() *Env {
	return &Env{funcs: make(map[funcKey]Func)}
}

// StdEnv creates an environment with no variables and the standard function
// library.
func StdEnv() *Env {
	env := NewEnv()
	for k, fn := range stdfuncs {
		env.funcs[k] = fn
	}
	return env
}

// Clone creates a copy of env. Changes to either environment do not affect
// the other.
func (env *Env) Clone() *Env {
	n := Env{
		vals:  env.vals,
		set:   env.set,
		funcs: make(map[funcKey]Func, len(env.funcs)),
	}
	for k, fn := range env.funcs {
		n.funcs[k] = fn
	}
	return &n
}

// isIdent returns whether id is an ASCII letter.
func isIdent(id byte) bool {
	return 'a' <= id && id <= 'z' || 'A' <= id && id <= 'Z'
}

// Set sets the value of a variable, replacing any previous value. If id is
// not an ASCII letter, the result is an *IdentError and env is unchanged.
func (env *Env) Set(id byte, v float64) error {
	if !isIdent(id) {
		return &IdentError{ID: id}
	}
	env.vals[id] = v
	env.set[id] = true
	return nil
}

// Unset removes a variable.
func (env *Env) Unset(id byte) {
	if id < 128 {
		env.vals[id] = 0
		env.set[id] = false
	}
}

// Var returns the value of a variable. If the variable is not set, the
// result is a *NameError.
func (env *Env) Var(id byte) (float64, error) {
	if id >= 128 || !env.set[id] {
		return 0, &NameError{Var: id}
	}
	return env.vals[id], nil
}

// Lookup returns the value of a variable and whether it is set.
func (env *Env) Lookup(id byte) (float64, bool) {
	if id >= 128 {
		return 0, false
	}
	return env.vals[id], env.set[id]
}

// Vars returns the identifiers of all set variables in ASCII order.
func (env *Env) Vars() []byte {
	var r []byte
	for id, ok := range env.set {
		if ok {
			r = append(r, byte(id))
		}
	}
	return r
}

// Register sets the function called by name with arity arguments. Other
// registrations of the same name at different arities are unaffected. To
// remove a registration, pass nil for fn.
//
// Function names must begin with an underscore; otherwise the result is a
// *FuncNameError. A negative arity gives an *ArityError.
func (env *Env) Register(name string, arity int, fn Func) error {
	if len(name) == 0 || name[0] != '_' {
		return &FuncNameError{Name: name}
	}
	if arity < 0 {
		return &ArityError{Name: name, Arity: arity}
	}
	k := funcKey{name, arity}
	if fn == nil {
		delete(env.funcs, k)
		return nil
	}
	env.funcs[k] = fn
	return nil
}

// LookupFunc returns the function registered for name at arity, if any.
func (env *Env) LookupFunc(name string, arity int) (Func, bool) {
	fn, ok := env.funcs[funcKey{name, arity}]
	return fn, ok
}

// Func resolves a call to name with arity arguments. If name is registered
// at other arities but not this one, the result is an *ArityError.
// Otherwise, if there is no registration at all, the result is an
// *UndefinedFuncError.
func (env *Env) Func(name string, arity int) (Func, error) {
	if fn, ok := env.funcs[funcKey{name, arity}]; ok {
		return fn, nil
	}
	if have := env.Arities(name); len(have) > 0 {
		return nil, &ArityError{Name: name, Arity: arity, Have: have}
	}
	return nil, &UndefinedFuncError{Name: name, Arity: arity}
}

// Arities returns the arities at which name is registered, in increasing
// order.
func (env *Env) Arities(name string) []int {
	var r []int
	for k := range env.funcs {
		if k.name == name {
			r = append(r, k.arity)
		}
	}
	sortints(r)
	return r
}

// sortints sorts a short int slice in place.
func sortints(v []int) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j] < v[j-1]; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
}
