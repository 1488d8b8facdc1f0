package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/zephyrtronium/mexpr"
)

// session evaluates expressions against a shared environment, both for
// batch input and for the interactive loop.
type session struct {
	env  *mexpr.Env
	verb string
	// echo and code print the tree and compiled instructions of each
	// expression before its result.
	echo, code bool
	// tree evaluates by walking the tree. fold folds constants before
	// compiling.
	tree, fold bool
	out        io.Writer

	// last is the most recent expression to parse in the interactive loop.
	last *mexpr.Expr
}

// run evaluates e and prints its result or error.
func (s *session) run(e *mexpr.Expr) (float64, error) {
	if !s.tree || s.code {
		var opts []mexpr.CompileOption
		if s.fold {
			opts = append(opts, mexpr.FoldConstants())
		}
		e.Compile(opts...)
	}
	if s.echo {
		fmt.Fprint(s.out, e.RenderTree())
	}
	if s.code {
		fmt.Fprint(s.out, e.RenderCode())
	}
	var r float64
	var err error
	if s.tree {
		r, err = e.EvalTree()
	} else {
		r, err = e.Eval()
	}
	if err != nil {
		fmt.Fprintln(s.out, err)
		return 0, err
	}
	fmt.Fprintf(s.out, s.verb+"\n", r)
	return r, nil
}

// exec handles one line of interactive input. The result is false if the
// session should end.
func (s *session) exec(line string) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return true
	case ":quit", ":q":
		return false
	case ":vars":
		for _, id := range s.env.Vars() {
			v, _ := s.env.Lookup(id)
			fmt.Fprintf(s.out, "%c = "+s.verb+"\n", id, v)
		}
		return true
	case ":tree":
		if s.last == nil {
			fmt.Fprintln(s.out, "no expression yet")
			return true
		}
		fmt.Fprint(s.out, s.last.RenderTree())
		return true
	case ":code":
		if s.last == nil {
			fmt.Fprintln(s.out, "no expression yet")
			return true
		}
		s.last.Compile()
		fmt.Fprint(s.out, s.last.RenderCode())
		return true
	case ":help":
		fmt.Fprintln(s.out, "x = expr assigns, expr evaluates; commands :vars :tree :code :quit")
		return true
	}
	if strings.HasPrefix(line, ":") {
		fmt.Fprintf(s.out, "unknown command %s. Type :help for help.\n", line)
		return true
	}
	id, src, assign := splitAssign(line)
	e, err := mexpr.New(src, s.env)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return true
	}
	s.last = e
	r, err := s.run(e)
	if err != nil || !assign {
		return true
	}
	if err := s.env.Set(id, r); err != nil {
		fmt.Fprintln(s.out, err)
	}
	return true
}

// splitAssign splits an assignment of the form "x = expr". If line is not an
// assignment, the result is line itself with ok false.
func splitAssign(line string) (id byte, src string, ok bool) {
	k := strings.IndexByte(line, '=')
	if k < 0 {
		return 0, line, false
	}
	name := strings.TrimSpace(line[:k])
	if len(name) != 1 {
		return 0, line, false
	}
	return name[0], line[k+1:], true
}

// repl runs the interactive loop until EOF or :quit, keeping line history in
// the file named hist.
func repl(s *session, hist string) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(hist); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(hist); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		line, err := ln.Prompt("> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if !s.exec(line) {
			return nil
		}
	}
}
