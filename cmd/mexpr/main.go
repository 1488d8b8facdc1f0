package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/xyproto/env/v2"

	"github.com/zephyrtronium/mexpr"
)

func main() {
	log.SetFlags(0)
	var (
		inname, verb string
		with         [][2]string
		nl, echo     bool
		code, tree   bool
		fold, inter  bool
		bench        int
	)
	addwith := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		with = append(with, [2]string{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	flag.StringVar(&verb, "fmt", env.Str("MEXPR_FMT", "%g"), "result formatting string (env MEXPR_FMT)")
	flag.Func("given", "x=value variable definition (any number of times)", addwith)
	flag.BoolVar(&nl, "n", false, "parse separate input lines as separate expressions")
	flag.BoolVar(&echo, "echo", false, "print parse trees")
	flag.BoolVar(&code, "code", false, "print compiled instructions")
	flag.BoolVar(&tree, "tree", env.Bool("MEXPR_TREE"), "evaluate by walking the parse tree instead of compiling (env MEXPR_TREE)")
	flag.BoolVar(&fold, "O", false, "fold constants before compiling")
	flag.IntVar(&bench, "bench", env.Int("MEXPR_BENCH", 0), "time this many evaluations of each expression on both engines (env MEXPR_BENCH)")
	flag.BoolVar(&inter, "i", false, "start an interactive session")
	flag.Parse()
	if bench < 0 {
		log.Fatalf("benchmark count (%d) must not be negative", bench)
	}

	vars := mexpr.StdEnv()
	for _, d := range with {
		nm := d[0]
		if len(nm) != 1 {
			log.Fatalf("variable names are single letters, not %q", nm)
		}
		a, err := mexpr.New(d[1], vars)
		if err != nil {
			log.Fatalf("setting %s: %v", nm, err)
		}
		r, err := a.Eval()
		if err != nil {
			log.Fatalf("setting %s: %v", nm, err)
		}
		if err := vars.Set(nm[0], r); err != nil {
			log.Fatalf("setting %s: %v", nm, err)
		}
	}

	s := &session{
		env:  vars,
		verb: verb,
		echo: echo,
		code: code,
		tree: tree,
		fold: fold,
		out:  os.Stdout,
	}

	if inter {
		home, _ := os.UserHomeDir()
		hist := env.Str("MEXPR_HISTORY", filepath.Join(home, ".mexpr_history"))
		if err := repl(s, hist); err != nil {
			log.Fatal(err)
		}
		return
	}

	var ins []io.RuneScanner
	f, err := infile(inname, flag.NArg() == 0)
	if err != nil {
		log.Fatal(err)
	}
	if f != nil {
		ins = append(ins, f)
	}
	for _, arg := range flag.Args() {
		ins = append(ins, strings.NewReader(arg))
	}

	var p []*mexpr.Expr
	var opts []mexpr.ParseOption
	if nl {
		opts = append(opts, mexpr.StopOn('\n'))
	}
	for _, in := range ins {
		for {
			// First check whether we're done with the input.
			if done, err := skipSpace(in); err != nil {
				log.Fatal(err)
			} else if done {
				break
			}
			a, err := mexpr.Parse(in, opts...)
			if err != nil {
				log.Fatal(err)
			}
			e, err := mexpr.FromTree(a, vars)
			if err != nil {
				log.Fatal(err)
			}
			p = append(p, e)
		}
	}

	for _, e := range p {
		s.run(e)
		if bench > 0 {
			t, c := timeEval(e, bench)
			log.Printf("%v: tree %v/op, code %v/op", e, t, c)
		}
	}
}

func infile(inname string, std bool) (io.RuneScanner, error) {
	var f *os.File
	switch {
	case inname != "" && inname != "-":
		in, err := os.Open(inname)
		if err != nil {
			return nil, err
		}
		f = in
	case inname == "-", std:
		f = os.Stdin
	}
	if f == nil {
		return nil, nil
	}
	return bufio.NewReader(f), nil
}

// skipSpace consumes whitespace from in and reports whether the input is
// exhausted.
func skipSpace(in io.RuneScanner) (bool, error) {
	for {
		r, _, err := in.ReadRune()
		if err != nil {
			if err == io.EOF {
				return true, nil
			}
			return false, err
		}
		if !unicode.IsSpace(r) {
			return false, in.UnreadRune()
		}
	}
}

// timeEval measures the average time to evaluate e n times by walking its
// tree and by running its compiled code.
func timeEval(e *mexpr.Expr, n int) (tree, code time.Duration) {
	e.Compile()
	start := time.Now()
	for i := 0; i < n; i++ {
		e.EvalTree()
	}
	tree = time.Since(start) / time.Duration(n)
	start = time.Now()
	for i := 0; i < n; i++ {
		e.Eval()
	}
	code = time.Since(start) / time.Duration(n)
	return tree, code
}
