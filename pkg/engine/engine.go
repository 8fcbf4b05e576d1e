// Package engine evaluates modelling scripts. It runs zygomys in a fresh
// sandbox per call and collects the solids the script builds into a
// graph.Design.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/lamina/pkg/graph"
)

// EvalError is a problem in the script itself: a parse error, a runtime
// error or a validation failure.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is a finding that does not stop slicing.
type EvalWarning struct {
	Message string
	NodeID  graph.NodeID
}

// EvalResult bundles an evaluation with its validation findings.
type EvalResult struct {
	Design   *graph.Design
	Errors   []EvalError
	Warnings []EvalWarning
}

// OK reports whether the design can be sliced.
func (r EvalResult) OK() bool {
	return r.Design != nil && len(r.Errors) == 0
}

// Engine evaluates scripts. It is safe for concurrent use; only the result
// of the most recent call is returned.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs source and returns the design it builds.
//
//   - On success: design, nil, nil
//   - On a script error: nil, eval errors, nil
//   - On timeout, panic or a superseded call: nil, nil, error
func (e *Engine) Evaluate(source string) (*graph.Design, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		d, evalErrs, err := evaluate(source)
		ch <- evalResult{design: d, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// Check evaluates source and validates the design. Validation errors are
// returned as EvalErrors and warnings as EvalWarnings.
func (e *Engine) Check(source string) (EvalResult, error) {
	d, evalErrs, err := e.Evaluate(source)
	if err != nil || len(evalErrs) > 0 {
		return EvalResult{Errors: evalErrs}, err
	}
	res := EvalResult{Design: d}
	for _, v := range graph.Validate(d) {
		if v.Severity == graph.SeverityWarning {
			res.Warnings = append(res.Warnings, EvalWarning{Message: v.Message, NodeID: v.NodeID})
			continue
		}
		res.Errors = append(res.Errors, EvalError{Message: v.Error()})
	}
	if len(res.Errors) > 0 {
		res.Design = nil
	}
	return res, nil
}

func evaluate(source string) (*graph.Design, []EvalError, error) {
	d := graph.New()
	if strings.TrimSpace(source) == "" {
		return d, nil, nil
	}

	// The sandbox has no filesystem or system call builtins.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, d)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return d, nil, nil
}

// zygomys reports "Error on line N: ..." for parse errors and sometimes a
// bare "line N: ..." at run time.
var (
	linePattern      = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)
	linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)
)

func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
