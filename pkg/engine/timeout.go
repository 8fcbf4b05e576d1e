package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/lamina/pkg/graph"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	ErrTimeout    = errors.New("evaluation timed out")
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

type evalResult struct {
	design *graph.Design
	errors []EvalError
	err    error
}

// waitWithTimeout waits for ch for at most EvalTimeout. A result that
// arrives after a newer evaluation has started is discarded. On timeout the
// evaluating goroutine keeps running; its result is dropped into the
// buffered channel and never read.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*graph.Design, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.design, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, EvalTimeout)
	}
}
