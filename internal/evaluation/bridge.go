package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/archlab/turbarch/internal/graph"
)

// FailureReason classifies evaluation failures.
type FailureReason string

const (
	ReasonNonConverged FailureReason = "non_converged"
	ReasonTimeout      FailureReason = "timeout"
	ReasonError        FailureReason = "error"
	ReasonPanic        FailureReason = "panic"
)

// Failure is a structured evaluation failure. Like design.Infeasibility it
// is a value, not an error: the facade turns it into a penalized score.
type Failure struct {
	Reason FailureReason
	Detail string
}

func (f *Failure) String() string {
	if f.Detail == "" {
		return string(f.Reason)
	}
	return string(f.Reason) + ": " + f.Detail
}

// Bridge wraps an Evaluator with serialization and failure containment. It
// is stateless apart from its configuration and safe for concurrent use.
type Bridge struct {
	eval    Evaluator
	timeout time.Duration
}

// NewBridge returns a bridge around the given evaluator. A non-positive
// timeout disables the per-call deadline.
func NewBridge(eval Evaluator, timeout time.Duration) (*Bridge, error) {
	if eval == nil {
		return nil, fmt.Errorf("bridge: nil evaluator")
	}
	return &Bridge{eval: eval, timeout: timeout}, nil
}

type analyzeOutcome struct {
	resp     *Response
	err      error
	panicked bool
}

// Score evaluates one feasible architecture instance and returns its metric
// map, or a structured Failure. The evaluator runs in its own goroutine so a
// solver that ignores cancellation cannot hang the batch past the deadline;
// a panicking evaluator is contained and reported as a failure.
func (b *Bridge) Score(ctx context.Context, arch *graph.Architecture, cond Conditions) (map[string]float64, *Failure) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	req := NewRequest(arch, cond)
	done := make(chan analyzeOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- analyzeOutcome{err: fmt.Errorf("evaluator panic: %v", r), panicked: true}
			}
		}()
		resp, err := b.eval.Analyze(ctx, req)
		done <- analyzeOutcome{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &Failure{Reason: ReasonTimeout, Detail: ctx.Err().Error()}
	case out := <-done:
		if out.err != nil {
			reason := ReasonError
			if out.panicked {
				reason = ReasonPanic
			}
			return nil, &Failure{Reason: reason, Detail: out.err.Error()}
		}
		if out.resp == nil {
			return nil, &Failure{Reason: ReasonError, Detail: "evaluator returned no response"}
		}
		if !out.resp.Converged {
			return nil, &Failure{Reason: ReasonNonConverged, Detail: out.resp.Reason}
		}
		return out.resp.Metrics, nil
	}
}
