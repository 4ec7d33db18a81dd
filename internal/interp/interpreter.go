// Package interp evaluates CIL method bodies symbolically.
//
// Evaluation explores every path through a method. Each path is a
// memory.Routine that accumulates the expression trees the method builds and
// the branch conditions it passed. Nothing is computed: arithmetic, calls and
// loads all produce ast nodes.
package interp

import (
	"go.uber.org/zap"

	"github.com/gnolang/cilint/internal/cil"
	"github.com/gnolang/cilint/internal/memory"
)

type Interpreter struct {
	logger   *zap.Logger
	maxSteps int
}

type Option func(*Interpreter)

// WithLogger sets the logger receiving fork and completion events at debug
// level.
func WithLogger(l *zap.Logger) Option {
	return func(in *Interpreter) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithMaxSteps bounds the number of instructions a single Evaluate call may
// execute across all routines. Zero means no bound.
func WithMaxSteps(n int) Option {
	return func(in *Interpreter) { in.maxSteps = n }
}

func New(opts ...Option) *Interpreter {
	in := &Interpreter{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Evaluate explores every path through m and returns the completed
// routines. A method without a body yields none.
//
// Each loop body is visited once per path. A routine coming back to an
// instruction it already executed re-runs it once if it belongs to a loop
// condition, that is if a conditional branch follows in straight line, and
// the branch then leaves the loop without forking. Any other return to an
// executed instruction completes the routine.
//
// On ErrStepLimit the routines completed so far are returned along with the
// error. Any other error aborts the evaluation.
func (in *Interpreter) Evaluate(m cil.Method) ([]*memory.Routine, error) {
	body := m.Body()
	if body == nil || body.Entry() == nil {
		return nil, nil
	}

	var (
		done     []*memory.Routine
		worklist = []*memory.Routine{memory.NewRoutine(m)}
		steps    int
	)
	for len(worklist) > 0 {
		r := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for ins := r.Cursor(); ins != nil; ins = r.Cursor() {
			if r.Executed(ins.Offset) {
				if r.Revisited(ins.Offset) || !loopHead(body, ins) {
					r.SetCursor(nil)
					break
				}
				r.MarkRevisited(ins.Offset)
			}
			if in.maxSteps > 0 && steps >= in.maxSteps {
				in.logger.Debug("step limit reached",
					zap.String("method", m.FullName()),
					zap.Int("completed", len(done)),
				)
				return done, ErrStepLimit
			}
			steps++

			forks, next, err := in.Step(r, ins)
			if err != nil {
				return nil, err
			}
			for _, f := range forks {
				in.logger.Debug("fork",
					zap.String("method", m.FullName()),
					zap.String("at", ins.Label()),
					zap.String("to", f.Cursor().Label()),
				)
			}
			worklist = append(worklist, forks...)
			r.SetCursor(next)
		}

		in.logger.Debug("routine completed",
			zap.String("method", m.FullName()),
			zap.Int("expressions", len(r.Expressions())),
			zap.Int("conditions", len(r.Conditions())),
		)
		done = append(done, r)
	}
	return done, nil
}
