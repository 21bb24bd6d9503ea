package app

import "fmt"

// CallResult records the outcome of one Order Service call issued while
// executing a step.
type CallResult struct {
	Op     string
	Target string
	Err    error
}

// StepResult aggregates the sub-call outcomes of one executed step. Compound
// steps stop at the first failed sub-call; the calls issued so far stay in
// the aggregate so partial application is observable instead of silent.
type StepResult struct {
	Kind  StepKind
	Calls []CallResult
}

// OK reports whether every issued sub-call succeeded.
func (r StepResult) OK() bool {
	for _, call := range r.Calls {
		if call.Err != nil {
			return false
		}
	}
	return true
}

// Err returns the first sub-call failure, or nil.
func (r StepResult) Err() error {
	for _, call := range r.Calls {
		if call.Err != nil {
			return fmt.Errorf("%s %s: %w", call.Op, call.Target, call.Err)
		}
	}
	return nil
}

// Failed returns the failed sub-calls.
func (r StepResult) Failed() []CallResult {
	var out []CallResult
	for _, call := range r.Calls {
		if call.Err != nil {
			out = append(out, call)
		}
	}
	return out
}
