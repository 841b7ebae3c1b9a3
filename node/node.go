////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package node drives one participant through the secure-sum round. Each
// invocation is a single synchronous pass that advances the round as far as
// the visible artifacts allow and then exits; waiting on another participant
// is expressed as stopping cleanly and trying again on the next invocation.
package node

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/snwagh/private-histogram/aggregate"
	"github.com/snwagh/private-histogram/internal"
	"github.com/snwagh/private-histogram/internal/state"
	"github.com/snwagh/private-histogram/io"
	"github.com/snwagh/private-histogram/ring"
)

// Runner executes a single invocation pass for one participant. The machine
// only moves forward, so a fresh runner (and machine) is built per
// invocation; the persisted artifacts are the only state that survives. The
// instance is bound after construction because the state machine, which the
// instance owns, is built from the runner's change table.
type Runner struct {
	instance *internal.Instance
	ran      bool

	// ring context of the current invocation
	members []string
	next    string
}

// NewRunner creates an unbound runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Bind attaches the instance the runner operates on. Must be called exactly
// once before Run.
func (r *Runner) Bind(instance *internal.Instance) {
	r.instance = instance
}

// Run performs one invocation pass and returns the stage the round is in
// afterwards plus a terminal status line. A Pending condition is a
// successful no-op, not an error. Any returned error aborted the invocation
// before publishing a half-complete artifact.
func (r *Runner) Run() (state.Stage, string, error) {
	if r.instance == nil {
		return state.ERROR, "", errors.New("runner is not bound to an instance")
	}
	if r.ran {
		return state.ERROR, "", errors.New("a runner performs a single pass")
	}
	r.ran = true

	i := r.instance
	t, l, self := i.GetTransport(), i.GetLayout(), i.GetID()
	machine := i.GetStateMachine()

	// the resume point derives from the persisted artifacts alone
	resume := state.Infer(r.observe())

	// terminal short-circuit: nothing left to do this round
	if resume == state.AGGREGATED {
		if _, err := machine.Update(state.AGGREGATED); err != nil {
			return r.abort(err)
		}
		return state.AGGREGATED, "aggregate already exists", nil
	}

	// the ring is externally mutable; resolve fresh on every pass
	members, err := i.GetRingFetcher().Fetch()
	if err != nil {
		return r.abort(errors.WithMessage(err,
			"could not fetch ring membership"))
	}
	if err = ring.Validate(members); err != nil {
		return r.abort(err)
	}
	prev, next, err := ring.ResolveNeighbors(members, self)
	if err != nil {
		return r.abort(err)
	}
	r.members, r.next = members, next
	jww.INFO.Printf("Neighbors determined: previous=%s, next=%s", prev, next)

	// bootstrap the private record
	if resume == state.NO_RECORD {
		if !i.AutoGenerateRecord() {
			return machine.Get(), "waiting for private record", nil
		}
		if _, err = machine.Update(state.NO_RECORD); err != nil {
			return r.abort(err)
		}
	}

	// key exchange, as far as possible this invocation. A published masked
	// record implies the exchange finished; until then the downstream send
	// is retried so a neighbor whose deposit was lost can still advance.
	if resume != state.MASKED {
		if _, err = machine.Update(state.KEYS_PENDING); err != nil {
			return r.abort(err)
		}
		if _, ok, pollErr := io.PollFirstKey(t, l, self); pollErr != nil {
			return r.abort(pollErr)
		} else if !ok {
			return state.KEYS_PENDING, "waiting on keys", nil
		}
		if _, err = machine.Update(state.KEYS_READY); err != nil {
			return r.abort(err)
		}
	}

	// masking
	if _, err = machine.Update(state.MASKED); err != nil {
		return r.abort(err)
	}

	// aggregation
	result, missing, err := aggregate.Compute(t, l, members,
		i.GetAggregateMode())
	if err != nil {
		return r.abort(err)
	}
	if missing != nil {
		return state.MASKED, fmt.Sprintf("waiting on masked records from %s",
			strings.Join(missing, ", ")), nil
	}
	if err = io.WriteAggregate(t, l, self, result); err != nil {
		return r.abort(err)
	}
	if _, err = machine.Update(state.AGGREGATED); err != nil {
		return r.abort(err)
	}

	return state.AGGREGATED, "aggregate complete", nil
}

// observe gathers the artifact-existence predicates the resume stage is
// inferred from. Existence checks only; content is validated by the stage
// that consumes it.
func (r *Runner) observe() state.Observation {
	t, l, self := r.instance.GetTransport(), r.instance.GetLayout(),
		r.instance.GetID()

	return state.Observation{
		HasRecord:    io.RecordExists(t, l, self),
		HasSecondKey: t.Exists(l.KeyPath(self, io.SecondKey)),
		HasFirstKey:  t.Exists(l.KeyPath(self, io.FirstKey)),
		HasMasked:    io.MaskedExists(t, l, self),
		HasAggregate: io.AggregateExists(t, l, self),
	}
}

// RunOnce wires a runner, machine and instance from the definition and
// executes one invocation pass.
func RunOnce(def *internal.Definition) (state.Stage, string, error) {
	r := NewRunner()
	machine := state.NewMachine(r.NewStateChanges())
	instance, err := internal.CreateInstance(def, machine)
	if err != nil {
		return state.ERROR, "", err
	}
	r.Bind(instance)
	return r.Run()
}

// abort records the failed invocation on the machine and bubbles the error
// unchanged. No artifact is written past the point of failure.
func (r *Runner) abort(err error) (state.Stage, string, error) {
	if r.instance != nil {
		if _, updateErr := r.instance.GetStateMachine().
			Update(state.ERROR); updateErr != nil {
			jww.WARN.Printf("Could not record error stage: %s", updateErr)
		}
	}
	return state.ERROR, "", err
}
