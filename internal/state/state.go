////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package state holds the participant's round state machine. It defines what
// stages exist and which transitions are allowable, and infers the current
// stage from the externally observable artifacts alone. The inference is a
// pure function, so the machine can be exercised without any real transport.
//
// The orchestrator owns a table of stage change functions; the machine
// validates each requested transition against the transition map before
// running the corresponding change.
package state

import (
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// Stage is a participant's progress through one secure-sum round.
type Stage uint32

const (
	// NOT_STARTED is the machine's state before the first observation.
	NOT_STARTED Stage = iota
	// NO_RECORD means the private record does not exist yet.
	NO_RECORD
	// KEYS_PENDING means the record exists but the pairwise key exchange
	// has not completed.
	KEYS_PENDING
	// KEYS_READY means both masking keys are available and the masked
	// record has not been published.
	KEYS_READY
	// MASKED means the masked record is published and the aggregate has
	// not been computed.
	MASKED
	// AGGREGATED is the terminal stage for the round.
	AGGREGATED
	// ERROR means the invocation aborted.
	ERROR
	// NUM_STATES is the number of stages
	NUM_STATES
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case NOT_STARTED:
		return "NOT_STARTED"
	case NO_RECORD:
		return "NO_RECORD"
	case KEYS_PENDING:
		return "KEYS_PENDING"
	case KEYS_READY:
		return "KEYS_READY"
	case MASKED:
		return "MASKED"
	case AGGREGATED:
		return "AGGREGATED"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN STAGE"
	}
}

// Observation is the set of artifact-existence predicates the stage is
// derived from.
type Observation struct {
	HasRecord    bool
	HasSecondKey bool
	HasFirstKey  bool
	HasMasked    bool
	HasAggregate bool
}

// Infer derives the current stage from observed artifacts. Later artifacts
// dominate earlier ones: a published masked record implies the keys existed
// when it was produced, even if a key location were to vanish afterward.
func Infer(o Observation) Stage {
	switch {
	case o.HasAggregate:
		return AGGREGATED
	case o.HasMasked:
		return MASKED
	case o.HasFirstKey && o.HasSecondKey:
		return KEYS_READY
	case o.HasRecord:
		return KEYS_PENDING
	default:
		return NO_RECORD
	}
}

// Change performs the work of entering a stage. It must be idempotent: the
// machine may re-enter a stage on a later invocation after a restart.
type Change func(from Stage) error

// Machine validates and executes stage transitions.
type Machine struct {
	stage *Stage
	mux   *sync.RWMutex

	// work to run on entering each stage
	changeList [NUM_STATES]Change

	// holds valid state transitions
	stateMap [][]bool
}

// NewMachine builds the machine and sets the valid transitions.
func NewMachine(changeList [NUM_STATES]Change) Machine {
	start := NOT_STARTED

	m := Machine{
		stage:      &start,
		mux:        &sync.RWMutex{},
		changeList: changeList,
		stateMap:   make([][]bool, NUM_STATES),
	}
	for i := 0; i < int(NUM_STATES); i++ {
		m.stateMap[i] = make([]bool, NUM_STATES)
	}

	// a fresh invocation resumes at whatever stage the persisted
	// artifacts imply, so every stage is reachable from NOT_STARTED
	m.addStateTransition(NOT_STARTED, NO_RECORD, KEYS_PENDING, KEYS_READY,
		MASKED, AGGREGATED, ERROR)
	m.addStateTransition(NO_RECORD, KEYS_PENDING, ERROR)
	m.addStateTransition(KEYS_PENDING, KEYS_READY, ERROR)
	m.addStateTransition(KEYS_READY, MASKED, ERROR)
	m.addStateTransition(MASKED, AGGREGATED, ERROR)

	return m
}

func (m Machine) addStateTransition(from Stage, to ...Stage) {
	for _, t := range to {
		m.stateMap[from][t] = true
	}
}

// Update moves the machine to nextStage if the transition is valid, then
// runs the stage's change function. Returns false and an error when the
// transition is invalid or the change fails.
func (m Machine) Update(nextStage Stage) (bool, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if !m.stateMap[*m.stage][nextStage] {
		return false, errors.Errorf("not a valid state change from %s to %s",
			*m.stage, nextStage)
	}

	from := *m.stage
	*m.stage = nextStage
	jww.DEBUG.Printf("Updating stage from %s to %s", from, nextStage)

	if change := m.changeList[nextStage]; change != nil {
		if err := change(from); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Get returns the current stage under a read lock.
func (m Machine) Get() Stage {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return *m.stage
}
