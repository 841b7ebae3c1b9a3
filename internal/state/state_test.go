////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package state

import (
	"strings"
	"testing"
)

// expected state transitions to be used in tests. Should match the exact
// state transitions set in NewMachine.
var expectedStateMap = [][]bool{
	// NOT_STARTED NO_RECORD KEYS_PENDING KEYS_READY MASKED AGGREGATED ERROR
	{false, true, true, true, true, true, true},     // NOT_STARTED
	{false, false, true, false, false, false, true}, // NO_RECORD
	{false, false, false, true, false, false, true}, // KEYS_PENDING
	{false, false, false, false, true, false, true}, // KEYS_READY
	{false, false, false, false, false, true, true}, // MASKED
	{false, false, false, false, false, false, false}, // AGGREGATED
	{false, false, false, false, false, false, false}, // ERROR
}

var dummyChanges = [NUM_STATES]Change{}

// Tests that NewMachine produces a properly formed machine with the expected
// transition map.
func TestNewMachine(t *testing.T) {
	m := NewMachine(dummyChanges)

	if m.stage == nil {
		t.Errorf("Stage pointer should not be nil")
	}
	if *m.stage != NOT_STARTED {
		t.Errorf("Start stage should be %s, is %s", NOT_STARTED, *m.stage)
	}
	if m.mux == nil {
		t.Errorf("Stage mutex should exist")
	}

	for from := 0; from < int(NUM_STATES); from++ {
		for to := 0; to < int(NUM_STATES); to++ {
			if m.stateMap[from][to] != expectedStateMap[from][to] {
				t.Errorf("Transition %s -> %s: got %t, want %t",
					Stage(from), Stage(to), m.stateMap[from][to],
					expectedStateMap[from][to])
			}
		}
	}
}

// Tests that valid transitions succeed, run the change function with the
// correct source stage, and land on the requested stage.
func TestMachine_Update(t *testing.T) {
	var enteredFrom Stage
	changes := [NUM_STATES]Change{}
	changes[KEYS_PENDING] = func(from Stage) error {
		enteredFrom = from
		return nil
	}

	m := NewMachine(changes)

	ok, err := m.Update(KEYS_PENDING)
	if !ok || err != nil {
		t.Fatalf("Update(KEYS_PENDING) failed: %t, %+v", ok, err)
	}
	if m.Get() != KEYS_PENDING {
		t.Errorf("Stage after update: got %s, want %s", m.Get(), KEYS_PENDING)
	}
	if enteredFrom != NOT_STARTED {
		t.Errorf("Change ran with source %s, want %s", enteredFrom,
			NOT_STARTED)
	}
}

// Tests that invalid transitions are rejected and leave the stage untouched.
func TestMachine_Update_Invalid(t *testing.T) {
	m := NewMachine(dummyChanges)

	if _, err := m.Update(NOT_STARTED); err == nil {
		t.Errorf("Update to NOT_STARTED should be invalid")
	}

	if ok, err := m.Update(AGGREGATED); !ok || err != nil {
		t.Fatalf("Update(AGGREGATED) from NOT_STARTED should resume: %v", err)
	}
	if ok, _ := m.Update(NO_RECORD); ok {
		t.Errorf("AGGREGATED must be terminal")
	}
	if m.Get() != AGGREGATED {
		t.Errorf("Failed update must not move the stage: got %s", m.Get())
	}
}

// Tests that a failing change function surfaces its error.
func TestMachine_Update_ChangeError(t *testing.T) {
	changes := [NUM_STATES]Change{}
	changes[NO_RECORD] = func(from Stage) error {
		return &changeErr{}
	}

	m := NewMachine(changes)
	if ok, err := m.Update(NO_RECORD); ok || err == nil {
		t.Errorf("Update should propagate the change error, got: %t, %v",
			ok, err)
	}
}

type changeErr struct{}

func (e *changeErr) Error() string { return "change failed" }

// Tests the artifact->stage inference over all meaningful observations.
func TestInfer(t *testing.T) {
	tests := []struct {
		obs      Observation
		expected Stage
	}{
		{Observation{}, NO_RECORD},
		{Observation{HasRecord: true}, KEYS_PENDING},
		{Observation{HasRecord: true, HasSecondKey: true}, KEYS_PENDING},
		{Observation{HasRecord: true, HasSecondKey: true,
			HasFirstKey: true}, KEYS_READY},
		{Observation{HasRecord: true, HasSecondKey: true, HasFirstKey: true,
			HasMasked: true}, MASKED},
		{Observation{HasRecord: true, HasSecondKey: true, HasFirstKey: true,
			HasMasked: true, HasAggregate: true}, AGGREGATED},
		// aggregate presence dominates everything
		{Observation{HasAggregate: true}, AGGREGATED},
	}

	for i, tc := range tests {
		if got := Infer(tc.obs); got != tc.expected {
			t.Errorf("Case %d: Infer(%+v) = %s, want %s", i, tc.obs, got,
				tc.expected)
		}
	}
}

// Tests that every stage has a distinct, non-default name.
func TestStage_String(t *testing.T) {
	seen := make(map[string]struct{})
	for s := NOT_STARTED; s < NUM_STATES; s++ {
		name := s.String()
		if strings.Contains(name, "UNKNOWN") {
			t.Errorf("Stage %d has no name", s)
		}
		if _, ok := seen[name]; ok {
			t.Errorf("Duplicate stage name %s", name)
		}
		seen[name] = struct{}{}
	}
}
