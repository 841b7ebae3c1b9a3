////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package internal

// instance.go contains the logic for the internal.Instance object along with
// constructors and its methods

import (
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"

	"github.com/snwagh/private-histogram/aggregate"
	"github.com/snwagh/private-histogram/internal/state"
	"github.com/snwagh/private-histogram/io"
	"github.com/snwagh/private-histogram/ring"
)

// Instance holds a participant's state for the duration of one invocation.
type Instance struct {
	definition *Definition
	machine    state.Machine
	layout     io.Layout
}

// CreateInstance creates an instance from a definition and a state machine.
// The definition's scalar fields are snapshotted so later mutation by the
// caller cannot affect a running invocation; the transport and fetcher
// capabilities are shared by reference.
func CreateInstance(def *Definition, machine state.Machine) (*Instance, error) {
	if def == nil {
		return nil, errors.New("cannot create instance from nil definition")
	}
	if def.ID == "" {
		return nil, errors.New("instance requires a participant identity")
	}
	if def.Transport == nil {
		return nil, errors.New("instance requires a transport")
	}
	if def.RingFetcher == nil {
		return nil, errors.New("instance requires a ring fetcher")
	}

	snapshot := &Definition{}
	if err := copier.Copy(snapshot, def); err != nil {
		return nil, errors.WithMessage(err, "failed to snapshot definition")
	}
	snapshot.Transport = def.Transport
	snapshot.RingFetcher = def.RingFetcher

	return &Instance{
		definition: snapshot,
		machine:    machine,
		layout:     io.Layout{},
	}, nil
}

// GetID returns the participant identity.
func (i *Instance) GetID() string {
	return i.definition.ID
}

// GetTransport returns the storage collaborator.
func (i *Instance) GetTransport() io.Transport {
	return i.definition.Transport
}

// GetRingFetcher returns the ring membership publisher.
func (i *Instance) GetRingFetcher() ring.Fetcher {
	return i.definition.RingFetcher
}

// GetLayout returns the artifact layout.
func (i *Instance) GetLayout() io.Layout {
	return i.layout
}

// GetStateMachine returns the round state machine.
func (i *Instance) GetStateMachine() state.Machine {
	return i.machine
}

// GetAggregateMode returns the configured aggregation variant.
func (i *Instance) GetAggregateMode() aggregate.Mode {
	return i.definition.AggregateMode
}

// AutoGenerateRecord reports whether a missing private record should be
// generated instead of stalling the round.
func (i *Instance) AutoGenerateRecord() bool {
	return i.definition.AutoGenerateRecord
}

// String returns the instance's identity for logging.
func (i *Instance) String() string {
	return i.definition.ID
}
