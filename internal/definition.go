////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package internal

import (
	"github.com/snwagh/private-histogram/aggregate"
	"github.com/snwagh/private-histogram/io"
	"github.com/snwagh/private-histogram/ring"
)

// Flags holds input flags carried through to the instance.
type Flags struct {
	// Verbose enables debug-level logging.
	Verbose bool
}

// Definition describes everything an instance needs to participate in a
// round: who it is, where the shared namespace lives, how the ring is
// published, and the configured protocol variants. It is assembled in cmd
// from the parsed parameters.
type Definition struct {
	// Holds input flags
	Flags

	// The participant's identity in the ring
	ID string

	// Root of the synced storage namespace
	SyncRoot string

	// Path the node will store its log at
	LogPath string

	// Whether the aggregate holds sums or means
	AggregateMode aggregate.Mode

	// AutoGenerateRecord creates a synthetic private record on first
	// invocation instead of waiting for a user-provided one
	AutoGenerateRecord bool

	// The storage collaborator
	Transport io.Transport

	// The ring membership publisher
	RingFetcher ring.Fetcher
}
