////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package ring resolves a participant's neighbors within the published ring
// membership and fetches that membership from its external publisher. The
// ring is externally mutable, so both operations run on every invocation and
// nothing here is cached.
package ring

import (
	"github.com/pkg/errors"
)

// ErrNotInRing indicates the local participant is absent from the published
// ring. This is a configuration error and fatal for the invocation.
var ErrNotInRing = errors.New("participant is not in the ring")

// MinimumSize is the smallest ring the protocol may run on. Below three
// members the pairwise masks become reversible and the privacy guarantee
// breaks.
const MinimumSize = 3

// Validate rejects rings that are too small to preserve privacy or that
// contain duplicate identities.
func Validate(members []string) error {
	if len(members) < MinimumSize {
		return errors.Errorf("ring of size %d is below the minimum of %d",
			len(members), MinimumSize)
	}
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, ok := seen[m]; ok {
			return errors.Errorf("ring contains duplicate identity %q", m)
		}
		seen[m] = struct{}{}
	}
	return nil
}

// ResolveNeighbors returns the previous and next neighbor of selfID in the
// ring, wrapping modulo the ring length. Pure function of its inputs; fails
// with ErrNotInRing when selfID is absent.
func ResolveNeighbors(members []string, selfID string) (prev, next string, err error) {
	index := -1
	for i, m := range members {
		if m == selfID {
			index = i
			break
		}
	}
	if index == -1 {
		return "", "", errors.WithMessagef(ErrNotInRing,
			"identity %q", selfID)
	}

	n := len(members)
	prev = members[(index-1+n)%n]
	next = members[(index+1)%n]
	return prev, next, nil
}
