////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package cryptops implements the cryptographic operations of the secure-sum
// protocol: masking key generation, the deterministic keyed PRG, and the
// record masking transform.
package cryptops

import (
	crand "crypto/rand"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

// StatisticalSecurity bounds every masking key and PRG output. Keys and masks
// are drawn from [1, StatisticalSecurity]; the aggregate cancellation law
// holds for any values in this range.
const StatisticalSecurity = 1 << 30

// GenerateKey draws a fresh masking key uniformly from
// [1, StatisticalSecurity]. Keys must be used with at most one record per
// round; reusing a key across rounds leaks relationships between the rounds'
// records.
func GenerateKey(rng io.Reader) (int64, error) {
	k, err := crand.Int(rng, big.NewInt(StatisticalSecurity))
	if err != nil {
		return 0, errors.WithMessage(err, "failed to generate masking key")
	}
	return k.Int64() + 1, nil
}
