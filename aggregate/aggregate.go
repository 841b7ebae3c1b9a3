////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package aggregate reconstructs the ring-wide sum from the published masked
// records. Summed over the full ring every masking key appears exactly twice
// with opposite sign, once subtracted by its generator and once added by the
// next neighbor, so the masks cancel and the true sum remains.
package aggregate

import (
	"strconv"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/snwagh/private-histogram/io"
	"github.com/snwagh/private-histogram/record"
)

// Mode selects what the persisted aggregate holds.
type Mode uint8

const (
	// Sum persists the raw field-wise sums.
	Sum Mode = iota
	// Mean persists the sums divided by the current ring size.
	Mean
)

// String returns the mode's configuration name.
func (m Mode) String() string {
	switch m {
	case Sum:
		return "sum"
	case Mean:
		return "mean"
	default:
		return "unknown"
	}
}

// ParseMode maps a configuration string to a Mode, defaulting to Mean which
// matches the published reference deployment.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "sum":
		return Sum, nil
	case "mean", "":
		return Mean, nil
	default:
		return Mean, errors.Errorf("unknown aggregation mode %q", s)
	}
}

// Compute attempts the aggregation across the given ring membership. If any
// member's masked record is not yet visible the missing identities are
// returned with a nil result; that is the Pending signal, not an error, and
// the caller retries on a later invocation. With all records present it
// returns the exact field-wise aggregate. Pure given the visible artifacts,
// so recomputation is idempotent.
func Compute(t io.Transport, l io.Layout, members []string,
	mode Mode) (record.Result, []string, error) {

	var missing []string
	masked := make([]record.Masked, 0, len(members))
	for _, member := range members {
		if !io.MaskedExists(t, l, member) {
			missing = append(missing, member)
			continue
		}
		m, err := io.ReadMasked(t, l, member)
		if err != nil {
			return nil, nil, errors.WithMessagef(err,
				"failed to read masked record of %s", member)
		}
		masked = append(masked, m)
	}
	if len(missing) > 0 {
		jww.DEBUG.Printf("Aggregation pending, %d of %d masked records "+
			"visible", len(masked), len(members))
		return nil, missing, nil
	}

	sums := make(map[string]int64, len(record.Fields()))
	for _, field := range record.Fields() {
		sums[field] = 0
	}
	for _, m := range masked {
		for field, value := range m {
			if _, ok := sums[field]; !ok {
				return nil, nil, errors.Errorf(
					"masked record contains unknown field %q", field)
			}
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, nil, errors.WithMessagef(err,
					"corrupt masked value for field %q", field)
			}
			sums[field] += parsed
		}
	}

	// mean uses the current ring size, never a cached one
	result := make(record.Result, len(sums))
	for field, total := range sums {
		switch mode {
		case Mean:
			result[field] = float64(total) / float64(len(members))
		default:
			result[field] = float64(total)
		}
	}
	return result, nil, nil
}
