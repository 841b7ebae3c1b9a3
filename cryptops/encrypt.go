////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cryptops

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/snwagh/private-histogram/record"
)

// ErrKeysNotReady indicates the masking transform was invoked before both
// masking keys were established. The orchestrator guards against this state;
// reaching it is a precondition violation.
var ErrKeysNotReady = errors.New("masking keys are not ready")

// Encrypt masks a private record field by field. Each output value is
// value + Mask(firstKey, field) - Mask(secondKey, field); summed over the
// full ring the two PRG terms telescope and cancel, because this
// participant's second key is deposited as the next neighbor's first key.
// Fields are processed in canonical order so the output is independent of
// map iteration.
func Encrypt(r record.Record, firstKey, secondKey int64) (record.Masked, error) {
	if firstKey == 0 || secondKey == 0 {
		return nil, ErrKeysNotReady
	}
	if err := record.Validate(r); err != nil {
		return nil, errors.WithMessage(err, "cannot mask off-schema record")
	}

	masked := make(record.Masked, len(r))
	for _, field := range r.FieldNames() {
		diff := Mask(firstKey, field) - Mask(secondKey, field)
		masked[field] = strconv.FormatInt(r[field]+diff, 10)
	}
	return masked, nil
}
