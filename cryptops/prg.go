////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cryptops

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// prgDomain separates this PRG from any other use of blake2b in the system.
// Changing it invalidates every published masked record, so it is versioned.
const prgDomain = "private-histogram/prg/v1"

// Mask is the deterministic keyed PRG. It maps (key, field) to a value in
// [1, StatisticalSecurity], identically across processes and restarts. The
// key is the blake2b MAC key; the field name and domain tag form the message,
// so outputs for different fields cannot be related without the key.
func Mask(key int64, field string) int64 {
	var keyBytes [8]byte
	binary.BigEndian.PutUint64(keyBytes[:], uint64(key))

	h, err := blake2b.New256(keyBytes[:])
	if err != nil {
		// only reachable with a key longer than 64 bytes
		panic(err)
	}
	h.Write([]byte(prgDomain))
	h.Write([]byte{0})
	h.Write([]byte(field))

	digest := h.Sum(nil)
	v := binary.BigEndian.Uint64(digest[:8])
	return int64(v%StatisticalSecurity) + 1
}
