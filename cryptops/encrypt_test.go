////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cryptops

import (
	"crypto/rand"
	mrand "math/rand"
	"strconv"
	"testing"

	"github.com/snwagh/private-histogram/record"
)

// Mask cancellation law: for rings of any size >= 3, the field-wise sum of
// the masked records equals the field-wise sum of the private records,
// regardless of the keys chosen, as long as each participant's second key is
// the next participant's first key.
func TestEncrypt_Cancellation(t *testing.T) {
	rng := mrand.New(mrand.NewSource(99))

	for _, n := range []int{3, 4, 7, 12} {
		// second key of participant i is first key of participant i+1
		secondKeys := make([]int64, n)
		for i := range secondKeys {
			k, err := GenerateKey(rand.Reader)
			if err != nil {
				t.Fatalf("GenerateKey failed: %+v", err)
			}
			secondKeys[i] = k
		}

		records := make([]record.Record, n)
		for i := range records {
			records[i] = record.Generate(rng)
		}

		maskedSum := make(map[string]int64)
		privateSum := make(map[string]int64)
		for i := 0; i < n; i++ {
			firstKey := secondKeys[(i-1+n)%n]
			masked, err := Encrypt(records[i], firstKey, secondKeys[i])
			if err != nil {
				t.Fatalf("Encrypt failed: %+v", err)
			}
			for field, v := range masked {
				parsed, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					t.Fatalf("Masked value not an integer: %+v", err)
				}
				maskedSum[field] += parsed
			}
			for field, v := range records[i] {
				privateSum[field] += v
			}
		}

		for _, field := range record.Fields() {
			if maskedSum[field] != privateSum[field] {
				t.Errorf("Masks did not cancel for ring size %d, field %s: "+
					"got %d, want %d", n, field, maskedSum[field],
					privateSum[field])
			}
		}
	}
}

// Tests that a single masked record does not equal the private record, i.e.
// the transform actually masks (a zero diff across all four fields would be
// an astronomically unlikely PRG fluke).
func TestEncrypt_Masks(t *testing.T) {
	r := record.Generate(mrand.New(mrand.NewSource(5)))

	masked, err := Encrypt(r, 1111, 2222)
	if err != nil {
		t.Fatalf("Encrypt failed: %+v", err)
	}

	unchanged := 0
	for field, v := range masked {
		if v == strconv.FormatInt(r[field], 10) {
			unchanged++
		}
	}
	if unchanged == len(masked) {
		t.Errorf("Masked record equals private record, nothing was masked")
	}
}

// Tests the KeysNotReady precondition on both key slots.
func TestEncrypt_KeysNotReady(t *testing.T) {
	r := record.Generate(mrand.New(mrand.NewSource(5)))

	if _, err := Encrypt(r, 0, 2222); err != ErrKeysNotReady {
		t.Errorf("Expected ErrKeysNotReady with missing first key, got: %v", err)
	}
	if _, err := Encrypt(r, 1111, 0); err != ErrKeysNotReady {
		t.Errorf("Expected ErrKeysNotReady with missing second key, got: %v", err)
	}
}

// Tests that an off-schema record is rejected before masking.
func TestEncrypt_BadRecord(t *testing.T) {
	if _, err := Encrypt(record.Record{"bogus": 1}, 1111, 2222); err == nil {
		t.Errorf("Encrypt should reject an off-schema record")
	}
}
