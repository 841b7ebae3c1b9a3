////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package io

// keyExchange.go implements the pairwise key exchange with the ring
// neighbors. Each participant generates one secret (its second key) and
// deposits the same value in the next neighbor's first-key slot; the
// previous neighbor does the equivalent in the other direction. The exchange
// is complete once the neighbor's deposit is observed locally.

import (
	stdio "io"
	"strconv"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/snwagh/private-histogram/cryptops"
)

// ExchangeState is the key exchange progress of the local participant.
type ExchangeState uint8

const (
	// NoKeys means the second key has not been generated yet.
	NoKeys ExchangeState = iota
	// SecondKeyReady means the second key exists and was sent downstream,
	// but the previous neighbor's deposit has not arrived.
	SecondKeyReady
	// KeysComplete means both keys are available locally.
	KeysComplete
)

// String returns a human-readable exchange state.
func (s ExchangeState) String() string {
	switch s {
	case NoKeys:
		return "NO_KEYS"
	case SecondKeyReady:
		return "SECOND_KEY_READY"
	case KeysComplete:
		return "KEYS_COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// SetupKeyPermissions narrows access on both key locations: the next
// neighbor's first-key slot becomes readable by the neighbor alone (written
// by us), and the local second-key slot becomes private. This must run
// before any secret is written; the transport guarantees the narrowed
// permissions take effect first.
func SetupKeyPermissions(t Transport, l Layout, selfID, nextID string) error {
	if err := t.SetPermissions(l.KeyDir(nextID, FirstKey),
		[]string{nextID}, []string{selfID}); err != nil {
		return errors.WithMessage(err,
			"failed to restrict next neighbor's first-key slot")
	}

	if err := t.SetPermissions(l.KeyDir(selfID, SecondKey),
		[]string{selfID}, []string{selfID}); err != nil {
		return errors.WithMessage(err,
			"failed to restrict local second-key slot")
	}
	return nil
}

// TransmitSecondKey ensures the local second key exists and that the same
// value sits in the next neighbor's first-key slot. A persisted second key
// is never regenerated; regenerating would silently invalidate the value the
// neighbor already received. The downstream write is retried with the same
// value on every invocation until it sticks, which the transport's
// idempotent writes make safe.
func TransmitSecondKey(t Transport, l Layout, selfID, nextID string,
	rng stdio.Reader) error {

	if err := SetupKeyPermissions(t, l, selfID, nextID); err != nil {
		return err
	}

	secondPath := l.KeyPath(selfID, SecondKey)

	var secret int64
	if t.Exists(secondPath) {
		existing, err := readKey(t, secondPath)
		if err != nil {
			return err
		}
		secret = existing
	} else {
		generated, err := cryptops.GenerateKey(rng)
		if err != nil {
			return err
		}
		if err = writeKey(t, secondPath, generated); err != nil {
			return errors.WithMessage(err,
				"failed to persist second key")
		}
		jww.INFO.Printf("Generated second key at %s", secondPath)
		secret = generated
	}

	firstPath := l.KeyPath(nextID, FirstKey)
	if err := writeKey(t, firstPath, secret); err != nil {
		return errors.WithMessagef(err,
			"failed to send key to next neighbor %s", nextID)
	}
	jww.INFO.Printf("Sent second key to %s", firstPath)
	return nil
}

// PollFirstKey checks for the previous neighbor's deposit. Absence is not an
// error, it just means the neighbor has not advanced yet.
func PollFirstKey(t Transport, l Layout, selfID string) (int64, bool, error) {
	firstPath := l.KeyPath(selfID, FirstKey)
	if !t.Exists(firstPath) {
		return 0, false, nil
	}
	key, err := readKey(t, firstPath)
	if err != nil {
		return 0, false, err
	}
	return key, true, nil
}

// LoadKeys returns both masking keys and the exchange state they imply.
func LoadKeys(t Transport, l Layout, selfID string) (first, second int64,
	state ExchangeState, err error) {

	secondPath := l.KeyPath(selfID, SecondKey)
	if !t.Exists(secondPath) {
		return 0, 0, NoKeys, nil
	}
	if second, err = readKey(t, secondPath); err != nil {
		return 0, 0, NoKeys, err
	}

	var ok bool
	if first, ok, err = PollFirstKey(t, l, selfID); err != nil {
		return 0, 0, SecondKeyReady, err
	} else if !ok {
		return 0, second, SecondKeyReady, nil
	}

	return first, second, KeysComplete, nil
}

func readKey(t Transport, location string) (int64, error) {
	data, err := t.Read(location)
	if err != nil {
		return 0, err
	}
	key, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, errors.WithMessagef(err,
			"corrupt key material at %s", location)
	}
	if key < 1 || key > cryptops.StatisticalSecurity {
		return 0, errors.Errorf("key at %s out of range: %d", location, key)
	}
	return key, nil
}

func writeKey(t Transport, location string, key int64) error {
	return t.Write(location, []byte(strconv.FormatInt(key, 10)))
}
