////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package io

// artifacts.go reads and writes the per-round protocol artifacts: the
// private record, the published masked record, and the aggregate result.
// Each writer narrows permissions on the destination before the first write.

import (
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/snwagh/private-histogram/record"
)

// RecordExists reports whether the private record has been created.
func RecordExists(t Transport, l Layout, selfID string) bool {
	return t.Exists(l.RecordPath(selfID))
}

// WriteRecord persists the private record, readable by its owner only. The
// record is created once per round and never mutated, so an existing record
// is left untouched.
func WriteRecord(t Transport, l Layout, selfID string, r record.Record) error {
	path := l.RecordPath(selfID)
	if t.Exists(path) {
		jww.DEBUG.Printf("Private record already exists at %s", path)
		return nil
	}

	if err := t.SetPermissions(l.PrivateDir(selfID),
		[]string{selfID}, []string{selfID}); err != nil {
		return errors.WithMessage(err,
			"failed to restrict private directory")
	}

	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if err = t.Write(path, data); err != nil {
		return errors.WithMessage(err, "failed to write private record")
	}
	jww.INFO.Printf("Created private record at %s", path)
	return nil
}

// LoadRecord reads the private record back.
func LoadRecord(t Transport, l Layout, selfID string) (record.Record, error) {
	data, err := t.Read(l.RecordPath(selfID))
	if err != nil {
		return nil, errors.WithMessage(err,
			"failed to read private record")
	}
	return record.UnmarshalRecord(data)
}

// MaskedExists reports whether a participant's masked record is visible.
func MaskedExists(t Transport, l Layout, userID string) bool {
	return t.Exists(l.MaskedPath(userID))
}

// PublishMasked writes the masked record where every ring member can read
// it. Coarser access than the key slots: the masked values are safe to
// expose, that is the point of the masking.
func PublishMasked(t Transport, l Layout, selfID string, members []string,
	m record.Masked) error {

	if err := t.SetPermissions(l.PublicDir(selfID), members,
		[]string{selfID}); err != nil {
		return errors.WithMessage(err,
			"failed to open public directory to the ring")
	}

	data, err := m.Marshal()
	if err != nil {
		return err
	}
	path := l.MaskedPath(selfID)
	if err = t.Write(path, data); err != nil {
		return errors.WithMessage(err,
			"failed to publish masked record")
	}
	jww.INFO.Printf("Published masked record at %s", path)
	return nil
}

// ReadMasked reads a ring member's published masked record.
func ReadMasked(t Transport, l Layout, userID string) (record.Masked, error) {
	data, err := t.Read(l.MaskedPath(userID))
	if err != nil {
		return nil, err
	}
	return record.UnmarshalMasked(data)
}

// AggregateExists reports whether the local aggregate result was persisted,
// the terminal state of a round.
func AggregateExists(t Transport, l Layout, selfID string) bool {
	return t.Exists(l.AggregatePath(selfID))
}

// WriteAggregate persists the locally computed aggregate, readable by its
// owner only.
func WriteAggregate(t Transport, l Layout, selfID string,
	res record.Result) error {

	data, err := res.Marshal()
	if err != nil {
		return err
	}
	path := l.AggregatePath(selfID)
	if err = t.Write(path, data); err != nil {
		return errors.WithMessage(err,
			"failed to persist aggregate result")
	}
	jww.INFO.Printf("Persisted aggregate result at %s", path)
	return nil
}

// LoadAggregate reads the persisted aggregate result back.
func LoadAggregate(t Transport, l Layout, selfID string) (record.Result, error) {
	data, err := t.Read(l.AggregatePath(selfID))
	if err != nil {
		return nil, errors.WithMessage(err,
			"failed to read aggregate result")
	}
	return record.UnmarshalResult(data)
}
