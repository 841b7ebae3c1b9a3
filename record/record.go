////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package record defines the fixed four-counter private record each ring
// participant contributes to the secure sum, along with its published masked
// form and the aggregate result derived from the full ring.
package record

import (
	"encoding/json"
	"math/rand"
	"sort"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// The record schema is fixed for the life of a round. Every participant must
// contribute exactly these fields; the aggregate carries the same names.
const (
	ViewTime           = "view_time"
	AverageViewsPerDay = "average_views_per_day"
	NumMoviesWatched   = "num_movies_watched"
	NumMoviesRated     = "num_movies_rated"
)

// generation bounds for synthetic records, inclusive on both ends
var generators = map[string][2]int64{
	ViewTime:           {10, 20},
	AverageViewsPerDay: {1, 5},
	NumMoviesWatched:   {5, 10},
	NumMoviesRated:     {0, 5},
}

// Record is a participant's private record. It is created once per round and
// never mutated afterward; only the masking transform reads it.
type Record map[string]int64

// Masked is the published form of a Record. Values are serialized as decimal
// strings to match the wire format consumed by the other ring members.
type Masked map[string]string

// Result maps each schema field to the ring-wide sum or mean.
type Result map[string]float64

// Fields returns the schema field names in canonical (sorted) order.
func Fields() []string {
	fields := make([]string, 0, len(generators))
	for f := range generators {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Generate creates a fresh record with each field drawn uniformly from its
// schema range.
func Generate(rng *rand.Rand) Record {
	r := make(Record, len(generators))
	for field, bounds := range generators {
		r[field] = bounds[0] + rng.Int63n(bounds[1]-bounds[0]+1)
	}
	return r
}

// Validate checks that r carries exactly the schema fields, no more, no less.
func Validate(r Record) error {
	if len(r) != len(generators) {
		return errors.Errorf("record has %d fields, schema has %d",
			len(r), len(generators))
	}
	for field := range generators {
		if _, ok := r[field]; !ok {
			return errors.Errorf("record is missing field %q", field)
		}
	}
	return nil
}

// Copy returns a deep copy of the record so callers cannot alias the
// original's storage.
func (r Record) Copy() Record {
	c := make(Record, len(r))
	if err := copier.Copy(&c, &r); err != nil {
		// copying a map of primitives cannot fail
		panic(err)
	}
	return c
}

// FieldNames returns the record's field names sorted by name. Iteration in
// this order keeps every derived artifact independent of map ordering.
func (r Record) FieldNames() []string {
	fields := make([]string, 0, len(r))
	for f := range r {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Marshal serializes the record for persistence.
func (r Record) Marshal() ([]byte, error) {
	b, err := json.Marshal(r)
	return b, errors.WithMessage(err, "failed to marshal record")
}

// UnmarshalRecord parses a persisted record and validates it against the
// schema.
func UnmarshalRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.WithMessage(err, "failed to parse record")
	}
	if err := Validate(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Marshal serializes the masked record for publication.
func (m Masked) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	return b, errors.WithMessage(err, "failed to marshal masked record")
}

// UnmarshalMasked parses a ring member's published masked record.
func UnmarshalMasked(data []byte) (Masked, error) {
	var m Masked
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.WithMessage(err, "failed to parse masked record")
	}
	return m, nil
}

// Marshal serializes the aggregate result for persistence.
func (res Result) Marshal() ([]byte, error) {
	b, err := json.Marshal(res)
	return b, errors.WithMessage(err, "failed to marshal aggregate result")
}

// UnmarshalResult parses a persisted aggregate result.
func UnmarshalResult(data []byte) (Result, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.WithMessage(err, "failed to parse aggregate result")
	}
	return res, nil
}
