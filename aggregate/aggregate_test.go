////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package aggregate

import (
	"crypto/rand"
	"math"
	"reflect"
	"testing"

	"github.com/snwagh/private-histogram/cryptops"
	"github.com/snwagh/private-histogram/io"
	"github.com/snwagh/private-histogram/record"
)

var members = []string{"alice@example.com", "bob@example.com",
	"carol@example.com"}

// publishRing masks and publishes the given records using a properly
// exchanged set of keys, and returns the field-wise private sums.
func publishRing(t *testing.T, transport io.Transport,
	records []record.Record) map[string]int64 {

	l := io.Layout{}
	n := len(records)

	secondKeys := make([]int64, n)
	for i := range secondKeys {
		k, err := cryptops.GenerateKey(rand.Reader)
		if err != nil {
			t.Fatalf("GenerateKey failed: %+v", err)
		}
		secondKeys[i] = k
	}

	sums := make(map[string]int64)
	for i, r := range records {
		firstKey := secondKeys[(i-1+n)%n]
		masked, err := cryptops.Encrypt(r, firstKey, secondKeys[i])
		if err != nil {
			t.Fatalf("Encrypt failed: %+v", err)
		}
		if err = io.PublishMasked(transport, l, members[i], members,
			masked); err != nil {
			t.Fatalf("PublishMasked failed: %+v", err)
		}
		for field, v := range r {
			sums[field] += v
		}
	}
	return sums
}

func fullRecords(viewTimes []int64) []record.Record {
	records := make([]record.Record, len(viewTimes))
	for i, vt := range viewTimes {
		records[i] = record.Record{
			record.ViewTime:           vt,
			record.AverageViewsPerDay: int64(i + 1),
			record.NumMoviesWatched:   int64(5 + i),
			record.NumMoviesRated:     int64(i),
		}
	}
	return records
}

// Concrete three-participant scenario: view times 10, 15 and 12 must
// aggregate to 37 (sum) and 12.33... (mean), whatever keys were drawn.
func TestCompute(t *testing.T) {
	transport := io.NewMemoryTransport()
	sums := publishRing(t, transport, fullRecords([]int64{10, 15, 12}))

	result, missing, err := Compute(transport, io.Layout{}, members, Sum)
	if err != nil {
		t.Fatalf("Compute failed: %+v", err)
	}
	if missing != nil {
		t.Fatalf("Compute reported pending with all records present: %v",
			missing)
	}

	if result[record.ViewTime] != 37 {
		t.Errorf("view_time sum: got %v, want 37", result[record.ViewTime])
	}
	for field, want := range sums {
		if result[field] != float64(want) {
			t.Errorf("Field %s: got %v, want %d", field, result[field], want)
		}
	}

	mean, _, err := Compute(transport, io.Layout{}, members, Mean)
	if err != nil {
		t.Fatalf("Compute (mean) failed: %+v", err)
	}
	if math.Abs(mean[record.ViewTime]-37.0/3.0) > 1e-9 {
		t.Errorf("view_time mean: got %v, want %v", mean[record.ViewTime],
			37.0/3.0)
	}
}

// Aggregation with any masked record absent returns Pending naming the
// stragglers, not an error.
func TestCompute_Pending(t *testing.T) {
	transport := io.NewMemoryTransport()
	l := io.Layout{}
	records := fullRecords([]int64{10, 15, 12})

	// publish only alice and carol
	secondKeys := []int64{101, 202, 303}
	for _, i := range []int{0, 2} {
		masked, err := cryptops.Encrypt(records[i],
			secondKeys[(i+2)%3], secondKeys[i])
		if err != nil {
			t.Fatalf("Encrypt failed: %+v", err)
		}
		if err = io.PublishMasked(transport, l, members[i], members,
			masked); err != nil {
			t.Fatalf("PublishMasked failed: %+v", err)
		}
	}

	result, missing, err := Compute(transport, l, members, Sum)
	if err != nil {
		t.Fatalf("Compute failed: %+v", err)
	}
	if result != nil {
		t.Errorf("Compute should not produce a result while pending")
	}
	if !reflect.DeepEqual(missing, []string{"bob@example.com"}) {
		t.Errorf("Missing list: got %v, want [bob@example.com]", missing)
	}
}

// Recomputing over the same visible artifacts must give the same result.
func TestCompute_Idempotent(t *testing.T) {
	transport := io.NewMemoryTransport()
	publishRing(t, transport, fullRecords([]int64{11, 13, 17}))

	first, _, err := Compute(transport, io.Layout{}, members, Mean)
	if err != nil {
		t.Fatalf("Compute failed: %+v", err)
	}
	second, _, err := Compute(transport, io.Layout{}, members, Mean)
	if err != nil {
		t.Fatalf("Second compute failed: %+v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Recomputation changed the result: %v then %v", first,
			second)
	}
}

// Tests mode parsing, including the default and rejection of junk.
func TestParseMode(t *testing.T) {
	if m, err := ParseMode("sum"); err != nil || m != Sum {
		t.Errorf("ParseMode(sum): got (%s, %v)", m, err)
	}
	if m, err := ParseMode("mean"); err != nil || m != Mean {
		t.Errorf("ParseMode(mean): got (%s, %v)", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != Mean {
		t.Errorf("ParseMode default: got (%s, %v)", m, err)
	}
	if _, err := ParseMode("median"); err == nil {
		t.Errorf("ParseMode should reject unknown modes")
	}
}
