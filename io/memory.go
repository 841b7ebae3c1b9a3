////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package io

import (
	"path"
	"sync"

	"github.com/pkg/errors"
)

// MemoryTransport implements Transport over an in-memory map. It stands in
// for the synced filesystem in tests, and doubles as the shared medium when
// several simulated participants run against the same instance.
type MemoryTransport struct {
	mux sync.Mutex

	files map[string][]byte
	perms map[string]Permissions

	// writes counts every Write that changed content, for idempotency
	// assertions
	writes int

	// FailWrites forces every Write to fail, for transport error paths
	FailWrites bool
}

// NewMemoryTransport creates an empty in-memory transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		files: make(map[string][]byte),
		perms: make(map[string]Permissions),
	}
}

// Read returns the stored content, or ErrNotFound.
func (t *MemoryTransport) Read(location string) ([]byte, error) {
	t.mux.Lock()
	defer t.mux.Unlock()

	data, ok := t.files[location]
	if !ok {
		return nil, errors.WithMessagef(ErrNotFound, "%s", location)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write stores content at location. Identical rewrites do not count as
// changes.
func (t *MemoryTransport) Write(location string, data []byte) error {
	t.mux.Lock()
	defer t.mux.Unlock()

	if t.FailWrites {
		return errors.Errorf("transport failure writing %s", location)
	}

	if existing, ok := t.files[location]; ok && string(existing) == string(data) {
		return nil
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	t.files[location] = stored
	t.writes++
	return nil
}

// Exists reports whether location holds content.
func (t *MemoryTransport) Exists(location string) bool {
	t.mux.Lock()
	defer t.mux.Unlock()

	_, ok := t.files[location]
	return ok
}

// SetPermissions records the access control list for location.
func (t *MemoryTransport) SetPermissions(location string, readers,
	writers []string) error {

	t.mux.Lock()
	defer t.mux.Unlock()

	t.perms[location] = Permissions{Readers: readers, Writers: writers}
	return nil
}

// GetPermissions returns the recorded access control list for location and
// whether one was ever set.
func (t *MemoryTransport) GetPermissions(location string) (Permissions, bool) {
	t.mux.Lock()
	defer t.mux.Unlock()

	p, ok := t.perms[location]
	return p, ok
}

// Writes returns the number of content-changing writes seen so far.
func (t *MemoryTransport) Writes() int {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.writes
}

// CanRead reports whether an identity may observe the content at location
// under the narrowest permission set on the location's enclosing
// directories. Locations with no recorded permissions are treated as open,
// matching the sync layer's default.
func (t *MemoryTransport) CanRead(identity, location string) bool {
	t.mux.Lock()
	defer t.mux.Unlock()

	for dir := path.Dir(location); dir != "." && dir != "/"; dir = path.Dir(dir) {
		p, ok := t.perms[dir]
		if !ok {
			continue
		}
		allowed := false
		for _, r := range p.Readers {
			if r == identity || r == "*" {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	return true
}
