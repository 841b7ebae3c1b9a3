////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package io moves protocol artifacts across the shared, eventually
// consistent storage namespace that connects the ring members. All access
// goes through the narrow Transport interface; the production implementation
// is a synced filesystem and tests use an in-memory map.
//
// Every location has a single designated writer and is write-once from a
// reader's perspective, so no locking is layered on top of the transport.
package io

import (
	"github.com/pkg/errors"
)

// ErrNotFound indicates the requested location does not exist yet. Callers
// treat this as "not yet visible", not as a failure.
var ErrNotFound = errors.New("location does not exist")

// Permissions names the identities allowed to read and write a location.
type Permissions struct {
	Readers []string `yaml:"read"`
	Writers []string `yaml:"write"`
}

// Transport is the storage collaborator. Write creates parent structure as
// needed and is idempotent for identical content. SetPermissions must take
// effect before any subsequent Write to the same location becomes visible;
// the protocol relies on that ordering to never expose a secret to an
// unauthorized identity.
type Transport interface {
	Read(location string) ([]byte, error)
	Write(location string, data []byte) error
	Exists(location string) bool
	SetPermissions(location string, readers, writers []string) error
}
