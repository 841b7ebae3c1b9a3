////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package io

import "path"

// AppName is the protocol's namespace inside every participant's synced
// directory tree.
const AppName = "private-histogram"

// Key slots. A participant's second key is self-generated; its first key is
// deposited by the previous ring neighbor.
const (
	FirstKey  = "first"
	SecondKey = "second"
)

// Layout maps logical artifacts to locations in the shared namespace. Paths
// are slash-separated and relative to the sync root; the transport owns any
// translation to its own addressing.
//
// Per participant:
//
//	<user>/app_pipelines/private-histogram/first/key.txt    (written by prev)
//	<user>/app_pipelines/private-histogram/second/key.txt   (private)
//	<user>/private/my_data.json                             (private record)
//	<user>/private/private-histogram/aggregate_data.json    (private result)
//	<user>/public/private-histogram/encrypted_data.json     (world readable)
type Layout struct{}

// KeyDir returns the directory holding the given key slot, the unit at which
// key permissions are applied.
func (Layout) KeyDir(userID, slot string) string {
	return path.Join(userID, "app_pipelines", AppName, slot)
}

// KeyPath returns the location of the given key slot's value.
func (l Layout) KeyPath(userID, slot string) string {
	return path.Join(l.KeyDir(userID, slot), "key.txt")
}

// PrivateDir returns the participant-private directory.
func (Layout) PrivateDir(userID string) string {
	return path.Join(userID, "private")
}

// RecordPath returns the location of the private record.
func (l Layout) RecordPath(userID string) string {
	return path.Join(l.PrivateDir(userID), "my_data.json")
}

// AggregatePath returns the location of the locally-computed aggregate.
func (l Layout) AggregatePath(userID string) string {
	return path.Join(l.PrivateDir(userID), AppName, "aggregate_data.json")
}

// PublicDir returns the directory published to the whole ring.
func (Layout) PublicDir(userID string) string {
	return path.Join(userID, "public", AppName)
}

// MaskedPath returns the location of the published masked record.
func (l Layout) MaskedPath(userID string) string {
	return path.Join(l.PublicDir(userID), "encrypted_data.json")
}
