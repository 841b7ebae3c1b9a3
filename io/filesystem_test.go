////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package io

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pkg/errors"
)

// Happy path: write, exists, read round trip through nested directories.
func TestFileTransport(t *testing.T) {
	transport := NewFileTransport(t.TempDir())
	l := Layout{}
	path := l.MaskedPath("alice@example.com")

	if transport.Exists(path) {
		t.Errorf("Location should not exist before write")
	}
	if _, err := transport.Read(path); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound before write, got: %v", err)
	}

	content := []byte(`{"view_time": "12"}`)
	if err := transport.Write(path, content); err != nil {
		t.Fatalf("Write failed: %+v", err)
	}

	if !transport.Exists(path) {
		t.Errorf("Location should exist after write")
	}
	got, err := transport.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %+v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Read: got %q, want %q", got, content)
	}
}

// Identical rewrites must be accepted silently; the protocol retries sends
// with the same content across invocations.
func TestFileTransport_IdempotentWrite(t *testing.T) {
	transport := NewFileTransport(t.TempDir())
	path := Layout{}.KeyPath("bob@example.com", FirstKey)

	for i := 0; i < 3; i++ {
		if err := transport.Write(path, []byte("12345")); err != nil {
			t.Fatalf("Write %d failed: %+v", i, err)
		}
	}

	got, err := transport.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %+v", err)
	}
	if string(got) != "12345" {
		t.Errorf("Content corrupted by rewrite: got %q", got)
	}
}

// Tests that SetPermissions materializes a permission marker the sync layer
// will honor, and that it round-trips through yaml.
func TestFileTransport_SetPermissions(t *testing.T) {
	transport := NewFileTransport(t.TempDir())
	l := Layout{}
	dir := l.KeyDir("carol@example.com", FirstKey)

	readers := []string{"carol@example.com"}
	writers := []string{"bob@example.com"}
	if err := transport.SetPermissions(dir, readers, writers); err != nil {
		t.Fatalf("SetPermissions failed: %+v", err)
	}

	perms, err := transport.ReadPermissions(dir)
	if err != nil {
		t.Fatalf("ReadPermissions failed: %+v", err)
	}
	if !reflect.DeepEqual(perms.Readers, readers) ||
		!reflect.DeepEqual(perms.Writers, writers) {
		t.Errorf("Permissions did not round trip: got %+v", perms)
	}

	if _, err = transport.ReadPermissions("nobody@example.com/private"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unset permissions, got: %v", err)
	}
}

// Re-asserting unchanged permissions must not touch the marker file; every
// invocation re-narrows its key directories and the sync layer treats every
// touch as traffic.
func TestFileTransport_IdempotentSetPermissions(t *testing.T) {
	root := t.TempDir()
	transport := NewFileTransport(root)
	dir := Layout{}.KeyDir("dave@example.com", SecondKey)
	readers := []string{"dave@example.com"}

	if err := transport.SetPermissions(dir, readers, readers); err != nil {
		t.Fatalf("SetPermissions failed: %+v", err)
	}

	marker := filepath.Join(root, filepath.FromSlash(dir), permFileName)
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := os.Chtimes(marker, past, past); err != nil {
		t.Fatalf("Chtimes failed: %+v", err)
	}

	if err := transport.SetPermissions(dir, readers, readers); err != nil {
		t.Fatalf("Repeat SetPermissions failed: %+v", err)
	}
	info, err := os.Stat(marker)
	if err != nil {
		t.Fatalf("Stat failed: %+v", err)
	}
	if !info.ModTime().Equal(past) {
		t.Errorf("Identical permissions rewrote the marker")
	}

	if err = transport.SetPermissions(dir, []string{"*"}, readers); err != nil {
		t.Fatalf("Changed SetPermissions failed: %+v", err)
	}
	if info, err = os.Stat(marker); err != nil {
		t.Fatalf("Stat failed: %+v", err)
	}
	if info.ModTime().Equal(past) {
		t.Errorf("Changed permissions did not rewrite the marker")
	}
}
