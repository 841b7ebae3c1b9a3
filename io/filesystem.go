////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package io

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gopkg.in/yaml.v2"
)

// permFileName is the marker file the sync layer interprets as the access
// control list for its directory.
const permFileName = "_.syftperm"

// FileTransport implements Transport over a locally synced directory tree.
// The external sync layer replicates written files to the participants named
// in the enclosing directory's permission file.
type FileTransport struct {
	Root string
}

// NewFileTransport creates a FileTransport rooted at the sync directory.
func NewFileTransport(root string) *FileTransport {
	return &FileTransport{Root: root}
}

func (t *FileTransport) resolve(location string) string {
	return filepath.Join(t.Root, filepath.FromSlash(location))
}

// Read returns the contents at location, or ErrNotFound if it has not been
// synced into existence yet.
func (t *FileTransport) Read(location string) ([]byte, error) {
	data, err := ioutil.ReadFile(t.resolve(location))
	if os.IsNotExist(err) {
		return nil, errors.WithMessagef(ErrNotFound, "%s", location)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to read %s", location)
	}
	return data, nil
}

// Write stores data at location, creating parent directories as needed.
// Rewriting identical content is a no-op so retried invocations do not
// generate spurious sync traffic.
func (t *FileTransport) Write(location string, data []byte) error {
	full := t.resolve(location)

	if existing, err := ioutil.ReadFile(full); err == nil &&
		bytes.Equal(existing, data) {
		jww.DEBUG.Printf("Skipping identical write to %s", location)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(full), 0700); err != nil {
		return errors.WithMessagef(err,
			"failed to create parent directories for %s", location)
	}
	if err := ioutil.WriteFile(full, data, 0600); err != nil {
		return errors.WithMessagef(err, "failed to write %s", location)
	}
	return nil
}

// Exists reports whether location has been synced into existence.
func (t *FileTransport) Exists(location string) bool {
	_, err := os.Stat(t.resolve(location))
	return err == nil
}

// SetPermissions writes the access control marker for the directory at
// location. The sync layer honors the marker before replicating any file
// subsequently written into the directory, which is what lets a secret be
// scoped to its reader before it exists. Re-asserting an unchanged marker
// is a no-op, same as Write.
func (t *FileTransport) SetPermissions(location string, readers,
	writers []string) error {

	data, err := yaml.Marshal(Permissions{Readers: readers, Writers: writers})
	if err != nil {
		return errors.WithMessagef(err,
			"failed to marshal permissions for %s", location)
	}

	full := t.resolve(location)
	marker := filepath.Join(full, permFileName)
	if existing, readErr := ioutil.ReadFile(marker); readErr == nil &&
		bytes.Equal(existing, data) {
		jww.DEBUG.Printf("Skipping identical permissions for %s", location)
		return nil
	}

	if err = os.MkdirAll(full, 0700); err != nil {
		return errors.WithMessagef(err,
			"failed to create directory %s", location)
	}
	if err = ioutil.WriteFile(marker, data, 0600); err != nil {
		return errors.WithMessagef(err,
			"failed to write permissions for %s", location)
	}
	return nil
}

// ReadPermissions loads the access control marker for the directory at
// location. Exposed for tests and diagnostics.
func (t *FileTransport) ReadPermissions(location string) (*Permissions, error) {
	data, err := ioutil.ReadFile(filepath.Join(t.resolve(location),
		permFileName))
	if os.IsNotExist(err) {
		return nil, errors.WithMessagef(ErrNotFound, "%s", location)
	}
	if err != nil {
		return nil, errors.WithMessagef(err,
			"failed to read permissions for %s", location)
	}

	perms := &Permissions{}
	if err = yaml.Unmarshal(data, perms); err != nil {
		return nil, errors.WithMessagef(err,
			"failed to parse permissions for %s", location)
	}
	return perms, nil
}
