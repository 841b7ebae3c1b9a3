////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package ring

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// Fetcher supplies the current ring membership. It is injected wherever the
// ring is needed so tests can substitute a fixed membership.
type Fetcher interface {
	Fetch() ([]string, error)
}

// wire format of the published membership document
type ringData struct {
	Ring []string `json:"ring"`
}

// HTTPFetcher pulls the membership document from its published URL,
// retrying transient failures with exponential backoff within a single
// invocation.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with a bounded request timeout.
func NewHTTPFetcher(url string) *HTTPFetcher {
	return &HTTPFetcher{
		URL:    url,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch downloads and parses the ring membership.
func (f *HTTPFetcher) Fetch() ([]string, error) {
	var body []byte

	operation := func() error {
		resp, err := f.Client.Get(f.URL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return errors.Errorf("ring fetch returned status %d",
				resp.StatusCode)
		}
		body, err = ioutil.ReadAll(resp.Body)
		return err
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = 2 * time.Minute
	err := backoff.RetryNotify(operation, expBackoff,
		func(err error, wait time.Duration) {
			jww.WARN.Printf("Ring fetch from %s failed, retrying in %s: %s",
				f.URL, wait, err)
		})
	if err != nil {
		return nil, errors.WithMessagef(err,
			"failed to fetch ring membership from %s", f.URL)
	}

	return parseMembership(body)
}

// FileFetcher reads the membership document from a local path. Used when the
// publisher syncs the document to disk instead of serving it.
type FileFetcher struct {
	Path string
}

// Fetch reads and parses the ring membership file.
func (f *FileFetcher) Fetch() ([]string, error) {
	data, err := ioutil.ReadFile(f.Path)
	if err != nil {
		return nil, errors.WithMessagef(err,
			"failed to read ring membership file %s", f.Path)
	}
	return parseMembership(data)
}

// StaticFetcher returns a fixed membership. Test double and escape hatch for
// hand-configured rings.
type StaticFetcher []string

// Fetch returns the configured membership.
func (f StaticFetcher) Fetch() ([]string, error) {
	return f, nil
}

func parseMembership(data []byte) ([]string, error) {
	var doc ringData
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WithMessage(err,
			"failed to parse ring membership document")
	}
	if doc.Ring == nil {
		return nil, errors.New("ring membership document has no ring entry")
	}
	return doc.Ring, nil
}
