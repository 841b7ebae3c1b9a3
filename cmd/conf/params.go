////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package conf parses the viper configuration into a Params object the
// participant instance is built from.
package conf

import (
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	"github.com/snwagh/private-histogram/aggregate"
	"github.com/snwagh/private-histogram/internal"
	"github.com/snwagh/private-histogram/io"
	"github.com/snwagh/private-histogram/ring"
)

// Contains the participant's file locations
type Paths struct {
	// Root of the synced directory tree
	SyncRoot string
	// Log file location; empty logs to stdout only
	Log string
	// Local ring membership document, used instead of Ring.URL when set
	Ring string
}

// This object is used by the participant instance.
// It should be constructed using a viper object
type Params struct {
	// Identity of this participant in the ring
	ID string

	Paths Paths

	// URL of the published ring membership document
	RingURL string

	// "sum" or "mean"
	Aggregation string

	// Create a synthetic private record when none exists
	AutoGenerateRecord bool

	Verbose bool
}

// NewParams gets elements of the viper object and updates the params
// object. It panics on missing required parameters, matching the fatal
// configuration-error policy: nothing is written before the config parses.
func NewParams(vip *viper.Viper) (*Params, error) {

	var require = func(s string, key string) {
		if s == "" {
			jww.FATAL.Panicf("%s must be set in params", key)
		}
	}

	params := Params{}

	params.ID = vip.GetString("id")
	require(params.ID, "id")

	params.Paths.SyncRoot = vip.GetString("paths.syncRoot")
	require(params.Paths.SyncRoot, "paths.syncRoot")

	params.Paths.Log = vip.GetString("paths.log")
	params.Paths.Ring = vip.GetString("ring.path")
	params.RingURL = vip.GetString("ring.url")
	if params.RingURL == "" && params.Paths.Ring == "" {
		jww.FATAL.Panicf("one of ring.url or ring.path must be set in params")
	}

	params.Aggregation = vip.GetString("aggregation")
	if _, err := aggregate.ParseMode(params.Aggregation); err != nil {
		return nil, err
	}

	// defaults to true, matching the reference deployment's bootstrap
	params.AutoGenerateRecord = true
	if vip.IsSet("autoGenerateRecord") {
		params.AutoGenerateRecord = vip.GetBool("autoGenerateRecord")
	}

	params.Verbose = vip.GetBool("verbose")

	return &params, nil
}

// ConvertToDefinition assembles the instance definition: the production
// transport rooted at the sync directory and the configured ring fetcher.
func (p *Params) ConvertToDefinition() (*internal.Definition, error) {
	mode, err := aggregate.ParseMode(p.Aggregation)
	if err != nil {
		return nil, err
	}

	var fetcher ring.Fetcher
	if p.Paths.Ring != "" {
		fetcher = &ring.FileFetcher{Path: p.Paths.Ring}
	} else {
		fetcher = ring.NewHTTPFetcher(p.RingURL)
	}

	return &internal.Definition{
		Flags:              internal.Flags{Verbose: p.Verbose},
		ID:                 p.ID,
		SyncRoot:           p.Paths.SyncRoot,
		LogPath:            p.Paths.Log,
		AggregateMode:      mode,
		AutoGenerateRecord: p.AutoGenerateRecord,
		Transport:          io.NewFileTransport(p.Paths.SyncRoot),
		RingFetcher:        fetcher,
	}, nil
}
