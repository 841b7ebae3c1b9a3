////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/snwagh/private-histogram/io"
	"github.com/snwagh/private-histogram/record"
)

// generateCmd creates the private record ahead of the first round pass; of
// use when autoGenerateRecord is disabled and the operator wants synthetic
// data anyway. An existing record is never replaced.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Creates this participant's private record",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		def := buildDefinition()
		t, l := def.Transport, io.Layout{}

		if io.RecordExists(t, l, def.ID) {
			fmt.Printf("private record already exists\n")
			return
		}

		rec := record.Generate(rand.New(rand.NewSource(
			time.Now().UnixNano())))
		if err := io.WriteRecord(t, l, def.ID, rec); err != nil {
			jww.FATAL.Panicf("Unable to create private record: %+v", err)
		}
		fmt.Printf("private record created at %s\n", l.RecordPath(def.ID))
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
