////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

//go:generate go run gen.go
// The above generates: GITVERSION, DEPENDS, and SEMVER

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printVersion() {
	fmt.Printf("private-histogram v%s -- %s\n\n", SEMVER, GITVERSION)
	fmt.Printf("Dependencies:\n\n%s\n", DEPENDS)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of private-histogram",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
	},
}
