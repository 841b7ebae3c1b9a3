////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package cmd initializes the CLI and config parsers as well as the logger.
package cmd

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	"github.com/snwagh/private-histogram/cmd/conf"
	"github.com/snwagh/private-histogram/internal"
	"github.com/snwagh/private-histogram/node"
)

var cfgFile string
var verbose bool
var validConfig bool
var showVer bool

// rootCmd represents the base command when called without any sub-commands.
// One invocation is one pass of the round: it advances as far as the synced
// artifacts allow and exits.
var rootCmd = &cobra.Command{
	Use:   "private-histogram",
	Short: "Runs one pass of the secure-sum ring protocol",
	Long: `private-histogram advances this participant's secure-sum round as
far as the currently synced artifacts allow, then exits. Invoke it
repeatedly (or use watch) until the aggregate is complete; no invocation
ever blocks on another participant.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if showVer {
			printVersion()
			return
		}
		def := buildDefinition()

		jww.INFO.Printf("-----------------------------")
		stage, status, err := node.RunOnce(def)
		jww.INFO.Printf("-----------------------------")
		if err != nil {
			jww.ERROR.Printf("Invocation aborted: %+v", err)
			os.Exit(1)
		}
		jww.INFO.Printf("Round stage %s: %s", stage, status)
		fmt.Printf("%s\n", status)
	},
}

// buildDefinition parses the validated config into an instance definition.
// Shared by the run, watch and generate commands.
func buildDefinition() *internal.Definition {
	if !validConfig {
		jww.FATAL.Panic("Invalid Config File")
	}
	params, err := conf.NewParams(viper.GetViper())
	if err != nil {
		jww.FATAL.Panicf("Unable to parse params: %+v", err)
	}
	def, err := params.ConvertToDefinition()
	if err != nil {
		jww.FATAL.Panicf("Unable to build definition: %+v", err)
	}
	return def
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen once
// to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		jww.ERROR.Printf("Exiting with error: %s", err.Error())
		os.Exit(1)
	}
}

// init is the initialization function for Cobra which defines commands
// and flags.
func init() {
	cobra.OnInitialize(initConfig, initLog)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "",
		"config file (default is $HOME/.private-histogram/node.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Verbose mode for debugging")
	rootCmd.Flags().BoolVarP(&showVer, "version", "V", false,
		"Show the version information.")

	err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup(
		"verbose"))
	handleBindingError(err, "verbose")
}

func handleBindingError(err error, flag string) {
	if err != nil {
		jww.FATAL.Panicf("Error on binding flag \"%s\":%+v", flag, err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	//Use default config location if none is passed
	if cfgFile == "" {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			jww.ERROR.Println(err)
			os.Exit(1)
		}

		cfgFile = home + "/.private-histogram/node.yaml"
	}

	validConfig = true
	f, err := os.Open(cfgFile)
	if err != nil {
		jww.ERROR.Printf("Invalid config file (%s): %s", cfgFile,
			err.Error())
		validConfig = false
		return
	}
	if err = f.Close(); err != nil {
		jww.ERROR.Printf("Could not close config file: %+v", err)
	}

	viper.SetConfigFile(cfgFile)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err = viper.ReadInConfig(); err != nil {
		jww.ERROR.Printf("Unable to read config file (%s): %s", cfgFile,
			err.Error())
		validConfig = false
	}
}

// initLog initializes logging thresholds and the log path.
func initLog() {
	// If verbose flag set then log more info for debugging
	if viper.GetBool("verbose") {
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetStdoutThreshold(jww.LevelDebug)
	} else {
		jww.SetLogThreshold(jww.LevelInfo)
		jww.SetStdoutThreshold(jww.LevelInfo)
	}

	if logPath := viper.GetString("paths.log"); logPath != "" {
		logFile, err := os.OpenFile(logPath,
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("Invalid or missing log path %s, default path "+
				"used.\n", logPath)
		} else {
			jww.SetLogOutput(logFile)
		}
	}
}
