/*
Copyright (c) Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/suriview/suriview/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "suriview",
	Short: "Suricata rule browsing and transform service",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() {
		cobra.CheckErr(config.InitConfig(cfgFile))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
