// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the casda-mosaic CLI: it retrieves
// sky-region cutouts from the CASDA archive and combines them into a
// single mosaic with linmos.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the casda-mosaic CLI.
var rootCmd = &cobra.Command{
	Use:   "casda-mosaic",
	Short: "Retrieve CASDA cutouts and mosaic them with linmos",
	Long: `casda-mosaic resolves a sky position and spectral range to archived
observations, requests server-side cutouts, waits for them to be staged,
downloads them, and combines them into a single mosaic image and weight map.

Each stage is also available as its own subcommand: query lists candidate
observations, fetch stages and downloads cutouts, and mosaic assembles and
runs linmos on already-downloaded cutouts. run executes the full pipeline.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./casda-mosaic.yaml or ~/.config/casda-mosaic/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("casda-mosaic")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "casda-mosaic"))
		}
	}

	viper.SetEnvPrefix("CASDA_MOSAIC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
