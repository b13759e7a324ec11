// Package commands implements the voxelsyncd CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "voxelsyncd",
	Short: "voxelsyncd synchronises voxel chunks between an authoritative world and its observers",
	Long: `voxelsyncd hosts a voxel world and streams chunks to connected observers
based on proximity, or connects to a remote instance as a streaming client.

Use "voxelsyncd [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the TOML configuration file (default: ./voxelsyncd.toml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(connectCmd)
}

func configFile() string {
	if cfgFile == "" {
		return "voxelsyncd.toml"
	}
	return cfgFile
}
