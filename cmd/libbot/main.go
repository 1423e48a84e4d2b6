package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/libbotai/libbot/internal/version"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "libbot",
		Short: "WhatsApp knowledge-base assistant service",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe(configPath)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.GetInfo())
		},
	}

	rootCmd.AddCommand(serveCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
