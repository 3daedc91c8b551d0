package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netmimic/netmimic/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("netmimic %s\n", version.Info())
	},
}
