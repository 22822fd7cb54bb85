// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-consolidator/internal/source"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "Print the supported input file extensions",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(source.SupportedDisplay())
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
