// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-consolidator/internal/mcpserver"
)

var openCmd = &cobra.Command{
	Use:       "open input|output",
	Short:     "Open the input or output folder in the file manager",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{mcpserver.FolderInput, mcpserver.FolderOutput},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := newService(loadConfig(), nil).OpenFolder(args[0])
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
