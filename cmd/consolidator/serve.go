// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-consolidator/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the consolidation tools over MCP (stdio)",
	Long: `Serve runs a Model Context Protocol server on stdin/stdout exposing the
list_files, consolidate, open_folder and supported_formats tools. Logs go to
stderr and the log file; stdout carries only protocol messages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Progress lines would corrupt the protocol stream on stdout.
		svc := newService(loadConfig(), io.Discard)
		logger.Info("starting MCP server", "version", version)
		return mcpserver.Serve(mcpserver.New(svc, version))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
