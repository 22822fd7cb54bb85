// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mcpserver exposes consolidation as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pdiddy/pdf-consolidator/internal/consolidate"
	"github.com/pdiddy/pdf-consolidator/internal/naming"
	"github.com/pdiddy/pdf-consolidator/internal/source"
	"github.com/pdiddy/pdf-consolidator/pkg/types"
)

const serverName = "pdf-consolidator"

// Tool argument keys, shared between schemas and handlers.
const (
	argID            = "id"
	argClient        = "client"
	argReimbursement = "reimbursement"
	argWhich         = "which"
)

// Folder names accepted by open_folder.
const (
	FolderInput  = "input"
	FolderOutput = "output"
)

// Service is the application surface the tools call into.
type Service interface {
	ListFiles() ([]types.SourceFile, error)
	Consolidate(ctx context.Context, ids naming.Identifiers) (consolidate.Outcome, error)
	OpenFolder(which string) (string, error)
}

// New returns an MCP server with every tool registered.
func New(svc Service, version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))
	Register(s, svc)
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// Register binds the tool definitions to their handlers.
func Register(s *server.MCPServer, svc Service) {
	h := &handlers{svc: svc}

	s.AddTool(
		mcp.NewTool("list_files",
			mcp.WithDescription("List the documents waiting in the input folder, in the order their pages will be merged."),
		),
		h.listFiles,
	)

	s.AddTool(
		mcp.NewTool("consolidate",
			mcp.WithDescription("Convert every document in the input folder to PDF and merge them into one file "+
				"named <id>_<client>_<reimbursement>.pdf in the output folder. Files that fail to convert are "+
				"left out and reported. The input folder is cleared after a successful run."),
			mcp.WithString(argID, mcp.Required(), mcp.Description("Identification number")),
			mcp.WithString(argClient, mcp.Required(), mcp.Description("Client name")),
			mcp.WithString(argReimbursement, mcp.Required(), mcp.Description("Reimbursement number")),
		),
		h.consolidate,
	)

	s.AddTool(
		mcp.NewTool("open_folder",
			mcp.WithDescription("Open the input or output folder in the desktop file manager."),
			mcp.WithString(argWhich,
				mcp.Required(),
				mcp.Description("Folder to open: input or output"),
				mcp.Enum(FolderInput, FolderOutput),
			),
		),
		h.openFolder,
	)

	s.AddTool(
		mcp.NewTool("supported_formats",
			mcp.WithDescription("Return the file extensions accepted in the input folder."),
		),
		h.supportedFormats,
	)
}

type handlers struct {
	svc Service
}

type fileEntry struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

func (h *handlers) listFiles(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := h.svc.ListFiles()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries := make([]fileEntry, len(files))
	for i, f := range files {
		entries[i] = fileEntry{Name: f.Name, Format: f.Format.String(), Size: f.Size}
	}
	return jsonResult(entries)
}

type failureEntry struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type consolidateResult struct {
	consolidate.Outcome
	Failures []failureEntry `json:"failures,omitempty"`
	Warning  string         `json:"warning,omitempty"`
}

func (h *handlers) consolidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := naming.Identifiers{
		ID:            stringArg(req, argID),
		Client:        stringArg(req, argClient),
		Reimbursement: stringArg(req, argReimbursement),
	}
	out, err := h.svc.Consolidate(ctx, ids)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v\n%s", err, consolidate.Remediation(err))), nil
	}

	res := consolidateResult{Outcome: out}
	for _, f := range out.Failures {
		res.Failures = append(res.Failures, failureEntry{File: f.Source.Name, Error: f.Err.Error()})
	}
	for _, s := range out.Skipped {
		res.Failures = append(res.Failures, failureEntry{File: filepath.Base(s.Path), Error: s.Err.Error()})
	}
	if out.CleanupWarning != nil {
		res.Warning = out.CleanupWarning.Error()
	}
	return jsonResult(res)
}

func (h *handlers) openFolder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	which := strings.ToLower(stringArg(req, argWhich))
	if which != FolderInput && which != FolderOutput {
		return mcp.NewToolResultError(argWhich + " must be input or output"), nil
	}
	path, err := h.svc.OpenFolder(which)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(path), nil
}

func (h *handlers) supportedFormats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(source.SupportedDisplay()), nil
}

func stringArg(req mcp.CallToolRequest, key string) string {
	s, _ := req.Params.Arguments[key].(string)
	return strings.TrimSpace(s)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
