// Package server implements the MCP (Model Context Protocol) server that
// exposes the inscription decoder to presentation clients.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Decoding:
//   - inscription_decode: Decode a photograph and publish the session result
//   - inscription_result: Read a session's latest result
//   - inscription_clear: Drop a session's result
//
// Script operations:
//   - inscription_transliterate: Archaic symbols to modern script
//   - inscription_annotate: Gloss modern-script text
//   - inscription_tables_reload: Reread the table files
//
// Inspection:
//   - inscription_image_info: Dimensions and channels of a photograph
//   - inscription_overlay: Detection boxes drawn on the photograph
//
// Photographs are passed either as a path or inline as base64. Loaded paths
// are cached for the lifetime of the process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: the error string and, for pipeline failures, its kind
//     (invalid_image, detection_unavailable, table_load) and stage
//
// # Usage
//
//	srv := server.New(svc, server.Options{Version: version})
//	if err := srv.Run(ctx); err != nil {
//	    return err
//	}
package server
