// Package server implements the MCP (Model Context Protocol) server for
// preparing form photos and signatures.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - photo_inspect: dimensions, format, alpha and file size of a source
//   - photo_prepare: run the preparation pipeline and write or return a JPEG
//   - photo_sample_color: color at a pixel, for checking ink and background
//   - photo_read_date_stamp: OCR the date band of a prepared photo
//
// # Progress
//
// When a photo_prepare call carries _meta.progressToken, the server emits
// notifications/progress messages with progress in [0, 100] and total 100
// before the response.
//
// # Error Codes
//
//   - -32602: invalid params, including arguments the pipeline rejects
//   - -32000: tool execution failed (unreadable file, decode or encode failure)
//   - -32601: method not found
//
// # Caching
//
// Decoded images used by the inspection tools are cached by path.
// photo_prepare evicts its output path after writing, so a later inspection
// sees the new file.
package server
