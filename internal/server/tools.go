package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "photo_inspect",
			Description: "Report the dimensions, format, alpha channel and file size of a source photo or signature scan.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "photo_prepare",
			Description: "Convert a photo or signature into a JPEG of exact pixel dimensions whose file size falls within a byte range. " +
				"Optionally rotates and crops, recolors a signature to an ink color, and stamps today's date (DD-MM-YYYY) in a white band at the top. " +
				"Unset fields use the server's configured defaults.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty("Absolute path to the source image"),
					"output_path": pathProperty("Where to write the JPEG. When omitted the image is returned as base64"),
					"target_width": map[string]interface{}{
						"type":        "integer",
						"description": "Output width in pixels",
						"minimum":     1,
					},
					"target_height": map[string]interface{}{
						"type":        "integer",
						"description": "Output height in pixels, including the date band",
						"minimum":     1,
					},
					"min_bytes": map[string]interface{}{
						"type":        "integer",
						"description": "Smallest acceptable file size in bytes",
						"minimum":     0,
					},
					"max_bytes": map[string]interface{}{
						"type":        "integer",
						"description": "Largest acceptable file size in bytes",
						"minimum":     0,
					},
					"quality_preference": map[string]interface{}{
						"type":        "integer",
						"description": "0-100. Higher values aim for larger, higher quality files. Default 80",
						"default":     80,
						"minimum":     0,
						"maximum":     100,
					},
					"add_date_band": map[string]interface{}{
						"type":        "boolean",
						"description": "Reserve the top 8% of the height for a white band with today's date",
					},
					"ink_color": map[string]interface{}{
						"type":        "string",
						"description": "Signature mode: recolor dark strokes to this #RRGGBB color and whiten the background",
						"pattern":     "^#[0-9A-Fa-f]{6}$",
					},
					"crop": map[string]interface{}{
						"type":        "object",
						"description": "Region to keep, in the coordinates of the image after rotation",
						"properties": map[string]interface{}{
							"x":      map[string]interface{}{"type": "integer"},
							"y":      map[string]interface{}{"type": "integer"},
							"width":  map[string]interface{}{"type": "integer", "minimum": 1},
							"height": map[string]interface{}{"type": "integer", "minimum": 1},
							"rotation_degrees": map[string]interface{}{
								"type":        "number",
								"description": "Clockwise rotation applied before cropping",
							},
						},
						"required": []string{"x", "y", "width", "height"},
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_sample_color",
			Description: "Get the color at a pixel as hex, RGB and HSL, with its luminance and whether signature mode would treat it as ink.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "photo_read_date_stamp",
			Description: "Read the DD-MM-YYYY date printed in the top band of a prepared photo using OCR. Requires Tesseract.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the prepared JPEG"),
					"band_height": map[string]interface{}{
						"type":        "integer",
						"description": "Band height in pixels. Default: 8% of the image height",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Default eng",
						"default":     "eng",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
