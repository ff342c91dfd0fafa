package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ironsheep/formphoto-mcp/internal/config"
	"github.com/ironsheep/formphoto-mcp/internal/imaging"
	"github.com/ironsheep/formphoto-mcp/internal/ocr"
	"github.com/ironsheep/formphoto-mcp/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "photo_prepare").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`

	// Meta carries the optional progress token.
	Meta *RequestMeta `json:"_meta,omitempty"`
}

// RequestMeta is the MCP _meta object of a request.
type RequestMeta struct {
	ProgressToken interface{} `json:"progressToken,omitempty"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Rejected arguments return code -32602; other tool failures return -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	var progress pipeline.ProgressFunc
	if params.Meta != nil && params.Meta.ProgressToken != nil {
		token := params.Meta.ProgressToken
		progress = func(percent int) {
			s.notify("notifications/progress", map[string]interface{}{
				"progressToken": token,
				"progress":      percent,
				"total":         100,
			})
		}
	}

	result, err := s.executeTool(params.Name, params.Arguments, progress)
	if err != nil {
		var verr *pipeline.ValidationError
		if errors.As(err, &verr) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage, progress pipeline.ProgressFunc) (interface{}, error) {
	switch name {
	case "photo_inspect":
		return s.handlePhotoInspect(args)
	case "photo_prepare":
		return s.handlePhotoPrepare(args, progress)
	case "photo_sample_color":
		return s.handlePhotoSampleColor(args)
	case "photo_read_date_stamp":
		return s.handlePhotoReadDateStamp(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type photoPathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handlePhotoInspect(args json.RawMessage) (interface{}, error) {
	var a photoPathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// photoPrepareArgs uses pointers so that absent fields fall back to the
// configured defaults while explicit zeros are still validated.
type photoPrepareArgs struct {
	Path              string               `json:"path"`
	OutputPath        string               `json:"output_path"`
	TargetWidth       *int                 `json:"target_width"`
	TargetHeight      *int                 `json:"target_height"`
	MinBytes          *int                 `json:"min_bytes"`
	MaxBytes          *int                 `json:"max_bytes"`
	QualityPreference *int                 `json:"quality_preference"`
	AddDateBand       *bool                `json:"add_date_band"`
	InkColor          *string              `json:"ink_color"`
	Crop              *pipeline.CropRegion `json:"crop"`
}

// PrepareResult is the photo_prepare response.
type PrepareResult struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	SizeBytes   int     `json:"size_bytes"`
	ElapsedMs   int64   `json:"elapsed_ms"`
	Quality     float64 `json:"quality"`
	Attempts    int     `json:"attempts"`
	InBounds    bool    `json:"in_bounds"`
	OutputPath  string  `json:"output_path,omitempty"`
	ImageBase64 string  `json:"image_base64,omitempty"`
	MimeType    string  `json:"mime_type"`
}

func (a photoPrepareArgs) outputSpec(d config.DefaultsConfig) (pipeline.OutputSpec, error) {
	spec, err := d.OutputSpec()
	if err != nil {
		return spec, err
	}
	if a.TargetWidth != nil {
		spec.TargetWidth = *a.TargetWidth
	}
	if a.TargetHeight != nil {
		spec.TargetHeight = *a.TargetHeight
	}
	if a.MinBytes != nil {
		spec.MinBytes = *a.MinBytes
	}
	if a.MaxBytes != nil {
		spec.MaxBytes = *a.MaxBytes
	}
	if a.QualityPreference != nil {
		spec.QualityPreference = *a.QualityPreference
	}
	if a.AddDateBand != nil {
		spec.AddDateBand = *a.AddDateBand
	}
	if a.InkColor != nil {
		ink, err := pipeline.ParseInkColor(*a.InkColor)
		if err != nil {
			return spec, err
		}
		spec.InkColor = ink
	}
	return spec, nil
}

func (s *Server) handlePhotoPrepare(args json.RawMessage, progress pipeline.ProgressFunc) (interface{}, error) {
	var a photoPrepareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, &pipeline.ValidationError{Field: "path", Reason: "is required"}
	}
	spec, err := a.outputSpec(s.defaults)
	if err != nil {
		return nil, err
	}

	src, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	res, err := s.proc.Process(context.Background(), src, spec, a.Crop, progress)
	if err != nil {
		return nil, err
	}

	out := &PrepareResult{
		Width:     res.Width,
		Height:    res.Height,
		SizeBytes: res.SizeBytes,
		ElapsedMs: res.ElapsedMs,
		Quality:   res.Quality,
		Attempts:  res.Attempts,
		InBounds:  res.InBounds,
		MimeType:  "image/jpeg",
	}
	if a.OutputPath == "" {
		out.ImageBase64 = base64.StdEncoding.EncodeToString(res.Bytes)
		return out, nil
	}

	if err := os.WriteFile(a.OutputPath, res.Bytes, 0644); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	s.cache.Evict(a.OutputPath)
	out.OutputPath = a.OutputPath
	return out, nil
}

type photoSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handlePhotoSampleColor(args json.RawMessage) (interface{}, error) {
	var a photoSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

type photoReadDateStampArgs struct {
	Path       string `json:"path"`
	BandHeight int    `json:"band_height"`
	Language   string `json:"language"`
}

func (s *Server) handlePhotoReadDateStamp(args json.RawMessage) (interface{}, error) {
	var a photoReadDateStampArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = "eng"
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return ocr.ReadDateStamp(img, a.BandHeight, a.Language)
}
