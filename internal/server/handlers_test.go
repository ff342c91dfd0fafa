package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/formphoto-mcp/internal/config"
	"github.com/ironsheep/formphoto-mcp/internal/imaging"
	"github.com/ironsheep/formphoto-mcp/internal/ocr"
	"github.com/ironsheep/formphoto-mcp/internal/pipeline"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "source.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool sends a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	paramsJSON, _ := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeContent unmarshals the text content of a successful tool response.
func decodeContent(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("Unexpected content: %v", content)
	}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), v); err != nil {
		t.Fatalf("Failed to decode content: %v", err)
	}
}

func TestHandleToolsCall_PhotoInspect(t *testing.T) {
	s := New(nil, nil, "test")
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var info imaging.ImageInfo
	decodeContent(t, callTool(t, s, "photo_inspect", map[string]interface{}{"path": imgPath}), &info)

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("Dimensions: got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.FileSizeBytes == 0 {
		t.Error("FileSizeBytes should be set")
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := New(nil, nil, "test")
	for _, name := range []string{"photo_inspect", "photo_prepare", "photo_sample_color", "photo_read_date_stamp"} {
		t.Run(name, func(t *testing.T) {
			resp := callTool(t, s, name, map[string]interface{}{"path": "/nonexistent/image.png"})
			if resp.Error == nil {
				t.Fatal("Expected error for non-existent file")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
		})
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := New(nil, nil, "test")
	resp := callTool(t, s, "image_crop", map[string]interface{}{})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("Expected -32000 for unknown tool, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(nil, nil, "test")
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{invalid json}`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("Expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_PhotoPrepare_Base64(t *testing.T) {
	s := New(nil, nil, "test")
	imgPath := createTestImageFile(t, 400, 300, color.RGBA{30, 60, 90, 255})

	var res PrepareResult
	decodeContent(t, callTool(t, s, "photo_prepare", map[string]interface{}{
		"path":          imgPath,
		"target_width":  120,
		"target_height": 150,
		"min_bytes":     0,
		"max_bytes":     100000,
	}), &res)

	if res.Width != 120 || res.Height != 150 {
		t.Errorf("Dimensions: got %dx%d, want 120x150", res.Width, res.Height)
	}
	if res.MimeType != "image/jpeg" {
		t.Errorf("MimeType: got %s", res.MimeType)
	}
	if res.OutputPath != "" {
		t.Errorf("OutputPath should be empty, got %s", res.OutputPath)
	}

	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatalf("Invalid base64: %v", err)
	}
	if len(data) != res.SizeBytes {
		t.Errorf("Decoded %d bytes, SizeBytes %d", len(data), res.SizeBytes)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 150 {
		t.Errorf("JPEG size: got %v", img.Bounds().Size())
	}
}

func TestHandleToolsCall_PhotoPrepare_OutputPathEvictsCache(t *testing.T) {
	s := New(nil, nil, "test")
	imgPath := createTestImageFile(t, 200, 200, color.RGBA{0, 128, 0, 255})
	outPath := filepath.Join(t.TempDir(), "prepared.jpg")

	// Prime the cache with a different image at the output path.
	stale := createTestImageFile(t, 10, 10, color.Black)
	data, _ := os.ReadFile(stale)
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.cache.Load(outPath); err != nil {
		t.Fatal(err)
	}

	var res PrepareResult
	decodeContent(t, callTool(t, s, "photo_prepare", map[string]interface{}{
		"path":        imgPath,
		"output_path": outPath,
		"min_bytes":   0,
	}), &res)

	if res.OutputPath != outPath {
		t.Errorf("OutputPath: got %s", res.OutputPath)
	}
	if res.ImageBase64 != "" {
		t.Error("ImageBase64 should be empty when writing a file")
	}

	var info imaging.ImageInfo
	decodeContent(t, callTool(t, s, "photo_inspect", map[string]interface{}{"path": outPath}), &info)
	if info.Width != 200 || info.Height != 230 {
		t.Errorf("Inspect after prepare: got %dx%d, want 200x230", info.Width, info.Height)
	}
	if info.Format != "jpeg" {
		t.Errorf("Format: got %s, want jpeg", info.Format)
	}
}

func TestHandleToolsCall_PhotoPrepare_Validation(t *testing.T) {
	s := New(nil, nil, "test")
	imgPath := createTestImageFile(t, 50, 50, color.White)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing path", map[string]interface{}{}},
		{"zero width", map[string]interface{}{"path": imgPath, "target_width": 0}},
		{"min above max", map[string]interface{}{"path": imgPath, "min_bytes": 5000, "max_bytes": 10}},
		{"bad ink", map[string]interface{}{"path": imgPath, "ink_color": "navy"}},
		{"empty crop", map[string]interface{}{"path": imgPath, "crop": map[string]interface{}{"x": 0, "y": 0, "width": 0, "height": 10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "photo_prepare", tt.args)
			if resp.Error == nil {
				t.Fatal("Expected error")
			}
			if resp.Error.Code != -32602 {
				t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
			}
		})
	}
}

func TestHandleToolsCall_PhotoPrepare_ConfigDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Defaults.TargetWidth = 64
	cfg.Defaults.TargetHeight = 48
	cfg.Defaults.MinBytes = 0
	cfg.Defaults.AddDateBand = false
	s := New(cfg, pipeline.New())
	imgPath := createTestImageFile(t, 100, 100, color.White)

	var res PrepareResult
	decodeContent(t, callTool(t, s, "photo_prepare", map[string]interface{}{"path": imgPath}), &res)
	if res.Width != 64 || res.Height != 48 {
		t.Errorf("Dimensions: got %dx%d, want 64x48", res.Width, res.Height)
	}
}

func TestHandleToolsCall_PhotoPrepare_Signature(t *testing.T) {
	s := New(nil, nil, "test")
	imgPath := createTestImageFile(t, 100, 50, color.RGBA{10, 10, 10, 255})
	outPath := filepath.Join(t.TempDir(), "sig.jpg")

	decodeContent(t, callTool(t, s, "photo_prepare", map[string]interface{}{
		"path":               imgPath,
		"output_path":        outPath,
		"target_width":       100,
		"target_height":      50,
		"min_bytes":          0,
		"add_date_band":      false,
		"ink_color":          "#0000FF",
		"quality_preference": 100,
	}), &PrepareResult{})

	var c imaging.ColorResult
	decodeContent(t, callTool(t, s, "photo_sample_color", map[string]interface{}{"path": outPath, "x": 50, "y": 25}), &c)
	if c.RGBA.B < 245 || c.RGBA.R > 25 {
		t.Errorf("Signature color: got %+v, want about (14,14,255)", c.RGBA)
	}
}

func TestHandleToolsCall_PhotoSampleColor(t *testing.T) {
	s := New(nil, nil, "test")
	imgPath := createTestImageFile(t, 20, 20, color.RGBA{255, 0, 0, 255})

	var c imaging.ColorResult
	decodeContent(t, callTool(t, s, "photo_sample_color", map[string]interface{}{"path": imgPath, "x": 5, "y": 5}), &c)
	if c.Hex != "#FF0000" {
		t.Errorf("Hex: got %s, want #FF0000", c.Hex)
	}

	resp := callTool(t, s, "photo_sample_color", map[string]interface{}{"path": imgPath, "x": 50, "y": 5})
	if resp.Error == nil {
		t.Error("Expected error for out-of-bounds pixel")
	}
}

func TestHandleToolsCall_PhotoReadDateStamp(t *testing.T) {
	s := New(nil, nil, "test")
	imgPath := createTestImageFile(t, 100, 100, color.White)
	outPath := filepath.Join(t.TempDir(), "stamped.jpg")

	decodeContent(t, callTool(t, s, "photo_prepare", map[string]interface{}{
		"path":          imgPath,
		"output_path":   outPath,
		"target_width":  400,
		"target_height": 460,
		"min_bytes":     0,
		"add_date_band": true,
	}), &PrepareResult{})

	resp := callTool(t, s, "photo_read_date_stamp", map[string]interface{}{"path": outPath})
	if resp.Error != nil {
		t.Skipf("OCR unavailable: %v", resp.Error.Data)
	}
	var stamp ocr.DateStamp
	decodeContent(t, resp, &stamp)
	if stamp.BandHeight != 37 {
		t.Errorf("BandHeight: got %d, want 37", stamp.BandHeight)
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := New(nil, nil, "test")
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			_, err := s.executeTool(tool.Name, json.RawMessage(`{"path":"/nonexistent.png"}`), nil)
			if err == nil {
				t.Error("Expected error for missing file")
			}
			if err != nil && err.Error() == "unknown tool: "+tool.Name {
				t.Error("Defined tool is not dispatched")
			}
		})
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := New(nil, nil, "test")
	if _, err := s.executeTool("photo_inspect", json.RawMessage(`{bad`), nil); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
