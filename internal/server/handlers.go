package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/inscription-decoder/internal/decoder"
	"github.com/ironsheep/inscription-decoder/internal/detection"
	"github.com/ironsheep/inscription-decoder/internal/imaging"
	"github.com/ironsheep/inscription-decoder/internal/script"
	"github.com/ironsheep/inscription-decoder/internal/session"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "inscription_decode").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// toolErrorData is attached to failed tool calls. Kind and Stage are set for
// pipeline failures.
type toolErrorData struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Stage string `json:"stage,omitempty"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Debug("tool failed", "tool", params.Name, "error", err)
		data := toolErrorData{Error: err.Error()}
		var de *decoder.Error
		if errors.As(err, &de) {
			data.Kind = de.Kind.String()
			data.Stage = de.Stage.String()
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", data)
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	// Decoding
	case "inscription_decode":
		return s.handleDecode(ctx, args)
	case "inscription_result":
		return s.handleResult(args)
	case "inscription_clear":
		return s.handleClear(args)

	// Script operations
	case "inscription_transliterate":
		return s.handleTransliterate(args)
	case "inscription_annotate":
		return s.handleAnnotate(args)
	case "inscription_tables_reload":
		return s.handleTablesReload()

	// Inspection
	case "inscription_image_info":
		return s.handleImageInfo(args)
	case "inscription_overlay":
		return s.handleOverlay(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type imageSourceArgs struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
}

// load resolves the photograph named by a path or carried inline.
func (s *Server) load(a imageSourceArgs) (imaging.RawImage, error) {
	switch {
	case a.Path != "":
		return s.cache.Load(a.Path)
	case a.ImageBase64 != "":
		data, err := base64.StdEncoding.DecodeString(stripDataURL(a.ImageBase64))
		if err != nil {
			return imaging.RawImage{}, fmt.Errorf("%w: bad base64: %v", imaging.ErrInvalidImage, err)
		}
		return imaging.DecodeRawImageBytes(data)
	default:
		return imaging.RawImage{}, fmt.Errorf("%w: path or image_base64 is required", imaging.ErrInvalidImage)
	}
}

// stripDataURL drops a "data:image/png;base64," style prefix.
func stripDataURL(s string) string {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}

// invalidImage reports a load failure as a pipeline failure before any stage
// ran, so callers see the same kind as for an undecodable image.
func invalidImage(err error) error {
	return &decoder.Error{
		Kind:  decoder.KindInvalidImage,
		Stage: decoder.StageIdle,
		Trace: decoder.Trace{decoder.StageIdle, decoder.StageFailed},
		Err:   err,
	}
}

// === Decoding Handlers ===

type decodeArgs struct {
	imageSourceArgs
	SessionID string `json:"session_id"`
}

type decodeResponse struct {
	SessionID  string                     `json:"session_id"`
	Result     decoder.Result             `json:"result"`
	Detections []detection.GlyphDetection `json:"detections"`
	Trace      decoder.Trace              `json:"trace"`
}

func (s *Server) handleDecode(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a decodeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.SessionID == "" {
		a.SessionID = session.NewID()
	}
	raw, err := s.load(a.imageSourceArgs)
	if err != nil {
		return nil, invalidImage(err)
	}
	report, err := s.svc.DecodeSession(ctx, a.SessionID, raw)
	if err != nil {
		return nil, err
	}
	return decodeResponse{
		SessionID:  a.SessionID,
		Result:     report.Result,
		Detections: report.Detections,
		Trace:      report.Trace,
	}, nil
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type clearArgs struct {
	sessionArgs
	All bool `json:"all"`
}

type resultResponse struct {
	SessionID string          `json:"session_id"`
	Available bool            `json:"available"`
	Result    *decoder.Result `json:"result,omitempty"`
}

func (s *Server) handleResult(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.SessionID == "" {
		return nil, session.ErrEmptyID
	}
	resp := resultResponse{SessionID: a.SessionID}
	if res, ok := s.svc.Result(a.SessionID); ok {
		resp.Available = true
		resp.Result = &res
	}
	return resp, nil
}

func (s *Server) handleClear(args json.RawMessage) (interface{}, error) {
	var a clearArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.All {
		s.svc.ClearAll()
		s.cache.Clear()
		return map[string]interface{}{"all": true, "cleared": true}, nil
	}
	if a.SessionID == "" {
		return nil, session.ErrEmptyID
	}
	s.svc.Clear(a.SessionID)
	return map[string]interface{}{"session_id": a.SessionID, "cleared": true}, nil
}

// === Script Handlers ===

type transliterateArgs struct {
	Symbols []string `json:"symbols"`
	Text    string   `json:"text"`
}

func (s *Server) handleTransliterate(args json.RawMessage) (interface{}, error) {
	var a transliterateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	tables, err := s.svc.Tables()
	if err != nil {
		return nil, err
	}
	var modern string
	if len(a.Symbols) > 0 {
		modern = script.Transliterate(a.Symbols, tables.Transliteration)
	} else {
		modern = script.TransliterateText(a.Text, tables.Transliteration)
	}
	return map[string]interface{}{"modern_text": modern}, nil
}

type annotateArgs struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

func (s *Server) handleAnnotate(args json.RawMessage) (interface{}, error) {
	var a annotateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mode := s.svc.Pipeline().GlossMode()
	if a.Mode != "" {
		m, err := script.ParseMode(a.Mode)
		if err != nil {
			return nil, err
		}
		mode = m
	}
	tables, err := s.svc.Tables()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"glossed_text": script.Annotate(a.Text, tables.Gloss, mode),
		"mode":         mode,
	}, nil
}

func (s *Server) handleTablesReload() (interface{}, error) {
	if err := s.svc.ReloadTables(); err != nil {
		return nil, err
	}
	tables, err := s.svc.Tables()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"transliteration_entries": tables.Transliteration.Len(),
		"gloss_entries":           tables.Gloss.Len(),
	}, nil
}

// === Inspection Handlers ===

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageSourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	raw, err := s.load(a)
	if err != nil {
		return nil, err
	}
	return imaging.Info(raw), nil
}

type overlayArgs struct {
	imageSourceArgs
	Color       string `json:"color"`
	GridSpacing int    `json:"grid_spacing"`
	GridColor   string `json:"grid_color"`
	GridLabels  bool   `json:"grid_labels"`
}

type overlayResponse struct {
	*imaging.OverlayResult
	Detections []detection.GlyphDetection `json:"detections"`
}

func (s *Server) handleOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	raw, err := s.load(a.imageSourceArgs)
	if err != nil {
		return nil, invalidImage(err)
	}
	report, err := s.svc.Decode(ctx, raw)
	if err != nil {
		return nil, err
	}

	// Detections are in normalized coordinates; draw them on the photograph.
	boxes := make([]image.Rectangle, 0, len(report.Detections))
	for _, d := range report.Detections {
		if d.Position == nil {
			continue
		}
		b := *d.Position
		if report.Scale > 0 {
			b = b.Scale(1 / report.Scale)
		}
		boxes = append(boxes, b.Rect())
	}
	overlay, err := imaging.RenderOverlay(raw.Image(), boxes, imaging.OverlayOptions{
		BoxColor:    a.Color,
		GridSpacing: a.GridSpacing,
		GridColor:   a.GridColor,
		GridLabels:  a.GridLabels,
	})
	if err != nil {
		return nil, err
	}
	return overlayResponse{OverlayResult: overlay, Detections: report.Detections}, nil
}
