package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var imageSourceProperties = map[string]interface{}{
	"path": map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the photograph",
	},
	"image_base64": map[string]interface{}{
		"type":        "string",
		"description": "Base64-encoded photograph (png, jpeg, gif, bmp, tiff or webp). Used when path is empty.",
	},
}

func withImageSource(extra map[string]interface{}) map[string]interface{} {
	props := make(map[string]interface{}, len(imageSourceProperties)+len(extra))
	for k, v := range imageSourceProperties {
		props[k] = v
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

var sessionProperty = map[string]interface{}{
	"type":        "string",
	"description": "Session key the result is stored under",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Decoding
		{
			Name:        "inscription_decode",
			Description: "Decode a photograph of an inscribed stone: detect archaic glyphs, transliterate them to modern script, gloss known words and score the reading. The result replaces the session's previous result; on failure the previous result is kept.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withImageSource(map[string]interface{}{
					"session_id": map[string]interface{}{
						"type":        "string",
						"description": "Session key. A new one is generated and returned when omitted.",
					},
				}),
			},
		},
		{
			Name:        "inscription_result",
			Description: "Return the latest decoding result of a session and whether one is available.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty,
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "inscription_clear",
			Description: "Discard the decoding result held for a session. With all set, discard every session and the cached photographs.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty,
					"all": map[string]interface{}{
						"type":        "boolean",
						"description": "Clear every session and the photograph cache instead of one session",
						"default":     false,
					},
				},
			},
		},

		// Script operations
		{
			Name:        "inscription_transliterate",
			Description: "Transliterate archaic-script symbols to modern script using the loaded table. Unknown symbols are kept unchanged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"symbols": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Archaic symbols in reading order",
					},
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Archaic text, split into code points. Used when symbols is empty.",
					},
				},
			},
		},
		{
			Name:        "inscription_annotate",
			Description: "Follow every known word in modern-script text with its bracketed gloss.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Modern-script text",
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"sequential", "single-pass"},
						"description": "Gloss mode. Defaults to the configured mode.",
					},
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "inscription_tables_reload",
			Description: "Reload the transliteration and gloss tables from their configured files. On failure the loaded tables stay in use.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Inspection
		{
			Name:        "inscription_image_info",
			Description: "Load a photograph and return its width, height and channel count.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": withImageSource(nil),
			},
		},
		{
			Name:        "inscription_overlay",
			Description: "Run detection on a photograph without publishing a result and return it as a PNG with each glyph box outlined and numbered in reading order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withImageSource(map[string]interface{}{
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Box colour as hex. Default #ff0000",
						"default":     "#ff0000",
					},
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Draw a coordinate grid every N pixels. 0 disables the grid",
						"default":     0,
						"minimum":     0,
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid line colour as hex. Default #808080",
						"default":     "#808080",
					},
					"grid_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Label each grid crossing with its x,y coordinates",
						"default":     false,
					},
				}),
			},
		},
	}
}
