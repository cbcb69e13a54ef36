package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	expectedTools := []string{
		"inscription_decode",
		"inscription_result",
		"inscription_clear",
		"inscription_transliterate",
		"inscription_annotate",
		"inscription_tables_reload",
		"inscription_image_info",
		"inscription_overlay",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(toolMap) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(toolMap), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			required, _ := tool.InputSchema["required"].([]string)
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required field %s has no property", r)
				}
			}
		})
	}
}

func TestToolDefinitions_ImageSource(t *testing.T) {
	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, name := range []string{"inscription_decode", "inscription_image_info", "inscription_overlay"} {
		t.Run(name, func(t *testing.T) {
			props := toolMap[name].InputSchema["properties"].(map[string]interface{})
			for _, field := range []string{"path", "image_base64"} {
				if _, ok := props[field]; !ok {
					t.Errorf("missing %s property", field)
				}
			}
		})
	}

	overlayProps := toolMap["inscription_overlay"].InputSchema["properties"].(map[string]interface{})
	for _, field := range []string{"color", "grid_spacing", "grid_color", "grid_labels"} {
		if _, ok := overlayProps[field]; !ok {
			t.Errorf("inscription_overlay missing %s property", field)
		}
	}

	// Shared properties must not leak between tools.
	for _, field := range []string{"color", "grid_spacing"} {
		if _, ok := imageSourceProperties[field]; ok {
			t.Errorf("overlay property %s leaked into the shared image properties", field)
		}
	}
}
