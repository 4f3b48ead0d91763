package bot

import (
	"errors"
	"testing"

	"warden-bot/internal/command"
)

func TestEmbedFromJSON(t *testing.T) {
	code := `{
		"title": "Rules",
		"description": "Be nice.",
		"color": 3447003,
		"fields": [{"name": "One", "value": "No spam", "inline": true}],
		"footer": {"text": "mod team"}
	}`
	embed, err := embedFromJSON(code)
	if err != nil {
		t.Fatalf("embedFromJSON: %v", err)
	}
	if embed.Title != "Rules" || embed.Description != "Be nice." {
		t.Errorf("embed = %+v", embed)
	}
	if len(embed.Fields) != 1 || embed.Fields[0].Name != "One" || !embed.Fields[0].Inline {
		t.Errorf("fields = %+v", embed.Fields)
	}
	if embed.Footer == nil || embed.Footer.Text != "mod team" {
		t.Errorf("footer = %+v", embed.Footer)
	}
}

func TestEmbedFromJSONMalformed(t *testing.T) {
	for _, code := range []string{
		`{not json`,
		`{"title": 42}`,
		`{"unknown_field": "x"}`,
		`{}`,
	} {
		_, err := embedFromJSON(code)
		var argErr *command.ArgumentError
		if !errors.As(err, &argErr) {
			t.Errorf("embedFromJSON(%q) err = %v, want *ArgumentError", code, err)
			continue
		}
		if argErr.Param != "json_code" {
			t.Errorf("param = %q", argErr.Param)
		}
	}
}
