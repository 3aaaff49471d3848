package core

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKey string // if non-empty, check this key exists in the result
		wantErr bool
	}{
		{
			name:    "plain JSON",
			input:   `{"total": 840}`,
			wantKey: "total",
		},
		{
			name:    "fenced without language tag",
			input:   "```\n{\"total\": 840}\n```",
			wantKey: "total",
		},
		{
			name:    "fenced with json tag",
			input:   "```json\n{\"total\": 840}\n```",
			wantKey: "total",
		},
		{
			name:    "fenced with surrounding whitespace",
			input:   "  \n```json\n{\"total\": 840}\n```  \n",
			wantKey: "total",
		},
		{
			name:    "embedded newlines inside the object",
			input:   "{\"feedback_geral\":\n\"boa estrutura\",\r\n\"total\": 840}",
			wantKey: "total",
		},
		{
			name:    "prose around the object",
			input:   "Here is the evaluation you asked for:\n{\"total\": 840}\nLet me know if you need anything else.",
			wantKey: "total",
		},
		{
			name:    "braces inside string values",
			input:   `before {"analise_texto": "uso de {chaves} no texto", "total": 840} after`,
			wantKey: "total",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			input:   "   \n\t ",
			wantErr: true,
		},
		{
			name:    "prose with no JSON",
			input:   "I cannot grade this essay, sorry.",
			wantErr: true,
		},
		{
			name:    "unbalanced braces",
			input:   `{"total": 840`,
			wantErr: true,
		},
		{
			name:    "JSON array is not an object",
			input:   `[1, 2, 3]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ExtractJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractJSON(%q) = %s, want error", tt.input, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON(%q) returned error: %v", tt.input, err)
			}
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(result, &obj); err != nil {
				t.Fatalf("result is not a JSON object: %v", err)
			}
			if _, ok := obj[tt.wantKey]; !ok {
				t.Errorf("result %s is missing key %q", result, tt.wantKey)
			}
		})
	}
}

func TestExtractJSONFenceStripping(t *testing.T) {
	// Fencing a payload must not change what gets extracted.
	payloads := []string{
		`{"total": 840}`,
		`{"competencias": {"c1": {"nota": 160}}, "total": 160}`,
		`{"analise_texto": "linha um\nlinha dois", "total": 0}`,
	}

	for _, payload := range payloads {
		plain, err := ExtractJSON(payload)
		if err != nil {
			t.Fatalf("ExtractJSON(%q) returned error: %v", payload, err)
		}
		fenced, err := ExtractJSON("```json\n" + payload + "\n```")
		if err != nil {
			t.Fatalf("ExtractJSON(fenced %q) returned error: %v", payload, err)
		}
		if string(plain) != string(fenced) {
			t.Errorf("fenced extraction differs: %s vs %s", plain, fenced)
		}
	}
}
