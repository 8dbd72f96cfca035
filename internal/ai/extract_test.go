package ai

import (
	"encoding/json"
	"testing"
)

const cleanObject = `{"root_cause": "nil pointer", "severity": "high", "fixes": ["add a guard"], "explanation": "deref before init"}`

func TestExtractJSONClean(t *testing.T) {
	got, err := ExtractJSON(cleanObject)
	if err != nil {
		t.Fatalf("ExtractJSON error = %v", err)
	}
	if got != cleanObject {
		t.Fatalf("ExtractJSON = %q, want input unchanged", got)
	}
}

func TestExtractJSONEquivalentAcrossWrappers(t *testing.T) {
	// Fenced, language-tagged, and prose-wrapped outputs must all parse to
	// the same object as the clean response.
	wrapped := []struct {
		name string
		raw  string
	}{
		{"fenced", "```\n" + cleanObject + "\n```"},
		{"fenced_json", "```json\n" + cleanObject + "\n```"},
		{"prose", "Sure, here is the analysis you asked for:\n\n" + cleanObject + "\n\nLet me know if you need more."},
		{"prose_and_fence", "Here you go:\n```json\n" + cleanObject + "\n```\nHope that helps!"},
	}

	var want Analysis
	if err := json.Unmarshal([]byte(cleanObject), &want); err != nil {
		t.Fatalf("unmarshal clean object: %v", err)
	}

	for _, tc := range wrapped {
		t.Run(tc.name, func(t *testing.T) {
			extracted, err := ExtractJSON(tc.raw)
			if err != nil {
				t.Fatalf("ExtractJSON(%s) error = %v", tc.name, err)
			}
			var got Analysis
			if err := json.Unmarshal([]byte(extracted), &got); err != nil {
				t.Fatalf("unmarshal extracted: %v", err)
			}
			if got.RootCause != want.RootCause || got.Severity != want.Severity || got.Explanation != want.Explanation {
				t.Fatalf("extracted object differs: got %+v, want %+v", got, want)
			}
			if len(got.Fixes) != len(want.Fixes) {
				t.Fatalf("fixes differ: got %v, want %v", got.Fixes, want.Fixes)
			}
		})
	}
}

func TestExtractJSONNestedBraces(t *testing.T) {
	raw := `The config is {"html": "<div>{{ template }}</div>", "css": "body { margin: 0; }", "notes": "uses {braces}"} as requested.`
	extracted, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON error = %v", err)
	}

	var result DesignResult
	if err := json.Unmarshal([]byte(extracted), &result); err != nil {
		t.Fatalf("unmarshal extracted: %v", err)
	}
	if result.CSS != "body { margin: 0; }" {
		t.Fatalf("CSS = %q, braces inside strings must not break extraction", result.CSS)
	}
}

func TestExtractJSONNoObject(t *testing.T) {
	for _, raw := range []string{"", "I could not produce an analysis.", "```\nplain text\n```"} {
		if _, err := ExtractJSON(raw); err == nil {
			t.Fatalf("ExtractJSON(%q) should fail", raw)
		}
	}
}

func TestExtractJSONUnbalanced(t *testing.T) {
	if _, err := ExtractJSON(`{"root_cause": "truncated`); err == nil {
		t.Fatalf("ExtractJSON should fail on an unterminated object")
	}
}
