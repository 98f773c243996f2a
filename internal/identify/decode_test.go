package identify

import (
	"strings"
	"testing"
)

func TestExtractJSONHandlesFences(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare object",
			raw:  `{"species": "Monstera deliciosa"}`,
			want: `{"species": "Monstera deliciosa"}`,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"species\": \"Monstera deliciosa\"}\n```",
			want: `{"species": "Monstera deliciosa"}`,
		},
		{
			name: "plain fence",
			raw:  "```\n{\"confidence\": 0.9}\n```",
			want: `{"confidence": 0.9}`,
		},
		{
			name: "surrounding prose",
			raw:  "Here is the result:\n{\"species\": \"Ficus lyrata\"}\nHope that helps!",
			want: `{"species": "Ficus lyrata"}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractJSON(tc.raw)
			if err != nil {
				t.Fatalf("extractJSON failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractJSONRejectsNonJSON(t *testing.T) {
	if _, err := extractJSON("I cannot see a plant in this image."); err == nil {
		t.Fatal("expected error for prose-only response")
	}
}

func TestDecodeResponseSurfacesModelError(t *testing.T) {
	_, err := decodeResponse[identifyPayload](`{"error": "no plant visible"}`)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no plant visible") {
		t.Fatalf("error %q does not carry the model message", err)
	}
}

func TestDecodeResponseParsesPayload(t *testing.T) {
	payload, err := decodeResponse[identifyPayload](`{
		"species": "Swiss Cheese Plant",
		"scientificName": "Monstera deliciosa",
		"confidence": 0.93
	}`)
	if err != nil {
		t.Fatalf("decodeResponse failed: %v", err)
	}
	if payload.Species != "Swiss Cheese Plant" || payload.Confidence != 0.93 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestCanonicalScientificName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"monstera deliciosa", "Monstera deliciosa"},
		{"MONSTERA DELICIOSA", "Monstera deliciosa"},
		{"  ficus   lyrata ", "Ficus lyrata"},
		{"monstera", "Monstera"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := canonicalScientificName(tc.in); got != tc.want {
			t.Errorf("canonicalScientificName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIdentificationConfident(t *testing.T) {
	id := &Identification{Species: "Monstera deliciosa", Confidence: 0.85}
	if !id.Confident(0.8) {
		t.Error("0.85 should clear a 0.8 threshold")
	}
	if id.Confident(0.9) {
		t.Error("0.85 should not clear a 0.9 threshold")
	}
	empty := &Identification{Confidence: 0.99}
	if empty.Confident(0.8) {
		t.Error("empty species is never confident")
	}
}
