package identify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sprout/internal/identify"
)

func TestRemoteIdentifyRoundTrip(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"species":        "Swiss Cheese Plant",
			"scientificName": "Monstera deliciosa",
			"confidence":     0.91,
		})
	}))
	defer server.Close()

	engine := identify.NewRemoteEngine(server.URL, identify.WithRemoteToken("service-token"))
	result, err := engine.Identify(context.Background(), []byte("fake image bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if gotPath != "/identify" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer service-token" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if result.Species != "Swiss Cheese Plant" || result.Confidence != 0.91 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRemoteResumeForwardsCallerToken(t *testing.T) {
	var gotPath, gotAuth string
	var body map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	engine := identify.NewRemoteEngine(server.URL, identify.WithRemoteToken("service-token"))
	err := engine.Resume(context.Background(), "sess-1", "Monstera Deliciosa", "Monstera deliciosa", "caller-token")
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if gotPath != "/import-sessions/sess-1/resume" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer caller-token" {
		t.Errorf("caller token should override the configured token, got %q", gotAuth)
	}
	if body["species"] != "Monstera Deliciosa" || body["scientificName"] != "Monstera deliciosa" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestRemoteResumeRequiresSessionID(t *testing.T) {
	engine := identify.NewRemoteEngine("http://127.0.0.1:0")
	if err := engine.Resume(context.Background(), "", "Monstera", "", ""); err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestRemoteSurfacesEngineErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "model overloaded"})
	}))
	defer server.Close()

	engine := identify.NewRemoteEngine(server.URL)
	_, err := engine.Research(context.Background(), "Monstera deliciosa", "Monstera deliciosa")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("error %q should carry the engine message", err)
	}
}

func TestRemoteResearchDecodesCare(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"wateringIntervalDays":    7,
			"fertilizingIntervalDays": 30,
			"light":                   "bright indirect",
			"notes":                   "Wipe the leaves occasionally.",
		})
	}))
	defer server.Close()

	engine := identify.NewRemoteEngine(server.URL)
	care, err := engine.Research(context.Background(), "Monstera deliciosa", "Monstera deliciosa")
	if err != nil {
		t.Fatalf("Research failed: %v", err)
	}
	if care.WateringIntervalDays != 7 || care.Light != "bright indirect" {
		t.Fatalf("unexpected care %+v", care)
	}
}
