package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateReturnsHostedURL(t *testing.T) {
	t.Parallel()

	var gotBody map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/images/generations") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"created": 1, "data": [{"url": "https://img.example/cat.png"}]}`))
	}))
	defer ts.Close()

	client := NewImageClient(testOpenAIConfig(ts.URL))
	img, err := client.Generate(context.Background(), "un gato pirata")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if img.URL != "https://img.example/cat.png" {
		t.Fatalf("url mismatch: %q", img.URL)
	}
	if img.Data != nil {
		t.Fatalf("expected no inline data for hosted result")
	}

	if gotBody["prompt"] != "un gato pirata" {
		t.Fatalf("prompt mismatch: %v", gotBody["prompt"])
	}
	if gotBody["size"] != "1024x1024" {
		t.Fatalf("size mismatch: %v", gotBody["size"])
	}
	if gotBody["n"] != float64(1) {
		t.Fatalf("n mismatch: %v", gotBody["n"])
	}
}

func TestGenerateDecodesInlinePayload(t *testing.T) {
	t.Parallel()

	raw := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	encoded := base64.StdEncoding.EncodeToString(raw)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"created": 1, "data": [{"b64_json": "` + encoded + `"}]}`))
	}))
	defer ts.Close()

	client := NewImageClient(testOpenAIConfig(ts.URL))
	img, err := client.Generate(context.Background(), "un gato")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if img.URL != "" {
		t.Fatalf("expected no url for inline result, got %q", img.URL)
	}
	if !bytes.Equal(img.Data, raw) {
		t.Fatalf("decoded payload mismatch: %v", img.Data)
	}
}

func TestGenerateRejectsEmptyData(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"created": 1, "data": []}`))
	}))
	defer ts.Close()

	client := NewImageClient(testOpenAIConfig(ts.URL))
	if _, err := client.Generate(context.Background(), "un gato"); err == nil {
		t.Fatalf("expected empty-data error")
	}
}

func TestGeneratePropagatesAPIError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "content policy", "type": "invalid_request_error"}}`))
	}))
	defer ts.Close()

	client := NewImageClient(testOpenAIConfig(ts.URL))
	if _, err := client.Generate(context.Background(), "un gato"); err == nil {
		t.Fatalf("expected API error")
	}
}
