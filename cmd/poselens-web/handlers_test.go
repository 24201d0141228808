package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/poselens/poselens/internal/advisor"
	"github.com/poselens/poselens/internal/render"
	"github.com/poselens/poselens/internal/session"
)

type fakeGenerator struct {
	calls int
	texts []string
	block bool
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	text := ""
	if f.calls-1 < len(f.texts) {
		text = f.texts[f.calls-1]
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}}},
		},
	}, nil
}

func newTestMux(gen *fakeGenerator, registry *session.Registry, analysisTimeout time.Duration) *http.ServeMux {
	svc := advisor.New(gen, registry, render.NewBuilder(""), advisor.Options{
		Model:           "test-model",
		AnalysisTimeout: analysisTimeout,
		RefineTimeout:   time.Second,
	})
	return newMux(svc)
}

func testImageB64(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response body: %v (%s)", err, rr.Body.String())
	}
	return body
}

// --- /api/analyze ---

func TestAnalyze_MissingImage(t *testing.T) {
	mux := newTestMux(&fakeGenerator{}, session.NewRegistry(time.Minute), time.Second)

	rr := postJSON(t, mux, "/api/analyze", map[string]string{"language": "en"})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["success"] != false {
		t.Error("expected success=false")
	}
	if body["error"] != "Image data not found" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	gen := &fakeGenerator{texts: []string{
		"```json\n{\"analysis\":{\"light\":[\"a\"],\"subject\":[\"b\"],\"tech\":[\"c\"]}}\n```",
	}}
	mux := newTestMux(gen, session.NewRegistry(time.Minute), time.Second)

	rr := postJSON(t, mux, "/api/analyze", map[string]string{
		"image":    "data:image/jpeg;base64," + testImageB64(t, 2000, 1500),
		"language": "vi",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["success"] != true {
		t.Error("expected success=true")
	}
	if body["sessionId"] == "" || body["sessionId"] == nil {
		t.Error("missing sessionId")
	}

	advice := body["advice"].(map[string]interface{})
	analysis := advice["analysis"].(map[string]interface{})
	light := analysis["light"].([]interface{})
	if len(light) != 1 || light[0] != "a" {
		t.Errorf("advice.analysis.light = %v", light)
	}

	imageURL, _ := body["imageUrl"].(string)
	if !strings.Contains(imageURL, url.PathEscape("b, 3D wooden mannequin")) {
		t.Errorf("imageUrl missing styled prompt: %q", imageURL)
	}
	if !strings.Contains(imageURL, "width=512&height=512&nologo=true") {
		t.Errorf("imageUrl missing fixed parameters: %q", imageURL)
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	gen := &fakeGenerator{block: true}
	mux := newTestMux(gen, session.NewRegistry(time.Minute), 30*time.Millisecond)

	start := time.Now()
	rr := postJSON(t, mux, "/api/analyze", map[string]string{
		"image": testImageB64(t, 100, 100),
	})

	if rr.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != "Network too slow, please retry." {
		t.Errorf("error = %q", body["error"])
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("request took %v, should fail near the 30ms budget", elapsed)
	}
}

func TestAnalyze_MalformedModelReply(t *testing.T) {
	gen := &fakeGenerator{texts: []string{"not json at all"}}
	mux := newTestMux(gen, session.NewRegistry(time.Minute), time.Second)

	rr := postJSON(t, mux, "/api/analyze", map[string]string{
		"image": testImageB64(t, 100, 100),
	})

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != "AI is busy, please try again." {
		t.Errorf("error = %q", body["error"])
	}
}

func TestAnalyze_MethodNotAllowed(t *testing.T) {
	mux := newTestMux(&fakeGenerator{}, session.NewRegistry(time.Minute), time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

// --- /api/generate-pose ---

func TestGeneratePose_NoContext(t *testing.T) {
	gen := &fakeGenerator{}
	mux := newTestMux(gen, session.NewRegistry(time.Minute), time.Second)

	rr := postJSON(t, mux, "/api/generate-pose", map[string]string{
		"session_id":   "never-issued",
		"pose_summary": "raise chin",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != "No context found" {
		t.Errorf("error = %q", body["error"])
	}
	if gen.calls != 0 {
		t.Error("provider called despite missing session")
	}
}

func TestGeneratePose_AfterAnalysis(t *testing.T) {
	gen := &fakeGenerator{texts: []string{
		"{\"analysis\":{\"light\":[\"a\"],\"subject\":[\"b\"],\"tech\":[\"c\"]}}",
		"wooden mannequin, chin raised",
	}}
	mux := newTestMux(gen, session.NewRegistry(time.Minute), time.Second)

	rr := postJSON(t, mux, "/api/analyze", map[string]string{
		"image": testImageB64(t, 300, 200),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("analyze status = %d", rr.Code)
	}
	sessionID, _ := decodeBody(t, rr)["sessionId"].(string)

	rr = postJSON(t, mux, "/api/generate-pose", map[string]string{
		"session_id":   sessionID,
		"pose_summary": "b",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("generate-pose status = %d, body = %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["success"] != true {
		t.Error("expected success=true")
	}
	imageURL, _ := body["imageUrl"].(string)
	if !strings.Contains(imageURL, url.PathEscape("wooden mannequin, chin raised")) {
		t.Errorf("imageUrl = %q", imageURL)
	}
	if gen.calls != 2 {
		t.Errorf("provider calls = %d, want 2", gen.calls)
	}
}

// --- /api/healthz ---

func TestHealthz(t *testing.T) {
	mux := newTestMux(&fakeGenerator{}, session.NewRegistry(time.Minute), time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if body := decodeBody(t, rr); body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}
