package chat

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

type fakeGenerator struct {
	calls [][]*genai.Content
	resp  *genai.GenerateContentResponse
	err   error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, contents)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, &genai.Part{Text: text})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}},
		},
	}
}

func TestSession_SendAccumulatesHistory(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("first reply")}
	sess := NewSession(gen, "test-model", nil)

	if _, err := sess.Send(context.Background(), &genai.Part{Text: "turn one"}); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if sess.Turns() != 2 {
		t.Fatalf("turns after first send = %d, want 2", sess.Turns())
	}

	gen.resp = textResponse("second reply")
	if _, err := sess.Send(context.Background(), &genai.Part{Text: "turn two"}); err != nil {
		t.Fatalf("second send: %v", err)
	}

	// The second provider call must replay the full conversation:
	// user turn one, model reply, user turn two.
	if len(gen.calls) != 2 {
		t.Fatalf("provider calls = %d, want 2", len(gen.calls))
	}
	second := gen.calls[1]
	if len(second) != 3 {
		t.Fatalf("second call carried %d contents, want 3", len(second))
	}
	if second[0].Role != genai.RoleUser || second[1].Role != genai.RoleModel || second[2].Role != genai.RoleUser {
		t.Errorf("unexpected role sequence: %s, %s, %s", second[0].Role, second[1].Role, second[2].Role)
	}
	if second[1].Parts[0].Text != "first reply" {
		t.Errorf("model turn text = %q, want %q", second[1].Parts[0].Text, "first reply")
	}
}

func TestSession_FailedSendLeavesHistory(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	sess := NewSession(gen, "test-model", nil)

	if _, err := sess.Send(context.Background(), &genai.Part{Text: "hello"}); err == nil {
		t.Fatal("expected error")
	}
	if sess.Turns() != 0 {
		t.Errorf("turns after failed send = %d, want 0", sess.Turns())
	}
}

func TestSession_NilResponse(t *testing.T) {
	gen := &fakeGenerator{resp: nil}
	sess := NewSession(gen, "test-model", nil)

	if _, err := sess.Send(context.Background(), &genai.Part{Text: "hello"}); err == nil {
		t.Fatal("expected error for nil response")
	}
}
