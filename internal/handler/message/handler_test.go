package message

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type stubReplier struct {
	reply string
	err   error
	got   []string
}

func (s *stubReplier) Reply(_ context.Context, message string) (string, error) {
	s.got = append(s.got, message)
	return s.reply, s.err
}

func setupRouter(replier Replier) *chi.Mux {
	handler := New(replier, 500, zerolog.Nop())
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func postMessage(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON body %q: %v", resp.Body.String(), err)
	}
	return out
}

func TestHandleMessageReturnsReply(t *testing.T) {
	replier := &stubReplier{reply: "Hello"}
	r := setupRouter(replier)

	resp := postMessage(r, `{"message":"  hi  "}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := decodeBody(t, resp)["response"]; got != "Hello" {
		t.Fatalf("expected reply Hello, got %q", got)
	}
	if len(replier.got) != 1 || replier.got[0] != "hi" {
		t.Fatalf("expected trimmed message to reach replier, got %v", replier.got)
	}
}

func TestHandleMessageRejectsEmpty(t *testing.T) {
	bodies := []string{`{}`, `{"message":""}`, `{"message":"   "}`, `not json`, `{"message":null}`}

	for _, body := range bodies {
		replier := &stubReplier{reply: "unused"}
		resp := postMessage(setupRouter(replier), body)

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, resp.Code)
		}
		if got := decodeBody(t, resp)["error"]; got != errEmptyMessage {
			t.Fatalf("body %s: unexpected error %q", body, got)
		}
		if len(replier.got) != 0 {
			t.Fatalf("body %s: replier should not be called", body)
		}
	}
}

func TestHandleMessageRejectsTooLong(t *testing.T) {
	replier := &stubReplier{reply: "unused"}
	payload, _ := json.Marshal(map[string]string{"message": strings.Repeat("é", 501)})

	resp := postMessage(setupRouter(replier), string(payload))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if got := decodeBody(t, resp)["error"]; got != errTooLong {
		t.Fatalf("unexpected error %q", got)
	}
}

func TestHandleMessageAcceptsLimit(t *testing.T) {
	replier := &stubReplier{reply: "fits"}
	payload, _ := json.Marshal(map[string]string{"message": strings.Repeat("é", 500)})

	resp := postMessage(setupRouter(replier), string(payload))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestHandleMessageReplierError(t *testing.T) {
	replier := &stubReplier{err: errors.New("model offline")}

	resp := postMessage(setupRouter(replier), `{"message":"hello"}`)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if got := decodeBody(t, resp)["error"]; got != errUnexpected {
		t.Fatalf("unexpected error %q", got)
	}
}

func TestHandleMessageWithoutReplier(t *testing.T) {
	resp := postMessage(setupRouter(nil), `{"message":"hello"}`)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}
