package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"greenspace-agent/internal/domain"
	"greenspace-agent/internal/tools"
	"greenspace-agent/internal/usecase"
)

type stubChat struct {
	out    usecase.ChatOutput
	err    error
	deltas []string
	in     usecase.ChatInput
	calls  int
}

func (s *stubChat) Respond(_ context.Context, in usecase.ChatInput, onDelta func(string)) (usecase.ChatOutput, error) {
	s.in = in
	s.calls++
	for _, d := range s.deltas {
		onDelta(d)
	}
	return s.out, s.err
}

func newTestHandler(t *testing.T, chat ChatUseCase) http.Handler {
	t.Helper()
	h, err := New(chat)
	require.NoError(t, err)
	return h.Routes()
}

func postChat(t *testing.T, routes http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestNew_ValidatesDependency(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestHandleChat_StreamsAssistantText(t *testing.T) {
	chat := &stubChat{
		out:    usecase.ChatOutput{Content: "Fresh tomatoes are in stock."},
		deltas: []string{"Fresh tomatoes ", "are in stock."},
	}
	routes := newTestHandler(t, chat)

	rec := postChat(t, routes, `{"messages":[{"role":"user","content":"Do you have tomatoes?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "Fresh tomatoes are in stock.", rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Correlation-Id"))
	require.True(t, rec.Flushed)
}

func TestHandleChat_MapsRequestBody(t *testing.T) {
	chat := &stubChat{out: usecase.ChatOutput{Content: "ok"}}
	routes := newTestHandler(t, chat)

	postChat(t, routes, `{
		"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}],
		"user":{"id":"user-1","email":"asha@example.com","role":"buyer","whatsapp_number":"9876543210","location":"Madhapur"}
	}`)

	require.Len(t, chat.in.Messages, 2)
	require.Equal(t, domain.ChatMessage{Role: "user", Content: "hi"}, chat.in.Messages[0])
	require.Equal(t, domain.CallerContext{
		ID:       "user-1",
		Email:    "asha@example.com",
		Role:     "buyer",
		Phone:    "9876543210",
		Location: "Madhapur",
	}, chat.in.Caller)
}

func TestHandleChat_PhoneFieldWinsOverWhatsapp(t *testing.T) {
	chat := &stubChat{out: usecase.ChatOutput{Content: "ok"}}
	routes := newTestHandler(t, chat)

	postChat(t, routes, `{"messages":[{"role":"user","content":"hi"}],"user":{"id":"u","phone":"1112223334","whatsapp_number":"9876543210"}}`)
	require.Equal(t, "1112223334", chat.in.Caller.Phone)
}

func TestHandleChat_GuardrailRejectionBody(t *testing.T) {
	chat := &stubChat{out: usecase.ChatOutput{Rejected: true, Content: "I can't help with weather."}}
	routes := newTestHandler(t, chat)

	rec := postChat(t, routes, `{"messages":[{"role":"user","content":"What's the weather today?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody[rejectionResponse](t, rec)
	require.Equal(t, "assistant", body.Role)
	require.Equal(t, "I can't help with weather.", body.Content)
}

func TestHandleChat_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		errMsg string
	}{
		{
			name:   "invalid input",
			err:    &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "no_valid_messages"},
			status: http.StatusBadRequest,
			errMsg: "No valid messages provided",
		},
		{
			name:   "service unavailable",
			err:    &usecase.Error{Code: usecase.ErrorServiceUnavailable, Reason: "missing_model_credential"},
			status: http.StatusServiceUnavailable,
			errMsg: "AI assistant is not configured",
		},
		{
			name:   "upstream",
			err:    &usecase.Error{Code: usecase.ErrorUpstream, Reason: "model_stream_error", Err: errors.New("stream broke")},
			status: http.StatusInternalServerError,
			errMsg: "Internal server error",
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			errMsg: "Internal server error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			routes := newTestHandler(t, &stubChat{err: tc.err})
			rec := postChat(t, routes, `{"messages":[{"role":"user","content":"hi"}]}`)
			require.Equal(t, tc.status, rec.Code)

			body := decodeBody[errorResponse](t, rec)
			require.Equal(t, tc.errMsg, body.Error)
			if tc.status == http.StatusInternalServerError {
				require.NotEmpty(t, body.Details)
			}
		})
	}
}

func TestHandleChat_InvalidJSONBody(t *testing.T) {
	chat := &stubChat{}
	routes := newTestHandler(t, chat)

	rec := postChat(t, routes, `not-json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, chat.calls)
}

func TestHandleChat_MethodNotAllowed(t *testing.T) {
	routes := newTestHandler(t, &stubChat{})
	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleChat_EchoesProvidedCorrelationID(t *testing.T) {
	routes := newTestHandler(t, &stubChat{out: usecase.ChatOutput{Content: "ok"}})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("x-correlation-id", "corr-123")
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	require.Equal(t, "corr-123", rec.Header().Get("X-Correlation-Id"))
}

func TestHealth(t *testing.T) {
	routes := newTestHandler(t, &stubChat{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

// The scenarios below run against the real chat service so the transport
// contract is exercised end to end: blank turns, guardrail rejections and a
// missing model credential, with zero collaborator traffic throughout.

func newFullStack(t *testing.T, llm usecase.LLMStreamer) (http.Handler, *int) {
	t.Helper()
	outbound := 0
	collab := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		outbound++
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	t.Cleanup(collab.Close)

	executor, err := tools.NewExecutor(collab.URL, "Hyderabad")
	require.NoError(t, err)
	svc, err := usecase.NewChatService(llm, executor, usecase.Config{DefaultRegion: "Hyderabad", MaxToolRounds: 4})
	require.NoError(t, err)
	h, err := New(svc)
	require.NoError(t, err)
	return h.Routes(), &outbound
}

type fixedLLM struct {
	text  string
	calls int
}

func (f *fixedLLM) StreamChat(_ context.Context, _ domain.ModelRequest, onDelta func(string)) (domain.ModelTurn, error) {
	f.calls++
	if onDelta != nil {
		onDelta(f.text)
	}
	return domain.ModelTurn{Text: f.text}, nil
}

func TestScenario_OffTopicRejected(t *testing.T) {
	llm := &fixedLLM{text: "should never stream"}
	routes, outbound := newFullStack(t, llm)

	rec := postChat(t, routes, `{"messages":[{"role":"user","content":"What's the weather today?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[rejectionResponse](t, rec)
	require.Equal(t, "assistant", body.Role)
	require.Contains(t, body.Content, "weather")
	require.Zero(t, llm.calls)
	require.Zero(t, *outbound)
}

func TestScenario_BlankMessagesRejected(t *testing.T) {
	llm := &fixedLLM{text: "should never stream"}
	routes, outbound := newFullStack(t, llm)

	for _, body := range []string{
		`{"messages":[]}`,
		`{"messages":[{"role":"user","content":""},{"role":"user","content":"   "}]}`,
	} {
		rec := postChat(t, routes, body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		out := decodeBody[errorResponse](t, rec)
		require.Equal(t, "No valid messages provided", out.Error)
	}
	require.Zero(t, llm.calls)
	require.Zero(t, *outbound)
}

func TestScenario_MissingCredential(t *testing.T) {
	routes, outbound := newFullStack(t, nil)

	rec := postChat(t, routes, `{"messages":[{"role":"user","content":"Do you have tomatoes?"}]}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Zero(t, *outbound)

	// Content is irrelevant: even an off-topic turn answers 503.
	rec = postChat(t, routes, `{"messages":[{"role":"user","content":"What's the weather today?"}]}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScenario_InDomainTurnStreams(t *testing.T) {
	llm := &fixedLLM{text: "Tomatoes are 40 rupees per kg today."}
	routes, outbound := newFullStack(t, llm)

	rec := postChat(t, routes, `{"messages":[{"role":"user","content":"Do you have organic tomatoes?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Tomatoes are 40 rupees per kg today.", rec.Body.String())
	require.Equal(t, 1, llm.calls)
	require.Zero(t, *outbound)
}
