package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"greenspace-agent/internal/domain"
	"greenspace-agent/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// chatRequest is the inbound body of POST /api/chat.
type chatRequest struct {
	Messages []chatMessage `json:"messages"`
	User     *chatUser     `json:"user,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatUser struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Phone          string `json:"phone"`
	WhatsappNumber string `json:"whatsapp_number"`
	Location       string `json:"location"`
}

// rejectionResponse is the non-streamed 200 body for guardrail rejections.
type rejectionResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ChatUseCase is the orchestration loop behind the endpoint.
type ChatUseCase interface {
	Respond(ctx context.Context, in usecase.ChatInput, onDelta func(string)) (usecase.ChatOutput, error)
}

// Handler is the HTTP transport of the chat gateway: body parsing, status
// mapping, correlation IDs and the response stream.
type Handler struct {
	chat ChatUseCase
	log  logrus.FieldLogger
}

type Option func(*Handler)

func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Handler) {
		h.log = log
	}
}

func New(chat ChatUseCase, opts ...Option) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	h := &Handler{
		chat: chat,
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes returns the service's HTTP surface with request logging applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	// Method-prefixed patterns ("POST /api/chat") need Go 1.22; the method
	// checks below reproduce their dispatch under the Go 1.21 ServeMux.
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleChat(w, r)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return h.requestLogging(mux)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	corrID := strings.TrimSpace(r.Header.Get(correlationHeader))
	if corrID == "" {
		corrID = uuid.NewString()
	}
	w.Header().Set(correlationHeader, corrID)
	log := h.log.WithFields(logrus.Fields{"correlation_id": corrID})

	streamed := false
	defer func() {
		if rec := recover(); rec != nil {
			log.WithFields(logrus.Fields{"panic": rec}).Error("chat turn panicked")
			if !streamed {
				writeJSON(w, http.StatusInternalServerError, errorResponse{
					Error:   "Internal server error",
					Details: fmt.Sprint(rec),
				})
			}
		}
	}()

	var req chatRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	in := usecase.ChatInput{
		Messages: toDomainMessages(req.Messages),
		Caller:   toCallerContext(req.User),
	}

	flusher, _ := w.(http.Flusher)
	onDelta := func(delta string) {
		if !streamed {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			streamed = true
		}
		_, _ = io.WriteString(w, delta)
		if flusher != nil {
			flusher.Flush()
		}
	}

	out, err := h.chat.Respond(r.Context(), in, onDelta)
	if err != nil {
		if streamed {
			// The status line is gone; all that is left is to stop.
			log.WithError(err).Warn("chat turn failed mid-stream")
			return
		}
		h.writeTurnError(w, log, err)
		return
	}

	if out.Rejected {
		log.Info("chat turn rejected by guardrail")
		writeJSON(w, http.StatusOK, rejectionResponse{Role: domain.RoleAssistant, Content: out.Content})
		return
	}
	if !streamed {
		// The model produced no deltas; send whatever text it returned whole.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, out.Content)
	}
}

func (h *Handler) writeTurnError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		switch ucErr.Code {
		case usecase.ErrorInvalidInput:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No valid messages provided"})
			return
		case usecase.ErrorServiceUnavailable:
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "AI assistant is not configured"})
			return
		}
	}
	log.WithError(err).Error("chat turn failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "Internal server error",
		Details: err.Error(),
	})
}

func toDomainMessages(in []chatMessage) []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(in))
	for _, m := range in {
		out = append(out, domain.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func toCallerContext(u *chatUser) domain.CallerContext {
	if u == nil {
		return domain.CallerContext{}
	}
	phone := strings.TrimSpace(u.Phone)
	if phone == "" {
		phone = strings.TrimSpace(u.WhatsappNumber)
	}
	return domain.CallerContext{
		ID:       strings.TrimSpace(u.ID),
		Email:    strings.TrimSpace(u.Email),
		Role:     strings.TrimSpace(u.Role),
		Phone:    phone,
		Location: strings.TrimSpace(u.Location),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
