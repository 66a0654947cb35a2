package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"greenspace-agent/internal/domain"
)

const defaultMaxToolRounds = 4

// LLMStreamer performs one streaming model invocation with tools bound.
type LLMStreamer interface {
	StreamChat(ctx context.Context, in domain.ModelRequest, onDelta func(string)) (domain.ModelTurn, error)
}

// ToolRunner exposes the tool registry and resolves invocations. Run never
// returns an error; failures arrive encoded in the outcome payload.
type ToolRunner interface {
	Specs() []domain.ToolSpec
	Run(ctx context.Context, inv domain.ToolInvocation, caller domain.CallerContext) domain.ToolOutcome
}

// Config is the turn-independent configuration of the chat service,
// injected once at construction.
type Config struct {
	DefaultRegion string
	MaxToolRounds int
}

// ChatService drives one conversational turn: guardrail, prompt assembly,
// model invocation, tool dispatch, streaming.
type ChatService struct {
	llm   LLMStreamer
	tools ToolRunner
	cfg   Config
	log   logrus.FieldLogger
}

type ChatInput struct {
	Messages []domain.ChatMessage
	Caller   domain.CallerContext
}

// ChatOutput reports how the turn ended. Rejected turns carry the canned
// guardrail reply in Content and never touched the model; streamed turns
// carry the accumulated assistant text.
type ChatOutput struct {
	Rejected bool
	Content  string
}

type Option func(*ChatService)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *ChatService) {
		s.log = log
	}
}

// NewChatService wires the orchestration loop. llm may be nil when no model
// credential is configured; every turn then fails with
// ErrorServiceUnavailable before any other processing.
func NewChatService(llm LLMStreamer, tools ToolRunner, cfg Config, opts ...Option) (*ChatService, error) {
	if tools == nil {
		return nil, errors.New("usecase: tool runner must not be nil")
	}
	if strings.TrimSpace(cfg.DefaultRegion) == "" {
		return nil, errors.New("usecase: default region must not be empty")
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaultMaxToolRounds
	}
	s := &ChatService{
		llm:   llm,
		tools: tools,
		cfg:   cfg,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Respond runs one turn. Text deltas are forwarded to onDelta as the model
// produces them; the final accumulated text is also returned.
func (s *ChatService) Respond(ctx context.Context, in ChatInput, onDelta func(string)) (ChatOutput, error) {
	if s.llm == nil {
		return ChatOutput{}, newError(ErrorServiceUnavailable, "missing_model_credential", nil)
	}

	transcript := dropBlankMessages(in.Messages)
	lastUser := lastUserMessage(transcript)
	if lastUser == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "no_valid_messages", nil)
	}

	classification := classifyTopic(lastUser)
	if !classification.FarmingRelated {
		s.log.WithFields(logrus.Fields{"topics": classification.DetectedTopics}).Info("turn rejected by guardrail")
		return ChatOutput{
			Rejected: true,
			Content:  rejectionMessage(classification.DetectedTopics),
		}, nil
	}

	specs := s.tools.Specs()
	system := buildSystemPrompt(in.Caller, specs, s.cfg.DefaultRegion)

	for round := 0; ; round++ {
		turn, err := s.llm.StreamChat(ctx, domain.ModelRequest{
			System:   system,
			Messages: transcript,
			Tools:    specs,
		}, onDelta)
		if err != nil {
			return ChatOutput{}, newError(ErrorUpstream, "model_stream_error", err)
		}
		if len(turn.Calls) == 0 || round >= s.cfg.MaxToolRounds {
			return ChatOutput{Content: turn.Text}, nil
		}

		results := make([]domain.ToolOutcome, 0, len(turn.Calls))
		for _, call := range turn.Calls {
			results = append(results, s.tools.Run(ctx, call, in.Caller))
		}
		transcript = append(transcript,
			domain.ChatMessage{Role: domain.RoleAssistant, Content: turn.Text, Calls: turn.Calls},
			domain.ChatMessage{Role: domain.RoleTool, Results: results},
		)
	}
}

// dropBlankMessages removes whitespace-only messages before anything else
// looks at the turn; the guardrail never sees blanks.
func dropBlankMessages(in []domain.ChatMessage) []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(in))
	for _, m := range in {
		if strings.TrimSpace(m.Content) == "" && len(m.Calls) == 0 && len(m.Results) == 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

func lastUserMessage(msgs []domain.ChatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleUser {
			return strings.TrimSpace(msgs[i].Content)
		}
	}
	return ""
}
