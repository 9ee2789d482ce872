package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zhouzirui/teams-relay/backend/internal/config"
	"github.com/zhouzirui/teams-relay/backend/internal/model/chat"
)

// Stats is the gateway part of the status report.
type Stats struct {
	Enabled bool   `json:"enabled"`
	Model   string `json:"model"`
}

// Service wraps the completion backend: it shapes the request, absorbs and
// classifies failures and extracts the reply text.
type Service struct {
	chatModel model.BaseChatModel
	cfg       config.AIConfig
	limiter   *rate.Limiter
	logger    *zap.Logger
	verbose   bool
}

// NewService creates the gateway. A nil chatModel puts it in the permanent
// disabled mode that answers with canned replies.
func NewService(chatModel model.BaseChatModel, cfg config.AIConfig, logger *zap.Logger, verbose bool) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger.Named("ai"),
		verbose:   verbose,
	}
}

// Enabled reports whether a backend was configured at startup.
func (s *Service) Enabled() bool {
	return s != nil && s.chatModel != nil
}

// Stats reports the enablement flag and configured model id.
func (s *Service) Stats() Stats {
	return Stats{Enabled: s.Enabled(), Model: s.cfg.Model}
}

// Complete issues exactly one completion for the full history. Failures are
// never returned as errors: they come back as an Outcome carrying a
// fallback reply.
func (s *Service) Complete(ctx context.Context, turns []chat.Turn) Outcome {
	if !s.Enabled() {
		return Outcome{
			Text:    DisabledReply(latestUserContent(turns)),
			Failure: FailureBackendDisabled,
		}
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	if err := s.limiter.Wait(ctx); err != nil {
		failure := FailureRateLimited
		if ctx.Err() != nil {
			failure = Classify(ctx.Err())
		}
		s.logger.Warn("completion throttled", zap.Error(err), zap.Stringer("failure", failure))
		return s.fallback(failure)
	}

	s.logger.Debug("sending completion", zap.Int("messages", len(turns)), zap.String("model", s.cfg.Model))

	started := time.Now()
	msg, err := s.chatModel.Generate(ctx, toSchemaMessages(turns),
		model.WithModel(s.cfg.Model),
		model.WithMaxTokens(s.cfg.MaxTokens),
		model.WithTemperature(float32(s.cfg.Temperature)),
	)
	if err == nil && (msg == nil || strings.TrimSpace(msg.Content) == "") {
		err = ErrEmptyCompletion
	}
	if err != nil {
		failure := Classify(err)
		s.logger.Error("completion failed",
			zap.Error(err),
			zap.Stringer("failure", failure),
			zap.Duration("elapsed", time.Since(started)),
		)
		return s.fallback(failure)
	}

	usage := usageOf(msg)
	if s.verbose && usage != nil {
		s.logger.Debug("token usage",
			zap.Int("prompt", usage.PromptTokens),
			zap.Int("completion", usage.CompletionTokens),
			zap.Int("total", usage.TotalTokens),
		)
	}

	return Outcome{Text: msg.Content, Usage: usage}
}

func (s *Service) fallback(f Failure) Outcome {
	return Outcome{Text: FallbackMessage(f), Failure: f}
}

func toSchemaMessages(turns []chat.Turn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleSystem:
			messages = append(messages, schema.SystemMessage(turn.Content))
		case chat.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return messages
}

func latestUserContent(turns []chat.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == chat.RoleUser {
			return turns[i].Content
		}
	}
	return ""
}

func usageOf(msg *schema.Message) *Usage {
	if msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return nil
	}
	u := msg.ResponseMeta.Usage
	return &Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// String renders stats for logs.
func (s Stats) String() string {
	return fmt.Sprintf("enabled=%t model=%s", s.Enabled, s.Model)
}
