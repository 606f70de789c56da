package assistant

import (
	"context"
	"strings"

	"HerShield/internal/models"
	"HerShield/pkg/llm"
	"HerShield/pkg/logger"
	"HerShield/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

type Request struct {
	Question string
	History  []Message
	// UserID is zero for anonymous visitors.
	UserID uint
}

type Reply struct {
	Response     string   `json:"response"`
	Suggestions  []string `json:"suggestions,omitempty"`
	ContextUsed  bool     `json:"context_used"`
	Personalized bool     `json:"personalized"`
	Source       string   `json:"source"`
}

// Assistant answers questions through the provider and degrades to the
// canned corpus whenever the provider is missing or fails.
type Assistant struct {
	db       *gorm.DB
	provider llm.LLM
	metrics  *metrics.Metrics
}

// New builds an assistant. provider may be nil, in which case every answer
// comes from the fallback corpus.
func New(db *gorm.DB, provider llm.LLM, m *metrics.Metrics) *Assistant {
	return &Assistant{db: db, provider: provider, metrics: m}
}

// Ask never fails; every error path ends in a canned answer.
func (a *Assistant) Ask(ctx context.Context, req Request) Reply {
	question := strings.TrimSpace(req.Question)
	user := a.userContext(req.UserID)
	history := a.mergeHistory(req.UserID, req.History)
	contextUsed := len(history) > 0

	reply := Reply{
		ContextUsed:  contextUsed,
		Personalized: user.UserID != 0,
	}

	answer, err := a.query(ctx, BuildPrompt(user, history, question))
	if err != nil {
		logger.Warn("assistant falling back to canned response",
			zap.Uint("user_id", req.UserID),
			zap.String("topic", FallbackTopic(question)),
			zap.Error(err))
		reply.Response = RenderMarkdown(FallbackResponse(question))
		reply.Source = SourceFallback
	} else {
		reply.Response = RenderMarkdown(strings.TrimSpace(answer))
		reply.Suggestions = Suggestions(question, reply.Response)
		reply.Source = SourceModel
	}
	a.metrics.RecordAssistant(reply.Source)

	if user.UserID != 0 && a.db != nil {
		if err := models.SaveConversation(a.db, user.UserID, question, reply.Response, contextUsed); err != nil {
			logger.Error("save conversation failed", zap.Uint("user_id", user.UserID), zap.Error(err))
		}
	}
	return reply
}

func (a *Assistant) query(ctx context.Context, prompt string) (string, error) {
	if a.provider == nil {
		return "", llm.ErrNotConfigured
	}
	return a.provider.Query(ctx, prompt)
}

func (a *Assistant) userContext(userID uint) UserContext {
	if userID == 0 || a.db == nil {
		return UserContext{}
	}
	user, err := models.GetUserByID(a.db, userID)
	if err != nil {
		logger.Warn("assistant user lookup failed", zap.Uint("user_id", userID), zap.Error(err))
		return UserContext{}
	}
	n, err := models.CountContacts(a.db, userID)
	if err != nil {
		logger.Warn("assistant contact count failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	return UserContext{UserID: user.ID, Name: user.Name, HasContacts: n > 0}
}

// mergeHistory prepends the last persisted turns, oldest first, to the tail
// of the transcript the client sent.
func (a *Assistant) mergeHistory(userID uint, client []Message) []Message {
	if userID == 0 || a.db == nil {
		return client
	}
	turns, err := models.RecentConversations(a.db, userID, promptHistory)
	if err != nil {
		logger.Warn("load conversation history failed", zap.Uint("user_id", userID), zap.Error(err))
		return client
	}
	if len(turns) == 0 {
		return client
	}
	merged := make([]Message, 0, 2*len(turns)+promptHistory)
	for i := len(turns) - 1; i >= 0; i-- {
		merged = append(merged,
			Message{Type: MessageUser, Content: turns[i].UserInput},
			Message{Type: MessageBot, Content: turns[i].AIResponse},
		)
	}
	return append(merged, lastN(client, promptHistory)...)
}
