// Package insight generates the one-sentence re-engagement hook shown when a
// returning user logs in, and decides how to seed the new session's
// transcript from stored history.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"bankena/internal/chat"
	"bankena/internal/models"
)

// chatModel is the slice of the eino model surface the generator needs.
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Generator produces insight summaries through a one-shot model call.
type Generator struct {
	model chatModel
}

// NewGenerator wraps an existing chat model.
func NewGenerator(m chatModel) *Generator {
	return &Generator{model: m}
}

// NewGeminiGenerator builds a generator on the shared Gemini client.
func NewGeminiGenerator(ctx context.Context, client *genai.Client, modelName string) (*Generator, error) {
	if client == nil {
		return nil, errors.New("genai client is required")
	}
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client: client,
		Model:  modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("init insight model: %w", err)
	}
	return &Generator{model: chatModel}, nil
}

// Generate asks for a single follow-up sentence referencing the snapshot and
// the user's last conversation point.
func (g *Generator) Generate(ctx context.Context, snapshot models.FinancialSnapshot, lastUserText string) (string, error) {
	prompt := fmt.Sprintf(`Based on the user's financial data:
- Income: %s
- Expenses: %s
- Deposits: %s
- Investments: %s
- Borrowings: %s
...and their last conversation point about %q, generate a one-sentence insight or a follow-up question that ENA could present upon login. Phrase it as a suggestion. For example: 'I was just reviewing your conversation and had a thought about [topic]. Would you like to take a look?' or 'Last time we spoke about [topic]. Are you interested in exploring that further?'`,
		models.FormatUSD(snapshot.Income),
		models.FormatUSD(snapshot.Expenses),
		models.FormatUSD(snapshot.CurrentDeposits),
		models.FormatUSD(snapshot.Investments),
		models.FormatUSD(snapshot.Borrowings),
		lastUserText,
	)

	resp, err := g.model.Generate(ctx, []*schema.Message{
		{Role: schema.User, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("generate insight: %w", err)
	}
	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return "", errors.New("empty insight response")
	}
	return summary, nil
}

// WelcomeBack is the single bot message that replaces the transcript when an
// insight summary was generated.
func WelcomeBack(username, summary string) string {
	return fmt.Sprintf("Welcome back, %s! It looks like you have new insights waiting for you. %s", username, summary)
}

// Seed is the transcript installed synchronously at login: the first-login
// greeting when the user has no saved history, otherwise the saved history
// restored verbatim. When the history holds a user turn the seed is later
// replaced by the welcome-back message once generation finishes.
func Seed(username string, stored []models.Message) []models.Message {
	if len(stored) == 0 {
		return Greeting(username)
	}
	return stored
}

// Greeting is the first-login transcript, also the degraded seed when
// insight generation fails.
func Greeting(username string) []models.Message {
	return []models.Message{{Sender: models.SenderBot, Text: chat.FirstLoginGreeting(username)}}
}

// LastUserText returns the most recent user-authored turn, or "" when the
// history holds none (in which case no insight is generated).
func LastUserText(stored []models.Message) string {
	for i := len(stored) - 1; i >= 0; i-- {
		if stored[i].Sender == models.SenderUser {
			return stored[i].Text
		}
	}
	return ""
}
