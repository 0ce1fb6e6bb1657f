package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// GeminiFactory allocates Gemini chat sessions.
type GeminiFactory struct {
	client *genai.Client
	model  string
}

// NewGeminiFactory creates the shared Gemini client.
func NewGeminiFactory(ctx context.Context, apiKey, model string) (*GeminiFactory, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiFactory{client: client, model: model}, nil
}

// Client exposes the underlying genai client so other components (insight
// generation) can share it.
func (f *GeminiFactory) Client() *genai.Client {
	return f.client
}

// NewSession opens a chat with the given instruction; declarations, when
// present, are attached as a single tool.
func (f *GeminiFactory) NewSession(ctx context.Context, systemInstruction string, declarations []*genai.FunctionDeclaration) (ModelSession, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}
	if len(declarations) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}
	chat, err := f.client.Chats.Create(ctx, f.model, cfg, nil)
	if err != nil {
		return nil, classifyModelError(err)
	}
	return &geminiSession{chat: chat}, nil
}

type geminiSession struct {
	chat *genai.Chat
}

func (s *geminiSession) Send(ctx context.Context, message string) (*Reply, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return nil, classifyModelError(err)
	}
	reply := &Reply{Text: resp.Text()}
	if calls := resp.FunctionCalls(); len(calls) > 0 {
		reply.Call = calls[0]
	}
	return reply, nil
}

// classifyModelError turns a transport error into a typed ModelError. API
// status codes are authoritative; the substring checks are a fallback for
// wrapped transport failures without one.
func classifyModelError(err error) error {
	kind := ErrorUnknown

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case strings.Contains(apiErr.Message, "API key not valid"):
			kind = ErrorCredential
		case apiErr.Code == 401 || apiErr.Code == 403:
			kind = ErrorCredential
		case apiErr.Code == 400:
			kind = ErrorBadRequest
		case apiErr.Code == 429 || apiErr.Code == 500 || apiErr.Code == 502 || apiErr.Code == 503:
			kind = ErrorTransient
		}
	} else {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "API key not valid"):
			kind = ErrorCredential
		case strings.Contains(msg, "400"):
			kind = ErrorBadRequest
		case strings.Contains(msg, "503"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
			kind = ErrorTransient
		}
	}

	return &ModelError{Kind: kind, Err: err}
}
