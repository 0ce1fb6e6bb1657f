// Package chat owns the conversation session: transcript, turn lifecycle, the
// model handle, and translation of model failures into transcript messages.
package chat

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Reply is what one model turn produces: narrative text, or a single function
// call. When the model emits several calls, only the first is honored.
type Reply struct {
	Text string
	Call *genai.FunctionCall
}

// ModelSession is one live conversation handle at the model boundary.
type ModelSession interface {
	Send(ctx context.Context, message string) (*Reply, error)
}

// SessionFactory allocates model sessions. Tool declarations are attached only
// for logged-out sessions.
type SessionFactory interface {
	NewSession(ctx context.Context, systemInstruction string, declarations []*genai.FunctionDeclaration) (ModelSession, error)
}

// ErrorKind classifies a model-boundary failure. The session maps each kind to
// a fixed user-facing sentence instead of matching transport error text.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	// ErrorCredential covers invalid or missing API credentials.
	ErrorCredential
	// ErrorBadRequest covers malformed requests the model rejected.
	ErrorBadRequest
	// ErrorTransient covers connectivity problems and service unavailability.
	ErrorTransient
)

// ModelError wraps a model-boundary failure with its classification.
type ModelError struct {
	Kind ErrorKind
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model request failed (%v): %v", e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

const (
	initFailureText       = "Sorry, I am unable to connect right now. Please try again later."
	genericFailureText    = "Sorry, something went wrong. Please try again."
	credentialFailureText = "There is an issue with the chatbot configuration. Please contact support."
	badRequestFailureText = "I had a problem understanding that. Could you please rephrase your request?"
	transientFailureText  = "I am having trouble connecting to my services right now. Please try again in a moment."
)

// failureText maps a turn failure to the sentence shown in the transcript.
func failureText(err error) string {
	var merr *ModelError
	if errors.As(err, &merr) {
		switch merr.Kind {
		case ErrorCredential:
			return credentialFailureText
		case ErrorBadRequest:
			return badRequestFailureText
		case ErrorTransient:
			return transientFailureText
		}
	}
	return genericFailureText
}
