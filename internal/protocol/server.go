package protocol

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-esaf-workflow/internal/apperrors"
)

// IntentHandler executes one validated envelope and returns the result
// payload, or a structured error.
type IntentHandler interface {
	Handle(ctx context.Context, env Envelope) (any, error)
}

// IntentHandlerFunc adapts a function to the IntentHandler interface.
type IntentHandlerFunc func(ctx context.Context, env Envelope) (any, error)

// Handle implements IntentHandler.
func (f IntentHandlerFunc) Handle(ctx context.Context, env Envelope) (any, error) {
	return f(ctx, env)
}

// NewServeMux builds the HTTP surface of one workflow service: the
// capability descriptor on the well-known path, and the blocking message
// endpoint. Envelope validation runs before the handler, so a malformed
// envelope never touches service state.
func NewServeMux(descriptor Descriptor, handler IntentHandler, log zerolog.Logger) *http.ServeMux {
	if descriptor.Endpoint == "" {
		descriptor.Endpoint = MessagePath
	}

	mux := http.NewServeMux()

	mux.HandleFunc(WellKnownPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(descriptor)
	})

	mux.HandleFunc(descriptor.Endpoint, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var msg Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			writeError(w, apperrors.New(apperrors.CodeValidation, "malformed message body"))
			return
		}

		env := msg.Envelope
		env.Normalise()
		if err := env.Validate(); err != nil {
			log.Warn().
				Str("intent", string(env.Intent)).
				Str("message_id", msg.MessageID).
				Err(err).
				Msg("Rejected invalid envelope")
			writeError(w, err)
			return
		}

		result, err := handler.Handle(r.Context(), env)
		if err != nil {
			log.Warn().
				Str("intent", string(env.Intent)).
				Str("request_id", env.RequestID).
				Str("message_id", msg.MessageID).
				Err(err).
				Msg("Intent handler returned error")
			writeError(w, err)
			return
		}

		writeResult(w, result)
	})

	return mux
}

func writeResult(w http.ResponseWriter, result any) {
	payload, err := json.Marshal(result)
	if err != nil {
		writeError(w, apperrors.Wrap(err, apperrors.CodeInternal, "marshal result"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Response{Result: payload})
}

func writeError(w http.ResponseWriter, err error) {
	appErr := apperrors.From(err)
	w.Header().Set("Content-Type", "application/json")
	// HTTP status classes exist only at this boundary; the payload carries
	// the machine-readable code the services actually act on.
	w.WriteHeader(apperrors.HTTPStatus(appErr.Code))
	json.NewEncoder(w).Encode(Response{Error: appErr})
}
