package reasoner

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Handler serves POST /api/interpret by forwarding the messages to an
// upstream Reasoner and answering in the OpenAI response shape.
//
// A nil upstream answers 500 "AI service not configured".
type Handler struct {
	Upstream Reasoner
	Log      logrus.FieldLogger
}

// NewHandler returns a Handler over upstream.
func NewHandler(upstream Reasoner, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{Upstream: upstream, Log: log}
}

type handlerRequest struct {
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature"`
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if h.Upstream == nil {
		writeError(w, http.StatusInternalServerError, "AI service not configured")
		return
	}

	var body handlerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxResponseBytes)).Decode(&body); err != nil || body.Messages == nil {
		writeError(w, http.StatusBadRequest, "Invalid request: messages required")
		return
	}
	req := Request{Messages: body.Messages, Temperature: DefaultTemperature}
	if body.Temperature != nil {
		req.Temperature = *body.Temperature
	}

	content, err := h.Upstream.Interpret(r.Context(), req)
	if err != nil {
		h.Log.WithError(err).Error("upstream interpretation failed")
		writeError(w, http.StatusBadGateway, "AI service error")
		return
	}
	writeJSON(w, http.StatusOK, completion{
		Choices: []choice{{Message: Message{Role: RoleAssistant, Content: content}}},
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
