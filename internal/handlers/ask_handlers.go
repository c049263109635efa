package handlers

import (
	api_models "askai-backend/internal/models"
	"askai-backend/internal/services"
	"askai-backend/pkg/httputil"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
)

// AskService defines the interface expected from the ask service.
type AskService interface {
	Ask(ctx context.Context, text string) (string, error)
	History(ctx context.Context) ([]api_models.HistoryItem, error)
	Diagnostics(includeError bool) api_models.DiagnosticsResponse
}

// Fixed, user-facing error messages. Debug mode appends the raw error.
const (
	MsgQuotaExceeded     = "Provider quota exceeded. Please check your plan and billing details."
	MsgInvalidCredential = "Invalid provider API key."
	MsgStorageFailure    = "Failed to save or load message history."
	MsgUnexpected        = "An unexpected error occurred."
)

var rootEndpoints = []string{"/ask", "/history", "/health", "/diagnostics/provider"}

type AskHandlers struct {
	askService   AskService
	providerName string
	debug        bool
}

// NewAskHandlers creates the handlers for the ask API. providerName is only
// used to word the missing-credential message.
func NewAskHandlers(askSvc AskService, providerName string, debug bool) *AskHandlers {
	return &AskHandlers{
		askService:   askSvc,
		providerName: providerName,
		debug:        debug,
	}
}

// HandleAsk handles the POST /ask request.
func (h *AskHandlers) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req api_models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	// No content policy: empty text is forwarded as-is.
	answer, err := h.askService.Ask(r.Context(), req.Text)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, api_models.AskResponse{Answer: answer})
}

// HandleHistory handles the GET /history request.
func (h *AskHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	items, err := h.askService.History(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, items)
}

// HandleDiagnostics handles GET /diagnostics/provider. Always 200.
func (h *AskHandlers) HandleDiagnostics(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.askService.Diagnostics(h.debug))
}

func (h *AskHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, api_models.HealthResponse{Status: "ok"})
}

func (h *AskHandlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, api_models.RootResponse{
		Message:   "AI Chatbot API is running!",
		Endpoints: rootEndpoints,
	})
}

// respondServiceError maps service errors to status codes and messages.
func (h *AskHandlers) respondServiceError(w http.ResponseWriter, err error) {
	// Error Mapping: Map service errors to HTTP status codes
	switch {
	case errors.Is(err, services.ErrQuotaExceeded):
		log.Printf("Ask handler: provider quota exceeded: %v", err)
		httputil.RespondError(w, http.StatusPaymentRequired, h.withDetail(MsgQuotaExceeded, err)) // 402
	case errors.Is(err, services.ErrInvalidCredential):
		log.Printf("Ask handler: provider rejected credential: %v", err)
		httputil.RespondError(w, http.StatusUnauthorized, h.withDetail(MsgInvalidCredential, err)) // 401
	case errors.Is(err, services.ErrConfiguration):
		h.respondInternal(w, h.missingCredentialMessage(), err)
	case errors.Is(err, services.ErrStorage):
		h.respondInternal(w, h.withDetail(MsgStorageFailure, err), err)
	default:
		h.respondInternal(w, h.withDetail(MsgUnexpected, err), err)
	}
}

func (h *AskHandlers) respondInternal(w http.ResponseWriter, message string, err error) {
	incidentID := uuid.NewString()
	log.Printf("ERROR Ask handler: incident %s: %v", incidentID, err)
	httputil.RespondIncident(w, http.StatusInternalServerError, message, incidentID) // 500
}

func (h *AskHandlers) withDetail(message string, err error) string {
	if !h.debug || err == nil {
		return message
	}
	return message + " Detail: " + err.Error()
}

func (h *AskHandlers) missingCredentialMessage() string {
	switch h.providerName {
	case "anthropic":
		return "Anthropic API key not set. Please add it to your .env file."
	default:
		return "OpenAI API key not set. Please add it to your .env file."
	}
}
