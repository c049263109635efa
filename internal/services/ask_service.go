package services

import (
	"askai-backend/internal/models"
	"askai-backend/internal/provider"
	"askai-backend/internal/store"
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// --- Custom Service Errors ---
var (
	ErrConfiguration     = errors.New("provider credential not configured")
	ErrQuotaExceeded     = errors.New("provider quota exceeded")
	ErrInvalidCredential = errors.New("provider rejected credential")
	ErrProvider          = errors.New("provider call failed")
	ErrStorage           = errors.New("message storage failed")
)

// AskConfig is the subset of process configuration the service needs.
type AskConfig struct {
	ProviderName string
	APIKey       string
	Model        string
	Timeout      time.Duration
}

// AskService orchestrates prompt submission, history and provider diagnostics.
type AskService struct {
	store     store.MessageStore
	newClient provider.Factory
	cfg       AskConfig
}

// NewAskService creates a new AskService. The factory is called per request
// so that a missing credential is detected before any network traffic.
func NewAskService(store store.MessageStore, factory provider.Factory, cfg AskConfig) *AskService {
	return &AskService{
		store:     store,
		newClient: factory,
		cfg:       cfg,
	}
}

// Ask runs the three phases of a submission: check the credential, call the
// provider, persist the pair. A failure in any phase ends the request and
// nothing is written unless the provider call succeeded.
func (s *AskService) Ask(ctx context.Context, text string) (string, error) {
	// Phase 1: credential
	if s.cfg.APIKey == "" {
		log.Printf("[AskService] Ask: %s credential not set, refusing request", s.cfg.ProviderName)
		return "", ErrConfiguration
	}
	client, err := s.newClient(s.cfg.APIKey)
	if err != nil {
		if errors.Is(err, provider.ErrMissingCredential) {
			return "", ErrConfiguration
		}
		return "", fmt.Errorf("%w: building client: %w", ErrProvider, err)
	}

	// Phase 2: completion
	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	start := time.Now()
	completion, err := client.Complete(callCtx, text)
	if err != nil {
		log.Printf("ERROR [AskService] Ask: %s completion failed after %s: %v", s.cfg.ProviderName, time.Since(start), err)
		switch provider.Classify(err) {
		case provider.KindQuota:
			return "", fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
		case provider.KindAuth:
			return "", fmt.Errorf("%w: %w", ErrInvalidCredential, err)
		default:
			return "", fmt.Errorf("%w: %w", ErrProvider, err)
		}
	}
	answer := completion.String()
	log.Printf("[AskService] Ask: %s completion succeeded in %s (%d chars)", s.cfg.ProviderName, time.Since(start), len(answer))

	// Phase 3: persist
	msg, err := s.store.InsertMessage(ctx, text, answer)
	if err != nil {
		// Answer is dropped; every answer returned must also be in history.
		log.Printf("ERROR [AskService] Ask: completion succeeded but saving failed, discarding %d-char answer: %v", len(answer), err)
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	log.Printf("[AskService] Ask: stored message ID %d", msg.ID)

	return answer, nil
}

// History returns all stored messages, most recent first.
func (s *AskService) History(ctx context.Context) ([]models.HistoryItem, error) {
	msgs, err := s.store.ListMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	items := make([]models.HistoryItem, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, models.HistoryItem{ID: m.ID, Prompt: m.Prompt, Response: m.Response})
	}
	return items, nil
}

// Diagnostics reports credential and client-construction status. It never
// calls the completion API and never returns an error; failures land in the
// Status and Error fields. includeError controls whether raw detail is exposed.
func (s *AskService) Diagnostics(includeError bool) models.DiagnosticsResponse {
	resp := models.DiagnosticsResponse{
		CredentialLoaded: s.cfg.APIKey != "",
		Provider:         s.cfg.ProviderName,
		Model:            s.cfg.Model,
		Status:           models.DiagnosticsStatusOK,
	}
	if resp.CredentialLoaded {
		masked := MaskCredential(s.cfg.APIKey)
		resp.MaskedCredential = &masked
	}

	err := s.tryBuildClient()
	if err != nil {
		log.Printf("WARN: [AskService] Diagnostics: client construction failed: %v", err)
		resp.Status = models.DiagnosticsStatusError
		if includeError {
			resp.Error = err.Error()
		}
	}
	return resp
}

func (s *AskService) tryBuildClient() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic constructing provider client: %v", r)
		}
	}()
	_, err = s.newClient(s.cfg.APIKey)
	return err
}
