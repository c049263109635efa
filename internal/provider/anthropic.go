package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 1024

// Anthropic implements Completer using the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropic returns a Completer backed by the Anthropic SDK. SDK retries
// are disabled; each Complete is a single pass-through call.
func NewAnthropic(apiKey, baseURL, model string, hc *http.Client) (*Anthropic, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}
	if model == "" {
		return nil, errors.New("anthropic: model not set")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
	}, nil
}

// AnthropicFactory returns a Factory producing Anthropic clients that share hc.
func AnthropicFactory(baseURL, model string, hc *http.Client) Factory {
	return func(apiKey string) (Completer, error) {
		c, err := NewAnthropic(apiKey, baseURL, model, hc)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func (c *Anthropic) Complete(ctx context.Context, prompt string) (Completion, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(anthropicMaxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	})
	if err != nil {
		return Completion{}, anthropicError(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
			if text.Len() > 0 {
				text.WriteString("\n")
			}
			text.WriteString(tb.Text)
		}
	}
	return Completion{Text: text.String(), Raw: msg.RawJSON()}, nil
}

type anthropicErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func anthropicError(err error) *Error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return &Error{Kind: classifyMessage(err.Error()), Message: "anthropic request failed", Err: err}
	}

	var body anthropicErrorBody
	_ = json.Unmarshal([]byte(apiErr.RawJSON()), &body)
	msg := body.Error.Message
	if msg == "" {
		msg = err.Error()
	}

	var kind Kind
	switch {
	case body.Error.Type == "authentication_error", apiErr.StatusCode == http.StatusUnauthorized:
		kind = KindAuth
	case body.Error.Type == "rate_limit_error", apiErr.StatusCode == http.StatusTooManyRequests,
		strings.Contains(strings.ToLower(msg), "credit balance"):
		kind = KindQuota
	default:
		kind = classifyMessage(msg)
	}
	return &Error{
		Kind:       kind,
		StatusCode: apiErr.StatusCode,
		Code:       body.Error.Type,
		Message:    msg,
		Err:        err,
	}
}
