package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const openAIChatURL = "https://api.openai.com/v1/chat/completions"

// OpenAI implements Completer using the OpenAI Chat Completions API.
type OpenAI struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

// NewOpenAI returns a Completer for the OpenAI API. An empty url selects the
// public endpoint; a nil client selects http.DefaultClient.
func NewOpenAI(apiKey, url, model string, client *http.Client) (*OpenAI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model not set")
	}
	if url == "" {
		url = openAIChatURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAI{apiKey: apiKey, url: url, model: model, client: client}, nil
}

// OpenAIFactory returns a Factory producing OpenAI clients that share client.
func OpenAIFactory(url, model string, client *http.Client) Factory {
	return func(apiKey string) (Completer, error) {
		c, err := NewOpenAI(apiKey, url, model, client)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

type openAIRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type openAIErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete sends prompt as a single user message and returns the assistant reply.
func (c *OpenAI) Complete(ctx context.Context, prompt string) (Completion, error) {
	body, err := json.Marshal(openAIRequest{
		Model:    c.model,
		Messages: []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Completion{}, fmt.Errorf("failed to marshal openai request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("failed to create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Completion{}, &Error{Kind: KindOther, Message: "openai request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, &Error{Kind: KindOther, StatusCode: resp.StatusCode, Message: "failed reading openai response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Completion{}, openAIError(resp.StatusCode, raw)
	}

	var out openAIResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Completion{}, &Error{Kind: KindOther, StatusCode: resp.StatusCode, Message: "failed to parse openai response: " + truncate(string(raw), 400)}
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return Completion{Raw: string(raw)}, nil
	}
	return Completion{Text: out.Choices[0].Message.Content, Raw: string(raw)}, nil
}

func openAIError(status int, raw []byte) *Error {
	var eb openAIErrorBody
	msg := truncate(string(raw), 400)
	code := ""
	if err := json.Unmarshal(raw, &eb); err == nil && eb.Error.Message != "" {
		msg = eb.Error.Message
		code = eb.Error.Code
		if code == "" {
			code = eb.Error.Type
		}
	}
	return &Error{
		Kind:       kindForStatus(status, code, msg),
		StatusCode: status,
		Code:       code,
		Message:    msg,
	}
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
