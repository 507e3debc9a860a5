// Package transform rewrites card snippets with a language model.
package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tabscribe/tabscribe/internal/errors"
)

// Action is a text transformation applied to a snippet.
type Action string

const (
	Summarize Action = "summarize"
	Rewrite   Action = "rewrite"
	Proofread Action = "proofread"
	Translate Action = "translate"
)

// Actions lists every supported action.
var Actions = []Action{Summarize, Rewrite, Proofread, Translate}

// badges are the short markers recorded on a card after an action.
var badges = map[Action]string{
	Summarize: "summ",
	Rewrite:   "rewr",
	Proofread: "proof",
	Translate: "trans",
}

// ParseAction validates an action name. Badge names are accepted too.
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range Actions {
		if string(a) == s || badges[a] == s {
			return a, nil
		}
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unknown action %q", s))
}

// Badge returns the marker recorded on a card after a.
func (a Action) Badge() string {
	return badges[a]
}

// Options tune rewrite and translate.
type Options struct {
	Style  string // rewrite tone, default "Concise"
	Target string // translate language, default "fr"
}

func (o Options) withDefaults() Options {
	if o.Style == "" {
		o.Style = "Concise"
	}
	if o.Target == "" {
		o.Target = "fr"
	}
	return o
}

// Prompt returns the instruction sent to the model for a.
func Prompt(a Action, opts Options) string {
	opts = opts.withDefaults()
	switch a {
	case Summarize:
		return "Summarize the following text in a few sentences. Reply with the summary only."
	case Rewrite:
		return fmt.Sprintf("Rewrite the following text in a %s tone. Reply with the rewritten text only.", strings.ToLower(opts.Style))
	case Proofread:
		return "Fix spelling, grammar and punctuation in the following text. Reply with the corrected text only."
	case Translate:
		return fmt.Sprintf("Translate the following text to the language with code %q. Reply with the translation only.", opts.Target)
	}
	return ""
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message message `json:"message"`
}

// Ollama transforms text through a local Ollama server's chat API.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// NewOllama creates a transformer for the server at baseURL using model.
func NewOllama(baseURL, model string, timeout time.Duration, log *zap.SugaredLogger) *Ollama {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Ollama{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Transform applies a to text and returns the model's reply, trimmed.
func (o *Ollama) Transform(ctx context.Context, a Action, text string, opts Options) (string, error) {
	prompt := Prompt(a, opts)
	if prompt == "" {
		return "", errors.NewInvalidRequest(fmt.Sprintf("unknown action %q", a))
	}

	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []message{
			{Role: "system", Content: prompt},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", errors.NewInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", errors.NewProviderUnavailable("ollama", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewProviderUnavailable("ollama", resp.StatusCode, nil)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.NewProviderUnavailable("ollama", resp.StatusCode, err)
	}
	o.log.Debugw("snippet transformed", "action", a, "model", o.model)
	return strings.TrimSpace(out.Message.Content), nil
}
