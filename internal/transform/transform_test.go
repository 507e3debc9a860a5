package transform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabscribe/tabscribe/internal/errors"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
	}{
		{"summarize", Summarize},
		{" Rewrite ", Rewrite},
		{"proof", Proofread},
		{"trans", Translate},
	}
	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseAction("shout")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestBadge(t *testing.T) {
	assert.Equal(t, "summ", Summarize.Badge())
	assert.Equal(t, "rewr", Rewrite.Badge())
	assert.Equal(t, "proof", Proofread.Badge())
	assert.Equal(t, "trans", Translate.Badge())
}

func TestPrompt_Defaults(t *testing.T) {
	assert.Contains(t, Prompt(Rewrite, Options{}), "concise tone")
	assert.Contains(t, Prompt(Translate, Options{}), `"fr"`)
	assert.Contains(t, Prompt(Translate, Options{Target: "de"}), `"de"`)
	assert.Empty(t, Prompt("shout", Options{}))
}

func TestOllama_Transform(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"message": {"role": "assistant", "content": "  Short version.\n"}}`))
	}))
	defer srv.Close()

	o := NewOllama(srv.URL+"/", "tiny", time.Second, nil)
	out, err := o.Transform(context.Background(), Summarize, "A long passage.", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Short version.", out)

	assert.Equal(t, "tiny", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "A long passage.", got.Messages[1].Content)
}

func TestOllama_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllama(srv.URL, "missing", time.Second, nil).Transform(context.Background(), Proofread, "teh", Options{})
	assert.True(t, errors.Is(err, errors.ErrProviderUnavailable))
}

func TestOllama_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewOllama(srv.URL, "tiny", time.Second, nil).Transform(context.Background(), Summarize, "x", Options{})
	assert.True(t, errors.Is(err, errors.ErrProviderUnavailable))
}
