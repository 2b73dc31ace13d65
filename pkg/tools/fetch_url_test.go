package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchURLPlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "plain body")
	}))
	defer server.Close()

	state, _ := stateFor(t)
	tool := &FetchURLTool{}

	result := tool.Execute(context.Background(), state, fmt.Sprintf(`{"url":%q}`, server.URL))
	require.False(t, result.IsError(), result.Content())
	assert.Equal(t, "plain body", result.Content())
}

func TestFetchURLHTMLConvertedToMarkdown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><h1>Title</h1><p>Some <strong>bold</strong> text.</p></body></html>")
	}))
	defer server.Close()

	state, _ := stateFor(t)
	tool := &FetchURLTool{}

	result := tool.Execute(context.Background(), state, fmt.Sprintf(`{"url":%q}`, server.URL))
	require.False(t, result.IsError(), result.Content())
	assert.Contains(t, result.Content(), "# Title")
	assert.Contains(t, result.Content(), "**bold**")
	assert.NotContains(t, result.Content(), "<h1>")
}

func TestFetchURLErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer server.Close()

	state, _ := stateFor(t)
	tool := &FetchURLTool{}

	result := tool.Execute(context.Background(), state, fmt.Sprintf(`{"url":%q}`, server.URL))
	assert.True(t, result.IsError())
	assert.Contains(t, result.Error, "404")
}

func TestFetchURLConnectionRefused(t *testing.T) {
	state, _ := stateFor(t)
	tool := &FetchURLTool{}

	result := tool.Execute(context.Background(), state, `{"url":"http://127.0.0.1:1/"}`)
	assert.True(t, result.IsError())
	assert.Contains(t, result.Content(), "failed to fetch url")
}

func TestFetchURLValidateInput(t *testing.T) {
	state, _ := stateFor(t)
	tool := &FetchURLTool{}

	assert.Error(t, tool.ValidateInput(state, `{}`))
	assert.Error(t, tool.ValidateInput(state, `{"url":"ftp://example.com/file"}`))
	assert.NoError(t, tool.ValidateInput(state, `{"url":"https://example.com"}`))
}
