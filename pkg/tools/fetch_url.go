package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	tooltypes "github.com/mpazaryna/telos/pkg/types/tools"
)

const (
	fetchTimeout      = 30 * time.Second
	maxFetchBodyBytes = 4 * 1024 * 1024
)

// FetchURLTool performs an HTTP GET and returns the body as text. HTML
// responses are converted to markdown before being handed to the model.
type FetchURLTool struct {
	client *http.Client
}

var _ tooltypes.Tool = &FetchURLTool{}

// FetchURLInput is the input schema for fetch_url
type FetchURLInput struct {
	URL string `json:"url" jsonschema:"required,description=The http or https URL to fetch"`
}

// GenerateSchema returns the JSON schema for fetch_url
func (t *FetchURLTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[FetchURLInput]()
}

// Name returns "fetch_url"
func (t *FetchURLTool) Name() string {
	return "fetch_url"
}

// Description describes the tool for the model
func (t *FetchURLTool) Description() string {
	return "Fetch the content of a URL via HTTP GET. HTML pages are converted to markdown; other content is returned as text."
}

// ValidateInput checks the raw parameters
func (t *FetchURLTool) ValidateInput(state tooltypes.State, parameters string) error {
	input := &FetchURLInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return err
	}
	if input.URL == "" {
		return errors.New("url is required")
	}
	parsed, err := url.Parse(input.URL)
	if err != nil {
		return errors.Wrap(err, "invalid url")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.Errorf("unsupported url scheme: %s", parsed.Scheme)
	}
	return nil
}

// Execute fetches the URL
func (t *FetchURLTool) Execute(ctx context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &FetchURLInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return tooltypes.ToolResult{Error: err.Error()}
	}

	client := t.client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if err != nil {
		return tooltypes.ToolResult{Error: errors.Wrap(err, "failed to build request").Error()}
	}

	resp, err := client.Do(req)
	if err != nil {
		return tooltypes.ToolResult{Error: errors.Wrap(err, "failed to fetch url").Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBodyBytes))
	if err != nil {
		return tooltypes.ToolResult{Error: errors.Wrap(err, "failed to read response body").Error()}
	}

	if resp.StatusCode >= 400 {
		return tooltypes.ToolResult{
			Result: string(body),
			Error:  fmt.Sprintf("request failed with status %d", resp.StatusCode),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") {
		converter := md.NewConverter("", true, nil)
		markdown, err := converter.ConvertString(string(body))
		if err == nil {
			return tooltypes.ToolResult{Result: markdown}
		}
		// fall through to the raw body when conversion fails
	}

	return tooltypes.ToolResult{Result: string(body)}
}
