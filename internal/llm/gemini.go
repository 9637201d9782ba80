package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/genai"
)

// maxErrorBody bounds how much of a failed response body ends up in an error.
const maxErrorBody = 512

// geminiTransport posts to the generateContent REST endpoint.
// The genai package supplies the wire types only; the request itself is a
// plain POST so that the key travels as a query parameter.
type geminiTransport struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// geminiRequest is the generateContent request body.
type geminiRequest struct {
	Contents          []*genai.Content        `json:"contents"`
	SystemInstruction *genai.Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *genai.GenerationConfig `json:"generationConfig,omitempty"`
}

func newGeminiTransport(hc *http.Client, cfg Config) *geminiTransport {
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &geminiTransport{
		httpClient: hc,
		endpoint:   base + "/models/" + url.PathEscape(cfg.Model) + ":generateContent",
		apiKey:     cfg.APIKey,
	}
}

func (t *geminiTransport) Do(ctx context.Context, req GenerationRequest) (string, error) {
	body, err := json.Marshal(buildGeminiRequest(req))
	if err != nil {
		return "", fmt.Errorf("encode gemini request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"?key="+url.QueryEscape(t.apiKey), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", &TransientError{Err: redactKey(err, t.apiKey)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransientError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("gemini returned %s: %s", resp.Status, truncate(data, maxErrorBody)),
		}
	}

	return geminiText(data)
}

func buildGeminiRequest(req GenerationRequest) geminiRequest {
	out := geminiRequest{
		Contents: []*genai.Content{{
			Role:  "user",
			Parts: []*genai.Part{{Text: req.UserInstruction}},
		}},
	}
	if req.SystemInstruction != "" {
		out.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
	}

	cfg := &genai.GenerationConfig{
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
	if req.TopK != nil {
		k := float32(*req.TopK)
		cfg.TopK = &k
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = buildGeminiSchema(req.Schema.Definition)
	}
	if cfg.Temperature != nil || cfg.TopP != nil || cfg.TopK != nil || cfg.ResponseSchema != nil {
		out.GenerationConfig = cfg
	}
	return out
}

// geminiText extracts candidates[0].content.parts[0].text.
func geminiText(data []byte) (string, error) {
	var resp genai.GenerateContentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", &MalformedResponseError{Body: data, Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if len(resp.Candidates) == 0 {
		return "", &MalformedResponseError{Body: data, Err: ErrNoCandidates}
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return "", &MalformedResponseError{Body: data, Err: errors.New("candidate has no content")}
	}
	if len(cand.Content.Parts) == 0 || cand.Content.Parts[0] == nil {
		return "", &MalformedResponseError{Body: data, Err: errors.New("candidate content has no parts")}
	}
	return cand.Content.Parts[0].Text, nil
}

// buildGeminiSchema converts a JSON Schema definition map to a genai.Schema.
func buildGeminiSchema(def map[string]any) *genai.Schema {
	schema := &genai.Schema{}

	if t, ok := def["type"].(string); ok {
		schema.Type = mapGeminiType(t)
	}
	if desc, ok := def["description"].(string); ok {
		schema.Description = desc
	}

	if props, ok := def["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for k, v := range props {
			if propDef, ok := v.(map[string]any); ok {
				schema.Properties[k] = buildGeminiSchema(propDef)
			}
		}
	}

	switch req := def["required"].(type) {
	case []string:
		schema.Required = append(schema.Required, req...)
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	if items, ok := def["items"].(map[string]any); ok {
		schema.Items = buildGeminiSchema(items)
	}

	if n, ok := toFloat(def["minimum"]); ok {
		schema.Minimum = &n
	}
	if n, ok := toFloat(def["maximum"]); ok {
		schema.Maximum = &n
	}
	if n, ok := toFloat(def["minItems"]); ok {
		v := int64(n)
		schema.MinItems = &v
	}
	if n, ok := toFloat(def["maxItems"]); ok {
		v := int64(n)
		schema.MaxItems = &v
	}

	return schema
}

func mapGeminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// redactKey keeps the API key out of logged transport errors, which quote the URL.
func redactKey(err error, key string) error {
	msg := err.Error()
	if key == "" || !strings.Contains(msg, url.QueryEscape(key)) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, url.QueryEscape(key), "REDACTED"))
}
