package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// source file extensions the backends use to pick a toolchain
var extensions = map[string]string{
	"javascript": "js",
	"typescript": "ts",
	"python":     "py",
	"java":       "java",
	"c":          "c",
	"cpp":        "cpp",
	"csharp":     "cs",
	"go":         "go",
	"rust":       "rs",
	"php":        "php",
	"ruby":       "rb",
}

func sourceFileName(language string) string {
	if ext, ok := extensions[language]; ok {
		return "main." + ext
	}
	return "main"
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

// PistonAdapter targets the Piston v2 execute API
// (POST {base}/execute with language+version+files).
type PistonAdapter struct {
	name    string
	baseURL string
	version string
	timeout time.Duration
	client  *http.Client
}

func NewPistonAdapter(name, baseURL, version string, timeout time.Duration) *PistonAdapter {
	if name == "" {
		name = "piston"
	}
	if version == "" {
		version = "*"
	}
	return &PistonAdapter{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
		timeout: timeout,
		client:  &http.Client{},
	}
}

func (a *PistonAdapter) Name() string { return a.name }

func (a *PistonAdapter) Execute(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body := map[string]any{
		"language": req.Language,
		"version":  a.version,
		"files": []map[string]string{
			{"name": sourceFileName(req.Language), "content": req.Source},
		},
	}
	var out struct {
		Run *struct {
			Stdout string `json:"stdout"`
			Stderr string `json:"stderr"`
		} `json:"run"`
	}
	if err := postJSON(ctx, a.client, a.baseURL+"/execute", nil, body, &out); err != nil {
		return nil, err
	}
	if out.Run == nil {
		return nil, fmt.Errorf("malformed response: missing run section")
	}
	return &Result{Stdout: out.Run.Stdout, Stderr: out.Run.Stderr}, nil
}

// GlotAdapter targets the glot.io run API
// (POST {base}/run/{language}/latest with a token header).
type GlotAdapter struct {
	name    string
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
}

func NewGlotAdapter(name, baseURL, token string, timeout time.Duration) *GlotAdapter {
	if name == "" {
		name = "glot"
	}
	return &GlotAdapter{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: timeout,
		client:  &http.Client{},
	}
}

func (a *GlotAdapter) Name() string { return a.name }

func (a *GlotAdapter) Execute(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body := map[string]any{
		"files": []map[string]string{
			{"name": sourceFileName(req.Language), "content": req.Source},
		},
	}
	headers := map[string]string{}
	if a.token != "" {
		headers["Authorization"] = "Token " + a.token
	}
	var out struct {
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
		Error  string `json:"error"`
	}
	url := fmt.Sprintf("%s/run/%s/latest", a.baseURL, req.Language)
	if err := postJSON(ctx, a.client, url, headers, body, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("backend error: %s", out.Error)
	}
	return &Result{Stdout: out.Stdout, Stderr: out.Stderr}, nil
}
