package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// envelope mirrors the backend's response envelope.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

type apiError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Code, e.Status)
	for f, m := range e.Fields {
		msg += fmt.Sprintf("\n  %s: %s", f, m)
	}
	return msg
}

func decodeEnvelope(resp *http.Response, dst any) error {
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if env.Error != nil {
		return &apiError{Status: resp.StatusCode, Code: env.Error.Code, Message: env.Error.Message, Fields: env.Error.Fields}
	}
	if dst == nil {
		return nil
	}
	return json.Unmarshal(env.Data, dst)
}

func endpoint(path string) string {
	return strings.TrimRight(serverURL, "/") + path
}

// streamURL converts the base URL to the assessment WebSocket URL.
func streamURL(candidateID string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/v1/candidates/" + url.PathEscape(candidateID) + "/assessment"
	return u.String(), nil
}

type candidate struct {
	ID              string `json:"id"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	TechnologyTrack string `json:"technology_track"`
	ResumeURL       string `json:"resume_url"`
}

type result struct {
	Status   string  `json:"status"`
	Score    float64 `json:"score"`
	Duration int     `json:"duration"`
}

func register(ctx context.Context, name, email, track, resumePath string) (*candidate, error) {
	f, err := os.Open(resumePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{"full_name": name, "email": email, "technology_track": track} {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	part, err := mw.CreateFormFile("resume", filepath.Base(resumePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint("/api/v1/candidates"), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	var c candidate
	if err := decodeEnvelope(resp, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func fetchResult(ctx context.Context, candidateID string) (*result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint("/api/v1/candidates/"+url.PathEscape(candidateID)+"/result"), nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	var r result
	if err := decodeEnvelope(resp, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
