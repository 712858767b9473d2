package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/docvault/internal/models"
)

var httpClient = &http.Client{Timeout: 2 * time.Minute}

func apiURL(serverURL, path string, query url.Values) string {
	u := strings.TrimRight(serverURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// decodeResponse decodes a JSON body into out, or turns a non-2xx response into an error.
func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func uploadViaHTTP(serverURL, path string) (*models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	resp, err := httpClient.Post(apiURL(serverURL, "/api/v1/documents", nil), mw.FormDataContentType(), &body)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	var doc models.Document
	if err := decodeResponse(resp, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Post(apiURL(serverURL, "/api/v1/search", nil), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	var response models.SearchResponse
	if err := decodeResponse(resp, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func userQuery(user string) url.Values {
	if user == "" {
		return nil
	}
	return url.Values{"user": {user}}
}

func historyViaHTTP(serverURL, user string) (string, []*models.HistoryRecord, error) {
	resp, err := httpClient.Get(apiURL(serverURL, "/api/v1/history", userQuery(user)))
	if err != nil {
		return "", nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	var out struct {
		User    string                  `json:"user"`
		Records []*models.HistoryRecord `json:"records"`
	}
	if err := decodeResponse(resp, &out); err != nil {
		return "", nil, err
	}
	return out.User, out.Records, nil
}

// exportViaHTTP downloads the user's export into destDir, named as the server suggests.
func exportViaHTTP(serverURL, user, destDir string) (string, error) {
	resp, err := httpClient.Get(apiURL(serverURL, "/api/v1/history/export", userQuery(user)))
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", decodeResponse(resp, nil)
	}
	name := "history.txt"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = filepath.Base(params["filename"])
	}
	path := filepath.Join(destDir, name)
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func statusViaHTTP(serverURL string) (*models.Status, error) {
	resp, err := httpClient.Get(apiURL(serverURL, "/api/v1/status", nil))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	var out struct {
		Status models.Status `json:"status"`
	}
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out.Status, nil
}
