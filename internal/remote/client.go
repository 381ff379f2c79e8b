// Package remote implements the HTTP client for the contact directory API.
// It is a stateless wire contract: one synchronous round trip per call,
// no caching and no retries. Fallback behavior lives in the reconciliation
// engine, not here.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexoft/phonebook/internal/store"
)

// envelope is the fixed wrapper every directory endpoint returns.
type envelope[T any] struct {
	Success  bool     `json:"success"`
	Messages []string `json:"messages"`
	Data     *T       `json:"data"`
	Status   int      `json:"status"`
}

// User is a directory contact as the API represents it. The directory has
// no notion of device presence.
type User struct {
	ID              string  `json:"id"`
	CreatedAt       string  `json:"createdAt"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	PhoneNumber     string  `json:"phoneNumber"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

// Contact maps a directory user into the cached domain form. The device
// flag defaults to false; the engine overlays local truth afterwards.
func (u User) Contact() store.Contact {
	c := store.Contact{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
	}
	if u.ProfileImageURL != nil {
		c.ProfileImageURL = *u.ProfileImageURL
	}
	return c
}

// Fields is the mutable field set sent on create and update.
type Fields struct {
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	PhoneNumber     string  `json:"phoneNumber"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

type userList struct {
	Users []User `json:"users"`
}

type uploadResult struct {
	ImageURL string `json:"imageUrl"`
}

// Client talks to the directory API with a fixed timeout and a static
// ApiKey header. Each request carries a generated X-Request-Id for log
// correlation.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a directory client. A non-positive timeout falls back
// to the reference deployment's 30 seconds.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ListAll fetches every contact in the directory.
func (c *Client) ListAll(ctx context.Context) ([]User, error) {
	data, err := doJSON[userList](ctx, c, http.MethodGet, "/api/User/GetAll", nil)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return data.Users, nil
}

// Get fetches a single contact by id.
func (c *Client) Get(ctx context.Context, id string) (*User, error) {
	data, err := doJSON[User](ctx, c, http.MethodGet, "/api/User/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNotFound
	}
	return data, nil
}

// Create registers a new contact and returns the server-issued record.
func (c *Client) Create(ctx context.Context, f Fields) (*User, error) {
	data, err := doJSON[User](ctx, c, http.MethodPost, "/api/User", f)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, &APIError{Messages: []string{"empty create response"}}
	}
	return data, nil
}

// Update replaces a contact's mutable fields and returns the fresh record.
func (c *Client) Update(ctx context.Context, id string, f Fields) (*User, error) {
	data, err := doJSON[User](ctx, c, http.MethodPut, "/api/User/"+url.PathEscape(id), f)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, &APIError{Messages: []string{"empty update response"}}
	}
	return data, nil
}

// Delete removes a contact from the directory.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := doJSON[struct{}](ctx, c, http.MethodDelete, "/api/User/"+url.PathEscape(id), nil)
	return err
}

// UploadImage sends avatar bytes as a multipart form and returns the
// hosted image URL.
func (c *Client) UploadImage(ctx context.Context, filename string, image io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("multipart form: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/User/UploadImage", &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	data, err := do[uploadResult](c, req)
	if err != nil {
		return "", err
	}
	if data == nil || data.ImageURL == "" {
		return "", &APIError{Messages: []string{"empty upload response"}}
	}
	return data.ImageURL, nil
}

func doJSON[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return do[T](c, req)
}

func do[T any](c *Client, req *http.Request) (*T, error) {
	reqID := uuid.NewString()
	req.Header.Set("ApiKey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)

	if c.logger != nil {
		c.logger.Debug("directory request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("request_id", reqID),
		)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &APIError{Status: resp.StatusCode}
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		return nil, &APIError{Status: resp.StatusCode, Messages: env.Messages}
	}
	return env.Data, nil
}
