package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// User mirrors the public user record the server returns.
type User struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type envelope struct {
	Status bool            `json:"status"`
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
	Detail string `json:"detail"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser answers with email and username only; the server does not
// return the new id.
func (c *Client) CreateUser(ctx context.Context, email, username, password string) (*User, error) {
	var u User
	body := map[string]string{"email": email, "username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/user", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id uint, email, username, password string) (*User, error) {
	var u User
	body := map[string]string{"email": email, "username": username, "password": password}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/users/%d", id), body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser returns the server's confirmation message.
func (c *Client) DeleteUser(ctx context.Context, id uint) (string, error) {
	var msg string
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, &msg); err != nil {
		return "", err
	}
	return msg, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := env.Detail
		if detail == "" && len(env.Errors) > 0 {
			detail = env.Errors[0].Message
		}
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}
	if decodeErr != nil {
		return errors.Wrap(decodeErr, "decode response")
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.Unmarshal(env.Data, out), "decode data")
}
