package formflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/early-access-api/internal/domain"
)

// APIError is a non-2xx response from the waitlist API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// Result is what a completed registration exposes to the user.
type Result struct {
	Email         string
	InviteCode    string
	CommunityLink string
}

// Client talks to the send-otp, verify-otp and domain check endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) SendOTP(ctx context.Context, email, name string) error {
	return c.post(ctx, "/send-otp", domain.SendOTPRequest{Email: email, Name: name}, nil)
}

func (c *Client) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*Result, error) {
	var out struct {
		InviteCode    string `json:"inviteCode"`
		CommunityLink string `json:"communityLink"`
	}
	if err := c.post(ctx, "/verify-otp", req, &out); err != nil {
		return nil, err
	}
	return &Result{Email: req.Email, InviteCode: out.InviteCode, CommunityLink: out.CommunityLink}, nil
}

func (c *Client) CheckDomain(ctx context.Context, email string) (domain.DomainStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/domains/check?email="+url.QueryEscape(email), nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Status domain.DomainStatus `json:"status"`
	}
	if err := c.do(httpReq, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
