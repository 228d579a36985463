// Package storage issues short-lived signed URLs for objects in the note bucket.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a Supabase-compatible storage REST API.
type Client struct {
	baseURL    string
	serviceKey string
	bucket     string
	httpClient *http.Client
}

// NewClient creates a storage client for one bucket.
func NewClient(baseURL, serviceKey, bucket string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		httpClient: httpClient,
	}
}

// Bucket returns the bucket the client signs objects in.
func (c *Client) Bucket() string {
	return c.bucket
}

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

// SignedURL returns a URL granting read access to objectPath for ttl.
func (c *Client) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	if objectPath == "" {
		return "", fmt.Errorf("empty object path")
	}

	body, err := json.Marshal(signRequest{ExpiresIn: int(ttl / time.Second)})
	if err != nil {
		return "", fmt.Errorf("encode sign request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", c.baseURL, url.PathEscape(c.bucket), escapePath(objectPath))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign object: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read sign response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sign object: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var signed signResponse
	if err := json.Unmarshal(payload, &signed); err != nil {
		return "", fmt.Errorf("decode sign response: %w", err)
	}
	if signed.SignedURL == "" {
		return "", fmt.Errorf("sign object: empty signed url")
	}

	if strings.HasPrefix(signed.SignedURL, "http://") || strings.HasPrefix(signed.SignedURL, "https://") {
		return signed.SignedURL, nil
	}
	return c.baseURL + "/storage/v1" + "/" + strings.TrimLeft(signed.SignedURL, "/"), nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

var objectURLKinds = []string{"public/", "sign/", "authenticated/"}

// NormalizeObjectPath reduces a stored file reference to a bucket-relative path.
// Full storage URLs (public, signed or authenticated) and bucket-prefixed paths are accepted.
func NormalizeObjectPath(raw, bucket string) string {
	p := strings.TrimSpace(raw)
	if p == "" {
		return ""
	}

	if strings.Contains(p, "://") {
		u, err := url.Parse(p)
		if err != nil {
			return ""
		}
		p = u.Path
		if _, rest, ok := strings.Cut(p, "/storage/v1/object/"); ok {
			p = rest
			for _, kind := range objectURLKinds {
				if strings.HasPrefix(p, kind) {
					p = strings.TrimPrefix(p, kind)
					break
				}
			}
		}
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	p = strings.TrimLeft(p, "/")
	if bucket != "" {
		p = strings.TrimPrefix(p, bucket+"/")
	}

	return p
}
