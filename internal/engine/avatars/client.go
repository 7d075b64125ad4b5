// Package avatars talks to the image hosting provider that stores profile
// avatars: it issues direct upload URLs and waits for uploads to finish
// processing.
package avatars

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"spaces/internal/platform/config"
)

var ErrUpstream = errors.New("image provider request failed")

type DirectUpload struct {
	ID        string `json:"id"`
	UploadURL string `json:"uploadURL"`
}

type Image struct {
	ID       string   `json:"id"`
	Draft    bool     `json:"draft"`
	Uploaded string   `json:"uploaded,omitempty"`
	Variants []string `json:"variants,omitempty"`
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type envelope[T any] struct {
	Result   T            `json:"result"`
	Success  bool         `json:"success"`
	Errors   []apiMessage `json:"errors"`
	Messages []apiMessage `json:"messages"`
}

type Client struct {
	http      *resty.Client
	accountID string
}

func NewClient(cfg config.ImagesConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.Token).
		SetTimeout(cfg.RequestTimeout)

	return &Client{http: client, accountID: cfg.AccountID}
}

// DirectUpload asks the provider for a one-time upload URL tagged with the
// uploading user.
func (c *Client) DirectUpload(ctx context.Context, userID string) (*DirectUpload, error) {
	metadata, err := json.Marshal(map[string]string{"userId": userID})
	if err != nil {
		return nil, err
	}

	var out envelope[DirectUpload]
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{"metadata": string(metadata)}).
		SetResult(&out).
		SetError(&out).
		SetPathParam("account", c.accountID).
		Post("/accounts/{account}/images/v2/direct_upload")
	if err := check(resp, err, out.Success, out.Errors); err != nil {
		return nil, err
	}
	return &out.Result, nil
}

// Image fetches the upload object with id.
func (c *Client) Image(ctx context.Context, id string) (*Image, error) {
	var out envelope[Image]
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&out).
		SetPathParams(map[string]string{"account": c.accountID, "id": id}).
		Get("/accounts/{account}/images/v1/{id}")
	if err := check(resp, err, out.Success, out.Errors); err != nil {
		return nil, err
	}
	return &out.Result, nil
}

func check(resp *resty.Response, err error, success bool, apiErrors []apiMessage) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: status %d%s", ErrUpstream, resp.StatusCode(), describe(apiErrors))
	}
	if !success {
		return fmt.Errorf("%w: unsuccessful response%s", ErrUpstream, describe(apiErrors))
	}
	return nil
}

func describe(msgs []apiMessage) string {
	if len(msgs) == 0 {
		return ""
	}
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = fmt.Sprintf("%d %s", m.Code, m.Message)
	}
	return ": " + strings.Join(parts, "; ")
}
