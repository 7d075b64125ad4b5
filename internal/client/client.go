// Package client is a typed client for the Spaces API. Reads are served from
// a query cache; every successful mutation invalidates the reads it affects.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"spaces/internal/client/querycache"
	"spaces/internal/engine/avatars"
	"spaces/internal/engine/entitlements"
	"spaces/internal/engine/profiles"
	"spaces/internal/engine/spaces"
	"spaces/internal/pkg/errors"
	"spaces/internal/pkg/validator"
	"spaces/internal/platform/config"
)

// FailureError is a procedure that answered {success:false}. The request was
// understood but nothing changed.
type FailureError struct {
	Message string
}

func (e *FailureError) Error() string {
	return e.Message
}

// APIError is a non-2xx response.
type APIError struct {
	Status   int
	Response errors.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Response.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Response.Code, e.Response.Message)
	}
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// Fields returns field-level validation messages, if any.
func (e *APIError) Fields() map[string]string {
	out := map[string]string{}
	if m, ok := e.Response.Details.(map[string]interface{}); ok {
		for k, v := range m {
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

type Client struct {
	http  *resty.Client
	cache *querycache.Cache
}

func New(cfg config.ClientConfig, clock clockwork.Clock) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}

	return &Client{
		http:  httpClient,
		cache: querycache.New(querycache.Config{MaxBytes: cfg.CacheBytes, TTL: cfg.CacheTTL, Clock: clock}),
	}
}

func (c *Client) Cache() *querycache.Cache {
	return c.cache
}

func (c *Client) call(ctx context.Context, method, path string, pathParams map[string]string, body, out interface{}) error {
	req := c.http.R().SetContext(ctx).SetPathParams(pathParams)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}

	raw := resp.Body()
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode()}
		_ = json.Unmarshal(raw, &apiErr.Response)
		return apiErr
	}

	var probe struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &probe) == nil && probe.Success != nil && !*probe.Success {
		return &FailureError{Message: probe.Error}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) invalidate(keys ...querycache.Key) {
	c.cache.Invalidate(keys...)
	log.Debug().Interface("keys", keys).Msg("invalidated cached queries")
}

func orgParams(org string) map[string]string {
	return map[string]string{"org": org}
}

func spaceParams(org, space string) map[string]string {
	return map[string]string{"org": org, "space": space}
}

// Reads

func (c *Client) Entitlements(ctx context.Context, org string) (*entitlements.Entitlements, error) {
	return querycache.Load(ctx, c.cache, querycache.Entitlements(org), func(ctx context.Context) (*entitlements.Entitlements, error) {
		var out entitlements.Entitlements
		if err := c.call(ctx, http.MethodGet, "/api/v1/orgs/{org}/entitlements", orgParams(org), nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

func (c *Client) Spaces(ctx context.Context, org string) ([]spaces.MemberSpace, error) {
	return querycache.Load(ctx, c.cache, querycache.OrgMemberSpaces(org), func(ctx context.Context) ([]spaces.MemberSpace, error) {
		var out []spaces.MemberSpace
		err := c.call(ctx, http.MethodGet, "/api/v1/orgs/{org}/spaces", orgParams(org), nil, &out)
		return out, err
	})
}

// Settings returns nil when the space does not exist in org.
func (c *Client) Settings(ctx context.Context, org, space string) (*spaces.SettingsResult, error) {
	return querycache.Load(ctx, c.cache, querycache.SpaceSettings(org, space), func(ctx context.Context) (*spaces.SettingsResult, error) {
		var out *spaces.SettingsResult
		err := c.call(ctx, http.MethodGet, "/api/v1/orgs/{org}/spaces/{space}/settings", spaceParams(org, space), nil, &out)
		return out, err
	})
}

func (c *Client) Statuses(ctx context.Context, org, space string) (*spaces.Statuses, error) {
	return querycache.Load(ctx, c.cache, querycache.SpaceStatuses(org, space), func(ctx context.Context) (*spaces.Statuses, error) {
		var out spaces.Statuses
		if err := c.call(ctx, http.MethodGet, "/api/v1/orgs/{org}/spaces/{space}/statuses", spaceParams(org, space), nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// Profile returns the caller's default profile, or nil.
func (c *Client) Profile(ctx context.Context) (*profiles.Profile, error) {
	return querycache.Load(ctx, c.cache, querycache.Profile(), func(ctx context.Context) (*profiles.Profile, error) {
		var out *profiles.Profile
		err := c.call(ctx, http.MethodGet, "/api/v1/profile", nil, nil, &out)
		return out, err
	})
}

// Space mutations

func (c *Client) setSpaceField(ctx context.Context, org, space, field string, body interface{}) error {
	if err := c.call(ctx, http.MethodPatch, "/api/v1/orgs/{org}/spaces/{space}/"+field, spaceParams(org, space), body, nil); err != nil {
		return err
	}
	c.invalidate(querycache.SpaceSettings(org, space), querycache.OrgMemberSpaces(org))
	return nil
}

func (c *Client) SetName(ctx context.Context, org, space, name string) error {
	return c.setSpaceField(ctx, org, space, "name", map[string]string{"spaceName": name})
}

func (c *Client) SetDescription(ctx context.Context, org, space, description string) error {
	return c.setSpaceField(ctx, org, space, "description", map[string]string{"spaceDescription": description})
}

func (c *Client) SetColor(ctx context.Context, org, space, color string) error {
	return c.setSpaceField(ctx, org, space, "color", map[string]string{"spaceColor": color})
}

func (c *Client) SetType(ctx context.Context, org, space, spaceType string) error {
	return c.setSpaceField(ctx, org, space, "type", map[string]string{"spaceType": spaceType})
}

// CreateSpace validates in with the server's rules before sending it.
func (c *Client) CreateSpace(ctx context.Context, org string, in spaces.CreateInput) (*spaces.CreateResult, error) {
	if err := validator.Check(in); err != nil {
		return nil, err
	}

	var out spaces.CreateResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/orgs/{org}/spaces", orgParams(org), in, &out); err != nil {
		return nil, err
	}
	// A read of the new shortcode may have cached null before it existed.
	c.invalidate(querycache.OrgMemberSpaces(org), querycache.SpaceSettings(org, out.SpaceShortcode))
	if in.ParentSpaceShortcode != nil {
		c.invalidate(querycache.SpaceSettings(org, *in.ParentSpaceShortcode))
	}
	return &out, nil
}

// Status mutations. Drafts are validated locally, so out-of-bounds values
// never reach the server.

func (c *Client) AddStatus(ctx context.Context, org, space string, in spaces.AddStatusInput) (*spaces.AddStatusResult, error) {
	in.SpaceShortcode = space
	if err := validator.Check(in); err != nil {
		return nil, err
	}

	var out spaces.AddStatusResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/orgs/{org}/spaces/{space}/statuses", spaceParams(org, space), in, &out); err != nil {
		return nil, err
	}
	c.invalidate(querycache.SpaceStatuses(org, space), querycache.SpaceSettings(org, space), querycache.OrgMemberSpaces(org))
	return &out, nil
}

func (c *Client) EditStatus(ctx context.Context, org, space string, in spaces.EditStatusInput) error {
	in.SpaceShortcode = space
	if err := validator.Check(in); err != nil {
		return err
	}

	params := spaceParams(org, space)
	params["status"] = in.StatusID
	if err := c.call(ctx, http.MethodPatch, "/api/v1/orgs/{org}/spaces/{space}/statuses/{status}", params, in, nil); err != nil {
		return err
	}
	c.invalidate(querycache.SpaceStatuses(org, space), querycache.SpaceSettings(org, space), querycache.OrgMemberSpaces(org))
	return nil
}

// Profile mutations

func (c *Client) CreateProfile(ctx context.Context, in profiles.CreateInput) (*profiles.CreateResult, error) {
	var out profiles.CreateResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/profile", nil, in, &out); err != nil {
		return nil, err
	}
	c.invalidate(querycache.Profile())
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in profiles.UpdateInput) error {
	if err := c.call(ctx, http.MethodPut, "/api/v1/profile", nil, in, nil); err != nil {
		return err
	}
	c.invalidate(querycache.Profile())
	return nil
}

func (c *Client) AvatarUpload(ctx context.Context) (*avatars.DirectUpload, error) {
	var out avatars.DirectUpload
	if err := c.call(ctx, http.MethodPost, "/api/v1/profile/avatar", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AwaitAvatar blocks until the server reports the upload processed.
func (c *Client) AwaitAvatar(ctx context.Context, uploadID string) (*avatars.Result, error) {
	var out avatars.Result
	if err := c.call(ctx, http.MethodGet, "/api/v1/profile/avatar/{upload}", map[string]string{"upload": uploadID}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadAvatarFile sends the file at path to a one-time upload URL issued by
// AvatarUpload. The URL carries its own authorization, so the API token is not
// sent with it.
func (c *Client) UploadAvatarFile(ctx context.Context, uploadURL, path string) error {
	resp, err := resty.New().
		SetTimeout(c.http.GetClient().Timeout).
		R().
		SetContext(ctx).
		SetFile("file", path).
		Post(uploadURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &APIError{Status: resp.StatusCode()}
	}
	return nil
}
