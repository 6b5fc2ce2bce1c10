package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/and161185/nullscape-admin/internal/cookies"
	"github.com/and161185/nullscape-admin/internal/errs"
	"github.com/and161185/nullscape-admin/internal/model"
)

// LoginResult is the /auth/login reply.
type LoginResult struct {
	User   model.User   `json:"user"`
	Tokens model.Tokens `json:"tokens"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges credentials for a token pair and stores both tokens in the jar.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	res, err := DecodeAs[LoginResult](c.Post(ctx, "/auth/login", credentials{Email: email, Password: password}))
	if err != nil {
		return nil, err
	}
	if err := c.StoreTokens(ctx, res.Tokens); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	return &res, nil
}

// Me fetches the current user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	u, err := DecodeAs[model.User](c.Get(ctx, "/auth/me", nil))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// StoreTokens writes the token pair to the jar. An empty refresh token is skipped.
func (c *Client) StoreTokens(ctx context.Context, t model.Tokens) error {
	if c.jar == nil {
		return errors.New("no cookie store configured")
	}
	if err := c.jar.Set(ctx, cookies.FromToken(model.AccessTokenCookie, t.AccessToken)); err != nil {
		return err
	}
	if t.RefreshToken == "" {
		return nil
	}
	return c.jar.Set(ctx, cookies.FromToken(model.RefreshTokenCookie, t.RefreshToken))
}

// ClearTokens removes both tokens from the jar.
func (c *Client) ClearTokens(ctx context.Context) error {
	if c.jar == nil {
		return nil
	}
	return cookies.Clear(ctx, c.jar, model.AccessTokenCookie, model.RefreshTokenCookie)
}

// Refresh trades the stored refresh token for a new pair.
// Concurrent callers share a single in-flight request.
func (c *Client) Refresh(ctx context.Context) error {
	return c.refresh(ctx)
}

func (c *Client) refresh(ctx context.Context) error {
	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		if c.jar == nil {
			return nil, errs.ErrNoToken
		}
		rt, err := c.jar.Get(ctx, model.RefreshTokenCookie)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(refreshRequest{RefreshToken: rt})
		if err != nil {
			return nil, err
		}
		resp, err := c.once(ctx, http.MethodPost, "/auth/refresh", nil, &payload{data: body, contentType: "application/json"})
		if err != nil {
			return nil, err
		}
		// The pair arrives either wrapped in "tokens" or at the top level.
		var wrapped struct {
			Tokens model.Tokens `json:"tokens"`
		}
		if err := resp.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("decode refresh: %w", err)
		}
		t := wrapped.Tokens
		if t.AccessToken == "" {
			_ = resp.Decode(&t)
		}
		if t.AccessToken == "" {
			return nil, errors.New("refresh returned no access token")
		}
		if t.RefreshToken == "" {
			t.RefreshToken = rt
		}
		return nil, c.StoreTokens(ctx, t)
	})
	return err
}
