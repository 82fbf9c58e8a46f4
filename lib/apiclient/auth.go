// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// Register creates an account. It does not sign in; call Login next.
func (client *Client) Register(ctx context.Context, registration schema.Registration) error {
	registration.Email = strings.TrimSpace(registration.Email)
	registration.Name = strings.TrimSpace(registration.Name)
	if registration.Email == "" || registration.Password == "" {
		return &ValidationError{Detail: "email and password are required"}
	}
	var result schema.MessageResponse
	return client.do(ctx, call{
		op:     "register",
		method: http.MethodPost,
		path:   "/auth/register",
		body:   registration,
		public: true,
		out:    &result,
	})
}

// Login exchanges credentials for a bearer token, starts the session
// with it, and resolves the current user. A failed login leaves any
// existing session untouched.
func (client *Client) Login(ctx context.Context, credentials schema.Credentials) (schema.User, error) {
	credentials.Email = strings.TrimSpace(credentials.Email)
	if credentials.Email == "" || credentials.Password == "" {
		return schema.User{}, &ValidationError{Detail: "email and password are required"}
	}
	var token schema.TokenResponse
	if err := client.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/auth/login",
		body:   credentials,
		public: true,
		out:    &token,
	}); err != nil {
		return schema.User{}, err
	}
	if token.AccessToken == "" {
		return schema.User{}, fmt.Errorf("login: empty access_token in response")
	}
	if err := client.session.Begin(token.AccessToken, client.BaseURL()); err != nil {
		return schema.User{}, fmt.Errorf("login: %w", err)
	}
	return client.Me(ctx)
}

// Me resolves the user the session token belongs to and records it as
// the session's current user. A response that arrives after the
// session has ended or changed tokens is returned but not recorded.
func (client *Client) Me(ctx context.Context) (schema.User, error) {
	_, generation, _ := client.session.Credential()
	var user schema.User
	if err := client.do(ctx, call{
		op:     "me",
		method: http.MethodGet,
		path:   "/auth/me",
		out:    &user,
	}); err != nil {
		return schema.User{}, err
	}
	if !client.session.SetCurrentUserFor(generation, user) {
		client.logger.Debug("dropping user resolved for an ended session", "user_id", user.ID)
	}
	return user, nil
}

// Logout ends the session locally. The backend keeps no server-side
// session state, so there is no request.
func (client *Client) Logout() error {
	return client.session.Logout()
}
