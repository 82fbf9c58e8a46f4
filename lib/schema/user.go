// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// User is an authenticated DevTrack account as returned by /auth/me.
// Immutable once fetched: a session change fetches a new User rather
// than patching the old one.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// DisplayName returns the user's name, or the email when no name is
// set.
func (user User) DisplayName() string {
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the body of POST /auth/register.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the body returned by POST /auth/login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// MessageResponse is the acknowledgement body returned by endpoints
// that do not return a resource (registration).
type MessageResponse struct {
	Message string `json:"message"`
}
