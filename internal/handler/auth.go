package handler

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-ticket-server/internal/protocol"
	"github.com/iliyamo/cinema-ticket-server/internal/repository"
	"github.com/iliyamo/cinema-ticket-server/internal/session"
	"github.com/iliyamo/cinema-ticket-server/internal/utils"
)

// register creates a regular user account. Role is always "user": admin
// accounts exist only through the bootstrap.
func (h *Handler) register(ctx context.Context, data map[string]any) protocol.Response {
	username := getString(data, "username")
	password := getString(data, "password")
	if username == "" || password == "" {
		return protocol.Errorf("username/password required")
	}
	_, err := h.Users.Create(ctx, username, password, "user", h.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return protocol.Errorf("Username already exists")
		}
		return serverError("register", err)
	}
	return protocol.OK(map[string]any{"message": "OK"})
}

// login verifies credentials and opens a session. Unknown usernames and
// wrong passwords produce the same message.
func (h *Handler) login(ctx context.Context, data map[string]any) protocol.Response {
	username := getString(data, "username")
	password := getString(data, "password")
	if username == "" || password == "" {
		return protocol.Errorf("username/password required")
	}
	u, err := h.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return protocol.Errorf("Invalid credentials")
		}
		return serverError("login", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return protocol.Errorf("Invalid credentials")
	}
	snap := session.User{ID: u.ID, Username: u.Username, Role: u.Role}
	token, err := h.Sessions.Create(snap)
	if err != nil {
		return serverError("login", err)
	}
	return protocol.OK(map[string]any{
		"token": token,
		"user": map[string]any{
			"id":       snap.ID,
			"username": snap.Username,
			"role":     snap.Role,
		},
	})
}
