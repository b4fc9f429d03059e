// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/geoadmin/internal/auth"
	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/store"
)

// Session keys. Each principal kind has its own pair so the two bindings
// never overwrite each other.
const (
	keyAccountID   = "account_id"
	keyAccountName = "account_name"
	keyAdminID     = "admin_id"
	keyAdminName   = "admin_name"
	keyCSRFToken   = "csrf_token"
)

type bindingKeys struct {
	id   string
	name string
}

func keysFor(kind model.PrincipalKind) (bindingKeys, error) {
	switch kind {
	case model.KindAccount:
		return bindingKeys{keyAccountID, keyAccountName}, nil
	case model.KindAdmin:
		return bindingKeys{keyAdminID, keyAdminName}, nil
	}
	return bindingKeys{}, fmt.Errorf("unknown principal kind %q", kind)
}

// credentialRecord is what Authenticate needs from either principal table.
type credentialRecord struct {
	id           int64
	username     string
	passwordHash string
}

// Authority tracks authenticated principals in the session and issues and
// checks CSRF tokens.
type Authority struct {
	sm      *scs.SessionManager
	queries *store.Queries
}

// NewAuthority creates an Authority.
func NewAuthority(sm *scs.SessionManager, queries *store.Queries) *Authority {
	return &Authority{sm: sm, queries: queries}
}

// Manager returns the underlying session manager.
func (a *Authority) Manager() *scs.SessionManager {
	return a.sm
}

// Authenticate verifies credentials for kind. Unknown usernames and wrong
// passwords both yield model.ErrInvalidCredentials after comparable work.
// Legacy or outdated hashes are upgraded on success.
func (a *Authority) Authenticate(ctx context.Context, kind model.PrincipalKind, creds model.Credentials) (model.Principal, error) {
	const op = "authenticate"
	if !kind.Valid() {
		return model.Principal{}, model.Invalid(op, "unknown principal kind")
	}

	username := strings.TrimSpace(creds.Username)
	rec, err := a.lookup(ctx, kind, username)
	if err != nil {
		if store.IsNotFound(err) {
			auth.CheckDummyPassword(creds.Password)
			slog.Warn("login failed: unknown user", "kind", kind, "username", username, "category", model.EventCategoryAuth)
			return model.Principal{}, model.ErrInvalidCredentials
		}
		return model.Principal{}, model.Unavailable(op, err)
	}

	ok, err := auth.CheckPassword(creds.Password, rec.passwordHash)
	if err != nil {
		slog.Error("password verification error", "kind", kind, "id", rec.id, "error", err, "category", model.EventCategoryAuth)
		return model.Principal{}, model.ErrInvalidCredentials
	}
	if !ok {
		slog.Warn("login failed: wrong password", "kind", kind, "username", username, "category", model.EventCategoryAuth)
		return model.Principal{}, model.ErrInvalidCredentials
	}

	if auth.NeedsRehash(rec.passwordHash) {
		a.rehash(ctx, kind, rec.id, creds.Password)
	}
	if kind == model.KindAdmin {
		if err := a.queries.UpdateAdminLastLogin(ctx, rec.id, time.Now().UTC()); err != nil {
			slog.Warn("failed to record admin login", "id", rec.id, "error", err, "category", model.EventCategoryAuth)
		}
	}

	return model.Principal{Kind: kind, ID: rec.id, Username: rec.username}, nil
}

func (a *Authority) lookup(ctx context.Context, kind model.PrincipalKind, username string) (credentialRecord, error) {
	if kind == model.KindAdmin {
		admin, err := a.queries.GetAdminByUsername(ctx, username)
		if err != nil {
			return credentialRecord{}, err
		}
		return credentialRecord{admin.ID, admin.Username, admin.PasswordHash}, nil
	}
	acc, err := a.queries.GetAccountByUsername(ctx, username)
	if err != nil {
		return credentialRecord{}, err
	}
	return credentialRecord{acc.ID, acc.Username, acc.PasswordHash}, nil
}

func (a *Authority) rehash(ctx context.Context, kind model.PrincipalKind, id int64, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Warn("password rehash failed", "kind", kind, "id", id, "error", err)
		return
	}
	if kind == model.KindAdmin {
		err = a.queries.UpdateAdminPassword(ctx, id, hash)
	} else {
		err = a.queries.UpdateAccountPassword(ctx, store.UpdateAccountPasswordParams{
			ID:           id,
			PasswordHash: hash,
			UpdatedAt:    time.Now().UTC(),
		})
	}
	if err != nil {
		slog.Warn("storing rehashed password failed", "kind", kind, "id", id, "error", err)
		return
	}
	slog.Info("password hash upgraded", "kind", kind, "id", id, "category", model.EventCategoryAuth)
}

// Bind stores p in the session under its kind. Binding an administrator also
// renews the session token; the bindings and CSRF token carry over.
func (a *Authority) Bind(ctx context.Context, p model.Principal) error {
	keys, err := keysFor(p.Kind)
	if err != nil {
		return err
	}

	a.sm.Put(ctx, keys.id, p.ID)
	a.sm.Put(ctx, keys.name, p.Username)

	if p.Kind == model.KindAdmin {
		a.CSRFToken(ctx)
		if err := a.sm.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}
	}
	return nil
}

// Unbind removes only the binding of kind.
func (a *Authority) Unbind(ctx context.Context, kind model.PrincipalKind) error {
	keys, err := keysFor(kind)
	if err != nil {
		return err
	}
	a.sm.Remove(ctx, keys.id)
	a.sm.Remove(ctx, keys.name)
	return nil
}

// Current returns the principal of kind bound to the session. When none is
// bound it returns model.ErrAuthRequired if required, otherwise (nil, nil).
func (a *Authority) Current(ctx context.Context, kind model.PrincipalKind, required bool) (*model.Principal, error) {
	keys, err := keysFor(kind)
	if err != nil {
		return nil, err
	}

	id := a.sm.GetInt64(ctx, keys.id)
	if id == 0 {
		if required {
			return nil, model.ErrAuthRequired
		}
		return nil, nil
	}
	return &model.Principal{Kind: kind, ID: id, Username: a.sm.GetString(ctx, keys.name)}, nil
}

// CSRFToken returns the session's CSRF token, creating it on first use.
func (a *Authority) CSRFToken(ctx context.Context) string {
	if tok := a.sm.GetString(ctx, keyCSRFToken); tok != "" {
		return tok
	}
	tok := rand.Text()
	a.sm.Put(ctx, keyCSRFToken, tok)
	return tok
}

// RotateCSRFToken replaces the session's CSRF token and returns the new one.
func (a *Authority) RotateCSRFToken(ctx context.Context) string {
	tok := rand.Text()
	a.sm.Put(ctx, keyCSRFToken, tok)
	return tok
}

// ValidateCSRF reports whether submitted equals the session's current token.
// A session without a token never validates.
func (a *Authority) ValidateCSRF(ctx context.Context, submitted string) bool {
	stored := a.sm.GetString(ctx, keyCSRFToken)
	if stored == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
