// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/geoadmin/internal/auth"
	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/store"
)

const (
	msgAccountNotFound      = "User not found."
	msgAccountExists        = "Username or email already exists"
	msgPasswordRequired     = "Password is required."
	msgStateNeedsCountry    = "A state can only be selected together with a country."
	msgStateUnknown         = "Selected state does not exist."
	msgStateOutsideCountry  = "Selected state does not belong to the selected country."
	msgAccountFieldsMissing = "Username and email are required."
)

// AccountInput carries the editable fields of an account. Zero CountryID or
// StateID means none. On update an empty Password keeps the current one.
type AccountInput struct {
	Username  string
	Email     string
	Password  string
	Address   string
	CountryID int64
	StateID   int64
}

// AccountService manages end-user accounts and their listings.
type AccountService struct {
	db      *sql.DB
	queries *store.Queries
	limits  store.ListLimits
}

// NewAccountService creates an AccountService. limits bounds listing page sizes.
func NewAccountService(db *sql.DB, limits store.ListLimits) *AccountService {
	return &AccountService{db: db, queries: store.New(db), limits: limits}
}

// Limits returns the page size bounds applied to listings.
func (s *AccountService) Limits() store.ListLimits {
	return s.limits
}

// Get returns an account with its country and state names.
func (s *AccountService) Get(ctx context.Context, id int64) (store.AccountDetail, error) {
	detail, err := s.queries.GetAccountDetail(ctx, id)
	if err != nil {
		return store.AccountDetail{}, storeError("get account", err, msgAccountNotFound, "")
	}
	return detail, nil
}

// Create validates the location fields, hashes the password and inserts the account.
func (s *AccountService) Create(ctx context.Context, in AccountInput) (store.AccountDetail, error) {
	const op = "create account"
	in = normalizeAccountInput(in)
	if in.Username == "" || in.Email == "" {
		return store.AccountDetail{}, model.Invalid(op, msgAccountFieldsMissing)
	}
	if in.Password == "" {
		return store.AccountDetail{}, model.Invalid(op, msgPasswordRequired)
	}
	if err := s.checkLocation(ctx, s.queries, op, in.CountryID, in.StateID); err != nil {
		return store.AccountDetail{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return store.AccountDetail{}, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	id, err := s.queries.CreateAccount(ctx, store.CreateAccountParams{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Address:      nullString(in.Address),
		CountryID:    nullID(in.CountryID),
		StateID:      nullID(in.StateID),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return store.AccountDetail{}, storeError(op, err, "", msgAccountExists)
	}

	slog.Info("account created", "account_id", id, "username", in.Username, "category", model.EventCategoryAccount)
	return s.Get(ctx, id)
}

// Update replaces the editable fields of an account. The field update and the
// optional password change commit together.
func (s *AccountService) Update(ctx context.Context, id int64, in AccountInput) (store.AccountDetail, error) {
	const op = "update account"
	in = normalizeAccountInput(in)
	if in.Username == "" || in.Email == "" {
		return store.AccountDetail{}, model.Invalid(op, msgAccountFieldsMissing)
	}

	var hash string
	if in.Password != "" {
		var err error
		if hash, err = auth.HashPassword(in.Password); err != nil {
			return store.AccountDetail{}, fmt.Errorf("hashing password: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.AccountDetail{}, model.Unavailable(op, err)
	}
	defer func() { _ = tx.Rollback() }()
	qtx := s.queries.WithTx(tx)

	if err := s.checkLocation(ctx, qtx, op, in.CountryID, in.StateID); err != nil {
		return store.AccountDetail{}, err
	}

	now := time.Now().UTC()
	n, err := qtx.UpdateAccount(ctx, store.UpdateAccountParams{
		ID:        id,
		Username:  in.Username,
		Email:     in.Email,
		Address:   nullString(in.Address),
		CountryID: nullID(in.CountryID),
		StateID:   nullID(in.StateID),
		UpdatedAt: now,
	})
	if err != nil {
		return store.AccountDetail{}, storeError(op, err, msgAccountNotFound, msgAccountExists)
	}
	if n == 0 {
		return store.AccountDetail{}, model.NotFound(op, msgAccountNotFound)
	}

	if hash != "" {
		if err := qtx.UpdateAccountPassword(ctx, store.UpdateAccountPasswordParams{
			ID:           id,
			PasswordHash: hash,
			UpdatedAt:    now,
		}); err != nil {
			return store.AccountDetail{}, model.Unavailable(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return store.AccountDetail{}, model.Unavailable(op, err)
	}

	return s.Get(ctx, id)
}

// Delete removes an account.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	const op = "delete account"
	n, err := s.queries.DeleteAccount(ctx, id)
	if err != nil {
		return storeError(op, err, msgAccountNotFound, "")
	}
	if n == 0 {
		return model.NotFound(op, msgAccountNotFound)
	}
	slog.Info("account deleted", "account_id", id, "category", model.EventCategoryAccount)
	return nil
}

// List returns one page of accounts for an untrusted request, together with
// the parameters that were actually applied.
func (s *AccountService) List(ctx context.Context, req model.ListRequest) (store.AccountListing, store.ListParams, error) {
	p := store.ParseListParams(req, s.limits)
	listing, err := s.queries.ListAccounts(ctx, p)
	if err != nil {
		return store.AccountListing{}, p, model.Unavailable("list accounts", err)
	}
	return listing, p, nil
}

// Export returns every account matching the request's search in its order.
func (s *AccountService) Export(ctx context.Context, req model.ListRequest) ([]store.AccountListRow, error) {
	p := store.ParseListParams(req, s.limits)
	rows, err := s.queries.ExportAccounts(ctx, p)
	if err != nil {
		return nil, model.Unavailable("export accounts", err)
	}
	return rows, nil
}

// checkLocation verifies that a selected state exists and belongs to the
// selected country.
func (s *AccountService) checkLocation(ctx context.Context, q *store.Queries, op string, countryID, stateID int64) error {
	if countryID > 0 {
		if _, err := q.GetCountry(ctx, countryID); err != nil {
			if store.IsNotFound(err) {
				return model.Invalid(op, msgCountryUnknown)
			}
			return model.Unavailable(op, err)
		}
	}
	if stateID <= 0 {
		return nil
	}
	if countryID <= 0 {
		return model.Invalid(op, msgStateNeedsCountry)
	}
	st, err := q.GetState(ctx, stateID)
	if err != nil {
		if store.IsNotFound(err) {
			return model.Invalid(op, msgStateUnknown)
		}
		return model.Unavailable(op, err)
	}
	if st.CountryID != countryID {
		return model.Invalid(op, msgStateOutsideCountry)
	}
	return nil
}

func normalizeAccountInput(in AccountInput) AccountInput {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	if in.CountryID < 0 {
		in.CountryID = 0
	}
	if in.StateID < 0 {
		in.StateID = 0
	}
	return in
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
