// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const accountColumns = `id, username, email, password_hash, address, country_id, state_id, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }, i *Account) error {
	return row.Scan(
		&i.ID,
		&i.Username,
		&i.Email,
		&i.PasswordHash,
		&i.Address,
		&i.CountryID,
		&i.StateID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
}

const getAccount = `-- name: GetAccount :one
SELECT ` + accountColumns + ` FROM accounts
WHERE id = ?
`

func (q *Queries) GetAccount(ctx context.Context, id int64) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccount, id)
	var i Account
	err := scanAccount(row, &i)
	return i, err
}

const getAccountByUsername = `-- name: GetAccountByUsername :one
SELECT ` + accountColumns + ` FROM accounts
WHERE username = ?
`

func (q *Queries) GetAccountByUsername(ctx context.Context, username string) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccountByUsername, username)
	var i Account
	err := scanAccount(row, &i)
	return i, err
}

const getAccountDetail = `-- name: GetAccountDetail :one
SELECT a.id, a.username, a.email, a.password_hash, a.address, a.country_id, a.state_id,
       a.created_at, a.updated_at, c.name AS country_name, s.name AS state_name
FROM accounts a
LEFT JOIN countries c ON c.id = a.country_id
LEFT JOIN states s ON s.id = a.state_id
WHERE a.id = ?
`

func (q *Queries) GetAccountDetail(ctx context.Context, id int64) (AccountDetail, error) {
	row := q.db.QueryRowContext(ctx, getAccountDetail, id)
	var i AccountDetail
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.Email,
		&i.PasswordHash,
		&i.Address,
		&i.CountryID,
		&i.StateID,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.CountryName,
		&i.StateName,
	)
	return i, err
}

const createAccount = `-- name: CreateAccount :execlastid
INSERT INTO accounts (username, email, password_hash, address, country_id, state_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateAccountParams struct {
	Username     string
	Email        string
	PasswordHash string
	Address      sql.NullString
	CountryID    sql.NullInt64
	StateID      sql.NullInt64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createAccount,
		arg.Username,
		arg.Email,
		arg.PasswordHash,
		arg.Address,
		arg.CountryID,
		arg.StateID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const updateAccount = `-- name: UpdateAccount :execrows
UPDATE accounts SET username = ?, email = ?, address = ?, country_id = ?, state_id = ?, updated_at = ?
WHERE id = ?
`

type UpdateAccountParams struct {
	ID        int64
	Username  string
	Email     string
	Address   sql.NullString
	CountryID sql.NullInt64
	StateID   sql.NullInt64
	UpdatedAt time.Time
}

func (q *Queries) UpdateAccount(ctx context.Context, arg UpdateAccountParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateAccount,
		arg.Username,
		arg.Email,
		arg.Address,
		arg.CountryID,
		arg.StateID,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateAccountPassword = `-- name: UpdateAccountPassword :exec
UPDATE accounts SET password_hash = ?, updated_at = ?
WHERE id = ?
`

type UpdateAccountPasswordParams struct {
	ID           int64
	PasswordHash string
	UpdatedAt    time.Time
}

func (q *Queries) UpdateAccountPassword(ctx context.Context, arg UpdateAccountPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateAccountPassword, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

const deleteAccount = `-- name: DeleteAccount :execrows
DELETE FROM accounts WHERE id = ?
`

func (q *Queries) DeleteAccount(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAccount, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countAccountsByCountry = `-- name: CountAccountsByCountry :one
SELECT COUNT(*) FROM accounts WHERE country_id = ?
`

func (q *Queries) CountAccountsByCountry(ctx context.Context, countryID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAccountsByCountry, countryID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countAccountsByState = `-- name: CountAccountsByState :one
SELECT COUNT(*) FROM accounts WHERE state_id = ?
`

func (q *Queries) CountAccountsByState(ctx context.Context, stateID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAccountsByState, stateID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
