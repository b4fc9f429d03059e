// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const getAdminByUsername = `-- name: GetAdminByUsername :one
SELECT id, username, email, password_hash, created_at, last_login_at FROM admins
WHERE username = ?
`

func (q *Queries) GetAdminByUsername(ctx context.Context, username string) (Admin, error) {
	row := q.db.QueryRowContext(ctx, getAdminByUsername, username)
	var i Admin
	err := row.Scan(&i.ID, &i.Username, &i.Email, &i.PasswordHash, &i.CreatedAt, &i.LastLoginAt)
	return i, err
}

const getAdmin = `-- name: GetAdmin :one
SELECT id, username, email, password_hash, created_at, last_login_at FROM admins
WHERE id = ?
`

func (q *Queries) GetAdmin(ctx context.Context, id int64) (Admin, error) {
	row := q.db.QueryRowContext(ctx, getAdmin, id)
	var i Admin
	err := row.Scan(&i.ID, &i.Username, &i.Email, &i.PasswordHash, &i.CreatedAt, &i.LastLoginAt)
	return i, err
}

const listAdmins = `-- name: ListAdmins :many
SELECT id, username, email, password_hash, created_at, last_login_at FROM admins
ORDER BY id ASC
`

func (q *Queries) ListAdmins(ctx context.Context) ([]Admin, error) {
	rows, err := q.db.QueryContext(ctx, listAdmins)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []Admin{}
	for rows.Next() {
		var i Admin
		if err := rows.Scan(&i.ID, &i.Username, &i.Email, &i.PasswordHash, &i.CreatedAt, &i.LastLoginAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countAdmins = `-- name: CountAdmins :one
SELECT COUNT(*) FROM admins
`

func (q *Queries) CountAdmins(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAdmins)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createAdmin = `-- name: CreateAdmin :execlastid
INSERT INTO admins (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)
`

type CreateAdminParams struct {
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

func (q *Queries) CreateAdmin(ctx context.Context, arg CreateAdminParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createAdmin, arg.Username, arg.Email, arg.PasswordHash, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const updateAdminPassword = `-- name: UpdateAdminPassword :exec
UPDATE admins SET password_hash = ? WHERE id = ?
`

func (q *Queries) UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := q.db.ExecContext(ctx, updateAdminPassword, passwordHash, id)
	return err
}

const updateAdminLastLogin = `-- name: UpdateAdminLastLogin :exec
UPDATE admins SET last_login_at = ? WHERE id = ?
`

func (q *Queries) UpdateAdminLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, updateAdminLastLogin, at, id)
	return err
}
