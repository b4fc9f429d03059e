// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const listStatesByCountry = `-- name: ListStatesByCountry :many
SELECT id, country_id, name, created_at, updated_at FROM states
WHERE country_id = ?
ORDER BY name ASC
`

func (q *Queries) ListStatesByCountry(ctx context.Context, countryID int64) ([]State, error) {
	rows, err := q.db.QueryContext(ctx, listStatesByCountry, countryID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []State{}
	for rows.Next() {
		var i State
		if err := rows.Scan(&i.ID, &i.CountryID, &i.Name, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listStatesWithCountry = `-- name: ListStatesWithCountry :many
SELECT s.id, s.country_id, s.name, c.name AS country_name
FROM states s
JOIN countries c ON c.id = s.country_id
ORDER BY c.name ASC, s.name ASC
`

func (q *Queries) ListStatesWithCountry(ctx context.Context) ([]StateWithCountry, error) {
	rows, err := q.db.QueryContext(ctx, listStatesWithCountry)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []StateWithCountry{}
	for rows.Next() {
		var i StateWithCountry
		if err := rows.Scan(&i.ID, &i.CountryID, &i.Name, &i.CountryName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getState = `-- name: GetState :one
SELECT id, country_id, name, created_at, updated_at FROM states
WHERE id = ?
`

func (q *Queries) GetState(ctx context.Context, id int64) (State, error) {
	row := q.db.QueryRowContext(ctx, getState, id)
	var i State
	err := row.Scan(&i.ID, &i.CountryID, &i.Name, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const createState = `-- name: CreateState :execlastid
INSERT INTO states (country_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
`

type CreateStateParams struct {
	CountryID int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateState(ctx context.Context, arg CreateStateParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createState, arg.CountryID, arg.Name, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const updateState = `-- name: UpdateState :execrows
UPDATE states SET country_id = ?, name = ?, updated_at = ?
WHERE id = ?
`

type UpdateStateParams struct {
	ID        int64
	CountryID int64
	Name      string
	UpdatedAt time.Time
}

func (q *Queries) UpdateState(ctx context.Context, arg UpdateStateParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateState, arg.CountryID, arg.Name, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteState = `-- name: DeleteState :execrows
DELETE FROM states WHERE id = ?
`

func (q *Queries) DeleteState(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteState, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countStatesByCountry = `-- name: CountStatesByCountry :one
SELECT COUNT(*) FROM states WHERE country_id = ?
`

func (q *Queries) CountStatesByCountry(ctx context.Context, countryID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countStatesByCountry, countryID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
