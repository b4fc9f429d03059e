// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const listCountries = `-- name: ListCountries :many
SELECT id, name, created_at, updated_at FROM countries
ORDER BY name ASC
`

func (q *Queries) ListCountries(ctx context.Context) ([]Country, error) {
	rows, err := q.db.QueryContext(ctx, listCountries)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []Country{}
	for rows.Next() {
		var i Country
		if err := rows.Scan(&i.ID, &i.Name, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listCountryIDs = `-- name: ListCountryIDs :many
SELECT id FROM countries
`

func (q *Queries) ListCountryIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listCountryIDs)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCountry = `-- name: GetCountry :one
SELECT id, name, created_at, updated_at FROM countries
WHERE id = ?
`

func (q *Queries) GetCountry(ctx context.Context, id int64) (Country, error) {
	row := q.db.QueryRowContext(ctx, getCountry, id)
	var i Country
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const createCountry = `-- name: CreateCountry :execlastid
INSERT INTO countries (name, created_at, updated_at) VALUES (?, ?, ?)
`

type CreateCountryParams struct {
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateCountry(ctx context.Context, arg CreateCountryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createCountry, arg.Name, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const updateCountry = `-- name: UpdateCountry :execrows
UPDATE countries SET name = ?, updated_at = ?
WHERE id = ?
`

type UpdateCountryParams struct {
	ID        int64
	Name      string
	UpdatedAt time.Time
}

func (q *Queries) UpdateCountry(ctx context.Context, arg UpdateCountryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateCountry, arg.Name, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCountry = `-- name: DeleteCountry :execrows
DELETE FROM countries WHERE id = ?
`

func (q *Queries) DeleteCountry(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCountry, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countCountries = `-- name: CountCountries :one
SELECT COUNT(*) FROM countries
`

func (q *Queries) CountCountries(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCountries)
	var count int64
	err := row.Scan(&count)
	return count, err
}
