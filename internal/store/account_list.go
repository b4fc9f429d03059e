// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"strings"

	"github.com/olegiv/geoadmin/internal/model"
)

// Listing defaults.
const (
	DefaultListLimit int64 = 10
	MaxListLimit     int64 = 100
)

// SortColumn is an allowlisted ORDER BY column for account listings.
type SortColumn int

const (
	SortByID SortColumn = iota
	SortByUsername
	SortByEmail
	SortByCreatedAt
	sortColumnCount
)

// sortColumnNames maps request values onto sort columns.
var sortColumnNames = map[string]SortColumn{
	"id":         SortByID,
	"username":   SortByUsername,
	"email":      SortByEmail,
	"created_at": SortByCreatedAt,
}

// ParseSortColumn maps s onto the allowlist. Unknown values yield SortByID.
func ParseSortColumn(s string) SortColumn {
	if c, ok := sortColumnNames[s]; ok {
		return c
	}
	return SortByID
}

func (c SortColumn) String() string {
	for name, col := range sortColumnNames {
		if col == c {
			return name
		}
	}
	return "id"
}

// SortDirection is an allowlisted ORDER BY direction.
type SortDirection int

const (
	SortDesc SortDirection = iota
	SortAsc
	sortDirectionCount
)

// ParseSortDirection accepts asc/desc in lower or upper case. Anything else
// yields SortDesc.
func ParseSortDirection(s string) SortDirection {
	switch s {
	case "asc", "ASC":
		return SortAsc
	default:
		return SortDesc
	}
}

func (d SortDirection) String() string {
	if d == SortAsc {
		return "asc"
	}
	return "desc"
}

// ListLimits bounds the page size.
type ListLimits struct {
	Default int64
	Max     int64
}

// DefaultListLimits returns the standard page size bounds.
func DefaultListLimits() ListLimits {
	return ListLimits{Default: DefaultListLimit, Max: MaxListLimit}
}

// ListParams is a listing request after allowlisting. Only values of this type
// reach the statement templates.
type ListParams struct {
	Offset    int64
	Limit     int64
	Search    string
	Column    SortColumn
	Direction SortDirection
}

// ParseListParams maps an untrusted request onto ListParams. Nothing is
// rejected: out-of-range values fall back to defaults.
func ParseListParams(req model.ListRequest, limits ListLimits) ListParams {
	if limits.Default <= 0 {
		limits.Default = DefaultListLimit
	}
	if limits.Max < limits.Default {
		limits.Max = limits.Default
	}

	p := ListParams{
		Offset:    req.Offset,
		Limit:     req.Limit,
		Search:    strings.TrimSpace(req.Search),
		Column:    ParseSortColumn(req.OrderColumn),
		Direction: ParseSortDirection(req.OrderDirection),
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = limits.Default
	}
	if p.Limit > limits.Max {
		p.Limit = limits.Max
	}
	return p
}

// Statement fragments. Templates are assembled only from these constants.
const (
	listSelect     = "SELECT id, username, email, created_at FROM accounts"
	listCountAll   = "SELECT COUNT(*) FROM accounts"
	listSearchCond = " WHERE (LOWER(username) LIKE LOWER(?) ESCAPE '!' OR LOWER(email) LIKE LOWER(?) ESCAPE '!')"
	listPage       = " LIMIT ? OFFSET ?"
)

var orderClauses = [sortColumnCount][sortDirectionCount]string{
	SortByID: {
		SortDesc: " ORDER BY id DESC",
		SortAsc:  " ORDER BY id ASC",
	},
	SortByUsername: {
		SortDesc: " ORDER BY username DESC, id DESC",
		SortAsc:  " ORDER BY username ASC, id ASC",
	},
	SortByEmail: {
		SortDesc: " ORDER BY email DESC, id DESC",
		SortAsc:  " ORDER BY email ASC, id ASC",
	},
	SortByCreatedAt: {
		SortDesc: " ORDER BY created_at DESC, id DESC",
		SortAsc:  " ORDER BY created_at ASC, id ASC",
	},
}

type listKey struct {
	column    SortColumn
	direction SortDirection
	searched  bool
	paged     bool
}

// listTemplates is the closed set of listing statements.
var listTemplates = buildListTemplates()

func buildListTemplates() map[listKey]string {
	templates := make(map[listKey]string)
	for c := SortColumn(0); c < sortColumnCount; c++ {
		for d := SortDirection(0); d < sortDirectionCount; d++ {
			for _, searched := range []bool{false, true} {
				for _, paged := range []bool{false, true} {
					stmt := listSelect
					if searched {
						stmt += listSearchCond
					}
					stmt += orderClauses[c][d]
					if paged {
						stmt += listPage
					}
					templates[listKey{c, d, searched, paged}] = stmt
				}
			}
		}
	}
	return templates
}

func listStatement(p ListParams, paged bool) string {
	c, d := p.Column, p.Direction
	if c < 0 || c >= sortColumnCount {
		c = SortByID
	}
	if d < 0 || d >= sortDirectionCount {
		d = SortDesc
	}
	return listTemplates[listKey{c, d, p.Search != "", paged}]
}

// likePattern escapes LIKE metacharacters in s using '!' and wraps it for an
// unanchored substring match.
func likePattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(s) + "%"
}

// AccountListing is one page of accounts plus the counts needed to paginate.
type AccountListing struct {
	Rows          []AccountListRow
	TotalCount    int64
	FilteredCount int64
}

// ListAccounts returns one page of accounts with the unfiltered and filtered
// counts, each computed by its own query.
func (q *Queries) ListAccounts(ctx context.Context, p ListParams) (AccountListing, error) {
	var out AccountListing

	if err := q.db.QueryRowContext(ctx, listCountAll).Scan(&out.TotalCount); err != nil {
		return out, err
	}

	if p.Search == "" {
		out.FilteredCount = out.TotalCount
	} else {
		pattern := likePattern(p.Search)
		if err := q.db.QueryRowContext(ctx, listCountAll+listSearchCond, pattern, pattern).Scan(&out.FilteredCount); err != nil {
			return out, err
		}
	}

	args := searchArgs(p)
	args = append(args, p.Limit, p.Offset)
	rows, err := q.queryListRows(ctx, listStatement(p, true), args...)
	if err != nil {
		return out, err
	}
	out.Rows = rows
	return out, nil
}

// ExportAccounts returns every account matching p's search in p's order,
// ignoring Limit and Offset.
func (q *Queries) ExportAccounts(ctx context.Context, p ListParams) ([]AccountListRow, error) {
	return q.queryListRows(ctx, listStatement(p, false), searchArgs(p)...)
}

func searchArgs(p ListParams) []interface{} {
	if p.Search == "" {
		return nil
	}
	pattern := likePattern(p.Search)
	return []interface{}{pattern, pattern}
}

func (q *Queries) queryListRows(ctx context.Context, stmt string, args ...interface{}) ([]AccountListRow, error) {
	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []AccountListRow{}
	for rows.Next() {
		var i AccountListRow
		if err := rows.Scan(&i.ID, &i.Username, &i.Email, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
