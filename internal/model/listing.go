// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// ListRequest is an untrusted account listing request as received from a client.
// It is never used to build query text directly; store.ParseListParams maps it
// onto allowlisted values first.
type ListRequest struct {
	Offset         int64
	Limit          int64 // 0 means "use default"
	Search         string
	OrderColumn    string
	OrderDirection string
}
