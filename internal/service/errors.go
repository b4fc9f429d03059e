// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/store"
)

// storeError translates a store error into the domain taxonomy.
// notFound and conflict are the user-facing messages for those cases.
func storeError(op string, err error, notFound, conflict string) error {
	switch {
	case err == nil:
		return nil
	case store.IsNotFound(err):
		return model.NotFound(op, notFound)
	case store.IsUniqueViolation(err), store.IsForeignKeyViolation(err):
		return model.Conflict(op, conflict, err)
	default:
		return model.Unavailable(op, err)
	}
}
