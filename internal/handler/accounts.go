// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/service"
	"github.com/olegiv/geoadmin/internal/store"
)

// AccountsHandler handles account management routes.
type AccountsHandler struct {
	accounts *service.AccountService
	events   *service.EventService
}

// NewAccountsHandler creates a new AccountsHandler. events may be nil.
func NewAccountsHandler(accounts *service.AccountService, events *service.EventService) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, events: events}
}

// accountResponse is the JSON shape of an account.
type accountResponse struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Address     string    `json:"address,omitempty"`
	CountryID   *int64    `json:"country_id"`
	CountryName string    `json:"country_name,omitempty"`
	StateID     *int64    `json:"state_id"`
	StateName   string    `json:"state_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newAccountResponse(d store.AccountDetail) accountResponse {
	resp := accountResponse{
		ID:          d.ID,
		Username:    d.Username,
		Email:       d.Email,
		Address:     d.Address.String,
		CountryName: d.CountryName.String,
		StateName:   d.StateName.String,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.CountryID.Valid {
		id := d.CountryID.Int64
		resp.CountryID = &id
	}
	if d.StateID.Valid {
		id := d.StateID.Int64
		resp.StateID = &id
	}
	return resp
}

// listRequestFromQuery reads offset, limit, search, order and dir.
func listRequestFromQuery(r *http.Request) model.ListRequest {
	q := r.URL.Query()
	return model.ListRequest{
		Offset:         queryInt(q.Get("offset")),
		Limit:          queryInt(q.Get("limit")),
		Search:         q.Get("search"),
		OrderColumn:    q.Get("order"),
		OrderDirection: q.Get("dir"),
	}
}

func queryInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// List handles GET /accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	listing, params, err := h.accounts.List(r.Context(), listRequestFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"accounts":       listing.Rows,
		"total_count":    listing.TotalCount,
		"filtered_count": listing.FilteredCount,
		"offset":         params.Offset,
		"limit":          params.Limit,
		"order":          params.Column.String(),
		"dir":            params.Direction.String(),
	})
}

// Get handles GET /accounts/{id}.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, "User")
		return
	}
	detail, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"account": newAccountResponse(detail)})
}

// Create handles POST /accounts.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	form := parseAccountForm(r)
	errs := validateForm(form)
	if form.Password == "" {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["password"] = "Password is required."
	}
	if errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	detail, err := h.accounts.Create(r.Context(), accountInput(form))
	if err != nil {
		writeError(w, r, err)
		return
	}
	recordEvent(r, h.events, model.EventCategoryAccount, "User created",
		map[string]any{"account_id": detail.ID, "username": detail.Username})
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"account": newAccountResponse(detail)})
}

// Update handles POST /accounts/{id}. An empty password keeps the current one.
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, "User")
		return
	}
	form := parseAccountForm(r)
	if errs := validateForm(form); errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	detail, err := h.accounts.Update(r.Context(), id, accountInput(form))
	if err != nil {
		writeError(w, r, err)
		return
	}
	recordEvent(r, h.events, model.EventCategoryAccount, "User updated",
		map[string]any{"account_id": id, "password_changed": form.Password != ""})
	writeJSONSuccess(w, http.StatusOK, map[string]any{"account": newAccountResponse(detail)})
}

// Delete handles POST /accounts/{id}/delete.
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, "User")
		return
	}
	if err := h.accounts.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	recordEvent(r, h.events, model.EventCategoryAccount, "User deleted", map[string]any{"account_id": id})
	writeJSONSuccess(w, http.StatusOK, nil)
}

func accountInput(f accountForm) service.AccountInput {
	return service.AccountInput{
		Username:  f.Username,
		Email:     f.Email,
		Password:  f.Password,
		Address:   f.Address,
		CountryID: f.CountryID,
		StateID:   f.StateID,
	}
}

// dataTableColumns maps DataTables column indexes onto sort column names.
// Unknown indexes sort by id.
var dataTableColumns = map[string]string{
	"0": "id",
	"1": "username",
	"2": "email",
	"3": "created_at",
}

type dataTableRow struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type dataTableResponse struct {
	Draw            int64          `json:"draw"`
	RecordsTotal    int64          `json:"recordsTotal"`
	RecordsFiltered int64          `json:"recordsFiltered"`
	Data            []dataTableRow `json:"data"`
}

// DataTable handles GET /api/v1/accounts/datatable using the DataTables
// server-side processing parameters.
func (h *AccountsHandler) DataTable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	column, ok := dataTableColumns[q.Get("order[0][column]")]
	if !ok {
		column = "id"
	}
	req := model.ListRequest{
		Offset:         queryInt(q.Get("start")),
		Limit:          queryInt(q.Get("length")),
		Search:         q.Get("search[value]"),
		OrderColumn:    column,
		OrderDirection: q.Get("order[0][dir]"),
	}

	listing, _, err := h.accounts.List(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := dataTableResponse{
		Draw:            queryInt(q.Get("draw")),
		RecordsTotal:    listing.TotalCount,
		RecordsFiltered: listing.FilteredCount,
		Data:            make([]dataTableRow, 0, len(listing.Rows)),
	}
	for _, row := range listing.Rows {
		resp.Data = append(resp.Data, dataTableRow{
			ID:        row.ID,
			Username:  row.Username,
			Email:     row.Email,
			CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExportCSV handles GET /accounts/export.csv: every account matching search,
// in the requested order, without pagination.
func (h *AccountsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.accounts.Export(r.Context(), listRequestFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="accounts.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "username", "email", "created_at"})
	for _, row := range rows {
		_ = cw.Write([]string{
			strconv.FormatInt(row.ID, 10),
			csvCell(row.Username),
			csvCell(row.Email),
			row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("writing account export", "error", err)
	}
}

// csvCell neutralises values a spreadsheet would evaluate as a formula.
func csvCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
