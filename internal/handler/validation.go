// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"html"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate  = newValidator()
	plainText = bluemonday.StrictPolicy()
)

// newValidator reports fields by their form names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// countryForm is the country create/update form.
type countryForm struct {
	Name string `form:"name" label:"Name" validate:"required,max=255"`
}

// stateForm is the state create/update form.
type stateForm struct {
	Name      string `form:"name" label:"Name" validate:"required,max=255"`
	CountryID int64  `form:"country_id" label:"Country" validate:"gte=1"`
}

// accountForm is the account create/update form. Password is required on
// create only.
type accountForm struct {
	Username  string `form:"username" label:"Username" validate:"required,max=255"`
	Email     string `form:"email" label:"Email" validate:"required,email,max=255"`
	Password  string `form:"password" label:"Password" validate:"omitempty,min=6,max=128"`
	Address   string `form:"address" label:"Address" validate:"max=1000"`
	CountryID int64  `form:"country_id" label:"Country" validate:"gte=1"`
	StateID   int64  `form:"state_id" label:"State" validate:"gte=1"`
}

// loginForm is the account and admin login form.
type loginForm struct {
	Username string `form:"username" label:"Username" validate:"required,max=255"`
	Password string `form:"password" label:"Password" validate:"required,min=6,max=128"`
}

// sanitizeText strips markup and surrounding whitespace from a user-supplied
// display value.
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}

// formInt reads an integer form field. Missing or malformed values read as 0.
func formInt(r *http.Request, key string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(r.FormValue(key)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseCountryForm(r *http.Request) countryForm {
	return countryForm{Name: sanitizeText(r.FormValue("name"))}
}

func parseStateForm(r *http.Request) stateForm {
	return stateForm{
		Name:      sanitizeText(r.FormValue("name")),
		CountryID: formInt(r, "country_id"),
	}
}

func parseAccountForm(r *http.Request) accountForm {
	return accountForm{
		Username:  sanitizeText(r.FormValue("username")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Password:  r.FormValue("password"),
		Address:   sanitizeText(r.FormValue("address")),
		CountryID: formInt(r, "country_id"),
		StateID:   formInt(r, "state_id"),
	}
}

func parseLoginForm(r *http.Request) loginForm {
	return loginForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
}

// validateForm validates form and returns messages keyed by form field, or
// nil when the form is valid.
func validateForm(form any) map[string]string {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"form": "Invalid form submission."}
	}

	t := reflect.Indirect(reflect.ValueOf(form)).Type()
	errs := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		label := fe.Field()
		if sf, found := t.FieldByName(fe.StructField()); found {
			if l := sf.Tag.Get("label"); l != "" {
				label = l
			}
		}
		if _, seen := errs[fe.Field()]; !seen {
			errs[fe.Field()] = validationMessage(label, fe)
		}
	}
	return errs
}

// validationMessage renders a single field error for display.
func validationMessage(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "email":
		return fmt.Sprintf("%s must be a valid email address.", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "gte", "gt":
		return fmt.Sprintf("%s must be selected.", label)
	}
	return fmt.Sprintf("%s is invalid.", label)
}

// writeValidationErrors writes a 422 with the per-field messages.
func writeValidationErrors(w http.ResponseWriter, errs map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"success": false,
		"error":   "Please correct the highlighted fields.",
		"errors":  errs,
	})
}
