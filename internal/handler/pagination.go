// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler holds HTTP helpers shared by the API handlers and the
// service health endpoints.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Listing page sizes.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page is the requested window of a paginated listing.
type Page struct {
	Number  int
	PerPage int
}

// PageFromRequest reads "page" and "per_page". Unparseable or non-positive
// values fall back to page 1 and DefaultPerPage; per_page is capped at
// MaxPerPage.
func PageFromRequest(r *http.Request) Page {
	p := Page{
		Number:  QueryInt(r, "page", 1, 1, 0),
		PerPage: QueryInt(r, "per_page", DefaultPerPage, 1, 0),
	}
	p.PerPage = min(p.PerPage, MaxPerPage)
	return p
}

// Offset is the number of rows before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// TotalPages returns how many pages of perPage rows hold total rows. An
// empty listing still has one page.
func TotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// QueryInt reads an integer query parameter. Missing or unparseable values
// and values below minVal yield def; maxVal > 0 rejects larger values too.
func QueryInt(r *http.Request, name string, def, minVal, maxVal int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < minVal || (maxVal > 0 && v > maxVal) {
		return def
	}
	return v
}

// ErrMissingParam is returned when a required URL parameter is empty.
var ErrMissingParam = errors.New("missing URL parameter")

// URLParamID parses a chi URL parameter holding a positive row ID.
func URLParamID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, ErrMissingParam
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
