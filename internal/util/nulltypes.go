// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions.
package util

import (
	"database/sql"
	"time"
)

// NullIDFromPtr converts an optional row ID into sql.NullInt64. Non-positive
// IDs are stored as NULL.
func NullIDFromPtr(ptr *int64) sql.NullInt64 {
	if ptr == nil || *ptr <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *ptr, Valid: true}
}

// Int64PtrFromNull returns nil for an invalid NullInt64.
func Int64PtrFromNull(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// NullFloat64FromPtr converts a pointer to float64 into sql.NullFloat64.
func NullFloat64FromPtr(ptr *float64) sql.NullFloat64 {
	if ptr != nil {
		return sql.NullFloat64{Float64: *ptr, Valid: true}
	}
	return sql.NullFloat64{}
}

// Float64PtrFromNull returns nil for an invalid NullFloat64.
func Float64PtrFromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// NullStringFromValue creates a sql.NullString from a string value.
// Returns a valid NullString if the string is non-empty, otherwise returns an invalid one.
func NullStringFromValue(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// UnixMillis converts t to Unix milliseconds in UTC, the storage format for timestamps.
func UnixMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// TimeFromMillis converts stored Unix milliseconds back to a UTC time.
func TimeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// NullMillisFromPtr converts an optional time to nullable Unix milliseconds.
func NullMillisFromPtr(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: UnixMillis(*t), Valid: true}
}

// TimePtrFromNullMillis converts nullable Unix milliseconds to an optional time.
func TimePtrFromNullMillis(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := TimeFromMillis(n.Int64)
	return &t
}
