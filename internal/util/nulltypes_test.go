// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"testing"
	"time"
)

func TestNullIDFromPtr(t *testing.T) {
	tests := []struct {
		name     string
		input    *int64
		expected sql.NullInt64
	}{
		{name: "nil", input: nil, expected: sql.NullInt64{}},
		{name: "zero id", input: ptr(int64(0)), expected: sql.NullInt64{}},
		{name: "negative id", input: ptr(int64(-3)), expected: sql.NullInt64{}},
		{name: "valid id", input: ptr(int64(9)), expected: sql.NullInt64{Int64: 9, Valid: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NullIDFromPtr(tt.input); got != tt.expected {
				t.Errorf("NullIDFromPtr() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestFloat64Nulls(t *testing.T) {
	if got := NullFloat64FromPtr(nil); got.Valid {
		t.Errorf("NullFloat64FromPtr(nil) = %v, want invalid", got)
	}
	v := 35.5
	n := NullFloat64FromPtr(&v)
	if !n.Valid || n.Float64 != 35.5 {
		t.Errorf("NullFloat64FromPtr() = %v", n)
	}
	if got := Float64PtrFromNull(n); got == nil || *got != 35.5 {
		t.Errorf("Float64PtrFromNull() = %v", got)
	}
	if got := Float64PtrFromNull(sql.NullFloat64{}); got != nil {
		t.Errorf("Float64PtrFromNull(invalid) = %v, want nil", *got)
	}
}

func TestNullStringFromValue(t *testing.T) {
	if got := NullStringFromValue(""); got.Valid {
		t.Errorf("NullStringFromValue(\"\") = %v, want invalid", got)
	}
	if got := NullStringFromValue("x"); !got.Valid || got.String != "x" {
		t.Errorf("NullStringFromValue(\"x\") = %v", got)
	}
}

func TestMillisRoundTrip(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	in := time.Date(2025, 6, 1, 15, 4, 5, 123_000_000, loc)

	got := TimeFromMillis(UnixMillis(in))
	if !got.Equal(in) {
		t.Errorf("round trip = %v, want %v", got, in)
	}
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}

	if n := NullMillisFromPtr(nil); n.Valid {
		t.Error("NullMillisFromPtr(nil) should be invalid")
	}
	if p := TimePtrFromNullMillis(NullMillisFromPtr(&in)); p == nil || !p.Equal(in) {
		t.Errorf("TimePtrFromNullMillis() = %v", p)
	}
	if p := TimePtrFromNullMillis(sql.NullInt64{}); p != nil {
		t.Errorf("TimePtrFromNullMillis(invalid) = %v, want nil", p)
	}
}

// Helper functions for tests
func ptr(v int64) *int64 {
	return &v
}
