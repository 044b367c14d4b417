// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "strings"

// ReaderType distinguishes anonymous from signed-in readers.
type ReaderType string

// Reader types
const (
	ReaderGuest      ReaderType = "guest"
	ReaderRegistered ReaderType = "registered"
)

// Reader is the identity attached to reading sessions and events.
// A guest carries an optional client-generated visitor key; a registered
// reader always carries a positive user ID. Build values through Guest,
// Registered or NormalizeReader so the pair stays consistent.
type Reader struct {
	Type       ReaderType `json:"type"`
	UserID     int64      `json:"user_id,omitempty"`
	VisitorKey string     `json:"visitor_key,omitempty"`
}

// Guest returns an anonymous reader identity.
func Guest(visitorKey string) Reader {
	return Reader{Type: ReaderGuest, VisitorKey: strings.TrimSpace(visitorKey)}
}

// Registered returns a signed-in reader identity.
func Registered(userID int64) Reader {
	return Reader{Type: ReaderRegistered, UserID: userID}
}

// IsRegistered reports whether r identifies a signed-in user.
func (r Reader) IsRegistered() bool {
	return r.Type == ReaderRegistered && r.UserID > 0
}

// ReaderInput is the loosely shaped identity accepted from clients.
type ReaderInput struct {
	Type       string `json:"type"`
	UserID     int64  `json:"user_id,omitempty"`
	VisitorKey string `json:"visitor_key,omitempty"`
}

// NormalizeReader converts client input into a Reader. Registered wins only
// when the type says so and a user ID is present; everything else is a guest.
// A registered reader keeps its visitor key so a guest session can be linked
// after sign-in.
func NormalizeReader(in ReaderInput) Reader {
	if ReaderType(strings.ToLower(strings.TrimSpace(in.Type))) == ReaderRegistered && in.UserID > 0 {
		r := Registered(in.UserID)
		r.VisitorKey = strings.TrimSpace(in.VisitorKey)
		return r
	}
	return Guest(in.VisitorKey)
}
