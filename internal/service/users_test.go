// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
	"github.com/newsroomhq/newsdesk/internal/testutil"
)

func TestUserService_Register(t *testing.T) {
	db := testutil.MemoryDB(t)
	svc := NewUserService(db, NewEventService(db), testutil.TestLoggerSilent())
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: " Reporter@News.Example ", Password: "correct horse", Name: "Rae"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "reporter@news.example" {
		t.Errorf("Email = %q, want lowercased", u.Email)
	}
	if u.Role != model.RoleReader {
		t.Errorf("Role = %q, want reader", u.Role)
	}
	if !strings.HasPrefix(u.PasswordHash, "$argon2id$") {
		t.Errorf("PasswordHash = %q, want argon2id", u.PasswordHash)
	}

	_, err = svc.Register(ctx, RegisterInput{Email: "REPORTER@news.example", Password: "another one"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate Register error = %v, want ErrEmailTaken", err)
	}
	if err.Error() != "an account with this email already exists" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestUserService_RegisterValidation(t *testing.T) {
	svc := NewUserService(testutil.MemoryDB(t), nil, testutil.TestLoggerSilent())

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing email", RegisterInput{Password: "long enough"}},
		{"bad email", RegisterInput{Email: "nobody", Password: "long enough"}},
		{"short password", RegisterInput{Email: "a@b.example", Password: "short"}},
		{"bad role", RegisterInput{Email: "a@b.example", Password: "long enough", Role: "owner"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tt.in); !errors.Is(err, model.ErrValidation) {
				t.Errorf("Register error = %v, want validation error", err)
			}
		})
	}
}

func TestUserService_Login(t *testing.T) {
	db := testutil.MemoryDB(t)
	svc := NewUserService(db, nil, testutil.TestLoggerSilent())
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Email: "ed@news.example", Password: "s3cret-pass", Role: model.RoleEditor})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	u, err := svc.Login(ctx, "ED@news.example", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID != registered.ID || u.LastLoginAt == nil {
		t.Errorf("Login = %+v, want same user with last login", u)
	}
	// A current argon2id hash is left alone.
	stored, _ := store.New(db).GetUserByID(ctx, u.ID)
	if stored.PasswordHash != registered.PasswordHash {
		t.Error("current hash was rewritten")
	}
	if stored.LastLoginAt == nil {
		t.Error("last_login_at not stored")
	}

	for _, tc := range []struct{ email, password string }{
		{"ed@news.example", "wrong"},
		{"nobody@news.example", "s3cret-pass"},
	} {
		if _, err := svc.Login(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%s) error = %v, want ErrInvalidCredentials", tc.email, err)
		}
	}
}

func TestUserService_LoginAudit(t *testing.T) {
	db := testutil.MemoryDB(t)
	events := NewEventService(db)
	svc := NewUserService(db, events, testutil.TestLoggerSilent())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "desk@news.example", Password: "s3cret-pass"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Login(ctx, "desk@news.example", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login(wrong) error = %v", err)
	}
	if _, err := svc.Login(ctx, "desk@news.example", "s3cret-pass"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	logged, err := events.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	levels := map[string]string{}
	for _, e := range logged {
		if e.Category == model.EventCategoryAuth {
			levels[e.Message] = e.Level
		}
	}
	if levels["Failed login attempt"] != model.EventLevelWarning {
		t.Errorf("failed login level = %q, want warning", levels["Failed login attempt"])
	}
	if levels["User logged in"] != model.EventLevelInfo {
		t.Errorf("login level = %q, want info", levels["User logged in"])
	}
}

func TestUserService_LoginMigratesLegacyHashes(t *testing.T) {
	bcryptHash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	tests := []struct {
		name   string
		stored string
	}{
		{"plaintext", "old-password"},
		{"bcrypt", string(bcryptHash)},
		{"stale argon2 params", staleArgonHash("old-password")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.MemoryDB(t)
			q := store.New(db)
			svc := NewUserService(db, nil, testutil.TestLoggerSilent())
			ctx := context.Background()

			now := time.Now().UTC()
			u, err := q.CreateUser(ctx, store.CreateUserParams{
				Email: "legacy@news.example", PasswordHash: tt.stored, Role: model.RoleReader,
				CreatedAt: now, UpdatedAt: now,
			})
			if err != nil {
				t.Fatalf("CreateUser: %v", err)
			}

			if _, err := svc.Login(ctx, u.Email, "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("wrong password error = %v", err)
			}
			if got, _ := q.GetUserByID(ctx, u.ID); got.PasswordHash != tt.stored {
				t.Fatal("hash changed after a failed login")
			}

			if _, err := svc.Login(ctx, u.Email, "old-password"); err != nil {
				t.Fatalf("Login: %v", err)
			}
			got, _ := q.GetUserByID(ctx, u.ID)
			if got.PasswordHash == tt.stored || !strings.HasPrefix(got.PasswordHash, "$argon2id$v=19$m=19456,t=2,p=1$") {
				t.Errorf("PasswordHash = %q, want fresh argon2id hash", got.PasswordHash)
			}

			// The upgraded hash keeps working.
			if _, err := svc.Login(ctx, u.Email, "old-password"); err != nil {
				t.Errorf("Login after upgrade: %v", err)
			}
		})
	}
}

func TestUserService_ListUpdateDelete(t *testing.T) {
	db := testutil.MemoryDB(t)
	svc := NewUserService(db, NewEventService(db), testutil.TestLoggerSilent())
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "a@news.example", model.RoleReader)
	testutil.CreateUser(t, db, "b@news.example", model.RoleReader)
	testutil.CreateUser(t, db, "c@news.example", model.RoleAdmin)

	users, total, err := svc.List(ctx, 1, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(users) != 2 {
		t.Errorf("List = %d of %d, want 2 of 3", len(users), total)
	}

	u, err := svc.UpdateRole(ctx, a.ID, model.RoleEditor)
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if u.Role != model.RoleEditor {
		t.Errorf("Role = %q, want editor", u.Role)
	}
	if _, err := svc.UpdateRole(ctx, a.ID, "owner"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("UpdateRole bad role error = %v", err)
	}
	if _, err := svc.UpdateRole(ctx, 999, model.RoleEditor); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdateRole missing error = %v", err)
	}

	if err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := svc.Get(ctx, a.ID); err != nil || got != nil {
		t.Errorf("Get after delete = %v, %v; want nil, nil", got, err)
	}
	if err := svc.Delete(ctx, a.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second Delete error = %v, want ErrUserNotFound", err)
	}
}

// staleArgonHash encodes password with weaker argon2id parameters than the
// current defaults.
func staleArgonHash(password string) string {
	salt := []byte("saltsaltsaltsalt")
	key := argon2.IDKey([]byte(password), salt, 1, 4096, 1, 32)
	return fmt.Sprintf("$argon2id$v=%d$m=4096,t=1,p=1$%s$%s", argon2.Version,
		base64.RawStdEncoding.EncodeToString(salt), base64.RawStdEncoding.EncodeToString(key))
}
