// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/newsroomhq/newsdesk/internal/model"
)

// maxLockout caps the doubling lockout period.
const maxLockout = 24 * time.Hour

// LoginProtection throttles login requests per client IP and locks accounts
// that keep failing to authenticate. Accounts are keyed by normalized email.
type LoginProtection struct {
	ipLimiters *limiterCache[string]

	mu       sync.RWMutex
	accounts map[string]*accountState

	cfg      LoginProtectionConfig
	onLocked func(lockout time.Duration)

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

type accountState struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is login requests per second per IP.
	IPRateLimit float64
	IPBurst     int
	// MaxFailedAttempts within AttemptWindow locks the account.
	MaxFailedAttempts int
	// LockoutDuration doubles with every further lockout, up to a day.
	LockoutDuration time.Duration
	AttemptWindow   time.Duration
	// OnLocked, when set, is called each time an account gets locked.
	OnLocked func(lockout time.Duration)
}

// DefaultLoginProtectionConfig returns the production defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

func (c LoginProtectionConfig) withDefaults() LoginProtectionConfig {
	def := DefaultLoginProtectionConfig()
	if c.IPRateLimit <= 0 {
		c.IPRateLimit = def.IPRateLimit
	}
	if c.IPBurst <= 0 {
		c.IPBurst = def.IPBurst
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = def.LockoutDuration
	}
	if c.AttemptWindow <= 0 {
		c.AttemptWindow = def.AttemptWindow
	}
	return c
}

// NewLoginProtection starts login protection. Zero config values take the
// defaults. Call Stop to end the sweeper goroutine.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	cfg = cfg.withDefaults()
	lp := &LoginProtection{
		ipLimiters: newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		accounts:   make(map[string]*accountState),
		cfg:        cfg,
		onLocked:   cfg.OnLocked,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	go lp.sweepLoop(10 * time.Minute)
	return lp
}

// Stop ends the background sweeper.
func (lp *LoginProtection) Stop() {
	lp.once.Do(func() { close(lp.stop) })
}

// lockoutFor returns the lockout length after n previous lockouts.
func (lp *LoginProtection) lockoutFor(n int) time.Duration {
	d := lp.cfg.LockoutDuration
	for ; n > 0 && d < maxLockout; n-- {
		d *= 2
	}
	return min(d, maxLockout)
}

// IsAccountLocked reports whether email is locked and for how much longer.
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	lp.mu.RLock()
	defer lp.mu.RUnlock()

	st := lp.accounts[model.NormalizeEmail(email)]
	if st == nil {
		return false, 0
	}
	if left := st.lockedUntil.Sub(lp.now()); left > 0 {
		return true, left
	}
	return false, 0
}

// RecordFailedAttempt counts a failed login for email. When the failure
// reaches the limit the account is locked and the lockout length returned.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	key := model.NormalizeEmail(email)
	now := lp.now()

	lp.mu.Lock()
	st := lp.accounts[key]
	if st == nil {
		st = &accountState{windowStart: now}
		lp.accounts[key] = st
	}
	// An expired window restarts the count but keeps the lockout history.
	if now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
		st.failures = 0
		st.windowStart = now
	}
	st.failures++
	if st.failures < lp.cfg.MaxFailedAttempts {
		lp.mu.Unlock()
		return false, 0
	}

	lockout := lp.lockoutFor(st.lockouts)
	st.lockedUntil = now.Add(lockout)
	st.lockouts++
	st.failures = 0
	lockouts := st.lockouts
	lp.mu.Unlock()

	slog.Warn("account locked after failed login attempts",
		"category", "auth",
		"lockouts", lockouts,
		"duration", lockout.String(),
	)
	if lp.onLocked != nil {
		lp.onLocked(lockout)
	}
	return true, lockout
}

// RecordSuccessfulLogin forgets all failures and lockouts for email.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	lp.mu.Lock()
	delete(lp.accounts, model.NormalizeEmail(email))
	lp.mu.Unlock()
}

// GetRemainingAttempts returns how many failures email has left in the
// current window before it is locked.
func (lp *LoginProtection) GetRemainingAttempts(email string) int {
	lp.mu.RLock()
	defer lp.mu.RUnlock()

	st := lp.accounts[model.NormalizeEmail(email)]
	if st == nil || lp.now().Sub(st.windowStart) > lp.cfg.AttemptWindow {
		return lp.cfg.MaxFailedAttempts
	}
	return max(lp.cfg.MaxFailedAttempts-st.failures, 0)
}

func (lp *LoginProtection) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-lp.stop:
			return
		case <-ticker.C:
			lp.sweep()
		}
	}
}

// sweep drops accounts that are neither locked nor inside an attempt window.
func (lp *LoginProtection) sweep() {
	if lp.ipLimiters.clearIfExceeds(maxLimiters) {
		slog.Info("cleared login IP rate limiters due to size")
	}

	now := lp.now()
	lp.mu.Lock()
	defer lp.mu.Unlock()
	for key, st := range lp.accounts {
		if now.After(st.lockedUntil) && now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
			delete(lp.accounts, key)
		}
	}
}

// Middleware limits login POSTs per client IP. Other methods pass through.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				ip := ClientIP(r)
				if !lp.ipLimiters.get(ip).Allow() {
					slog.Warn("login rate limit exceeded", "category", "auth", "ip", ip)
					WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded",
						"Too many login attempts. Please wait and try again.", nil)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteAccountLocked writes the 429 response for a locked account.
func WriteAccountLocked(w http.ResponseWriter, remaining time.Duration) {
	secs := strconv.Itoa(int(remaining.Seconds()) + 1)
	w.Header().Set("Retry-After", secs)
	WriteAPIError(w, http.StatusTooManyRequests, "account_locked",
		"Account temporarily locked after repeated failed logins",
		map[string]string{"retry_after_seconds": secs})
}
