// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/geoadmin/internal/model"
)

// testLoginProtection returns a LoginProtection suitable for fast testing.
func testLoginProtection(t *testing.T, maxAttempts int, lockoutDuration, attemptWindow time.Duration) *LoginProtection {
	t.Helper()
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       10,  // High rate for testing
		IPBurst:           100, // High burst for testing
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockoutDuration,
		AttemptWindow:     attemptWindow,
	})
	t.Cleanup(lp.Close)
	return lp
}

func TestDefaultLoginProtectionConfig(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()

	if cfg.IPRateLimit != 0.5 {
		t.Errorf("IPRateLimit = %v, want 0.5", cfg.IPRateLimit)
	}
	if cfg.IPBurst != 5 {
		t.Errorf("IPBurst = %d, want 5", cfg.IPBurst)
	}
	if cfg.MaxFailedAttempts != 5 {
		t.Errorf("MaxFailedAttempts = %d, want 5", cfg.MaxFailedAttempts)
	}
	if cfg.LockoutDuration != 15*time.Minute {
		t.Errorf("LockoutDuration = %v, want 15m", cfg.LockoutDuration)
	}
}

func TestNewLoginProtectionDefaultValues(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{})
	defer lp.Close()

	if lp.maxFailedAttempts != 5 {
		t.Errorf("maxFailedAttempts = %d, want 5 (default)", lp.maxFailedAttempts)
	}
	if lp.lockoutDuration != 15*time.Minute {
		t.Errorf("lockoutDuration = %v, want 15m (default)", lp.lockoutDuration)
	}
}

func TestLockoutKey(t *testing.T) {
	if got := LockoutKey(model.KindAdmin, "  Root "); got != "admin:root" {
		t.Errorf("LockoutKey() = %q, want %q", got, "admin:root")
	}
	if LockoutKey(model.KindAdmin, "root") == LockoutKey(model.KindAccount, "root") {
		t.Error("account and admin keys must differ")
	}
}

func TestLoginProtectionLockout(t *testing.T) {
	lp := testLoginProtection(t, 3, 1*time.Second, 1*time.Minute)
	key := LockoutKey(model.KindAdmin, "root")

	if locked, _ := lp.IsLocked(key); locked {
		t.Error("should not be locked initially")
	}

	if locked, _ := lp.RecordFailedAttempt(key); locked {
		t.Error("first attempt should not lock")
	}
	if locked, _ := lp.RecordFailedAttempt(key); locked {
		t.Error("second attempt should not lock")
	}
	locked, duration := lp.RecordFailedAttempt(key)
	if !locked {
		t.Error("third attempt should lock")
	}
	if duration <= 0 {
		t.Error("lock duration should be positive")
	}

	locked, remaining := lp.IsLocked(key)
	if !locked || remaining <= 0 {
		t.Errorf("IsLocked() = (%v, %v), want locked with time remaining", locked, remaining)
	}

	if locked, _ := lp.IsLocked(LockoutKey(model.KindAccount, "root")); locked {
		t.Error("account with the same username must not be locked")
	}

	time.Sleep(duration + 100*time.Millisecond)

	if locked, _ := lp.IsLocked(key); locked {
		t.Error("should be unlocked after lockout expires")
	}
}

func TestLoginProtectionRecordSuccessfulLogin(t *testing.T) {
	lp := testLoginProtection(t, 3, 1*time.Minute, 1*time.Minute)
	key := "account:ahmad"

	lp.RecordFailedAttempt(key)
	lp.RecordFailedAttempt(key)
	if got := lp.RemainingAttempts(key); got != 1 {
		t.Errorf("RemainingAttempts() = %d, want 1", got)
	}

	lp.RecordSuccessfulLogin(key)

	if got := lp.RemainingAttempts(key); got != 3 {
		t.Errorf("RemainingAttempts() = %d, want 3", got)
	}
}

func TestLoginProtectionExponentialBackoff(t *testing.T) {
	lp := testLoginProtection(t, 2, 100*time.Millisecond, 1*time.Minute)
	key := "admin:root"

	lp.RecordFailedAttempt(key)
	_, duration1 := lp.RecordFailedAttempt(key)

	time.Sleep(duration1 + 10*time.Millisecond)

	lp.RecordFailedAttempt(key)
	_, duration2 := lp.RecordFailedAttempt(key)

	if duration2 <= duration1 {
		t.Errorf("second lockout (%v) should be longer than first (%v)", duration2, duration1)
	}
}

func TestLoginProtectionAttemptWindowReset(t *testing.T) {
	lp := testLoginProtection(t, 5, 1*time.Minute, 100*time.Millisecond)
	key := "account:ahmad"

	lp.RecordFailedAttempt(key)
	if got := lp.RemainingAttempts(key); got != 4 {
		t.Errorf("RemainingAttempts() = %d, want 4", got)
	}

	time.Sleep(150 * time.Millisecond)

	if got := lp.RemainingAttempts(key); got != 5 {
		t.Errorf("RemainingAttempts() after window = %d, want 5", got)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	if got := GetClientIP(req); got != "192.168.1.1" {
		t.Errorf("GetClientIP() = %q, want %q", got, "192.168.1.1")
	}

	req.RemoteAddr = "10.0.0.9"
	if got := GetClientIP(req); got != "10.0.0.9" {
		t.Errorf("GetClientIP() = %q, want %q", got, "10.0.0.9")
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 0.001, IPBurst: 2})
	defer lp.Close()

	wrapped := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/login", nil))
		if rr.Code != http.StatusOK {
			t.Errorf("POST %d status = %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("POST over burst status = %d, want %d", rr.Code, http.StatusTooManyRequests)
	}

	// GET requests are never limited.
	rr = httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("GET status = %d, want %d", rr.Code, http.StatusOK)
	}
}
