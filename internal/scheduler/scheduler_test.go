// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeWarmer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeWarmer) Warm(context.Context) (int, error) {
	f.calls.Add(1)
	return 3, f.err
}

type fakePruner struct {
	olderThan time.Duration
	err       error
}

func (f *fakePruner) DeleteOldEvents(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return 2, f.err
}

func TestNew(t *testing.T) {
	s := New(testLogger())
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.timeout != DefaultJobTimeout {
		t.Errorf("timeout = %v, want %v", s.timeout, DefaultJobTimeout)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(testLogger())
	if err := s.Register("noop", "does nothing", "@hourly", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	s.Start()
	s.Stop()
}

func TestRegister_InvalidSchedule(t *testing.T) {
	s := New(testLogger())
	err := s.Register("bad", "", "not a schedule", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if len(s.List()) != 0 {
		t.Error("invalid job should not be registered")
	}
}

func TestRegister_ReplacesExisting(t *testing.T) {
	s := New(testLogger())
	job := func(context.Context) error { return nil }

	if err := s.Register("job", "first", "@hourly", job); err != nil {
		t.Fatal(err)
	}
	if err := s.Register("job", "second", "@daily", job); err != nil {
		t.Fatal(err)
	}

	jobs := s.List()
	if len(jobs) != 1 {
		t.Fatalf("List() len = %d, want 1", len(jobs))
	}
	if jobs[0].Description != "second" || jobs[0].Schedule != "@daily" {
		t.Errorf("List()[0] = %+v", jobs[0])
	}
	if len(s.cron.Entries()) != 1 {
		t.Errorf("cron entries = %d, want 1", len(s.cron.Entries()))
	}
}

func TestList_Sorted(t *testing.T) {
	s := New(testLogger())
	job := func(context.Context) error { return nil }
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.Register(name, "", "@hourly", job); err != nil {
			t.Fatal(err)
		}
	}

	jobs := s.List()
	want := []string{"alpha", "mid", "zeta"}
	for i, j := range jobs {
		if j.Name != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, j.Name, want[i])
		}
	}
}

func TestUnregister(t *testing.T) {
	s := New(testLogger())
	if err := s.Register("job", "", "@hourly", func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	s.Unregister("job")
	s.Unregister("missing")

	if len(s.List()) != 0 || len(s.cron.Entries()) != 0 {
		t.Error("job still registered after Unregister")
	}
}

func TestTriggerNow(t *testing.T) {
	s := New(testLogger())
	boom := errors.New("boom")
	var ran atomic.Int32

	_ = s.Register("ok", "", "@hourly", func(context.Context) error {
		ran.Add(1)
		return nil
	})
	_ = s.Register("fail", "", "@hourly", func(context.Context) error { return boom })

	if err := s.TriggerNow(context.Background(), "ok"); err != nil {
		t.Errorf("TriggerNow(ok) error = %v", err)
	}
	if ran.Load() != 1 {
		t.Errorf("job ran %d times, want 1", ran.Load())
	}
	if err := s.TriggerNow(context.Background(), "fail"); !errors.Is(err, boom) {
		t.Errorf("TriggerNow(fail) error = %v, want boom", err)
	}
	if err := s.TriggerNow(context.Background(), "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("TriggerNow(missing) error = %v, want ErrJobNotFound", err)
	}
}

func TestRun_AppliesTimeout(t *testing.T) {
	s := New(testLogger())
	s.timeout = 10 * time.Millisecond

	err := s.run(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("run() error = %v, want deadline exceeded", err)
	}
}

func TestScheduledJobRuns(t *testing.T) {
	s := New(testLogger())
	done := make(chan struct{}, 1)
	err := s.Register("tick", "", "@every 1s", func(context.Context) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	s.Start()
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled job did not run")
	}
}

func TestRegisterDefaults(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"both", Config{WarmSchedule: "@every 5m", EventRetention: 24 * time.Hour}, []string{JobPruneEvents, JobWarmGeoCache}},
		{"warm only", Config{WarmSchedule: "@every 5m"}, []string{JobWarmGeoCache}},
		{"prune only", Config{EventRetention: time.Hour}, []string{JobPruneEvents}},
		{"none", Config{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(testLogger())
			if err := s.RegisterDefaults(tt.cfg, &fakeWarmer{}, &fakePruner{}); err != nil {
				t.Fatalf("RegisterDefaults() error = %v", err)
			}
			jobs := s.List()
			if len(jobs) != len(tt.want) {
				t.Fatalf("jobs = %+v, want %v", jobs, tt.want)
			}
			for i, j := range jobs {
				if j.Name != tt.want[i] {
					t.Errorf("jobs[%d] = %s, want %s", i, j.Name, tt.want[i])
				}
			}
		})
	}
}

func TestRegisterDefaults_InvalidWarmSchedule(t *testing.T) {
	s := New(testLogger())
	if err := s.RegisterDefaults(Config{WarmSchedule: "every five"}, &fakeWarmer{}, nil); err == nil {
		t.Error("expected error for invalid warm schedule")
	}
}

func TestWarmGeoCache(t *testing.T) {
	w := &fakeWarmer{}
	if err := WarmGeoCache(w, testLogger())(context.Background()); err != nil {
		t.Fatalf("job error = %v", err)
	}
	if w.calls.Load() != 1 {
		t.Errorf("Warm called %d times, want 1", w.calls.Load())
	}

	w.err = errors.New("db down")
	if err := WarmGeoCache(w, testLogger())(context.Background()); !errors.Is(err, w.err) {
		t.Errorf("job error = %v, want wrapped db down", err)
	}
}

func TestPruneEvents(t *testing.T) {
	p := &fakePruner{}
	if err := PruneEvents(p, 48*time.Hour, testLogger())(context.Background()); err != nil {
		t.Fatalf("job error = %v", err)
	}
	if p.olderThan != 48*time.Hour {
		t.Errorf("olderThan = %v, want 48h", p.olderThan)
	}

	p.err = errors.New("locked")
	if err := PruneEvents(p, time.Hour, testLogger())(context.Background()); !errors.Is(err, p.err) {
		t.Errorf("job error = %v, want wrapped locked", err)
	}
}
