package services

import "testing"

func TestAdminNotifierDefaultsToAllEvents(t *testing.T) {
	if err := initTestLogger(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	n := NewAdminNotifier([]int64{100})

	// No preferences set: every event type is wanted.
	for _, et := range []EventType{EventNewUser, EventLevelUp, EventAdminAlert} {
		n.Notify(Event{Type: et, Message: "x"})
	}

	prefs := n.Preferences(100)
	if prefs != nil {
		t.Errorf("expected nil preferences (all events), got %v", prefs)
	}
}

func TestAdminNotifierPreferences(t *testing.T) {
	if err := initTestLogger(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	n := NewAdminNotifier([]int64{100})

	n.SetPreferences(100, []EventType{EventAdminAlert, EventLevelUp})

	prefs := n.Preferences(100)
	if len(prefs) != 2 {
		t.Fatalf("got %d preferred types, want 2", len(prefs))
	}
	want := map[EventType]bool{EventAdminAlert: true, EventLevelUp: true}
	for _, et := range prefs {
		if !want[et] {
			t.Errorf("unexpected preferred type %q", et)
		}
	}

	// Clearing with an empty list restores the default.
	n.SetPreferences(100, nil)
	if n.Preferences(100) != nil {
		t.Error("expected preferences cleared back to all events")
	}
}

func TestStatsNoRedisIsSilent(t *testing.T) {
	if err := initTestLogger(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	s := NewStatsService(nil)

	// All recorders must be safe no-ops without a backing client.
	s.RecordCommand("profile")
	s.RecordError("register")
	s.RecordNewUser()
	s.RecordReferral()
	s.RecordReferralClick()
	s.RecordTaskCompleted()
	s.RecordLevelUp()
	s.RecordRewardClaimed(30)

	daily, err := s.DailySummary()
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if daily.Window != "daily" || len(daily.Counters) != 0 {
		t.Errorf("unexpected summary: %+v", daily)
	}

	weekly, err := s.WeeklySummary()
	if err != nil {
		t.Fatalf("WeeklySummary: %v", err)
	}
	if weekly.From == "" || weekly.To == "" {
		t.Error("weekly summary missing date range")
	}
}
