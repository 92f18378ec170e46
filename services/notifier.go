package services

import (
	"sync"
	"time"

	"referral-points-system/utils"
)

// EventType classifies fire-and-forget notification events.
type EventType string

const (
	EventNewUser         EventType = "new_user"
	EventReferralSuccess EventType = "referral_success"
	EventLevelUp         EventType = "level_up"
	EventRewardClaimed   EventType = "reward_claimed"
	EventTaskCompleted   EventType = "task_completed"
	EventAdminAlert      EventType = "admin_alert"
)

// Event is an out-of-band notification. The core never waits on delivery;
// a sink that fails simply drops the event.
type Event struct {
	Type      EventType      `json:"type"`
	UserID    int64          `json:"user_id,omitempty"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Notifier is the outbound sink contract. Implementations must be
// non-blocking from the caller's perspective and must never return
// delivery state into the core's critical path.
type Notifier interface {
	Notify(event Event)
}

// AdminNotifier fans events out to configured admins, honoring per-admin
// event-type preferences, and logs every event as a delivery record.
// Preferences are process-lifetime state, not ledger state.
type AdminNotifier struct {
	mu       sync.RWMutex
	adminIDs []int64
	prefs    map[int64]map[EventType]bool // nil entry = all types
}

func NewAdminNotifier(adminIDs []int64) *AdminNotifier {
	return &AdminNotifier{
		adminIDs: adminIDs,
		prefs:    make(map[int64]map[EventType]bool),
	}
}

// SetPreferences restricts which event types one admin receives.
// An empty list restores the default of receiving everything.
func (n *AdminNotifier) SetPreferences(adminID int64, types []EventType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(types) == 0 {
		delete(n.prefs, adminID)
		return
	}
	set := make(map[EventType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	n.prefs[adminID] = set
}

// Preferences returns the event types an admin receives, nil meaning all.
func (n *AdminNotifier) Preferences(adminID int64) []EventType {
	n.mu.RLock()
	defer n.mu.RUnlock()
	set, ok := n.prefs[adminID]
	if !ok {
		return nil
	}
	types := make([]EventType, 0, len(set))
	for t := range set {
		types = append(types, t)
	}
	return types
}

// Notify delivers the event to every admin whose preferences admit it.
// Best-effort by contract: failures are logged, never surfaced.
func (n *AdminNotifier) Notify(event Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, adminID := range n.adminIDs {
		if set, ok := n.prefs[adminID]; ok && !set[event.Type] {
			continue
		}
		utils.Sugar.Infow("notification dispatched",
			"admin_id", adminID,
			"event", string(event.Type),
			"user_id", event.UserID,
			"message", event.Message,
		)
	}
}
