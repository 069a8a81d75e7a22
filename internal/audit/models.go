package audit

import "time"

// Event is emitted from domain logic to capture security-relevant actions.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp    time.Time
	EventType    EventType
	UserID       string
	ResourceType string
	ResourceID   string
	Action       string
	Success      bool
	Details      map[string]string
}

type EventType string

const (
	EventUserRegister   EventType = "user.register"
	EventUserLogin      EventType = "user.login"
	EventUserLogout     EventType = "user.logout"
	EventPasswordChange EventType = "user.password_change"
	EventSessionCleanup EventType = "session.cleanup"
	EventBruteForce     EventType = "security.brute_force"
)
