package eventbus

// Event topics published by the domain layer.
const (
	// User lifecycle
	EventUserRegistered = "user:registered"
	EventUserSignedIn   = "user:signed_in"

	// Payment
	EventPaymentCompleted = "payment:completed"

	// Generation
	EventChatCompleted = "chat:completed"
	EventChatFailed    = "chat:failed"
)

// UserEventData accompanies user lifecycle events.
type UserEventData struct {
	Email string `json:"email"`
}

// PaymentEventData accompanies payment:completed events.
type PaymentEventData struct {
	Email  string `json:"email"`
	Source string `json:"source"` // "manual" or "webhook"
}

// ChatEventData accompanies generation events.
type ChatEventData struct {
	Email     string `json:"email"`
	RequestID string `json:"request_id"`
	Prompt    string `json:"prompt"`
	Error     string `json:"error,omitempty"`
}
