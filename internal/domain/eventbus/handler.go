package eventbus

import (
	"luaspark-server/internal/domain/user/model"
)

// SetupEventHandlers installs the default subscribers. They observe domain
// events for the audit log; business logic never lives here.
func SetupEventHandlers(logger model.Logger) {
	_ = Subscribe(EventUserRegistered, func(data UserEventData) {
		logger.Info("[EVENT] user registered: %s", data.Email)
	})

	_ = Subscribe(EventUserSignedIn, func(data UserEventData) {
		logger.Debug("[EVENT] user signed in: %s", data.Email)
	})

	_ = SubscribeAsync(EventPaymentCompleted, func(data PaymentEventData) {
		logger.Info("[EVENT] entitlement granted to %s via %s", data.Email, data.Source)
	})

	_ = SubscribeAsync(EventChatCompleted, func(data ChatEventData) {
		logger.Debug("[EVENT] generation %s completed for %s", data.RequestID, data.Email)
	})

	_ = SubscribeAsync(EventChatFailed, func(data ChatEventData) {
		logger.Warn("[EVENT] generation %s failed for %s: %s", data.RequestID, data.Email, data.Error)
	})
}
