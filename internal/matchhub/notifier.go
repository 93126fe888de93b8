package matchhub

import "linguamatch/backend/internal/models"

// Notifier is the outbound boundary to the bot/chat layer. Delivery
// mechanics (links, message rendering) are the implementation's business;
// the matcher only signals outcomes.
type Notifier interface {
	// NotifyMatch tells both participants their room is ready.
	NotifyMatch(room *models.ChatRoom) error
	// NotifyExpired tells a user their search hit the wait limit.
	NotifyExpired(userID string) error
}
