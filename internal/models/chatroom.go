package models

import "time"

// ChatRoom represents a 1-on-1 practice session created for a matched pair.
// The matcher only creates the record; the chat-session service owns its
// further lifecycle.
type ChatRoom struct {
	// RoomID is the unique identifier for the chat room (UUID).
	RoomID string `gorm:"primaryKey"`
	// User1ID is the anonymous ID of the first matched user.
	User1ID string
	// User2ID is the anonymous ID of the second matched user.
	User2ID string
	// IsActive indicates whether the room is currently open.
	IsActive bool
	// StartedAt is the timestamp when the room was created.
	StartedAt time.Time
	// ExpiresAt is when the room is automatically retired.
	ExpiresAt time.Time
}
