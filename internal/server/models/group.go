package models

import "time"

// Group is a chat room. Icon is an object-storage key, empty when unset.
type Group struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Icon      string    `db:"icon"`
	CreatedAt time.Time `db:"created_at"`
}

// Membership links a user to a group.
type Membership struct {
	GroupID  int64     `db:"group_id"`
	UserID   int64     `db:"user_id"`
	JoinedAt time.Time `db:"joined_at"`
}
