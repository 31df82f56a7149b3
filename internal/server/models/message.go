package models

import "time"

// Message is a group chat line. Seq orders messages within the database and
// is the pagination cursor.
type Message struct {
	Seq       int64     `json:"seq"`
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	UserID    string    `json:"userId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
