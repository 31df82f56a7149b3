// Package common contains shared constants and sentinel errors used across
// clubhouse components.
package common

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

// InviteCodeLength is the length of a group invitation code.
const InviteCodeLength = 8

// GroupKeyPrefix marks object keys that belong to a group.
const GroupKeyPrefix = "groupId="
