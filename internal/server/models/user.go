// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a club member account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Nickname     string    `json:"nickname,omitempty"`
	Profile      *Profile  `json:"profile,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Onboarded reports whether the user completed the onboarding form.
func (u *User) Onboarded() bool {
	return u.Profile != nil && !u.Profile.CompletedAt.IsZero()
}

// Profile is filled in once, during onboarding, and edited afterwards.
type Profile struct {
	Academy          string    `json:"academy"`
	BirthYear        int       `json:"birthYear"`
	StartedPlayingOn time.Time `json:"startedPlayingOn"`
	TrainingGroup    string    `json:"trainingGroup,omitempty"`
	IsReferee        bool      `json:"isReferee"`
	// External platform handles.
	BBOUsername  string    `json:"bboUsername,omitempty"`
	FederationID string    `json:"federationId,omitempty"`
	CompletedAt  time.Time `json:"completedAt"`
}
