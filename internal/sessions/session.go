package sessions

import "time"

// Session is one live access/refresh token pair for a user. The table keeps
// at most one session per user: issuing a new pair replaces the old entry.
type Session struct {
	RefreshToken string    `bson:"refreshToken" json:"refreshToken"`
	AccessToken  string    `bson:"accessToken" json:"accessToken"`
	UserID       string    `bson:"userId" json:"userId"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
