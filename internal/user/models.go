package user

import "github.com/google/uuid"

// DisplayInfo is the presentation view of a user. Unknown users resolve to
// null display fields rather than an error, so a missing directory row can
// never fail a composed chat response.
type DisplayInfo struct {
	ID        uuid.UUID `json:"id"`
	Username  *string   `json:"username"`
	AvatarURL *string   `json:"avatar_url"`
}
