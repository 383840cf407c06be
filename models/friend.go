package models

// PresencePlaceholder is shown for every friend until activity tracking exists.
const PresencePlaceholder = "No recent activity"

// Friend is a directed friend relation from the current user, enriched for display.
// Presence is never persisted; it is filled in when the list is loaded.
type Friend struct {
	ID          string `json:"id"`
	Nickname    string `json:"nickname"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Presence    string `json:"presence"`
}
