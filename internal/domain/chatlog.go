package domain

import "time"

// ChatLog is one exchange with the recommendation chatbot: the user's
// message, the assistant reply, and the mood the model read from it.
type ChatLog struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
	Reply   string `json:"reply"`
	Mood    string `json:"mood,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// RecommendedTrack is a track proposed by the language model, before
// and after catalog validation.
type RecommendedTrack struct {
	Title      string   `json:"title"`
	Artist     string   `json:"artist"`
	Reason     string   `json:"reason,omitempty"`
	MoodTags   []string `json:"mood_tags,omitempty"`
	MatchScore float64  `json:"match_score,omitempty"`

	// Filled in during catalog validation.
	TrackID    string `json:"trackId,omitempty"`
	AlbumArt   string `json:"albumArt,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
}
