package cricket

import "encoding/json"

// Match is the match-center payload for one match. Only the fields the
// summary mapping needs are parsed; Raw keeps the full upstream payload for
// the opaque details blob.
//
// Upstream omits score blocks before the innings starts, so everything below
// matchInfo is optional and decodes to zero values when absent.
type Match struct {
	MatchInfo  MatchInfo       `json:"matchInfo"`
	MatchScore MatchScore      `json:"matchScore"`
	Raw        json.RawMessage `json:"-"`
}

// MatchInfo carries the textual match state.
type MatchInfo struct {
	Status    string `json:"status"`
	State     string `json:"state"`
	MatchType string `json:"matchType"`
}

// MatchScore holds both sides' innings scores.
type MatchScore struct {
	Team1Score TeamScore `json:"team1Score"`
	Team2Score TeamScore `json:"team2Score"`
}

// TeamScore wraps the first-innings score. Nil until the innings has begun.
type TeamScore struct {
	Inngs1 *Innings `json:"inngs1"`
}

// Innings is one innings line.
type Innings struct {
	Runs    int     `json:"runs"`
	Wickets int     `json:"wickets"`
	Overs   float64 `json:"overs"`
}
