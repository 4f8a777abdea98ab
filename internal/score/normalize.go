package score

import (
	"fmt"
	"strings"

	"github.com/idsports/streamsync/internal/provider/cricket"
)

// ActiveMatchIDs splits the config's comma-separated match id field, trimming
// whitespace and dropping empty entries and the "0" paused sentinel.
func ActiveMatchIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		id := strings.TrimSpace(part)
		if id == "" || id == PausedSentinel {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Normalize maps an upstream match payload to the summary the viewer widgets
// consume. A side with zero runs renders as "0/0" regardless of wickets;
// that is the upstream widget contract and is kept as-is.
func Normalize(m *cricket.Match) Summary {
	status := m.MatchInfo.Status
	if status == "" {
		status = "Live"
	}
	return Summary{
		Status: status,
		TeamA:  formatSide(m.MatchScore.Team1Score.Inngs1),
		TeamB:  formatSide(m.MatchScore.Team2Score.Inngs1),
		Note:   m.MatchInfo.State,
		Type:   m.MatchInfo.MatchType,
	}
}

func formatSide(inngs *cricket.Innings) string {
	if inngs == nil || inngs.Runs == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", inngs.Runs, inngs.Wickets)
}
