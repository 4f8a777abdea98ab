package score

import (
	"reflect"
	"testing"

	"github.com/idsports/streamsync/internal/provider/cricket"
)

func TestActiveMatchIDs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "single id", in: "12345", want: []string{"12345"}},
		{name: "multiple with spaces", in: "12345, 67890 ,42", want: []string{"12345", "67890", "42"}},
		{name: "paused sentinel", in: "0", want: nil},
		{name: "empty", in: "", want: nil},
		{name: "sentinel mixed with real ids", in: "0,12345", want: []string{"12345"}},
		{name: "trailing commas", in: "12345,,", want: []string{"12345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActiveMatchIDs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ActiveMatchIDs(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	inngs := func(runs, wickets int) *cricket.Innings {
		return &cricket.Innings{Runs: runs, Wickets: wickets}
	}

	tests := []struct {
		name  string
		match cricket.Match
		want  Summary
	}{
		{
			name: "full payload",
			match: cricket.Match{
				MatchInfo: cricket.MatchInfo{Status: "India opt to bowl", State: "In Progress", MatchType: "T20"},
				MatchScore: cricket.MatchScore{
					Team1Score: cricket.TeamScore{Inngs1: inngs(120, 3)},
					Team2Score: cricket.TeamScore{Inngs1: inngs(87, 5)},
				},
			},
			want: Summary{Status: "India opt to bowl", TeamA: "120/3", TeamB: "87/5", Note: "In Progress", Type: "T20"},
		},
		{
			name:  "empty payload falls back to defaults",
			match: cricket.Match{},
			want:  Summary{Status: "Live", TeamA: "0/0", TeamB: "0/0"},
		},
		{
			name: "one side yet to bat",
			match: cricket.Match{
				MatchInfo: cricket.MatchInfo{Status: "Innings Break"},
				MatchScore: cricket.MatchScore{
					Team1Score: cricket.TeamScore{Inngs1: inngs(201, 7)},
				},
			},
			want: Summary{Status: "Innings Break", TeamA: "201/7", TeamB: "0/0"},
		},
		{
			name: "zero runs renders as 0/0",
			match: cricket.Match{
				MatchScore: cricket.MatchScore{
					Team1Score: cricket.TeamScore{Inngs1: inngs(0, 2)},
				},
			},
			want: Summary{Status: "Live", TeamA: "0/0", TeamB: "0/0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(&tt.match)
			if got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
