package schedule

import (
	"fmt"

	"github.com/derekprior/roundrobin/internal/strategy"
)

// TeamMetrics holds per-team schedule statistics.
type TeamMetrics struct {
	Games         int
	Home          int
	Away          int
	Byes          int
	LongestStreak int // longest run of consecutive home or away games
}

// Metrics computes per-team statistics keyed by team ID. Byes do not
// interrupt a streak.
func Metrics(s *strategy.Schedule) map[string]*TeamMetrics {
	metrics := make(map[string]*TeamMetrics, len(s.Teams))
	for _, t := range s.Teams {
		metrics[t.ID] = &TeamMetrics{}
	}

	type run struct {
		home   bool
		length int
	}
	runs := make(map[string]*run, len(s.Teams))

	track := func(id string, home bool) {
		m, ok := metrics[id]
		if !ok {
			m = &TeamMetrics{}
			metrics[id] = m
		}
		m.Games++
		if home {
			m.Home++
		} else {
			m.Away++
		}

		r, ok := runs[id]
		if !ok || r.home != home {
			r = &run{home: home}
			runs[id] = r
		}
		r.length++
		if r.length > m.LongestStreak {
			m.LongestStreak = r.length
		}
	}

	for _, f := range s.Fixtures {
		track(f.Home.ID, true)
		track(f.Away.ID, false)
	}
	for _, b := range s.Byes {
		if m, ok := metrics[b.Team.ID]; ok {
			m.Byes++
		}
	}
	return metrics
}

// Warnings lists teams whose home or away streak exceeds maxStreak, or
// whose home and away totals differ by more than one, in slot order.
func Warnings(s *strategy.Schedule, maxStreak int) []string {
	metrics := Metrics(s)
	var warnings []string
	for _, t := range s.Teams {
		m := metrics[t.ID]
		if m.LongestStreak > maxStreak {
			warnings = append(warnings, fmt.Sprintf("%s has a run of %d consecutive home or away games (max %d)",
				t.Title, m.LongestStreak, maxStreak))
		}
		if diff := m.Home - m.Away; diff > 1 || diff < -1 {
			warnings = append(warnings, fmt.Sprintf("%s home/away imbalance: %d home, %d away", t.Title, m.Home, m.Away))
		}
	}
	return warnings
}
