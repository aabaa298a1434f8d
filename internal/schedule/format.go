package schedule

import (
	"sort"
	"time"

	"github.com/derekprior/roundrobin/internal/strategy"
	"github.com/derekprior/roundrobin/internal/teams"
)

// RoundGroup is one round of a circle with its display date.
type RoundGroup struct {
	Number  int
	Date    time.Time
	Matches []strategy.Fixture
	Byes    []teams.Team
}

// CircleGroup is one leg of the tournament.
type CircleGroup struct {
	Circle int
	Rounds []RoundGroup
}

const week = 7

// Format groups fixtures by circle and round, in ascending order, and
// dates every round.
//
// Round r of the first circle falls r weeks after anchor. Each later
// circle restarts the count one week after the previous circle's last
// round, so round r lands r+1 weeks after that date.
func Format(s *strategy.Schedule, anchor time.Time) []CircleGroup {
	type key struct{ circle, round int }
	rounds := make(map[key]*RoundGroup)
	circleRounds := make(map[int][]int)

	group := func(circle, round int) *RoundGroup {
		k := key{circle, round}
		if g, ok := rounds[k]; ok {
			return g
		}
		g := &RoundGroup{Number: round}
		rounds[k] = g
		circleRounds[circle] = append(circleRounds[circle], round)
		return g
	}

	for _, f := range s.Fixtures {
		g := group(f.Circle, f.Round)
		g.Matches = append(g.Matches, f)
	}
	for _, b := range s.Byes {
		g := group(b.Circle, b.Round)
		g.Byes = append(g.Byes, b.Team)
	}

	circles := make([]int, 0, len(circleRounds))
	for c := range circleRounds {
		circles = append(circles, c)
	}
	sort.Ints(circles)

	out := make([]CircleGroup, 0, len(circles))
	start := anchor
	for i, c := range circles {
		nums := circleRounds[c]
		sort.Ints(nums)

		offset := 0
		if i > 0 {
			offset = week
		}
		cg := CircleGroup{Circle: c, Rounds: make([]RoundGroup, 0, len(nums))}
		for _, r := range nums {
			g := rounds[key{c, r}]
			g.Date = start.AddDate(0, 0, offset+week*r)
			cg.Rounds = append(cg.Rounds, *g)
		}
		if n := len(cg.Rounds); n > 0 {
			start = cg.Rounds[n-1].Date
		}
		out = append(out, cg)
	}
	return out
}
