package strategy

import (
	"github.com/derekprior/roundrobin/internal/teams"
)

type side bool

const (
	home side = true
	away side = false
)

// DoubleRoundRobin pairs teams with the circle method: slot n-1 stays
// fixed while the other n-1 slots rotate one step per round. The second
// circle replays the first with the slots swapped.
//
// An odd team count gets an extra empty slot. Whoever is paired with it
// sits the round out and is recorded as a Bye.
type DoubleRoundRobin struct{}

func (s *DoubleRoundRobin) Generate(list []teams.Team, rnd Rand) (*Schedule, error) {
	if len(list) < 2 {
		return nil, &InvalidInputError{Count: len(list)}
	}
	seen := make(map[string]bool, len(list))
	for _, t := range list {
		if seen[t.ID] {
			return nil, &InvalidInputError{Count: len(list), Reason: "duplicate team id " + t.ID}
		}
		seen[t.ID] = true
	}
	if rnd == nil {
		rnd = NewRand(nil)
	}

	order := shuffle(list, rnd)

	// slots[i] == nil marks the bye slot.
	slots := make([]*teams.Team, len(order), len(order)+1)
	for i := range order {
		slots[i] = &order[i]
	}
	if len(slots)%2 == 1 {
		slots = append(slots, nil)
	}
	n := len(slots)

	// Each slot starts biased towards home or away and flips every time it
	// is paired, so consecutive rounds alternate.
	sides := make([]side, n)
	for i := range sides {
		sides[i] = i%2 == 0
	}

	sched := &Schedule{
		Teams:    order,
		Fixtures: make([]Fixture, 0, Circles*(n-1)*(n/2)),
	}

	for circle := 1; circle <= Circles; circle++ {
		for round := 0; round < n-1; round++ {
			for i := 0; i < n/2; i++ {
				h := (round + i) % (n - 1)
				a := (n - 1 - i + round) % (n - 1)
				if i == 0 {
					a = n - 1
				}
				if circle == 2 {
					h, a = a, h
				}

				homeSlot, awaySlot := slots[h], slots[a]
				if sides[h] != home {
					homeSlot, awaySlot = awaySlot, homeSlot
				}
				sides[h] = !sides[h]
				sides[a] = !sides[a]

				switch {
				case homeSlot == nil:
					sched.Byes = append(sched.Byes, Bye{Team: *awaySlot, Round: round + 1, Circle: circle})
				case awaySlot == nil:
					sched.Byes = append(sched.Byes, Bye{Team: *homeSlot, Round: round + 1, Circle: circle})
				default:
					sched.Fixtures = append(sched.Fixtures, Fixture{
						Home:   *homeSlot,
						Away:   *awaySlot,
						Round:  round + 1,
						Circle: circle,
					})
				}
			}
		}
	}

	return sched, nil
}

// shuffle returns a permuted copy of list (Fisher-Yates).
func shuffle(list []teams.Team, rnd Rand) []teams.Team {
	out := make([]teams.Team, len(list))
	copy(out, list)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
