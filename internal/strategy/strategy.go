package strategy

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/derekprior/roundrobin/internal/teams"
)

// Circles is the number of legs in a double round robin.
const Circles = 2

// Fixture is a single match between two teams.
type Fixture struct {
	Home   teams.Team
	Away   teams.Team
	Round  int // 1-based, restarts in every circle
	Circle int // 1 or 2
}

// Bye records a team sitting out a round when the team count is odd.
type Bye struct {
	Team   teams.Team
	Round  int
	Circle int
}

// Schedule is the generated fixture list, ordered by circle, round and
// match index within the round.
type Schedule struct {
	Teams    []teams.Team // slot order after the shuffle
	Fixtures []Fixture
	Byes     []Bye
}

// Rounds returns the number of rounds in each circle.
func (s *Schedule) Rounds() int {
	n := len(s.Teams)
	if n%2 == 1 {
		return n
	}
	return n - 1
}

// Rand is the randomness the generator consumes. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// InvalidInputError is returned when a schedule cannot be built from the
// given teams.
type InvalidInputError struct {
	Count  int
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid team list (%d teams): %s", e.Count, e.Reason)
	}
	return fmt.Sprintf("invalid team list: need at least 2 teams, got %d", e.Count)
}

// Strategy generates a full schedule from a team list.
type Strategy interface {
	Generate(list []teams.Team, rnd Rand) (*Schedule, error)
}

// Get returns a Strategy by name.
func Get(name string) (Strategy, error) {
	switch name {
	case "double_round_robin":
		return &DoubleRoundRobin{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
}

// NewRand returns a seeded source. A nil seed picks one from the clock.
func NewRand(seed *int64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(*seed))
}
