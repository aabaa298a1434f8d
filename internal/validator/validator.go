package validator

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/roundrobin/internal/excel"
	"github.com/derekprior/roundrobin/internal/strategy"
)

// Violation represents a problem found in a schedule workbook.
type Violation struct {
	Row     int    // sheet row, 0 when the problem spans rows
	Type    string // "error" or "warning"
	Message string
}

// Validate reads a schedule workbook and checks it is a sound double round
// robin. Broken pairings, rounds and dates are errors; home/away streaks
// longer than maxStreak and home/away imbalance are warnings.
func Validate(path string, maxStreak int) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, err := excel.ReadSchedule(f)
	if err != nil {
		return nil, fmt.Errorf("reading schedule: %w", err)
	}
	return Check(rows, maxStreak), nil
}

// Check runs every rule over already-parsed schedule rows. Rows that could
// not be parsed are errors and are left out of the other checks.
func Check(rows []excel.Row, maxStreak int) []Violation {
	var violations []Violation

	parsed := make([]excel.Row, 0, len(rows))
	for _, r := range rows {
		if r.Problem != "" {
			violations = append(violations, Violation{Row: r.Line, Type: "error",
				Message: fmt.Sprintf("row %d: %s", r.Line, r.Problem)})
			continue
		}
		parsed = append(parsed, r)
	}
	rows = parsed

	// Hard constraints
	violations = append(violations, checkRows(rows)...)
	violations = append(violations, checkOncePerRound(rows)...)
	violations = append(violations, checkRoundCoverage(rows)...)
	violations = append(violations, checkPairsPerCircle(rows)...)
	violations = append(violations, checkNumbering(rows)...)
	violations = append(violations, checkDates(rows)...)

	// Guidelines
	violations = append(violations, checkStreaks(rows, maxStreak)...)
	violations = append(violations, checkHomeAwayBalance(rows)...)

	return violations
}

type roundKey struct {
	circle, round int
}

type matchupKey struct {
	a, b string
}

func normalizeMatchup(a, b string) matchupKey {
	if a > b {
		a, b = b, a
	}
	return matchupKey{a, b}
}

func isMatch(r excel.Row) bool { return r.Bye == "" && r.Home != "" && r.Away != "" }

// teamsOf lists every team named anywhere in the sheet, sorted.
func teamsOf(rows []excel.Row) []string {
	seen := make(map[string]bool)
	for _, r := range rows {
		for _, t := range []string{r.Home, r.Away, r.Bye} {
			if t != "" {
				seen[t] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func sortedRounds(m map[roundKey]bool) []roundKey {
	keys := make([]roundKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].circle != keys[j].circle {
			return keys[i].circle < keys[j].circle
		}
		return keys[i].round < keys[j].round
	})
	return keys
}

func checkRows(rows []excel.Row) []Violation {
	var violations []Violation
	for _, r := range rows {
		switch {
		case r.Bye != "" && (r.Home != "" || r.Away != ""):
			violations = append(violations, Violation{Row: r.Line, Type: "error",
				Message: fmt.Sprintf("row %d mixes a match with a bye for %s", r.Line, r.Bye)})
		case r.Bye == "" && (r.Home == "" || r.Away == ""):
			violations = append(violations, Violation{Row: r.Line, Type: "error",
				Message: fmt.Sprintf("row %d needs both a home and an away team", r.Line)})
		case r.Home != "" && r.Home == r.Away:
			violations = append(violations, Violation{Row: r.Line, Type: "error",
				Message: fmt.Sprintf("%s plays itself in circle %d round %d", r.Home, r.Circle, r.Round)})
		}
	}
	return violations
}

func checkOncePerRound(rows []excel.Row) []Violation {
	type teamRound struct {
		team string
		key  roundKey
	}
	lines := make(map[teamRound][]int)
	var order []teamRound
	for _, r := range rows {
		for _, t := range []string{r.Home, r.Away, r.Bye} {
			if t == "" {
				continue
			}
			k := teamRound{t, roundKey{r.Circle, r.Round}}
			if _, ok := lines[k]; !ok {
				order = append(order, k)
			}
			lines[k] = append(lines[k], r.Line)
		}
	}

	var violations []Violation
	for _, k := range order {
		if rs := lines[k]; len(rs) > 1 {
			violations = append(violations, Violation{
				Row:  rs[1],
				Type: "error",
				Message: fmt.Sprintf("%s appears %d times in circle %d round %d",
					k.team, len(rs), k.key.circle, k.key.round),
			})
		}
	}
	return violations
}

func checkRoundCoverage(rows []excel.Row) []Violation {
	all := teamsOf(rows)
	present := make(map[roundKey]map[string]bool)
	rounds := make(map[roundKey]bool)
	for _, r := range rows {
		k := roundKey{r.Circle, r.Round}
		rounds[k] = true
		if present[k] == nil {
			present[k] = make(map[string]bool)
		}
		for _, t := range []string{r.Home, r.Away, r.Bye} {
			if t != "" {
				present[k][t] = true
			}
		}
	}

	var violations []Violation
	for _, k := range sortedRounds(rounds) {
		for _, t := range all {
			if !present[k][t] {
				violations = append(violations, Violation{
					Type:    "error",
					Message: fmt.Sprintf("%s has no match or bye in circle %d round %d", t, k.circle, k.round),
				})
			}
		}
	}
	return violations
}

func checkPairsPerCircle(rows []excel.Row) []Violation {
	all := teamsOf(rows)
	counts := make(map[int]map[matchupKey]int)
	for _, r := range rows {
		if !isMatch(r) || r.Home == r.Away {
			continue
		}
		if counts[r.Circle] == nil {
			counts[r.Circle] = make(map[matchupKey]int)
		}
		counts[r.Circle][normalizeMatchup(r.Home, r.Away)]++
	}

	circles := make([]int, 0, len(counts))
	for c := range counts {
		circles = append(circles, c)
	}
	sort.Ints(circles)

	var violations []Violation
	for _, c := range circles {
		for i := 0; i < len(all); i++ {
			for j := i + 1; j < len(all); j++ {
				n := counts[c][matchupKey{all[i], all[j]}]
				if n == 1 {
					continue
				}
				violations = append(violations, Violation{
					Type:    "error",
					Message: fmt.Sprintf("%s vs %s meet %d times in circle %d (want 1)", all[i], all[j], n, c),
				})
			}
		}
	}
	return violations
}

func checkNumbering(rows []excel.Row) []Violation {
	rounds := make(map[int]map[int]bool)
	for _, r := range rows {
		if rounds[r.Circle] == nil {
			rounds[r.Circle] = make(map[int]bool)
		}
		rounds[r.Circle][r.Round] = true
	}

	var violations []Violation
	if len(rounds) != strategy.Circles {
		violations = append(violations, Violation{Type: "error",
			Message: fmt.Sprintf("schedule has %d circles, want %d", len(rounds), strategy.Circles)})
	}
	for c := 1; c <= len(rounds); c++ {
		if rounds[c] == nil {
			violations = append(violations, Violation{Type: "error",
				Message: fmt.Sprintf("circle numbers must run from 1 without gaps; circle %d is missing", c)})
			continue
		}
		for r := 1; r <= len(rounds[c]); r++ {
			if !rounds[c][r] {
				violations = append(violations, Violation{Type: "error",
					Message: fmt.Sprintf("circle %d: round numbers must run from 1 without gaps; round %d is missing", c, r)})
			}
		}
	}
	return violations
}

func checkDates(rows []excel.Row) []Violation {
	rounds := make(map[roundKey]bool)
	first := make(map[roundKey]excel.Row)

	var violations []Violation
	for _, r := range rows {
		k := roundKey{r.Circle, r.Round}
		rounds[k] = true
		fr, ok := first[k]
		if !ok {
			first[k] = r
			continue
		}
		if !r.Date.Equal(fr.Date) {
			violations = append(violations, Violation{
				Row:  r.Line,
				Type: "error",
				Message: fmt.Sprintf("circle %d round %d has two dates: %s (row %d) and %s (row %d)",
					r.Circle, r.Round, fr.Date.Format("01/02"), fr.Line, r.Date.Format("01/02"), r.Line),
			})
		}
	}

	keys := sortedRounds(rounds)
	for i := 1; i < len(keys); i++ {
		prev, cur := first[keys[i-1]], first[keys[i]]
		if !cur.Date.After(prev.Date) {
			violations = append(violations, Violation{
				Row:  cur.Line,
				Type: "error",
				Message: fmt.Sprintf("circle %d round %d on %s is not after circle %d round %d on %s",
					cur.Circle, cur.Round, cur.Date.Format("01/02/2006"),
					prev.Circle, prev.Round, prev.Date.Format("01/02/2006")),
			})
		}
	}
	return violations
}

// teamSides returns each team's home (true) / away (false) sequence in
// circle and round order.
func teamSides(rows []excel.Row) map[string][]bool {
	ordered := make([]excel.Row, 0, len(rows))
	for _, r := range rows {
		if isMatch(r) {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Circle != ordered[j].Circle {
			return ordered[i].Circle < ordered[j].Circle
		}
		return ordered[i].Round < ordered[j].Round
	})

	sides := make(map[string][]bool)
	for _, r := range ordered {
		sides[r.Home] = append(sides[r.Home], true)
		sides[r.Away] = append(sides[r.Away], false)
	}
	return sides
}

func checkStreaks(rows []excel.Row, maxStreak int) []Violation {
	sides := teamSides(rows)
	var violations []Violation
	for _, team := range teamsOf(rows) {
		seq := sides[team]
		longest, run := 0, 0
		for i, home := range seq {
			if i > 0 && home == seq[i-1] {
				run++
			} else {
				run = 1
			}
			if run > longest {
				longest = run
			}
		}
		if longest > maxStreak {
			violations = append(violations, Violation{
				Type:    "warning",
				Message: fmt.Sprintf("%s has a run of %d consecutive home or away games (max %d)", team, longest, maxStreak),
			})
		}
	}
	return violations
}

func checkHomeAwayBalance(rows []excel.Row) []Violation {
	sides := teamSides(rows)
	var violations []Violation
	for _, team := range teamsOf(rows) {
		home, away := 0, 0
		for _, h := range sides[team] {
			if h {
				home++
			} else {
				away++
			}
		}
		if diff := home - away; diff > 1 || diff < -1 {
			violations = append(violations, Violation{
				Type:    "warning",
				Message: fmt.Sprintf("%s home/away imbalance: %d home, %d away", team, home, away),
			})
		}
	}
	return violations
}
