package excel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/roundrobin/internal/schedule"
)

const (
	// ScheduleSheet is the master sheet the validator reads back.
	ScheduleSheet = "Schedule"
	// DateLayout is how round dates are written to and read from cells.
	DateLayout = "01/02/2006"

	maxSheetName = 31
)

var masterHeaders = []string{"Circle", "Round", "Date", "Home", "Away", "Bye"}

// Row is one line of the master sheet: a match, or a bye when Bye is set.
type Row struct {
	Line   int // 1-based sheet row
	Circle int
	Round  int
	Date   time.Time
	Home   string
	Away   string
	Bye    string

	Problem string // set when circle, round or date could not be read
}

// Generate creates a workbook with the master schedule and per-team sheets.
func Generate(circles []schedule.CircleGroup) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	rows := flatten(circles)
	if err := writeMasterSheet(f, rows); err != nil {
		return nil, fmt.Errorf("writing master sheet: %w", err)
	}

	if err := writeTeamSheets(f, rows); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// UpdateTeamSheets regenerates the per-team sheets of the workbook at path
// from its master sheet, so manual edits to the master propagate.
func UpdateTeamSheets(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, err := ReadSchedule(f)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.Problem != "" {
			return fmt.Errorf("row %d: %s; fix the %s sheet before rebuilding team sheets", r.Line, r.Problem, ScheduleSheet)
		}
	}

	for _, name := range f.GetSheetList() {
		if name != ScheduleSheet {
			if err := f.DeleteSheet(name); err != nil {
				return fmt.Errorf("removing sheet %q: %w", name, err)
			}
		}
	}
	if err := writeTeamSheets(f, rows); err != nil {
		return fmt.Errorf("writing team sheets: %w", err)
	}
	return f.Save()
}

// ReadSchedule parses the master sheet. Blank rows are skipped. A row whose
// circle, round or date cannot be read is returned with Problem set.
func ReadSchedule(f *excelize.File) ([]Row, error) {
	rows, err := f.GetRows(ScheduleSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s sheet: %w", ScheduleSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s sheet is empty", ScheduleSheet)
	}

	var out []Row
	for i, row := range rows {
		if i == 0 || blank(row) {
			continue
		}
		r := Row{
			Line: i + 1,
			Home: cell(row, 3),
			Away: cell(row, 4),
			Bye:  cell(row, 5),
		}
		r.Problem = parseKey(&r, row)
		out = append(out, r)
	}
	return out, nil
}

// parseKey fills the circle, round and date of r and describes the first
// cell that does not parse.
func parseKey(r *Row, row []string) string {
	circle, err := strconv.Atoi(cell(row, 0))
	if err != nil {
		return fmt.Sprintf("circle %q is not a number", cell(row, 0))
	}
	round, err := strconv.Atoi(cell(row, 1))
	if err != nil {
		return fmt.Sprintf("round %q is not a number", cell(row, 1))
	}
	date, err := time.Parse(DateLayout, cell(row, 2))
	if err != nil {
		return fmt.Sprintf("date %q is not in MM/DD/YYYY form", cell(row, 2))
	}
	r.Circle, r.Round, r.Date = circle, round, date
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func flatten(circles []schedule.CircleGroup) []Row {
	var rows []Row
	for _, c := range circles {
		for _, r := range c.Rounds {
			for _, m := range r.Matches {
				rows = append(rows, Row{Circle: c.Circle, Round: r.Number, Date: r.Date, Home: m.Home.Title, Away: m.Away.Title})
			}
			for _, b := range r.Byes {
				rows = append(rows, Row{Circle: c.Circle, Round: r.Number, Date: r.Date, Bye: b.Title})
			}
		}
	}
	return rows
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	style, _ := headerStyle(f)
	if style != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), style)
	}
}

func writeMasterSheet(f *excelize.File, rows []Row) error {
	sheet := ScheduleSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeaders(f, sheet, masterHeaders)

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})

	for i, r := range rows {
		line := i + 2
		f.SetCellValue(sheet, cellRef(1, line), r.Circle)
		f.SetCellValue(sheet, cellRef(2, line), r.Round)
		f.SetCellValue(sheet, cellRef(3, line), r.Date.Format(DateLayout))
		if r.Bye != "" {
			f.SetCellValue(sheet, cellRef(6, line), r.Bye)
		} else {
			f.SetCellValue(sheet, cellRef(4, line), r.Home)
			f.SetCellValue(sheet, cellRef(5, line), r.Away)
		}
		if cellStyle != 0 {
			f.SetCellStyle(sheet, cellRef(1, line), cellRef(len(masterHeaders), line), cellStyle)
		}
	}

	// Set column widths (sized for Arial 16)
	widths := map[string]float64{"A": 10, "B": 10, "C": 18, "D": 30, "E": 30, "F": 30}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

func writeTeamSheets(f *excelize.File, rows []Row) error {
	type teamGame struct {
		date     time.Time
		circle   int
		round    int
		opponent string
		homeAway string
	}
	games := make(map[string][]teamGame)
	for _, r := range rows {
		if r.Bye != "" {
			games[r.Bye] = append(games[r.Bye], teamGame{date: r.Date, circle: r.Circle, round: r.Round, homeAway: "Bye"})
			continue
		}
		if r.Home == "" || r.Away == "" {
			continue
		}
		games[r.Home] = append(games[r.Home], teamGame{date: r.Date, circle: r.Circle, round: r.Round, opponent: r.Away, homeAway: "Home"})
		games[r.Away] = append(games[r.Away], teamGame{date: r.Date, circle: r.Circle, round: r.Round, opponent: r.Home, homeAway: "Away"})
	}

	names := make([]string, 0, len(games))
	for team := range games {
		names = append(names, team)
	}
	sort.Strings(names)

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	headers := []string{"Date", "Circle", "Round", "Opponent", "Home/Away"}

	used := map[string]bool{strings.ToLower(ScheduleSheet): true}
	for _, team := range names {
		sheet := uniqueSheetName(team, used)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet for %s: %w", team, err)
		}
		writeHeaders(f, sheet, headers)

		list := games[team]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].circle != list[j].circle {
				return list[i].circle < list[j].circle
			}
			return list[i].round < list[j].round
		})

		for i, g := range list {
			line := i + 2
			f.SetCellValue(sheet, cellRef(1, line), g.date.Format(DateLayout))
			f.SetCellValue(sheet, cellRef(2, line), g.circle)
			f.SetCellValue(sheet, cellRef(3, line), g.round)
			f.SetCellValue(sheet, cellRef(4, line), g.opponent)
			f.SetCellValue(sheet, cellRef(5, line), g.homeAway)
			if cellStyle != 0 {
				f.SetCellStyle(sheet, cellRef(1, line), cellRef(len(headers), line), cellStyle)
			}
		}

		widths := map[string]float64{"A": 18, "B": 10, "C": 10, "D": 30, "E": 14}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}
	return nil
}

// uniqueSheetName makes a legal sheet name from a team title. Excel
// compares sheet names case-insensitively, so used holds lowercased names.
func uniqueSheetName(title string, used map[string]bool) string {
	base := SheetName(title)
	name := base
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncate(base, maxSheetName-len([]rune(suffix))) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

// SheetName strips characters Excel forbids in sheet names and truncates
// to 31 characters.
func SheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, title)
	name = strings.Trim(name, "' ")
	if name == "" {
		name = "Team"
	}
	return truncate(name, maxSheetName)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
