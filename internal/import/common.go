package import_pkg

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	wardNumberRe  = regexp.MustCompile(`^\d+$`)
	mohallaLineRe = regexp.MustCompile(`^\d+\s+(.*)$`)
)

// WardRow is one ward of a ward table together with its mohallas
type WardRow struct {
	Number   int
	Name     string
	Mohallas []string
}

// ParseStats reports what the table parser kept and dropped
type ParseStats struct {
	Rows            int
	Wards           int
	Mohallas        int
	OrphanMohallas  int // mohalla lines seen before the first ward row
	IgnoredLines    int // mohalla cell lines without a leading serial number
	RepeatedWardRow int // ward rows whose number was already seen
}

// ParseTable groups ward table rows into wards. Each row is
// (ward number, ward name, mohalla cell). A row whose ward cell is purely
// numeric starts a new ward; rows with an empty ward cell continue the
// current one. Every mohalla cell line of the form "<serial> <name>" adds a
// mohalla. A repeated ward number merges into the earlier ward and its last
// name wins. Header rows must be removed by the caller.
func ParseTable(rows [][]string) ([]WardRow, ParseStats) {
	var (
		stats   ParseStats
		wards   []WardRow
		current = -1
		index   = make(map[int]int)
	)

	for _, row := range rows {
		stats.Rows++
		wardCell, nameCell, mohallaCell := cell(row, 0), cell(row, 1), cell(row, 2)

		if wardNumberRe.MatchString(wardCell) {
			number, err := strconv.Atoi(wardCell)
			if err == nil {
				name := strings.TrimSpace(nameCell)
				if i, seen := index[number]; seen {
					stats.RepeatedWardRow++
					if name != "" {
						wards[i].Name = name
					}
					current = i
				} else {
					wards = append(wards, WardRow{Number: number, Name: name})
					current = len(wards) - 1
					index[number] = current
				}
			}
		}

		if mohallaCell == "" {
			continue
		}
		for _, line := range strings.Split(mohallaCell, "\n") {
			m := mohallaLineRe.FindStringSubmatch(strings.TrimSpace(line))
			if m == nil {
				if strings.TrimSpace(line) != "" {
					stats.IgnoredLines++
				}
				continue
			}
			name := strings.TrimSpace(m[1])
			if name == "" {
				stats.IgnoredLines++
				continue
			}
			if current < 0 {
				stats.OrphanMohallas++
				continue
			}
			wards[current].Mohallas = append(wards[current].Mohallas, name)
			stats.Mohallas++
		}
	}

	stats.Wards = len(wards)
	return wards, stats
}

// cell returns the trimmed i-th column, or "" when the row is short
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(row[i], "\r\n", "\n"))
}
