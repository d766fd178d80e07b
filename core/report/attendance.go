package report

import (
	"sort"
	"strings"

	"github.com/pathwayhq/pathway/core/attendance"
	"github.com/pathwayhq/pathway/core/user"
)

type AttendanceRow struct {
	UserID         string  `json:"user_id" csv:"-"`
	FullName       string  `json:"full_name"`
	UniqueID       string  `json:"unique_id"`
	Batch          string  `json:"batch"`
	Present        int     `json:"present"`
	Late           int     `json:"late"`
	Absent         int     `json:"absent"`
	Excused        int     `json:"excused"`
	TotalDays      int     `json:"total_days"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// Attendance counts the records of each participant of `profiles` within the period of `p`.
// The rate is (present + late) over the elapsed days of the period, or over the participant's
// marked days when the period has no start.
func Attendance(profiles []user.User, records []attendance.Record, p Params) []AttendanceRow {
	rows := make([]AttendanceRow, 0, len(profiles))
	pos := make(map[string]int, len(profiles))
	for _, usr := range profiles {
		pos[usr.ID] = len(rows)
		rows = append(rows, AttendanceRow{
			UserID:   usr.ID,
			FullName: usr.FullName,
			UniqueID: usr.UniqueID,
			Batch:    BatchOf(usr),
		})
	}

	for _, r := range records {
		i, ok := pos[r.UserID]
		if !ok || !p.inPeriod(r.Date) {
			continue
		}
		switch r.Status {
		case attendance.StatusPresent:
			rows[i].Present++
		case attendance.StatusLate:
			rows[i].Late++
		case attendance.StatusAbsent:
			rows[i].Absent++
		case attendance.StatusExcused:
			rows[i].Excused++
		}
	}

	days := p.PeriodDays()
	for i := range rows {
		row := &rows[i]
		if days >= 0 {
			row.TotalDays = days
		} else {
			row.TotalDays = row.Present + row.Late + row.Absent + row.Excused
		}
		row.AttendanceRate = Percent(row.Present+row.Late, row.TotalDays)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].FullName) < strings.ToLower(rows[j].FullName)
	})
	return rows
}
