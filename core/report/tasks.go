package report

import (
	"sort"
	"strings"

	"github.com/pathwayhq/pathway/core/task"
	"github.com/pathwayhq/pathway/core/user"
	"github.com/pathwayhq/pathway/core/workflow"
)

type TaskRow struct {
	UserID         string  `json:"user_id" csv:"-"`
	FullName       string  `json:"full_name"`
	Batch          string  `json:"batch"`
	Verified       int     `json:"verified"`
	Submitted      int     `json:"submitted"`
	Rejected       int     `json:"rejected"`
	ActiveTasks    int     `json:"active_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

// TaskCompletion counts, per participant, their submissions on active tasks.
// The completion rate is verified submissions over active tasks.
func TaskCompletion(profiles []user.User, tasks []task.Task, submissions []task.Submission) []TaskRow {
	active := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.IsActive {
			active[t.ID] = true
		}
	}

	rows := make([]TaskRow, 0, len(profiles))
	pos := make(map[string]int, len(profiles))
	for _, usr := range profiles {
		pos[usr.ID] = len(rows)
		rows = append(rows, TaskRow{
			UserID:      usr.ID,
			FullName:    usr.FullName,
			Batch:       BatchOf(usr),
			ActiveTasks: len(active),
		})
	}
	for _, s := range submissions {
		i, ok := pos[s.UserID]
		if !ok || !active[s.TaskID] {
			continue
		}
		switch s.Status {
		case workflow.TaskVerified:
			rows[i].Verified++
		case workflow.TaskSubmitted:
			rows[i].Submitted++
		case workflow.TaskRejected:
			rows[i].Rejected++
		}
	}
	for i := range rows {
		rows[i].CompletionRate = Percent(rows[i].Verified, rows[i].ActiveTasks)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].FullName) < strings.ToLower(rows[j].FullName)
	})
	return rows
}
