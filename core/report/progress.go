package report

import (
	"github.com/pathwayhq/pathway/core/journey"
	"github.com/pathwayhq/pathway/core/user"
	"github.com/pathwayhq/pathway/core/workflow"
)

type StageRow struct {
	StageID        string  `json:"stage_id" csv:"-"`
	Stage          string  `json:"stage"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"in_progress"`
	NotStarted     int     `json:"not_started"`
	CompletionRate float64 `json:"completion_rate"`
}

// StageCompletion counts, per stage, the participants of `profiles` by progress status.
// Participants without a progress row are not started.
func StageCompletion(profiles []user.User, stages []journey.Stage, progress []journey.Progress) []StageRow {
	idx := index(profiles)
	rows := make([]StageRow, 0, len(stages))
	pos := make(map[string]int, len(stages))
	for _, stage := range stages {
		pos[stage.ID] = len(rows)
		rows = append(rows, StageRow{StageID: stage.ID, Stage: stage.Name})
	}

	for _, p := range progress {
		i, ok := pos[p.StageID]
		if _, scoped := idx[p.UserID]; !ok || !scoped {
			continue
		}
		switch p.Status {
		case workflow.ProgressCompleted:
			rows[i].Completed++
		case workflow.ProgressInProgress:
			rows[i].InProgress++
		}
	}

	for i := range rows {
		row := &rows[i]
		row.NotStarted = len(profiles) - row.Completed - row.InProgress
		row.CompletionRate = Percent(row.Completed, len(profiles))
	}
	return rows
}

type BatchRow struct {
	Batch          string  `json:"batch"`
	Participants   int     `json:"participants"`
	Completed      int     `json:"completed"`
	TotalPossible  int     `json:"total_possible"`
	CompletionRate float64 `json:"completion_rate"`
}

// BatchBreakdown counts, per batch, the completed progress rows of that batch's participants
// over the number of (participant, stage) pairs.
func BatchBreakdown(profiles []user.User, stages []journey.Stage, progress []journey.Progress) []BatchRow {
	idx := index(profiles)
	stageIDs := make(map[string]bool, len(stages))
	for _, stage := range stages {
		stageIDs[stage.ID] = true
	}

	labels := batches(profiles)
	rows := make([]BatchRow, 0, len(labels))
	pos := make(map[string]int, len(labels))
	for _, b := range labels {
		pos[b] = len(rows)
		rows = append(rows, BatchRow{Batch: b})
	}
	for _, usr := range profiles {
		rows[pos[BatchOf(usr)]].Participants++
	}
	for _, p := range progress {
		usr, ok := idx[p.UserID]
		if !ok || !stageIDs[p.StageID] || p.Status != workflow.ProgressCompleted {
			continue
		}
		rows[pos[BatchOf(usr)]].Completed++
	}

	for i := range rows {
		row := &rows[i]
		row.TotalPossible = row.Participants * len(stages)
		row.CompletionRate = Percent(row.Completed, row.TotalPossible)
	}
	return rows
}

type FinanceRow struct {
	Batch        string  `json:"batch"`
	Participants int     `json:"participants"`
	Paid         int     `json:"paid"`
	Unpaid       int     `json:"unpaid"`
	PaidRate     float64 `json:"paid_rate"`
}

// Finance counts, per batch, the participants whose "Fees Paid" stage is completed.
func Finance(profiles []user.User, stages []journey.Stage, progress []journey.Progress) []FinanceRow {
	var feeStageID string
	for _, stage := range stages {
		if stage.Name == journey.StageFeesPaid {
			feeStageID = stage.ID
			break
		}
	}
	paid := make(map[string]bool)
	for _, p := range progress {
		if feeStageID != "" && p.StageID == feeStageID && p.Status == workflow.ProgressCompleted {
			paid[p.UserID] = true
		}
	}

	labels := batches(profiles)
	rows := make([]FinanceRow, 0, len(labels))
	pos := make(map[string]int, len(labels))
	for _, b := range labels {
		pos[b] = len(rows)
		rows = append(rows, FinanceRow{Batch: b})
	}
	for _, usr := range profiles {
		row := &rows[pos[BatchOf(usr)]]
		row.Participants++
		if paid[usr.ID] {
			row.Paid++
		} else {
			row.Unpaid++
		}
	}
	for i := range rows {
		rows[i].PaidRate = Percent(rows[i].Paid, rows[i].Participants)
	}
	return rows
}
