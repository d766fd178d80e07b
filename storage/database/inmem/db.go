// Package inmemdb implements the repositories in memory, for local development and tests.
// Each table is guarded by its own lock; uniqueness constraints mirror the SQL migrations.
package inmemdb

import (
	"sync"

	"github.com/pathwayhq/pathway/core/attendance"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/document"
	"github.com/pathwayhq/pathway/core/ecommerce"
	"github.com/pathwayhq/pathway/core/enrollment"
	"github.com/pathwayhq/pathway/core/journey"
	"github.com/pathwayhq/pathway/core/navigation"
	"github.com/pathwayhq/pathway/core/task"
	"github.com/pathwayhq/pathway/core/trade"
	"github.com/pathwayhq/pathway/core/user"
)

type (
	DB struct {
		user       *userTable
		stage      *stageTable
		progress   *progressTable
		task       *taskTable
		submission *submissionTable
		document   *documentTable
		trade      *tradeTable
		enrollment *enrollmentTable
		ecommerce  *ecommerceTable
		attendance *attendanceTable
		audit      *auditTable
		navigation *navigationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}
	stageTable struct {
		sync.RWMutex
		table map[string]*journey.Stage
	}
	progressTable struct {
		sync.RWMutex
		table map[string]*journey.Progress
	}
	taskTable struct {
		sync.RWMutex
		table map[string]*task.Task
	}
	submissionTable struct {
		sync.RWMutex
		table map[string]*task.Submission
	}
	documentTable struct {
		sync.RWMutex
		table map[string]*document.Document
	}
	tradeTable struct {
		sync.RWMutex
		table map[string]*trade.Trade
	}
	enrollmentTable struct {
		sync.RWMutex
		table map[string]*enrollment.Enrollment
	}
	ecommerceTable struct {
		sync.RWMutex
		table map[string]*ecommerce.Setup
	}
	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}
	auditTable struct {
		sync.RWMutex
		table []audit.Entry // append-only
	}
	navigationTable struct {
		sync.RWMutex
		table map[string]*navigation.Setting
	}
)

// Open returns an empty DB holding the journey stage catalog.
func Open() *DB {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		stage:      &stageTable{table: make(map[string]*journey.Stage)},
		progress:   &progressTable{table: make(map[string]*journey.Progress)},
		task:       &taskTable{table: make(map[string]*task.Task)},
		submission: &submissionTable{table: make(map[string]*task.Submission)},
		document:   &documentTable{table: make(map[string]*document.Document)},
		trade:      &tradeTable{table: make(map[string]*trade.Trade)},
		enrollment: &enrollmentTable{table: make(map[string]*enrollment.Enrollment)},
		ecommerce:  &ecommerceTable{table: make(map[string]*ecommerce.Setup)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Record)},
		audit:      &auditTable{},
		navigation: &navigationTable{table: make(map[string]*navigation.Setting)},
	}
	for _, stage := range journey.DefaultStages {
		stage := stage
		db.stage.table[stage.ID] = &stage
	}
	return db
}
