// Package workflow holds the status enums of the reviewed records and their transition tables.
package workflow

import (
	"fmt"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/user"
)

// Actor is the kind of user triggering a transition.
type Actor string

const (
	ActorParticipant Actor = "participant"
	ActorStaff       Actor = "staff"
	ActorAdmin       Actor = "admin"
)

// ActorOf maps a user role to its workflow actor.
func ActorOf(role string) Actor {
	switch role {
	case user.RoleAdmin:
		return ActorAdmin
	case user.RoleParticipant:
		return ActorParticipant
	default:
		return ActorStaff
	}
}

type Transition struct {
	From   string
	To     string
	Actors []Actor
}

func (t Transition) allows(actor Actor) bool {
	for _, a := range t.Actors {
		if a == actor {
			return true
		}
	}
	return false
}

// Machine is a finite state machine over string statuses.
// Actors listed in `direct` may set any valid status regardless of the current one.
type Machine struct {
	Name        string
	Initial     string
	States      []string
	Transitions []Transition
	direct      []Actor
}

func (m Machine) IsValid(state string) bool {
	return core.StringInSlice(state, m.States)
}

// Can tells whether `actor` may move a record from `from` to `to`.
func (m Machine) Can(from, to string, actor Actor) bool {
	if !m.IsValid(from) || !m.IsValid(to) {
		return false
	}
	for _, a := range m.direct {
		if a == actor {
			return true
		}
	}
	for _, t := range m.Transitions {
		if t.From == from && t.To == to && t.allows(actor) {
			return true
		}
	}
	return false
}

// Check returns a core.ValidationError on the "status" field if the transition is not allowed.
func (m Machine) Check(from, to string, actor Actor) error {
	if !m.IsValid(to) {
		return statusError(fmt.Sprintf("invalid %s status %q", m.Name, to))
	}
	if !m.Can(from, to, actor) {
		return statusError(fmt.Sprintf("cannot move %s from %q to %q", m.Name, from, to))
	}
	return nil
}

func statusError(msg string) error {
	return core.NewValidationError(nil, core.FieldError{Field: "status", Error: msg})
}

// Enrollment statuses
const (
	EnrollmentSubmitted             = "submitted"
	EnrollmentDocumentsSentToUser   = "documents_sent_to_user"
	EnrollmentDocumentsSentToOffice = "documents_sent_to_office"
	EnrollmentCompleted             = "completed"
)

// Enrollment is linear for participants, who may only confirm they sent their documents back.
// Staff select any status directly.
var Enrollment = Machine{
	Name:    "enrollment",
	Initial: EnrollmentSubmitted,
	States: []string{
		EnrollmentSubmitted,
		EnrollmentDocumentsSentToUser,
		EnrollmentDocumentsSentToOffice,
		EnrollmentCompleted,
	},
	Transitions: []Transition{
		{From: EnrollmentDocumentsSentToUser, To: EnrollmentDocumentsSentToOffice, Actors: []Actor{ActorParticipant}},
	},
	direct: []Actor{ActorStaff, ActorAdmin},
}

// Task submission statuses
const (
	TaskNotStarted = "not_started"
	TaskSubmitted  = "submitted"
	TaskVerified   = "verified"
	TaskRejected   = "rejected"
)

var TaskReview = Machine{
	Name:    "task submission",
	Initial: TaskNotStarted,
	States:  []string{TaskNotStarted, TaskSubmitted, TaskVerified, TaskRejected},
	Transitions: []Transition{
		{From: TaskNotStarted, To: TaskSubmitted, Actors: []Actor{ActorParticipant}},
		{From: TaskSubmitted, To: TaskSubmitted, Actors: []Actor{ActorParticipant}},
		{From: TaskRejected, To: TaskSubmitted, Actors: []Actor{ActorParticipant}},
		{From: TaskSubmitted, To: TaskVerified, Actors: []Actor{ActorStaff, ActorAdmin}},
		{From: TaskSubmitted, To: TaskRejected, Actors: []Actor{ActorStaff, ActorAdmin}},
		{From: TaskVerified, To: TaskSubmitted, Actors: []Actor{ActorAdmin}}, // reopen
	},
}

// Document statuses
const (
	DocumentPending   = "pending"
	DocumentSubmitted = "submitted"
	DocumentApproved  = "approved"
	DocumentRejected  = "rejected"
)

var DocumentReview = Machine{
	Name:    "document",
	Initial: DocumentPending,
	States:  []string{DocumentPending, DocumentSubmitted, DocumentApproved, DocumentRejected},
	Transitions: []Transition{
		{From: DocumentPending, To: DocumentSubmitted, Actors: []Actor{ActorParticipant}},
		{From: DocumentSubmitted, To: DocumentSubmitted, Actors: []Actor{ActorParticipant}},
		{From: DocumentRejected, To: DocumentSubmitted, Actors: []Actor{ActorParticipant}},
		{From: DocumentSubmitted, To: DocumentApproved, Actors: []Actor{ActorStaff, ActorAdmin}},
		{From: DocumentSubmitted, To: DocumentRejected, Actors: []Actor{ActorStaff, ActorAdmin}},
		{From: DocumentApproved, To: DocumentSubmitted, Actors: []Actor{ActorAdmin}}, // reopen
	},
}

// Trade statuses
const (
	TradePending  = "pending"
	TradeApproved = "approved"
	TradeRejected = "rejected"
)

// TradeReview has no participant transitions. Unlike task and document reviews, rejected is final:
// trades are append-only, and the participant logs the corrected trade as a new one with
// trade.Service.Create (POST /v1/trades) instead of resubmitting the rejected row.
var TradeReview = Machine{
	Name:    "trade",
	Initial: TradePending,
	States:  []string{TradePending, TradeApproved, TradeRejected},
	Transitions: []Transition{
		{From: TradePending, To: TradeApproved, Actors: []Actor{ActorStaff, ActorAdmin}},
		{From: TradePending, To: TradeRejected, Actors: []Actor{ActorStaff, ActorAdmin}},
		{From: TradeApproved, To: TradePending, Actors: []Actor{ActorAdmin}}, // reopen
	},
}

// Progress and e-commerce setup statuses are set directly by the staff owning the stage.
const (
	ProgressNotStarted = "not_started"
	ProgressInProgress = "in_progress"
	ProgressCompleted  = "completed"

	SetupPending    = "pending"
	SetupInProgress = "in_progress"
	SetupCompleted  = "completed"
)

var Progress = Machine{
	Name:    "progress",
	Initial: ProgressNotStarted,
	States:  []string{ProgressNotStarted, ProgressInProgress, ProgressCompleted},
	direct:  []Actor{ActorStaff, ActorAdmin},
}

var ECommerceSetup = Machine{
	Name:    "e-commerce setup",
	Initial: SetupPending,
	States:  []string{SetupPending, SetupInProgress, SetupCompleted},
	direct:  []Actor{ActorStaff, ActorAdmin},
}
