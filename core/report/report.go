// Package report aggregates raw rows into report summaries.
// Every function is a pure function of its rows and Params: reports are recomputed from scratch on each call.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/user"
)

// Unassigned is the batch label of participants without a batch.
const Unassigned = "unassigned"

type Params struct {
	Batch string
	// From and To bound the period, inclusive. Zero values leave the period open.
	From time.Time
	To   time.Time
	// Today caps the period end; time.Now() when zero.
	Today time.Time
	// IncludePending also counts the trades awaiting review.
	IncludePending bool
}

func (p Params) today() time.Time {
	if p.Today.IsZero() {
		return core.Day(time.Now())
	}
	return core.Day(p.Today)
}

func (p Params) inPeriod(t time.Time) bool {
	day := core.Day(t)
	return (p.From.IsZero() || !day.Before(core.Day(p.From))) &&
		(p.To.IsZero() || !day.After(core.Day(p.To)))
}

// PeriodDays returns the number of elapsed days of the period, bounds included, or -1 if it has no start.
// The period end is capped at today; a period starting after its end has zero days.
func (p Params) PeriodDays() int {
	if p.From.IsZero() {
		return -1
	}
	from, end := core.Day(p.From), p.today()
	if !p.To.IsZero() && core.Day(p.To).Before(end) {
		end = core.Day(p.To)
	}
	if end.Before(from) {
		return 0
	}
	return int(end.Sub(from).Hours()/24) + 1
}

// Percent returns n/total as a percentage rounded to one decimal, 0 when total is 0.
func Percent(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}

// BatchOf returns the batch label of `usr`, Unassigned if empty.
func BatchOf(usr user.User) string {
	if usr.Batch == "" {
		return Unassigned
	}
	return usr.Batch
}

// Scope returns the participants of `profiles` visible to `viewer`, restricted to the batch of `p` if any.
// Coaches only see their assigned participants.
func Scope(viewer user.User, profiles []user.User, p Params) []user.User {
	scoped := make([]user.User, 0, len(profiles))
	for _, usr := range profiles {
		if !usr.IsParticipant() || !viewer.CanView(usr) {
			continue
		}
		if p.Batch != "" && BatchOf(usr) != p.Batch {
			continue
		}
		scoped = append(scoped, usr)
	}
	return scoped
}

func index(profiles []user.User) map[string]user.User {
	idx := make(map[string]user.User, len(profiles))
	for _, usr := range profiles {
		idx[usr.ID] = usr
	}
	return idx
}

// UserIDs returns the ids of `profiles`.
func UserIDs(profiles []user.User) []string {
	ids := make([]string, 0, len(profiles))
	for _, usr := range profiles {
		ids = append(ids, usr.ID)
	}
	return ids
}

// batches returns the sorted batch labels of `profiles`.
func batches(profiles []user.User) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, usr := range profiles {
		b := BatchOf(usr)
		if !seen[b] {
			seen[b] = true
			labels = append(labels, b)
		}
	}
	sort.Strings(labels)
	return labels
}
