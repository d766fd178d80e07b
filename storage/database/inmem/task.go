package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/pathwayhq/pathway/core/task"
)

type taskRepository struct {
	tasks       *taskTable
	submissions *submissionTable
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{tasks: db.task, submissions: db.submission}
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.tasks.Lock()
	defer repo.tasks.Unlock()

	t.ID = uuid.NewString()
	repo.tasks.table[t.ID] = &t
	return t, nil
}

func (repo *taskRepository) QueryTasks(_ context.Context, activeOnly bool) ([]task.Task, error) {
	repo.tasks.RLock()
	defer repo.tasks.RUnlock()

	tasks := make([]task.Task, 0, len(repo.tasks.table))
	for _, t := range repo.tasks.table {
		if !activeOnly || t.IsActive {
			tasks = append(tasks, *t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].DisplayOrder != tasks[j].DisplayOrder {
			return tasks[i].DisplayOrder < tasks[j].DisplayOrder
		}
		return tasks[i].Title < tasks[j].Title
	})
	return tasks, nil
}

func (repo *taskRepository) GetTask(_ context.Context, id string) (task.Task, error) {
	repo.tasks.RLock()
	defer repo.tasks.RUnlock()

	if t, ok := repo.tasks.table[id]; ok {
		return *t, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.tasks.Lock()
	defer repo.tasks.Unlock()

	if _, ok := repo.tasks.table[t.ID]; !ok {
		return task.Task{}, task.ErrNotFound
	}
	repo.tasks.table[t.ID] = &t
	return t, nil
}

func (repo *taskRepository) QuerySubmissions(_ context.Context, filter *task.SubmissionFilter) ([]task.Submission, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()

	subs := make([]task.Submission, 0)
	for _, s := range repo.submissions.table {
		if filter.Match(*s) {
			subs = append(subs, *s)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].UpdatedAt.After(subs[j].UpdatedAt) })
	return subs, nil
}

func (repo *taskRepository) GetSubmission(_ context.Context, id string) (task.Submission, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()

	if s, ok := repo.submissions.table[id]; ok {
		return *s, nil
	}
	return task.Submission{}, task.ErrSubmissionNotFound
}

func (repo *taskRepository) GetUserSubmission(_ context.Context, userID, taskID string) (task.Submission, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()

	for _, s := range repo.submissions.table {
		if s.UserID == userID && s.TaskID == taskID {
			return *s, nil
		}
	}
	return task.Submission{}, task.ErrSubmissionNotFound
}

func (repo *taskRepository) UpsertSubmission(_ context.Context, s task.Submission) (task.Submission, error) {
	repo.submissions.Lock()
	defer repo.submissions.Unlock()

	for _, existing := range repo.submissions.table {
		if existing.UserID == s.UserID && existing.TaskID == s.TaskID {
			s.ID = existing.ID
			break
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	repo.submissions.table[s.ID] = &s
	return s, nil
}
