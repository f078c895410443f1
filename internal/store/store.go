package store

import (
	"context"
	"errors"
	"sort"

	"github.com/kiranshivaraju/fieldops/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrNoChange is returned by a Mutation to abandon the update without writing.
// UpdateJob then returns the unchanged job and a nil error.
var ErrNoChange = errors.New("no change")

// Mutation edits a job in place. Returning an error aborts the update.
type Mutation func(job *models.Job) error

// Store is the persistence interface. All job reads and writes go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error)

	// UpdateJob applies fn to the current state of the job and persists the
	// result atomically. Concurrent UpdateJob calls on the same job are
	// serialized, so fn always sees the latest committed state.
	UpdateJob(ctx context.Context, id string, fn Mutation) (*models.Job, error)
}

type JobFilter struct {
	Status       models.JobStatus
	TechnicianID string
	Page         int
	Limit        int
}

// normalize clamps pagination the same way for every backend.
func (f JobFilter) normalize() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

func (f JobFilter) matches(j *models.Job) bool {
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.TechnicianID != "" && (j.AssignedTechnicianID == nil || *j.AssignedTechnicianID != f.TechnicianID) {
		return false
	}
	return true
}

// paginate filters jobs, orders them newest first and applies the page window.
func paginate(jobs []*models.Job, filter JobFilter) ([]*models.Job, int) {
	var matched []*models.Job
	for _, j := range jobs {
		if filter.matches(j) {
			matched = append(matched, j)
		}
	}
	sort.SliceStable(matched, func(a, b int) bool {
		if matched[a].CreatedAt.Equal(matched[b].CreatedAt) {
			return matched[a].ID < matched[b].ID
		}
		return matched[a].CreatedAt.After(matched[b].CreatedAt)
	})

	total := len(matched)
	limit, offset := filter.normalize()
	if offset >= total {
		return []*models.Job{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total
}
