package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Entry is a parsed job with its next fire time
type Entry struct {
	Job
	Next time.Time
}

// Plan holds parsed jobs. Nothing runs in-process; the plan is rendered for an
// external crontab.
type Plan struct {
	jobs      []Job
	schedules map[string]cron.Schedule
}

// New parses every job schedule
func New(jobs []Job) (*Plan, error) {
	p := &Plan{
		jobs:      make([]Job, 0, len(jobs)),
		schedules: make(map[string]cron.Schedule, len(jobs)),
	}

	for _, job := range jobs {
		name := string(job.Process)

		// Check if job already exists
		if _, exists := p.schedules[name]; exists {
			return nil, fmt.Errorf("job %s already exists", name)
		}

		sched, err := cron.ParseStandard(job.Schedule)
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule of %s: %w", name, err)
		}

		p.jobs = append(p.jobs, job)
		p.schedules[name] = sched
	}

	return p, nil
}

// Entries returns jobs ordered by their next fire time after now
func (p *Plan) Entries(now time.Time) []Entry {
	entries := make([]Entry, 0, len(p.jobs))
	for _, job := range p.jobs {
		entries = append(entries, Entry{
			Job:  job,
			Next: p.schedules[string(job.Process)].Next(now),
		})
	}

	// 같은 시각이면 등록 순서 유지
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Next.Before(entries[j].Next)
	})
	return entries
}

// Crontab renders one crontab line per job. Each line passes the trigger day as
// target date.
func (p *Plan) Crontab(binary string) string {
	var b strings.Builder
	for _, job := range p.jobs {
		fmt.Fprintf(&b, "%s %s run --target_date $(date +\\%%Y\\%%m\\%%d) --process_type %s\n",
			job.Schedule, binary, job.Process)
	}
	return b.String()
}
