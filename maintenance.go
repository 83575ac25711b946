package opsmem

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard 5-field cron expressions
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

const maintenanceTimeLayout = "2006-01-02 15:04:05"

// ScheduleMaintenance upserts a named periodic job (reindex, prune, vocab
// rebuild). Nothing here runs it: rows only record when it is next due, and
// the caller fires due jobs itself, keeping the store free of background
// threads.
func (s *Store) ScheduleMaintenance(job, schedule string) (*Maintenance, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule: %w", err)
	}

	now := time.Now().UTC()
	nextRun := sched.Next(now)

	if _, err := s.db.Exec(queryUpsertMaintenance, job, schedule, nextRun.Format(maintenanceTimeLayout)); err != nil {
		return nil, err
	}

	return s.GetMaintenance(job)
}

// GetMaintenance returns the job row, or nil when absent.
func (s *Store) GetMaintenance(job string) (*Maintenance, error) {
	row := s.db.QueryRow(queryGetMaintenance, job)
	m, err := scanMaintenance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// DueMaintenance lists jobs whose next run time has passed.
func (s *Store) DueMaintenance() ([]*Maintenance, error) {
	rows, err := s.db.Query(queryDueMaintenance)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Maintenance
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, m)
	}
	return jobs, rows.Err()
}

// CompleteMaintenance advances a job's next run time past now according to
// its schedule. Call it after running a due job.
func (s *Store) CompleteMaintenance(id int64) error {
	var schedule string
	if err := s.db.QueryRow(queryScheduleMaintenance, id).Scan(&schedule); err != nil {
		return err
	}

	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid maintenance schedule: %w", err)
	}

	nextRun := sched.Next(time.Now().UTC())
	_, err = s.db.Exec(queryAdvanceMaintenance, nextRun.Format(maintenanceTimeLayout), id)
	return err
}

// DeleteMaintenance removes a job by name.
func (s *Store) DeleteMaintenance(job string) error {
	_, err := s.db.Exec(queryDeleteMaintenance, job)
	return err
}

func scanMaintenance(row interface{ Scan(dest ...any) error }) (*Maintenance, error) {
	var m Maintenance
	var nextRun, createdAt *string

	if err := row.Scan(&m.ID, &m.Job, &m.Schedule, &nextRun, &createdAt); err != nil {
		return nil, err
	}

	if nextRun != nil {
		m.NextRun, _ = time.Parse(maintenanceTimeLayout, *nextRun)
	}
	if createdAt != nil {
		m.CreatedAt, _ = time.Parse(maintenanceTimeLayout, *createdAt)
	}

	return &m, nil
}
