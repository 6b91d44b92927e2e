package jobqueue

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jermspeaks/slowtube/internal/sqltypes"
)

func ParsePayload(s string) (string, url.Values, error) {
	if !strings.Contains(s, "?") {
		return s, url.Values{}, nil
	}

	a := strings.SplitN(s, "?", 2)

	m, err := url.ParseQuery(a[1])
	if err != nil {
		return a[0], url.Values{}, err
	}

	return a[0], m, nil
}

func FormatPayload(s string, m url.Values) string {
	if m == nil {
		return s
	}

	return s + "?" + m.Encode()
}

const (
	DefaultFailureDelay = time.Second * 5
)

// job definition

type Job struct {
	ID                int
	CreatedAt         time.Time
	QueueName         string
	Payload           string
	RunAfter          time.Time
	FailureDelay      time.Duration
	AttemptsRemaining int
	ReservedAt        *time.Time
	ReservedUntil     *time.Time
	FinishedAt        *time.Time
	ErrorMessages     sqltypes.JSONStringSlice
	OutputMessages    sqltypes.JSONStringSlice
}

const jobColumns = "id, created_at, queue_name, payload, run_after, failure_delay, attempts_remaining, reserved_at, reserved_until, finished_at, error_messages, output_messages"

func scanJob(rows *sql.Rows) (*Job, error) {
	var j Job
	var failureDelay int64

	if err := rows.Scan(
		&j.ID,
		&sqltypes.TimeScanner{Value: &j.CreatedAt},
		&j.QueueName,
		&j.Payload,
		&sqltypes.TimeScanner{Value: &j.RunAfter},
		&failureDelay,
		&j.AttemptsRemaining,
		&sqltypes.TimePointerScanner{Value: &j.ReservedAt},
		&sqltypes.TimePointerScanner{Value: &j.ReservedUntil},
		&sqltypes.TimePointerScanner{Value: &j.FinishedAt},
		&j.ErrorMessages,
		&j.OutputMessages,
	); err != nil {
		return nil, err
	}

	j.FailureDelay = time.Duration(failureDelay)

	return &j, nil
}

func create(ctx context.Context, tx *sql.Tx, job *Job) error {
	res, err := tx.ExecContext(ctx,
		"insert into jobs (created_at, queue_name, payload, run_after, failure_delay, attempts_remaining, error_messages, output_messages) values (?, ?, ?, ?, ?, ?, ?, ?)",
		job.CreatedAt, job.QueueName, job.Payload, job.RunAfter, int64(job.FailureDelay), job.AttemptsRemaining, job.ErrorMessages, job.OutputMessages,
	)
	if err != nil {
		return fmt.Errorf("jobqueue.create: could not create job record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("jobqueue.create: could not get job id: %w", err)
	}
	job.ID = int(id)

	return nil
}

func save(ctx context.Context, tx *sql.Tx, job *Job) error {
	if _, err := tx.ExecContext(ctx,
		"update jobs set run_after = ?, attempts_remaining = ?, reserved_at = ?, reserved_until = ?, finished_at = ?, error_messages = ?, output_messages = ? where id = ?",
		job.RunAfter, job.AttemptsRemaining, timePtrOrNil(job.ReservedAt), timePtrOrNil(job.ReservedUntil), timePtrOrNil(job.FinishedAt), job.ErrorMessages, job.OutputMessages, job.ID,
	); err != nil {
		return fmt.Errorf("jobqueue.save: could not save job record: %w", err)
	}

	return nil
}

func timePtrOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}

	return *t
}

func findNext(ctx context.Context, tx *sql.Tx, queueNames []string, now time.Time) (*Job, error) {
	if len(queueNames) == 0 {
		return nil, nil
	}

	parameters := make([]interface{}, 0, len(queueNames)+2)
	placeholders := make([]string, len(queueNames))

	for i := range queueNames {
		parameters = append(parameters, queueNames[i])
		placeholders[i] = "?"
	}

	parameters = append(parameters, now, now)

	query := fmt.Sprintf(
		"select %s from jobs where queue_name in (%s) and run_after < ? and (reserved_until is null or reserved_until < ?) and finished_at is null order by run_after asc limit 1",
		jobColumns,
		strings.Join(placeholders, ", "),
	)

	rows, err := tx.QueryContext(ctx, query, parameters...)
	if err != nil {
		return nil, fmt.Errorf("jobqueue.findNext: could not find pending job record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("jobqueue.findNext: could not find pending job record: %w", err)
		}

		return nil, nil
	}

	job, err := scanJob(rows)
	if err != nil {
		return nil, fmt.Errorf("jobqueue.findNext: could not read pending job record: %w", err)
	}

	return job, nil
}

func reserve(ctx context.Context, tx *sql.Tx, job *Job, now time.Time, reserveDuration time.Duration) error {
	if job.ReservedUntil != nil && job.ReservedUntil.After(now) {
		return fmt.Errorf("jobqueue.reserve: can't reserve a job with a non-expired reservation")
	}
	if job.FinishedAt != nil {
		return fmt.Errorf("jobqueue.reserve: can't reserve a job that has already finished")
	}

	if reserveDuration == 0 {
		reserveDuration = time.Minute * 5
	}

	reservedUntil := now.Add(reserveDuration)
	job.ReservedAt = &now
	job.ReservedUntil = &reservedUntil

	if err := save(ctx, tx, job); err != nil {
		return fmt.Errorf("jobqueue.reserve: could not save job record: %w", err)
	}

	return nil
}

func findNextAndReserve(ctx context.Context, tx *sql.Tx, queueNames []string, now time.Time, reserveDuration time.Duration) (*Job, error) {
	j, err := findNext(ctx, tx, queueNames, now)
	if err != nil {
		return nil, fmt.Errorf("jobqueue.findNextAndReserve: could not find next job: %w", err)
	}

	if j == nil {
		return nil, nil
	}

	if err := reserve(ctx, tx, j, now, reserveDuration); err != nil {
		return nil, fmt.Errorf("jobqueue.findNextAndReserve: could not reserve job: %w", err)
	}

	return j, nil
}

func finish(ctx context.Context, tx *sql.Tx, job *Job, now time.Time, errorMessage, outputMessage string) error {
	if job.FinishedAt != nil {
		return fmt.Errorf("jobqueue.finish: can't finish a job that has already finished")
	}

	job.FinishedAt = &now
	job.ErrorMessages = append(job.ErrorMessages, errorMessage)
	job.OutputMessages = append(job.OutputMessages, outputMessage)

	if errorMessage != "" && job.AttemptsRemaining > 0 {
		job.AttemptsRemaining--
		job.RunAfter = now.Add(job.FailureDelay)
		job.ReservedAt = nil
		job.ReservedUntil = nil
		job.FinishedAt = nil
	}

	if err := save(ctx, tx, job); err != nil {
		return fmt.Errorf("jobqueue.finish: could not save job record: %w", err)
	}

	return nil
}

// ListUnfinished returns pending and reserved jobs, newest first, for queue
// introspection.
func ListUnfinished(ctx context.Context, db *sql.DB, limit int64) ([]Job, error) {
	rows, err := db.QueryContext(ctx,
		"select "+jobColumns+" from jobs where finished_at is null order by id desc limit ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("jobqueue.ListUnfinished: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("jobqueue.ListUnfinished: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("jobqueue.ListUnfinished: %w", err)
	}

	return jobs, nil
}
