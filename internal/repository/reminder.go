package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remindbot/internal/database"
	"remindbot/internal/models"
)

const reminderColumns = "id, chat_id, text, run_at, status, recurrence_rule, series_id, created_at, updated_at"

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Filter narrows a reminder selection. Zero values mean "no constraint".
// Deleted rows are excluded unless IncludeDeleted is set or deleted status
// is requested explicitly.
type Filter struct {
	ID             *int64
	Status         models.ReminderStatus
	SearchText     string
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
	// ExcludeTextPrefix drops rows whose text starts with the given
	// prefix. Used to hide internal marker rows from user-facing reads.
	ExcludeTextPrefix string
}

// CreateMany inserts all reminders in one round trip and fills in the
// storage-assigned fields.
func (r *ReminderRepository) CreateMany(ctx context.Context, reminders []*models.Reminder) ([]*models.Reminder, error) {
	if len(reminders) == 0 {
		return nil, nil
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("INSERT INTO reminders (chat_id, text, run_at, status, recurrence_rule, series_id) VALUES ")
	for i, reminder := range reminders {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5, base+6)
		status := reminder.Status
		if status == "" {
			status = models.StatusPending
		}
		args = append(args, reminder.ChatID, reminder.Text, reminder.RunAt.UTC(), status, reminder.RecurrenceRule, reminder.SeriesID)
	}
	sb.WriteString(" RETURNING " + reminderColumns)

	rows, err := r.db.Pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var created []*models.Reminder
	for rows.Next() {
		reminder := &models.Reminder{}
		if err := scanReminder(rows, reminder); err != nil {
			return nil, err
		}
		created = append(created, reminder)
	}
	return created, rows.Err()
}

// List returns matching reminders ordered by run_at then id ascending.
func (r *ReminderRepository) List(ctx context.Context, chatID int64, filter Filter) ([]*models.Reminder, error) {
	where, args := buildWhere(chatID, filter)
	query := fmt.Sprintf(
		"SELECT %s FROM reminders WHERE %s ORDER BY run_at ASC, id ASC",
		reminderColumns, where,
	)
	return r.queryReminders(ctx, query, args)
}

// ListLastN returns the most recently scheduled N matching reminders,
// newest first.
func (r *ReminderRepository) ListLastN(ctx context.Context, chatID int64, n int, filter Filter) ([]*models.Reminder, error) {
	where, args := buildWhere(chatID, filter)
	args = append(args, n)
	query := fmt.Sprintf(
		"SELECT %s FROM reminders WHERE %s ORDER BY run_at DESC, id DESC LIMIT $%d",
		reminderColumns, where, len(args),
	)
	return r.queryReminders(ctx, query, args)
}

// ListDuePending returns up to limit pending reminders with run_at <= until,
// earliest first with a deterministic id tie-break.
func (r *ReminderRepository) ListDuePending(ctx context.Context, until time.Time, limit int) ([]*models.Reminder, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM reminders
		 WHERE status = 'pending' AND run_at <= $1
		 ORDER BY run_at ASC, id ASC LIMIT $2`,
		reminderColumns,
	)
	return r.queryReminders(ctx, query, []any{until.UTC(), limit})
}

// MarkDone sets the given reminders to done in a single statement.
func (r *ReminderRepository) MarkDone(ctx context.Context, ids []int64) (int64, error) {
	return r.setStatus(ctx, ids, models.StatusDone)
}

// MarkDeleted soft-deletes the given reminders.
func (r *ReminderRepository) MarkDeleted(ctx context.Context, ids []int64) (int64, error) {
	return r.setStatus(ctx, ids, models.StatusDeleted)
}

func (r *ReminderRepository) setStatus(ctx context.Context, ids []int64, status models.ReminderStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.db.Pool.Exec(ctx,
		"UPDATE reminders SET status = $1, updated_at = now() WHERE id = ANY($2)",
		status, ids,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Reschedule moves one reminder to a new trigger time and resets it to
// pending.
func (r *ReminderRepository) Reschedule(ctx context.Context, id int64, nextRunAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		"UPDATE reminders SET run_at = $1, status = 'pending', updated_at = now() WHERE id = $2",
		nextRunAt.UTC(), id,
	)
	return err
}

func (r *ReminderRepository) queryReminders(ctx context.Context, query string, args []any) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder := &models.Reminder{}
		if err := scanReminder(rows, reminder); err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func buildWhere(chatID int64, filter Filter) (string, []any) {
	clauses := []string{"chat_id = $1"}
	args := []any{chatID}

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.ID != nil {
		add("id = $%d", *filter.ID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	} else if !filter.IncludeDeleted {
		clauses = append(clauses, "status <> 'deleted'")
	}
	if filter.SearchText != "" {
		add("text ILIKE $%d", "%"+filter.SearchText+"%")
	}
	if filter.From != nil {
		add("run_at >= $%d", filter.From.UTC())
	}
	if filter.To != nil {
		add("run_at <= $%d", filter.To.UTC())
	}
	if filter.ExcludeTextPrefix != "" {
		add("NOT starts_with(text, $%d)", filter.ExcludeTextPrefix)
	}

	return strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner, reminder *models.Reminder) error {
	return row.Scan(
		&reminder.ID, &reminder.ChatID, &reminder.Text, &reminder.RunAt,
		&reminder.Status, &reminder.RecurrenceRule, &reminder.SeriesID,
		&reminder.CreatedAt, &reminder.UpdatedAt,
	)
}
