package reminder

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindbot/internal/command"
	"remindbot/internal/models"
	"remindbot/internal/repository"
)

type fakeStore struct {
	rows   []*models.Reminder
	nextID int64
}

func (s *fakeStore) CreateMany(_ context.Context, reminders []*models.Reminder) ([]*models.Reminder, error) {
	for _, r := range reminders {
		s.nextID++
		r.ID = s.nextID
		s.rows = append(s.rows, r)
	}
	return reminders, nil
}

func (s *fakeStore) List(_ context.Context, chatID int64, filter repository.Filter) ([]*models.Reminder, error) {
	var out []*models.Reminder
	for _, r := range s.rows {
		if s.matches(r, chatID, filter) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) ListLastN(_ context.Context, chatID int64, n int, filter repository.Filter) ([]*models.Reminder, error) {
	all, _ := s.List(context.Background(), chatID, filter)
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (s *fakeStore) MarkDeleted(_ context.Context, ids []int64) (int64, error) {
	var count int64
	for _, r := range s.rows {
		for _, id := range ids {
			if r.ID == id {
				r.Status = models.StatusDeleted
				count++
			}
		}
	}
	return count, nil
}

func (s *fakeStore) matches(r *models.Reminder, chatID int64, filter repository.Filter) bool {
	if r.ChatID != chatID {
		return false
	}
	if filter.Status != "" {
		if r.Status != filter.Status {
			return false
		}
	} else if !filter.IncludeDeleted && r.Status == models.StatusDeleted {
		return false
	}
	if filter.ID != nil && r.ID != *filter.ID {
		return false
	}
	if filter.SearchText != "" && !strings.Contains(strings.ToLower(r.Text), strings.ToLower(filter.SearchText)) {
		return false
	}
	if filter.From != nil && r.RunAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && r.RunAt.After(*filter.To) {
		return false
	}
	if filter.ExcludeTextPrefix != "" && IsPreNotify(r.Text) {
		return false
	}
	return true
}

type fakeSeriesStore struct {
	created []*models.ReminderSeries
}

func (s *fakeSeriesStore) Create(_ context.Context, series *models.ReminderSeries) error {
	s.created = append(s.created, series)
	return nil
}

func newTestService() (*Service, *fakeStore, *fakeSeriesStore) {
	store := &fakeStore{}
	series := &fakeSeriesStore{}
	return NewService(store, series, time.UTC, zerolog.Nop()), store, series
}

// Sunday, Feb 22 2026, 10:15 UTC.
func serviceNow() time.Time {
	return time.Date(2026, 2, 22, 10, 15, 0, 0, time.UTC)
}

const chatID = int64(42)

func TestCreateSingleSameDay(t *testing.T) {
	svc, store, series := newTestService()

	created, err := svc.Create(context.Background(), chatID, &command.Create{
		Reminders: []command.ReminderInput{
			{Text: "drink water", DayReference: command.DayToday},
		},
	}, serviceNow())
	require.NoError(t, err)

	require.Len(t, created, 1)
	assert.Equal(t, "drink water", created[0].Text)
	assert.Equal(t, time.Date(2026, 2, 22, 11, 0, 0, 0, time.UTC), created[0].RunAt)
	assert.Nil(t, created[0].SeriesID)
	assert.Len(t, store.rows, 1, "same-day occurrence gets no companion")
	assert.Empty(t, series.created)
}

func TestCreateNextDayGetsPreNotification(t *testing.T) {
	svc, store, _ := newTestService()

	created, err := svc.Create(context.Background(), chatID, &command.Create{
		Reminders: []command.ReminderInput{
			{Text: "dentist", DayReference: command.DayTomorrow, TimeValue: "09:00", ExplicitTimeProvided: true},
		},
	}, serviceNow())
	require.NoError(t, err)

	require.Len(t, created, 1, "the companion is not reported")
	require.Len(t, store.rows, 2)

	companion := store.rows[1]
	assert.True(t, IsPreNotify(companion.Text))
	assert.Equal(t, "dentist", UnwrapPreNotify(companion.Text))
	assert.Equal(t, created[0].RunAt.Add(-time.Hour), companion.RunAt)
}

func TestCreateRecurringSeries(t *testing.T) {
	svc, store, series := newTestService()

	created, err := svc.Create(context.Background(), chatID, &command.Create{
		Reminders: []command.ReminderInput{
			{Text: "water plants", DayReference: command.DayTomorrow, RecurrenceRule: "FREQ=DAILY"},
		},
	}, serviceNow())
	require.NoError(t, err)

	require.Len(t, series.created, 1)
	assert.Equal(t, "FREQ=DAILY", series.created[0].RecurrenceRule)
	assert.Equal(t, chatID, series.created[0].ChatID)

	require.Len(t, created, 7, "daily default expansion")
	for i, r := range created {
		require.NotNil(t, r.SeriesID)
		assert.Equal(t, series.created[0].SeriesID, *r.SeriesID)
		assert.Empty(t, r.RecurrenceRule, "members carry no rule")
		assert.Equal(t, time.Date(2026, 2, 23+i, 8, 0, 0, 0, time.UTC), r.RunAt)
	}

	// Every member is at least a day out, so each has a companion.
	assert.Len(t, store.rows, 14)
}

func TestListFiltersInternalRows(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), chatID, &command.Create{
		Reminders: []command.ReminderInput{
			{Text: "dentist", DayReference: command.DayTomorrow},
		},
	}, serviceNow())
	require.NoError(t, err)

	items, err := svc.List(context.Background(), chatID, &command.List{Mode: command.ListModeAll}, serviceNow())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "dentist", items[0].Text)
}

func TestListToday(t *testing.T) {
	svc, _, _ := newTestService()
	now := serviceNow()

	_, err := svc.Create(context.Background(), chatID, &command.Create{
		Reminders: []command.ReminderInput{
			{Text: "today's task", DayReference: command.DayToday},
			{Text: "tomorrow's task", DayReference: command.DayTomorrow},
		},
	}, now)
	require.NoError(t, err)

	items, err := svc.List(context.Background(), chatID, &command.List{Mode: command.ListModeToday}, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "today's task", items[0].Text)
}

func TestListDeletedOnlyOnExplicitFilter(t *testing.T) {
	svc, store, _ := newTestService()
	now := serviceNow()

	_, err := svc.Create(context.Background(), chatID, &command.Create{
		Reminders: []command.ReminderInput{{Text: "old", DayReference: command.DayToday}},
	}, now)
	require.NoError(t, err)
	store.rows[0].Status = models.StatusDeleted

	items, err := svc.List(context.Background(), chatID, &command.List{Mode: command.ListModeAll}, now)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = svc.List(context.Background(), chatID, &command.List{
		Mode: command.ListModeStatus, Status: string(models.StatusDeleted),
	}, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestDeleteNoFiltersIsNoOp(t *testing.T) {
	svc, store, _ := newTestService()
	now := serviceNow()

	_, err := svc.Create(context.Background(), chatID, &command.Create{
		Reminders: []command.ReminderInput{{Text: "keep me", DayReference: command.DayToday}},
	}, now)
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), chatID, &command.Delete{Mode: command.DeleteModeFilter}, now)
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.Equal(t, models.StatusPending, store.rows[0].Status)
}

func TestDeleteAllWithConfirmation(t *testing.T) {
	svc, store, _ := newTestService()
	now := serviceNow()

	_, err := svc.Create(context.Background(), chatID, &command.Create{
		Reminders: []command.ReminderInput{
			{Text: "one", DayReference: command.DayToday},
			{Text: "two", DayReference: command.DayTomorrow},
		},
	}, now)
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), chatID, &command.Delete{
		Mode: command.DeleteModeFilter, ConfirmDeleteAll: true,
	}, now)
	require.NoError(t, err)

	assert.Len(t, deleted, 2, "companions are not reported")
	for _, r := range store.rows {
		assert.Equal(t, models.StatusDeleted, r.Status, "companions are deleted alongside")
	}
}

func TestDeleteBySearchRemovesCompanion(t *testing.T) {
	svc, store, _ := newTestService()
	now := serviceNow()

	_, err := svc.Create(context.Background(), chatID, &command.Create{
		Reminders: []command.ReminderInput{
			{Text: "dentist appointment", DayReference: command.DayTomorrow},
			{Text: "pay rent", DayReference: command.DayTomorrow},
		},
	}, now)
	require.NoError(t, err)
	require.Len(t, store.rows, 4)

	deleted, err := svc.Delete(context.Background(), chatID, &command.Delete{
		Mode: command.DeleteModeFilter, SearchText: "dentist",
	}, now)
	require.NoError(t, err)

	require.Len(t, deleted, 1)
	assert.Equal(t, "dentist appointment", deleted[0].Text)

	var deletedCount int
	for _, r := range store.rows {
		if r.Status == models.StatusDeleted {
			deletedCount++
		}
	}
	assert.Equal(t, 2, deletedCount, "the occurrence and its companion")
	assert.Equal(t, models.StatusPending, store.rows[2].Status, "unrelated rows untouched")
}

func TestDeleteLastN(t *testing.T) {
	svc, store, _ := newTestService()
	now := serviceNow()

	_, err := svc.Create(context.Background(), chatID, &command.Create{
		Reminders: []command.ReminderInput{
			{Text: "first", DayReference: command.DayToday},
			{Text: "second", DayReference: command.DayToday, TimeValue: "20:00", ExplicitTimeProvided: true},
		},
	}, now)
	require.NoError(t, err)

	n := 1
	deleted, err := svc.Delete(context.Background(), chatID, &command.Delete{
		Mode: command.DeleteModeLastN, LastN: &n,
	}, now)
	require.NoError(t, err)

	require.Len(t, deleted, 1)
	assert.Equal(t, "second", deleted[0].Text)
	assert.Equal(t, models.StatusPending, store.rows[0].Status)
}

func TestDeleteLastNHonorsFilters(t *testing.T) {
	svc, store, _ := newTestService()
	now := serviceNow()

	_, err := svc.Create(context.Background(), chatID, &command.Create{
		Reminders: []command.ReminderInput{
			{Text: "dentist appointment", DayReference: command.DayToday},
			{Text: "pay rent", DayReference: command.DayToday, TimeValue: "20:00", ExplicitTimeProvided: true},
		},
	}, now)
	require.NoError(t, err)

	n := 1
	deleted, err := svc.Delete(context.Background(), chatID, &command.Delete{
		Mode: command.DeleteModeLastN, LastN: &n, SearchText: "dentist",
	}, now)
	require.NoError(t, err)

	require.Len(t, deleted, 1)
	assert.Equal(t, "dentist appointment", deleted[0].Text,
		"the last matching row is selected, not the last row overall")
	assert.Equal(t, models.StatusDeleted, store.rows[0].Status)
	assert.Equal(t, models.StatusPending, store.rows[1].Status)
}
