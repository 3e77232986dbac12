package reminder

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"remindbot/internal/command"
	"remindbot/internal/models"
	"remindbot/internal/repository"
	"remindbot/internal/schedule"
)

// ReminderStore is the storage surface the service needs.
type ReminderStore interface {
	CreateMany(ctx context.Context, reminders []*models.Reminder) ([]*models.Reminder, error)
	List(ctx context.Context, chatID int64, filter repository.Filter) ([]*models.Reminder, error)
	ListLastN(ctx context.Context, chatID int64, n int, filter repository.Filter) ([]*models.Reminder, error)
	MarkDeleted(ctx context.Context, ids []int64) (int64, error)
}

// SeriesStore persists recurring-series records.
type SeriesStore interface {
	Create(ctx context.Context, series *models.ReminderSeries) error
}

// Service implements the create/list/delete command semantics on top of
// storage and the scheduling resolver. All timestamps handed to storage
// are UTC; interpretation happens in loc.
type Service struct {
	reminders ReminderStore
	series    SeriesStore
	loc       *time.Location
	logger    zerolog.Logger
}

func NewService(reminders ReminderStore, series SeriesStore, loc *time.Location, logger zerolog.Logger) *Service {
	return &Service{reminders: reminders, series: series, loc: loc, logger: logger}
}

// Create resolves, expands and persists every reminder in the command.
// Recurring inputs get a series record first; occurrences scheduled at
// least a local calendar day out get a hidden companion one hour ahead.
// The returned slice contains only user-visible occurrences.
func (s *Service) Create(ctx context.Context, chatID int64, cmd *command.Create, now time.Time) ([]*models.Reminder, error) {
	now = now.In(s.loc)

	var rows []*models.Reminder
	for i := range cmd.Reminders {
		input := &cmd.Reminders[i]
		runAt, err := schedule.ResolveRunAt(input, now)
		if err != nil {
			return nil, err
		}

		rule := strings.TrimSpace(input.RecurrenceRule)
		occurrences := []time.Time{runAt}
		var seriesID *string
		if schedule.IsRecurring(rule) {
			id := uuid.NewString()
			if err := s.series.Create(ctx, &models.ReminderSeries{
				SeriesID:       id,
				ChatID:         chatID,
				SourceText:     input.Text,
				RecurrenceRule: rule,
			}); err != nil {
				return nil, err
			}
			seriesID = &id
			occurrences = schedule.Expand(runAt, rule)
		}

		for _, occ := range occurrences {
			rows = append(rows, &models.Reminder{
				ChatID:   chatID,
				Text:     input.Text,
				RunAt:    occ.UTC(),
				Status:   models.StatusPending,
				SeriesID: seriesID,
			})
			if s.needsPreNotify(occ, now) {
				rows = append(rows, &models.Reminder{
					ChatID:   chatID,
					Text:     PreNotifyText(input.Text),
					RunAt:    occ.Add(-time.Hour).UTC(),
					Status:   models.StatusPending,
					SeriesID: seriesID,
				})
			}
		}
	}

	created, err := s.reminders.CreateMany(ctx, rows)
	if err != nil {
		return nil, err
	}

	visible := created[:0]
	for _, r := range created {
		if !IsPreNotify(r.Text) {
			visible = append(visible, r)
		}
	}
	return visible, nil
}

// needsPreNotify is true when the occurrence falls on a later local
// calendar day than now. Same-day occurrences get no advance warning.
func (s *Service) needsPreNotify(occ, now time.Time) bool {
	occ = occ.In(s.loc)
	oy, om, od := occ.Date()
	ny, nm, nd := now.Date()
	return time.Date(oy, om, od, 0, 0, 0, 0, s.loc).After(time.Date(ny, nm, nd, 0, 0, 0, 0, s.loc))
}

// List returns user-visible reminders matching the command.
func (s *Service) List(ctx context.Context, chatID int64, cmd *command.List, now time.Time) ([]*models.Reminder, error) {
	filter := s.buildFilter(cmd.Status, cmd.SearchText, cmd.From, cmd.To)
	if cmd.Mode == command.ListModeToday {
		from, to := s.dayBounds(now)
		filter.From, filter.To = &from, &to
	}
	filter.ExcludeTextPrefix = preNotifyMarker
	return s.reminders.List(ctx, chatID, filter)
}

// Delete soft-deletes matching reminders and returns the user-visible
// rows that were removed. Filter mode with no filters and no explicit
// confirmation is a no-op. Hidden companions of deleted occurrences are
// removed alongside but never reported.
func (s *Service) Delete(ctx context.Context, chatID int64, cmd *command.Delete, now time.Time) ([]*models.Reminder, error) {
	filter := s.buildFilter(cmd.Status, cmd.SearchText, cmd.From, cmd.To)
	filter.ID = cmd.ReminderID
	filter.ExcludeTextPrefix = preNotifyMarker

	var visible []*models.Reminder
	var err error
	switch {
	case cmd.Mode == command.DeleteModeLastN:
		n := 0
		if cmd.LastN != nil {
			n = *cmd.LastN
		}
		visible, err = s.reminders.ListLastN(ctx, chatID, n, filter)
	case !cmd.HasFilters() && !cmd.ConfirmDeleteAll:
		return nil, nil
	default:
		visible, err = s.reminders.List(ctx, chatID, filter)
	}
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(visible))
	for _, r := range visible {
		ids = append(ids, r.ID)
	}
	companions, err := s.findCompanions(ctx, chatID, visible)
	if err != nil {
		s.logger.Warn().Err(err).Msg("companion lookup failed, deleting visible rows only")
	} else {
		ids = append(ids, companions...)
	}

	if _, err := s.reminders.MarkDeleted(ctx, ids); err != nil {
		return nil, err
	}
	return visible, nil
}

// findCompanions locates the hidden one-hour-ahead rows belonging to the
// given occurrences. A companion matches on text and trigger time.
func (s *Service) findCompanions(ctx context.Context, chatID int64, targets []*models.Reminder) ([]int64, error) {
	from, to := targets[0].RunAt, targets[0].RunAt
	for _, r := range targets[1:] {
		if r.RunAt.Before(from) {
			from = r.RunAt
		}
		if r.RunAt.After(to) {
			to = r.RunAt
		}
	}
	from = from.Add(-time.Hour)

	candidates, err := s.reminders.List(ctx, chatID, repository.Filter{
		SearchText: preNotifyMarker,
		From:       &from,
		To:         &to,
	})
	if err != nil {
		return nil, err
	}

	var ids []int64
	for _, c := range candidates {
		if !IsPreNotify(c.Text) {
			continue
		}
		for _, t := range targets {
			if UnwrapPreNotify(c.Text) == t.Text && c.RunAt.Equal(t.RunAt.Add(-time.Hour)) {
				ids = append(ids, c.ID)
				break
			}
		}
	}
	return ids, nil
}

func (s *Service) buildFilter(status, searchText string, from, to *command.Timestamp) repository.Filter {
	filter := repository.Filter{SearchText: searchText}
	if status != "" {
		filter.Status = models.ReminderStatus(status)
		filter.IncludeDeleted = status == string(models.StatusDeleted)
	}
	if from != nil {
		t := from.In(s.loc)
		filter.From = &t
	}
	if to != nil {
		t := to.In(s.loc)
		filter.To = &t
	}
	return filter
}

// dayBounds returns the inclusive bounds of now's local calendar day.
func (s *Service) dayBounds(now time.Time) (time.Time, time.Time) {
	now = now.In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return start, start.Add(24*time.Hour - time.Microsecond)
}
