// Package command defines the typed commands the NLU gateway produces
// from model output. The wire contract is a JSON object discriminated by
// a "command" field into create/list/delete variants; each variant's
// field constraints are validated here, at the boundary.
package command

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Name string

const (
	NameCreate Name = "create_reminders"
	NameList   Name = "list_reminders"
	NameDelete Name = "delete_reminders"
)

type DayReference string

const (
	DayToday         DayReference = "today"
	DayTomorrow      DayReference = "tomorrow"
	DayAfterTomorrow DayReference = "day_after_tomorrow"
	DayWeekday       DayReference = "weekday"
	DaySpecificDate  DayReference = "specific_date"
)

// List/Delete modes.
const (
	ListModeAll    = "all"
	ListModeToday  = "today"
	ListModeStatus = "status"
	ListModeSearch = "search"
	ListModeRange  = "range"

	DeleteModeFilter = "filter"
	DeleteModeLastN  = "last_n"
)

// Command is the tagged union of the three assistant commands.
type Command interface {
	CommandName() Name
}

// ReminderInput is one reminder spec inside a create command. Either
// RunAt or DayReference must be present. Weekday uses 0=Monday..6=Sunday.
type ReminderInput struct {
	Text                 string       `json:"text" validate:"required,max=1000"`
	RunAt                *Timestamp   `json:"run_at,omitempty"`
	RecurrenceRule       string       `json:"recurrence_rule,omitempty" validate:"max=255"`
	DayReference         DayReference `json:"day_reference,omitempty" validate:"omitempty,oneof=today tomorrow day_after_tomorrow weekday specific_date"`
	Weekday              *int         `json:"weekday,omitempty" validate:"omitempty,min=0,max=6"`
	DateValue            *Date        `json:"date_value,omitempty"`
	TimeValue            string       `json:"time_value,omitempty"`
	ExplicitTimeProvided bool         `json:"explicit_time_provided"`
}

type Create struct {
	Command   Name            `json:"command"`
	Reminders []ReminderInput `json:"reminders" validate:"required,min=1,max=30,dive"`
}

func (c *Create) CommandName() Name { return NameCreate }

type List struct {
	Command    Name       `json:"command"`
	Mode       string     `json:"mode,omitempty" validate:"omitempty,oneof=all today status search range"`
	Status     string     `json:"status,omitempty" validate:"omitempty,oneof=pending done deleted"`
	SearchText string     `json:"search_text,omitempty"`
	From       *Timestamp `json:"from_dt,omitempty"`
	To         *Timestamp `json:"to_dt,omitempty"`
}

func (c *List) CommandName() Name { return NameList }

// HasFilters reports whether any narrowing filter is set.
func (c *List) HasFilters() bool {
	return c.Status != "" || c.SearchText != "" || c.From != nil || c.To != nil
}

type Delete struct {
	Command          Name       `json:"command"`
	Mode             string     `json:"mode,omitempty" validate:"omitempty,oneof=filter last_n"`
	LastN            *int       `json:"last_n,omitempty" validate:"omitempty,min=1,max=100"`
	ReminderID       *int64     `json:"reminder_id,omitempty"`
	Status           string     `json:"status,omitempty" validate:"omitempty,oneof=pending done deleted"`
	SearchText       string     `json:"search_text,omitempty"`
	From             *Timestamp `json:"from_dt,omitempty"`
	To               *Timestamp `json:"to_dt,omitempty"`
	ConfirmDeleteAll bool       `json:"confirm_delete_all,omitempty"`
}

func (c *Delete) CommandName() Name { return NameDelete }

// HasFilters reports whether any narrowing filter is set.
func (c *Delete) HasFilters() bool {
	return c.ReminderID != nil || c.Status != "" || c.SearchText != "" || c.From != nil || c.To != nil
}

// ErrInvalid wraps every schema violation so callers can match the whole
// class with errors.Is.
var ErrInvalid = errors.New("invalid command")

var validate = validator.New()

// Parse decodes and validates a raw JSON command payload. A legacy
// compatibility rewrite runs before validation: the old status_filter key
// maps onto status, and the retired canceled status maps onto deleted.
func Parse(raw []byte) (Command, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object: %v", ErrInvalid, err)
	}
	rewriteLegacyFields(envelope)

	var name Name
	if rawName, ok := envelope["command"]; ok {
		if err := json.Unmarshal(rawName, &name); err != nil {
			return nil, fmt.Errorf("%w: command field is not a string", ErrInvalid)
		}
	}

	rewritten, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var cmd Command
	switch name {
	case NameCreate:
		cmd = &Create{}
	case NameList:
		cmd = &List{}
	case NameDelete:
		cmd = &Delete{}
	default:
		return nil, fmt.Errorf("%w: unknown command %q", ErrInvalid, string(name))
	}
	if err := json.Unmarshal(rewritten, cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	applyDefaults(cmd)
	if err := Validate(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

func applyDefaults(cmd Command) {
	switch c := cmd.(type) {
	case *List:
		if c.Mode == "" {
			c.Mode = ListModeAll
		}
	case *Delete:
		if c.Mode == "" {
			c.Mode = DeleteModeFilter
		}
	}
}

// Validate checks field constraints plus the cross-field rules the tags
// cannot express.
func Validate(cmd Command) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c := cmd.(type) {
	case *Create:
		for i := range c.Reminders {
			if err := validateReminderInput(&c.Reminders[i]); err != nil {
				return fmt.Errorf("%w: reminders[%d]: %v", ErrInvalid, i, err)
			}
		}
	case *Delete:
		if c.Mode == DeleteModeLastN && c.LastN == nil {
			return fmt.Errorf("%w: last_n is required when mode=last_n", ErrInvalid)
		}
	}
	return nil
}

func validateReminderInput(r *ReminderInput) error {
	if r.RunAt == nil && r.DayReference == "" {
		return errors.New("either run_at or day_reference must be provided")
	}
	if r.DayReference != DayWeekday && r.Weekday != nil {
		return errors.New("weekday is only allowed when day_reference=weekday")
	}
	if r.DayReference != DaySpecificDate && r.DateValue != nil {
		return errors.New("date_value is only allowed when day_reference=specific_date")
	}
	if r.DayReference == DayWeekday && r.Weekday == nil {
		return errors.New("weekday is required when day_reference=weekday")
	}
	if r.DayReference == DaySpecificDate && r.DateValue == nil {
		return errors.New("date_value is required when day_reference=specific_date")
	}
	return nil
}

// rewriteLegacyFields maps retired wire fields onto their current names
// in place.
func rewriteLegacyFields(envelope map[string]json.RawMessage) {
	if legacy, ok := envelope["status_filter"]; ok {
		if _, exists := envelope["status"]; !exists {
			envelope["status"] = legacy
		}
		delete(envelope, "status_filter")
	}
	if rawStatus, ok := envelope["status"]; ok {
		var status string
		if err := json.Unmarshal(rawStatus, &status); err == nil && status == "canceled" {
			envelope["status"], _ = json.Marshal("deleted")
		}
	}
}
