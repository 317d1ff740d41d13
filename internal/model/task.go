package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyTitle is returned when a draft is submitted without a title.
var ErrEmptyTitle = errors.New("title cannot be empty")

// Priority is the urgency bucket the server stores for a task.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Priorities lists every accepted priority, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority accepts any casing of LOW, MEDIUM or HIGH. Empty means LOW.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return PriorityLow, nil
	}
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q (want LOW, MEDIUM or HIGH)", s)
}

// Next cycles LOW -> MEDIUM -> HIGH -> LOW.
func (p Priority) Next() Priority {
	for i, q := range Priorities {
		if q == p {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityLow
}

// Task is a server-owned task record. ID is assigned by the server.
type Task struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"dueDate,omitempty"`
	Priority    Priority `json:"priority"`
	Completed   bool     `json:"completed"`
}

// Draft carries the editable fields of a task. It is the body of both
// create and update requests.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"dueDate"`
	Priority    Priority `json:"priority"`
}

// Normalize trims the title and defaults the priority.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	if d.Priority == "" {
		d.Priority = PriorityLow
	}
	return d
}

// Validate reports whether the draft can be submitted.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// DraftFromTask prefills an edit form.
func DraftFromTask(t Task) Draft {
	return Draft{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
	}
}

// dueLayout matches what browsers produce for Date.toISOString.
const dueLayout = "2006-01-02T15:04:05.000Z07:00"

// ParseDueDate accepts YYYY-MM-DD or RFC 3339 and returns the ISO-8601
// form sent to the server. Blank input means no due date.
func ParseDueDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC().Format(dueLayout), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", fmt.Errorf("due date %q: want YYYY-MM-DD", s)
	}
	return t.UTC().Format(dueLayout), nil
}
