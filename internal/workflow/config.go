package workflow

import (
	"fmt"

	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// Column describes one Kanban column and the moves allowed out of it.
type Column struct {
	Status             enums.ShiftStatus   `json:"status"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	Color              string              `json:"color"`
	AllowedTransitions []enums.ShiftStatus `json:"allowedTransitions"`
	RequiresValidation bool                `json:"requiresValidation"`
}

// Config is the immutable column table used by the validator and executor.
// Build it with DefaultConfig or NewConfig and pass it by value.
type Config struct {
	order   []enums.ShiftStatus
	columns map[enums.ShiftStatus]Column
}

// DefaultConfig returns the standard seven-column shift board.
func DefaultConfig() Config {
	cfg, err := NewConfig([]Column{
		{
			Status:             enums.ShiftStatusUnassigned,
			Title:              "Unassigned",
			Description:        "Shifts waiting for a guard",
			Color:              "gray",
			AllowedTransitions: []enums.ShiftStatus{enums.ShiftStatusAssigned, enums.ShiftStatusArchived},
			RequiresValidation: true,
		},
		{
			Status:      enums.ShiftStatusAssigned,
			Title:       "Assigned",
			Description: "Guard booked, awaiting confirmation",
			Color:       "blue",
			AllowedTransitions: []enums.ShiftStatus{
				enums.ShiftStatusConfirmed,
				enums.ShiftStatusUnassigned,
				enums.ShiftStatusIssueLogged,
				enums.ShiftStatusArchived,
			},
			RequiresValidation: true,
		},
		{
			Status:      enums.ShiftStatusConfirmed,
			Title:       "Confirmed",
			Description: "Guard confirmed attendance",
			Color:       "green",
			AllowedTransitions: []enums.ShiftStatus{
				enums.ShiftStatusInProgress,
				enums.ShiftStatusAssigned,
				enums.ShiftStatusUnassigned,
				enums.ShiftStatusIssueLogged,
			},
			RequiresValidation: true,
		},
		{
			Status:             enums.ShiftStatusInProgress,
			Title:              "In Progress",
			Description:        "Guard on site",
			Color:              "yellow",
			AllowedTransitions: []enums.ShiftStatus{enums.ShiftStatusCompleted, enums.ShiftStatusIssueLogged},
			RequiresValidation: true,
		},
		{
			Status:             enums.ShiftStatusCompleted,
			Title:              "Completed",
			Description:        "Shift finished",
			Color:              "emerald",
			AllowedTransitions: []enums.ShiftStatus{enums.ShiftStatusArchived, enums.ShiftStatusIssueLogged},
			RequiresValidation: false,
		},
		{
			Status:      enums.ShiftStatusIssueLogged,
			Title:       "Issue Logged",
			Description: "Incident or no-show needs follow-up",
			Color:       "red",
			AllowedTransitions: []enums.ShiftStatus{
				enums.ShiftStatusUnassigned,
				enums.ShiftStatusAssigned,
				enums.ShiftStatusCompleted,
				enums.ShiftStatusArchived,
			},
			RequiresValidation: true,
		},
		{
			Status:             enums.ShiftStatusArchived,
			Title:              "Archived",
			Description:        "Closed shifts",
			Color:              "slate",
			AllowedTransitions: nil,
			RequiresValidation: false,
		},
	})
	if err != nil {
		panic(err)
	}
	return cfg
}

// NewConfig checks the column table and copies it into an immutable Config.
// Every status must appear exactly once, destinations must be known statuses,
// self loops are rejected and archived must stay terminal.
func NewConfig(columns []Column) (Config, error) {
	cfg := Config{
		order:   make([]enums.ShiftStatus, 0, len(columns)),
		columns: make(map[enums.ShiftStatus]Column, len(columns)),
	}
	for _, col := range columns {
		if !col.Status.IsValid() {
			return Config{}, fmt.Errorf("workflow column has invalid status %q", col.Status)
		}
		if _, dup := cfg.columns[col.Status]; dup {
			return Config{}, fmt.Errorf("workflow column %q defined twice", col.Status)
		}
		allowed := make([]enums.ShiftStatus, 0, len(col.AllowedTransitions))
		for _, to := range col.AllowedTransitions {
			if !to.IsValid() {
				return Config{}, fmt.Errorf("workflow column %q allows invalid status %q", col.Status, to)
			}
			if to == col.Status {
				return Config{}, fmt.Errorf("workflow column %q declares a self transition", col.Status)
			}
			allowed = append(allowed, to)
		}
		col.AllowedTransitions = allowed
		cfg.columns[col.Status] = col
		cfg.order = append(cfg.order, col.Status)
	}
	for _, status := range enums.ShiftStatuses() {
		if _, ok := cfg.columns[status]; !ok {
			return Config{}, fmt.Errorf("workflow column %q missing", status)
		}
	}
	if n := len(cfg.columns[enums.ShiftStatusArchived].AllowedTransitions); n > 0 {
		return Config{}, fmt.Errorf("archived must be terminal, found %d transitions", n)
	}
	return cfg, nil
}

// Columns returns the columns in board order.
func (c Config) Columns() []Column {
	out := make([]Column, 0, len(c.order))
	for _, status := range c.order {
		col, _ := c.Column(status)
		out = append(out, col)
	}
	return out
}

// Column returns a copy of the column definition for status.
func (c Config) Column(status enums.ShiftStatus) (Column, bool) {
	col, ok := c.columns[status]
	if !ok {
		return Column{}, false
	}
	col.AllowedTransitions = append([]enums.ShiftStatus(nil), col.AllowedTransitions...)
	return col, true
}

// AllowedFrom lists the destinations reachable from status.
func (c Config) AllowedFrom(status enums.ShiftStatus) []enums.ShiftStatus {
	col, ok := c.Column(status)
	if !ok {
		return nil
	}
	return col.AllowedTransitions
}

// Allowed reports whether from -> to is a declared edge.
func (c Config) Allowed(from, to enums.ShiftStatus) bool {
	col, ok := c.columns[from]
	if !ok {
		return false
	}
	for _, candidate := range col.AllowedTransitions {
		if candidate == to {
			return true
		}
	}
	return false
}

// RequiresValidation reports whether moves out of status run business rules.
func (c Config) RequiresValidation(status enums.ShiftStatus) bool {
	return c.columns[status].RequiresValidation
}

// IsTerminal reports whether status has no outgoing edges.
func (c Config) IsTerminal(status enums.ShiftStatus) bool {
	col, ok := c.columns[status]
	return ok && len(col.AllowedTransitions) == 0
}
