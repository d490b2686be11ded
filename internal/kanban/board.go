package kanban

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/internal/alerts"
	"github.com/angelmondragon/guardforce-backend/internal/shifts"
	"github.com/angelmondragon/guardforce-backend/internal/workflow"
	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
)

const (
	DefaultBottleneckRatio = 0.2
	DefaultShiftLimit      = 500
)

type boardShiftReader interface {
	ListForBoard(ctx context.Context, filters shifts.BoardFilters) ([]models.Shift, error)
}

type openAlertReader interface {
	ListOpenForShifts(ctx context.Context, shiftIDs []uuid.UUID) ([]models.UrgencyAlert, error)
}

// Filters narrows the board. Every field is optional.
type Filters struct {
	From       *time.Time
	To         *time.Time
	ClientID   *uuid.UUID
	SiteID     *uuid.UUID
	GuardID    *uuid.UUID
	Statuses   []enums.ShiftStatus
	Priority   *int
	Assigned   *bool
	UrgentOnly bool
}

// ColumnView is one board column with the shifts currently in it.
type ColumnView struct {
	workflow.Column
	Shifts     []shifts.ShiftDTO `json:"shifts"`
	Count      int               `json:"count"`
	Bottleneck bool              `json:"bottleneck"`
}

// Metrics summarises the shifts on the board.
type Metrics struct {
	TotalShifts    int                       `json:"totalShifts"`
	ByStatus       map[enums.ShiftStatus]int `json:"byStatus"`
	CompletionRate float64                   `json:"completionRate"`
	UrgentAlerts   int                       `json:"urgentAlerts"`
	Bottlenecks    []enums.ShiftStatus       `json:"bottlenecks"`
}

// BoardData is the read-only Kanban board payload.
type BoardData struct {
	Columns     []ColumnView      `json:"columns"`
	Alerts      []alerts.AlertDTO `json:"alerts"`
	Metrics     Metrics           `json:"metrics"`
	Truncated   bool              `json:"truncated"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// AssemblerParams wires an Assembler.
type AssemblerParams struct {
	Config          workflow.Config
	Shifts          boardShiftReader
	Alerts          openAlertReader
	BottleneckRatio float64
	ShiftLimit      int
	Now             func() time.Time
}

// Assembler composes columns, shifts, open alerts and metrics. It never
// writes.
type Assembler struct {
	cfg        workflow.Config
	shifts     boardShiftReader
	alerts     openAlertReader
	ratio      float64
	shiftLimit int
	now        func() time.Time
}

// NewAssembler builds a board assembler.
func NewAssembler(params AssemblerParams) (*Assembler, error) {
	if params.Shifts == nil {
		return nil, fmt.Errorf("shift reader required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alert reader required")
	}
	if len(params.Config.Columns()) == 0 {
		return nil, fmt.Errorf("workflow config required")
	}
	ratio := params.BottleneckRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = DefaultBottleneckRatio
	}
	limit := params.ShiftLimit
	if limit <= 0 {
		limit = DefaultShiftLimit
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Assembler{
		cfg:        params.Config,
		shifts:     params.Shifts,
		alerts:     params.Alerts,
		ratio:      ratio,
		shiftLimit: limit,
		now:        now,
	}, nil
}

// GetKanbanBoardData builds the board for managerID (all managers when nil).
func (a *Assembler) GetKanbanBoardData(ctx context.Context, managerID *string, filters Filters) (*BoardData, error) {
	for _, st := range filters.Statuses {
		if !st.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidStatus, fmt.Sprintf("invalid status filter %q", st))
		}
	}
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "date range end is before its start")
	}

	rows, err := a.shifts.ListForBoard(ctx, shifts.BoardFilters{
		ManagerID:  managerID,
		From:       filters.From,
		To:         filters.To,
		ClientID:   filters.ClientID,
		SiteID:     filters.SiteID,
		GuardID:    filters.GuardID,
		Statuses:   filters.Statuses,
		Priority:   filters.Priority,
		Assigned:   filters.Assigned,
		UrgentOnly: filters.UrgentOnly,
		Limit:      a.shiftLimit + 1,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load board shifts")
	}
	truncated := len(rows) > a.shiftLimit
	if truncated {
		rows = rows[:a.shiftLimit]
	}

	open := []models.UrgencyAlert{}
	if len(rows) > 0 {
		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		open, err = a.alerts.ListOpenForShifts(ctx, ids)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load board alerts")
		}
	}

	byStatus := make(map[enums.ShiftStatus][]shifts.ShiftDTO)
	for i := range rows {
		dto := shifts.FromModel(&rows[i])
		byStatus[dto.Status] = append(byStatus[dto.Status], *dto)
	}

	metrics := computeMetrics(a.cfg, byStatus, len(rows), open, a.ratio)
	flagged := make(map[enums.ShiftStatus]bool, len(metrics.Bottlenecks))
	for _, st := range metrics.Bottlenecks {
		flagged[st] = true
	}

	columns := make([]ColumnView, 0, len(a.cfg.Columns()))
	for _, col := range a.cfg.Columns() {
		items := byStatus[col.Status]
		if items == nil {
			items = []shifts.ShiftDTO{}
		}
		columns = append(columns, ColumnView{
			Column:     col,
			Shifts:     items,
			Count:      len(items),
			Bottleneck: flagged[col.Status],
		})
	}

	return &BoardData{
		Columns:     columns,
		Alerts:      alerts.FromModels(open),
		Metrics:     metrics,
		Truncated:   truncated,
		GeneratedAt: a.now().UTC(),
	}, nil
}

func computeMetrics(cfg workflow.Config, byStatus map[enums.ShiftStatus][]shifts.ShiftDTO, total int, open []models.UrgencyAlert, ratio float64) Metrics {
	m := Metrics{
		TotalShifts: total,
		ByStatus:    make(map[enums.ShiftStatus]int, len(cfg.Columns())),
		Bottlenecks: []enums.ShiftStatus{},
	}
	for _, col := range cfg.Columns() {
		count := len(byStatus[col.Status])
		m.ByStatus[col.Status] = count
		if total > 0 && float64(count)/float64(total) > ratio {
			m.Bottlenecks = append(m.Bottlenecks, col.Status)
		}
	}
	if total > 0 {
		done := m.ByStatus[enums.ShiftStatusCompleted] + m.ByStatus[enums.ShiftStatusArchived]
		m.CompletionRate = math.Round(float64(done)/float64(total)*1000) / 10
	}
	for _, alert := range open {
		if alert.Status.Urgent() {
			m.UrgentAlerts++
		}
	}
	return m
}
