package alerts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// Snapshot is everything the rule table needs to know about one shift.
type Snapshot struct {
	Shift             models.Shift
	HoursUntilShift   float64
	ActiveAssignments int
	HasConfirmed      bool
	Guard             *models.Guard
	// RiskScore is nil when the no-show model was not consulted.
	RiskScore *float64
}

// Candidate is an alert the rule table wants open for a shift.
type Candidate struct {
	Type     enums.AlertType
	Priority enums.AlertPriority
	Message  string
	Level    int
}

// RuleConfig holds the tunable rule thresholds.
type RuleConfig struct {
	NoShowThreshold float64
}

const (
	unassignedWindowHours   = 24
	unconfirmedWindowHours  = 12
	noShowWindowHours       = 2
	understaffedWindowHours = 24
)

// NeedsRiskScore reports whether the no-show rule could fire for the shift,
// so callers only pay for scoring when it matters.
func NeedsRiskScore(shift models.Shift, hoursUntil float64) bool {
	if shift.AssignedGuardID == nil {
		return false
	}
	return staffedStatus(shift.Status) && hoursUntil <= noShowWindowHours
}

// Evaluate applies every alert rule to the snapshot independently.
func Evaluate(s Snapshot, cfg RuleConfig) []Candidate {
	h := s.HoursUntilShift
	if h < 0 {
		return nil
	}
	var out []Candidate

	if s.Shift.Status == enums.ShiftStatusUnassigned && h <= unassignedWindowHours {
		priority := enums.AlertPriorityHigh
		if h <= 6 {
			priority = enums.AlertPriorityCritical
		}
		out = append(out, Candidate{
			Type:     enums.AlertTypeUnassigned24h,
			Priority: priority,
			Message:  fmt.Sprintf("Shift %q starts in %.1f hours and has no guard assigned", s.Shift.Title, h),
			Level:    EscalationLevel(enums.AlertTypeUnassigned24h, h),
		})
	}

	if s.Shift.Status == enums.ShiftStatusAssigned && h <= unconfirmedWindowHours && !s.HasConfirmed {
		priority := enums.AlertPriorityMedium
		if h <= 4 {
			priority = enums.AlertPriorityHigh
		}
		out = append(out, Candidate{
			Type:     enums.AlertTypeUnconfirmed12h,
			Priority: priority,
			Message:  fmt.Sprintf("Shift %q starts in %.1f hours and the guard has not confirmed", s.Shift.Title, h),
			Level:    EscalationLevel(enums.AlertTypeUnconfirmed12h, h),
		})
	}

	if staffedStatus(s.Shift.Status) && h <= noShowWindowHours && s.RiskScore != nil && *s.RiskScore > cfg.NoShowThreshold {
		out = append(out, Candidate{
			Type:     enums.AlertTypeNoShowRisk,
			Priority: enums.AlertPriorityCritical,
			Message:  fmt.Sprintf("Assigned guard has a no-show risk of %.2f for shift %q", *s.RiskScore, s.Shift.Title),
			Level:    1,
		})
	}

	required := s.Shift.RequiredGuards
	if required < 1 {
		required = 1
	}
	if staffedStatus(s.Shift.Status) && h <= understaffedWindowHours && s.ActiveAssignments < required {
		priority := enums.AlertPriorityMedium
		if h <= 6 {
			priority = enums.AlertPriorityHigh
		}
		out = append(out, Candidate{
			Type:     enums.AlertTypeUnderstaffed,
			Priority: priority,
			Message:  fmt.Sprintf("Shift %q has %d of %d required guards", s.Shift.Title, s.ActiveAssignments, required),
			Level:    1,
		})
	}

	if s.Guard != nil {
		if missing := MissingCertifications(s.Shift.RequiredCertifications, s.Guard.Certifications); len(missing) > 0 {
			out = append(out, Candidate{
				Type:     enums.AlertTypeCertificationGap,
				Priority: enums.AlertPriorityHigh,
				Message:  fmt.Sprintf("Guard %s is missing certifications: %s", s.Guard.FullName, strings.Join(missing, ", ")),
				Level:    1,
			})
		}
	}
	return out
}

// EscalationLevel maps hours remaining to the escalation tier of a time
// driven alert. Types without tiers always sit at level 1.
func EscalationLevel(alertType enums.AlertType, hoursUntil float64) int {
	var tiers [2]float64
	switch alertType {
	case enums.AlertTypeUnassigned24h:
		tiers = [2]float64{6, 2}
	case enums.AlertTypeUnconfirmed12h:
		tiers = [2]float64{4, 1}
	default:
		return 1
	}
	switch {
	case hoursUntil <= tiers[1]:
		return 3
	case hoursUntil <= tiers[0]:
		return 2
	default:
		return 1
	}
}

// MissingCertifications returns the required certifications the guard lacks,
// compared case-insensitively and sorted.
func MissingCertifications(required, held []string) []string {
	have := make(map[string]struct{}, len(held))
	for _, c := range held {
		have[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	seen := map[string]struct{}{}
	var missing []string
	for _, c := range required {
		key := strings.ToLower(strings.TrimSpace(c))
		if key == "" {
			continue
		}
		if _, ok := have[key]; ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		missing = append(missing, key)
	}
	sort.Strings(missing)
	return missing
}

func staffedStatus(status enums.ShiftStatus) bool {
	return status == enums.ShiftStatusAssigned || status == enums.ShiftStatusConfirmed
}

// higherPriority returns whichever priority ranks more urgent.
func higherPriority(a, b enums.AlertPriority) enums.AlertPriority {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
