package core

import (
	"fmt"
	"sort"
	"time"
)

// AlertType classifies a parent portal alert.
type AlertType string

const (
	AlertAbsence  AlertType = "absence"
	AlertBehavior AlertType = "behavior"
	AlertGrade    AlertType = "grade"
	AlertAspect   AlertType = "aspect"
)

// AlertSeverity ranks how urgently an alert should be surfaced.
type AlertSeverity string

const (
	AlertHigh   AlertSeverity = "high"
	AlertMedium AlertSeverity = "medium"
)

// Alert is one notification for the parent portal. IDs are deterministic per
// (type, student, date) so a dismissed alert stays dismissed when the list is
// recomputed.
type Alert struct {
	ID          string        `json:"id"`
	StudentName string        `json:"studentName"`
	Type        AlertType     `json:"type"`
	Message     string        `json:"message"`
	Severity    AlertSeverity `json:"severity"`
}

// ParentAlerts inspects the latest register entry of each child linked to the
// parent account and derives notifications: an absence marked today, poor
// conduct, a D grade, or grooming that needs follow-up. Only the most recent
// entry per child is considered, so stale history never alarms anyone.
func (s *Service) ParentAlerts(parentID string, now time.Time) []Alert {
	today := now.UTC().Format(dateLayout)

	var alerts []Alert
	for _, child := range s.StudentsByParent(parentID) {
		latest, ok := s.latestAttendance(child.ID)
		if !ok {
			continue
		}

		if latest.Status == StatusAbsent && latest.Date == today {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("abs-%s-%s", child.ID, latest.Date),
				StudentName: child.Name,
				Type:        AlertAbsence,
				Message:     fmt.Sprintf("%s a été marqué absent aujourd'hui.", child.Name),
				Severity:    AlertHigh,
			})
		}
		if latest.Status != StatusPresent {
			continue
		}
		if latest.Conduite == LevelMauvais {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("beh-%s-%s", child.ID, latest.Date),
				StudentName: child.Name,
				Type:        AlertBehavior,
				Message:     fmt.Sprintf("Attention : La conduite de %s a été jugée insatisfaisante aujourd'hui.", child.Name),
				Severity:    AlertHigh,
			})
		}
		if latest.ABCD == GradeD {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("grd-%s-%s", child.ID, latest.Date),
				StudentName: child.Name,
				Type:        AlertGrade,
				Message:     fmt.Sprintf("Alerte : %s a reçu une note D aujourd'hui.", child.Name),
				Severity:    AlertHigh,
			})
		}
		if latest.Aspect == LevelMauvais {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("asp-%s-%s", child.ID, latest.Date),
				StudentName: child.Name,
				Type:        AlertAspect,
				Message:     fmt.Sprintf("Note : La tenue de %s nécessite un suivi.", child.Name),
				Severity:    AlertMedium,
			})
		}
	}
	return alerts
}

// latestAttendance returns the child's most recent register entry by date.
// ISO day strings sort lexicographically, so string comparison suffices.
func (s *Service) latestAttendance(studentID string) (Attendance, bool) {
	records := make([]Attendance, 0, 8)
	for _, record := range s.store.ListAttendance() {
		if record.StudentID == studentID {
			records = append(records, record)
		}
	}
	if len(records) == 0 {
		return Attendance{}, false
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	return records[0], true
}
