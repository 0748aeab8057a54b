package core

import (
	"context"
	"fmt"
	"time"

	"scolarcore/internal/insights"
)

// insightFallback is shown whenever no generated message is available.
const insightFallback = insights.Fallback

// dateLayout is the ISO day format used throughout the register.
const dateLayout = "2006-01-02"

// WeekDates returns the six school days (Monday through Saturday) of the week
// containing reference, as ISO day strings. Sundays belong to the week that
// ended the day before.
func WeekDates(reference time.Time) []string {
	offset := int(reference.Weekday()) - int(time.Monday)
	if reference.Weekday() == time.Sunday {
		offset = 6
	}
	monday := reference.AddDate(0, 0, -offset)
	dates := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		dates = append(dates, monday.AddDate(0, 0, i).Format(dateLayout))
	}
	return dates
}

// TogglePresence flips a student's register entry for the day: absent (or
// unmarked) becomes present, present becomes absent. A fresh entry starts
// with default observations (aspect and conduite "bien", grade A); toggling
// an existing entry rewrites its observations to those defaults too, exactly
// as the register screen does.
func (s *Service) TogglePresence(ctx context.Context, studentID, date string) (Attendance, Result, error) {
	var marked Attendance
	res, err := s.instrument(ctx, "toggle_presence", EntityAttendance, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			next := StatusPresent
			if existing, ok := tx.Snapshot().FindAttendance(studentID, date); ok && existing.Status == StatusPresent {
				next = StatusAbsent
			}
			var err error
			marked, err = tx.MarkAttendance(Attendance{
				StudentID: studentID,
				Date:      date,
				Status:    next,
				Aspect:    LevelBien,
				Conduite:  LevelBien,
				ABCD:      GradeA,
			})
			return err
		})
		return marked.ID, res, err
	})
	return marked, res, err
}

// AttendanceSummary aggregates a student's register history.
type AttendanceSummary struct {
	StudentID    string `json:"studentId"`
	TotalMarked  int    `json:"totalMarked"`
	PresentCount int    `json:"presentCount"`
	AbsentCount  int    `json:"absentCount"`
	// LatestDate is the most recent marked day, empty when never marked.
	LatestDate string `json:"latestDate,omitempty"`
}

// StudentAttendanceSummary tallies presence across every marked day for one
// student.
func (s *Service) StudentAttendanceSummary(studentID string) AttendanceSummary {
	summary := AttendanceSummary{StudentID: studentID}
	for _, record := range s.store.ListAttendance() {
		if record.StudentID != studentID {
			continue
		}
		summary.TotalMarked++
		if record.Status == StatusPresent {
			summary.PresentCount++
		} else {
			summary.AbsentCount++
		}
		if record.Date > summary.LatestDate {
			summary.LatestDate = record.Date
		}
	}
	return summary
}

// insightTotalDays is the fixed denominator the parent portal presents
// encouragement against, roughly one month of school days.
const insightTotalDays = 20

// AttendanceInsight produces an encouragement message for the student based
// on their presence count. Generator failures never reach the caller: the
// static fallback is returned instead.
func (s *Service) AttendanceInsight(ctx context.Context, studentID string) (string, error) {
	student, ok := s.store.GetStudent(studentID)
	if !ok {
		return "", ErrNotFound{Entity: EntityStudent, ID: studentID}
	}
	summary := s.StudentAttendanceSummary(studentID)

	var msg string
	_, _ = s.instrument(ctx, "attendance_insight", EntityStudent, func(ctx context.Context) (string, Result, error) {
		msg = insightFallback
		if s.insights == nil {
			return studentID, Result{}, nil
		}
		text, err := s.insights.AttendanceInsight(ctx, student.Name, summary.PresentCount, insightTotalDays)
		if err != nil {
			return studentID, Result{}, err
		}
		if text != "" {
			msg = text
		}
		return studentID, Result{}, nil
	})
	return msg, nil
}

// ValidateRegisterDate rejects dates that are not ISO calendar days.
func ValidateRegisterDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("invalid register date %q: %w", date, err)
	}
	return nil
}
