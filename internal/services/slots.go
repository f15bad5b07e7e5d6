package services

import (
	"fmt"
	"time"

	"github.com/harentsoaR/telehealth-api/internal/models"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	// defaultSlotHorizon is how far ahead slots are generated when no end
	// date is given.
	defaultSlotHorizon = 30
	// maxSlotRangeDays bounds how many days a single request may expand.
	maxSlotRangeDays = 366
)

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// ExpandWindow splits a window into back-to-back sessions of duration
// minutes. A session is only emitted when it ends at or before the window end.
func ExpandWindow(w models.TimeWindow, duration int) ([]string, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("session duration must be positive, got %d", duration)
	}
	start, err := ParseClock(w.Start)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return nil, err
	}

	var slots []string
	for cur := start; cur+duration <= end; cur += duration {
		slots = append(slots, FormatClock(cur))
	}
	return slots, nil
}

// GenerateSlots walks every day in [from, to] and expands the windows of the
// first specificDates entry matching that day. Days without any slot are left
// out of the result.
func GenerateSlots(rec *models.AvailabilityRecord, from, to time.Time) []models.DaySlots {
	var days []models.DaySlots
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(DateLayout)
		entry := findDate(rec.SpecificDates, key)
		if entry == nil {
			continue
		}

		var slots []string
		for _, w := range entry.TimeSlots {
			// Stored windows were validated on write; a corrupt one yields nothing.
			ws, err := ExpandWindow(w, rec.SessionDuration)
			if err != nil {
				continue
			}
			slots = append(slots, ws...)
		}
		if len(slots) == 0 {
			continue
		}

		days = append(days, models.DaySlots{
			Date:    key,
			DayName: day.Weekday().String(),
			Slots:   slots,
			Fee:     rec.ConsultationFee,
		})
	}
	return days
}

func findDate(dates []models.SpecificDate, key string) *models.SpecificDate {
	for i := range dates {
		if dates[i].Date == key {
			return &dates[i]
		}
	}
	return nil
}

// IsSlotOffered reports whether slot is one of the generated start times for date.
func IsSlotOffered(rec *models.AvailabilityRecord, date time.Time, slot string) bool {
	for _, day := range GenerateSlots(rec, date, date) {
		for _, s := range day.Slots {
			if s == slot {
				return true
			}
		}
	}
	return false
}

func validateSessionDuration(ve *ValidationError, d int) {
	if d < models.MinSessionDuration || d > models.MaxSessionDuration {
		ve.add(fmt.Sprintf("sessionDuration: must be between %d and %d minutes", models.MinSessionDuration, models.MaxSessionDuration))
	}
}

func validateConsultationFee(ve *ValidationError, fee float64) {
	if fee < 0 {
		ve.add("consultationFee: must not be negative")
	}
}

// validateSpecificDates checks every date and window, naming the offending
// date in each reported field.
func validateSpecificDates(ve *ValidationError, dates []models.SpecificDate) {
	for i, sd := range dates {
		if _, err := ParseDate(sd.Date); err != nil {
			ve.add(fmt.Sprintf("specificDates[%d].date: %v", i, err))
			continue
		}
		if len(sd.TimeSlots) == 0 {
			ve.add(fmt.Sprintf("specificDates[%s]: at least one time slot is required", sd.Date))
			continue
		}
		for j, w := range sd.TimeSlots {
			start, err := ParseClock(w.Start)
			if err != nil {
				ve.add(fmt.Sprintf("specificDates[%s].timeSlots[%d].start: %v", sd.Date, j, err))
				continue
			}
			end, err := ParseClock(w.End)
			if err != nil {
				ve.add(fmt.Sprintf("specificDates[%s].timeSlots[%d].end: %v", sd.Date, j, err))
				continue
			}
			if end <= start {
				ve.add(fmt.Sprintf("specificDates[%s].timeSlots[%d]: end time must be after start time", sd.Date, j))
			}
		}
	}
}
