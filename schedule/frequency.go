package schedule

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Frequency string

const (
	None   Frequency = "none"
	Hourly Frequency = "hourly"
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case None, Hourly, Daily, Weekly:
		return f, nil

	case "":
		return None, nil

	default:
		return None, fmt.Errorf("invalid schedule frequency '%v' - expected hourly, daily or weekly", s)
	}
}

// Intervals are the hourly repeat intervals supported by the trigger service.
var Intervals = []int{1, 2, 4, 6, 8, 12}

var weekdays = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

// ParseWeekday maps a stored weekday name (e.g. MONDAY) to the time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	if d, ok := weekdays[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return d, nil
	}

	return time.Sunday, fmt.Errorf("invalid weekday '%v'", s)
}

func ParseHour(s string) (int, error) {
	hour, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour '%v' - expected 0 to 23", s)
	}

	return hour, nil
}

func ParseInterval(s string) (int, error) {
	hours, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !slices.Contains(Intervals, hours) {
		return 0, fmt.Errorf("invalid hourly interval '%v' - expected one of %v", s, Intervals)
	}

	return hours, nil
}

var windows = [24]string{
	"Midnight to 1am",
	"1am to 2am",
	"2am to 3am",
	"3am to 4am",
	"4am to 5am",
	"5am to 6am",
	"6am to 7am",
	"7am to 8am",
	"8am to 9am",
	"9am to 10am",
	"10am to 11am",
	"11am to noon",
	"noon to 1pm",
	"1pm to 2pm",
	"2pm to 3pm",
	"3pm to 4pm",
	"4pm to 5pm",
	"5pm to 6pm",
	"6pm to 7pm",
	"7pm to 8pm",
	"8pm to 9pm",
	"9pm to 10pm",
	"10pm to 11pm",
	"11pm to midnight",
}

// Window returns the human readable one hour window in which a trigger for the hour fires.
func Window(hour int) string {
	if hour < 0 || hour >= len(windows) {
		return ""
	}

	return windows[hour]
}

// Timing is a validated recurring schedule.
type Timing struct {
	Frequency Frequency
	Every     int
	Weekday   time.Weekday
	Hour      int
}

// NewTiming validates the schedule form values: hourly takes the interval, daily the hour
// and weekly the weekday and the hour.
func NewTiming(frequency Frequency, primary, secondary string) (Timing, error) {
	switch frequency {
	case Hourly:
		every, err := ParseInterval(primary)
		if err != nil {
			return Timing{}, err
		}

		return Timing{Frequency: Hourly, Every: every}, nil

	case Daily:
		hour, err := ParseHour(primary)
		if err != nil {
			return Timing{}, err
		}

		return Timing{Frequency: Daily, Hour: hour}, nil

	case Weekly:
		day, err := ParseWeekday(primary)
		if err != nil {
			return Timing{}, err
		}

		hour, err := ParseHour(secondary)
		if err != nil {
			return Timing{}, err
		}

		return Timing{Frequency: Weekly, Weekday: day, Hour: hour}, nil

	default:
		return Timing{}, fmt.Errorf("invalid schedule frequency '%v'", frequency)
	}
}

// Primary and Secondary return the stored form of the timing.
func (t Timing) Primary() string {
	switch t.Frequency {
	case Hourly:
		return strconv.Itoa(t.Every)
	case Daily:
		return strconv.Itoa(t.Hour)
	case Weekly:
		return strings.ToUpper(t.Weekday.String())
	default:
		return ""
	}
}

func (t Timing) Secondary() string {
	if t.Frequency == Weekly {
		return strconv.Itoa(t.Hour)
	}

	return ""
}

func (t Timing) String() string {
	switch t.Frequency {
	case Hourly:
		return fmt.Sprintf("Every %v Hours", t.Every)
	case Daily:
		return fmt.Sprintf("Daily between %v", Window(t.Hour))
	case Weekly:
		return fmt.Sprintf("Weekly on %v between %v", t.Weekday, Window(t.Hour))
	default:
		return ""
	}
}
