package campaign

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/appointment"
	"github.com/frahmantamala/dialer-dashboard/internal/calllog"
	"github.com/frahmantamala/dialer-dashboard/internal/contact"
)

const (
	historyDays    = 7
	recentActivity = 10
)

// StatsCall and StatsAppointment are the rows statistics are computed from.
type StatsCall struct {
	ID          string
	ContactName string
	Status      string
	Duration    int
	StartedAt   *time.Time
	CreatedAt   time.Time
}

type StatsAppointment struct {
	ID              string
	ContactName     string
	Title           string
	Status          string
	AppointmentTime time.Time
	CreatedAt       time.Time
}

type StatsInput struct {
	LinkStatuses []string
	Calls        []StatsCall
	Appointments []StatsAppointment
}

type Stats struct {
	TotalContacts         int           `json:"totalContacts"`
	ActiveContacts        int           `json:"activeContacts"`
	TotalCalls            int           `json:"totalCalls"`
	TotalDuration         int           `json:"totalDuration"`
	AverageCallDuration   int           `json:"averageCallDuration"`
	SuccessRate           int           `json:"successRate"`
	AppointmentsScheduled int           `json:"appointmentsScheduled"`
	AppointmentsCompleted int           `json:"appointmentsCompleted"`
	CallHistory           []DayStats    `json:"callHistory"`
	AppointmentFunnel     []FunnelStage `json:"appointmentFunnel"`
	RecentActivity        []Activity    `json:"recentActivity"`
}

type DayStats struct {
	Date         time.Time `json:"date"`
	Calls        int       `json:"calls"`
	SuccessRate  int       `json:"successRate"`
	Appointments int       `json:"appointments"`
}

type FunnelStage struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

type Activity struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Contact   string    `json:"contact"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details"`
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
}

// ComputeStats builds the campaign dashboard. Days are UTC calendar days ending today.
func ComputeStats(now time.Time, in StatsInput) Stats {
	s := Stats{
		TotalContacts: len(in.LinkStatuses),
		TotalCalls:    len(in.Calls),
	}
	for _, status := range in.LinkStatuses {
		if status == contact.StatusActive {
			s.ActiveContacts++
		}
	}

	successful := 0
	for _, c := range in.Calls {
		s.TotalDuration += c.Duration
		if c.Status == calllog.StatusCompleted {
			successful++
		}
	}
	if s.TotalCalls > 0 {
		s.AverageCallDuration = int(math.Round(float64(s.TotalDuration) / float64(s.TotalCalls)))
	}
	s.SuccessRate = percent(successful, s.TotalCalls)

	byStatus := map[string]int{}
	for _, a := range in.Appointments {
		byStatus[a.Status]++
	}
	s.AppointmentsScheduled = byStatus[appointment.StatusScheduled]
	s.AppointmentsCompleted = byStatus[appointment.StatusCompleted]
	s.AppointmentFunnel = []FunnelStage{
		{Stage: "Scheduled", Count: byStatus[appointment.StatusScheduled]},
		{Stage: "Completed", Count: byStatus[appointment.StatusCompleted]},
		{Stage: "Cancelled", Count: byStatus[appointment.StatusCancelled]},
		{Stage: "No Show", Count: byStatus[appointment.StatusNoShow]},
	}

	s.CallHistory = history(now, in)
	s.RecentActivity = activity(in)
	return s
}

func history(now time.Time, in StatsInput) []DayStats {
	today := now.UTC().Truncate(24 * time.Hour)
	days := make([]DayStats, historyDays)
	success := make([]int, historyDays)
	index := func(t time.Time) int {
		d := t.UTC().Truncate(24 * time.Hour)
		if d.After(today) {
			return -1
		}
		i := historyDays - 1 - int(today.Sub(d)/(24*time.Hour))
		if i < 0 {
			return -1
		}
		return i
	}

	for i := range days {
		days[i].Date = today.AddDate(0, 0, i-(historyDays-1))
	}
	for _, c := range in.Calls {
		if c.StartedAt == nil {
			continue
		}
		if i := index(*c.StartedAt); i >= 0 {
			days[i].Calls++
			if c.Status == calllog.StatusCompleted {
				success[i]++
			}
		}
	}
	for _, a := range in.Appointments {
		if i := index(a.CreatedAt); i >= 0 {
			days[i].Appointments++
		}
	}
	for i := range days {
		days[i].SuccessRate = percent(success[i], days[i].Calls)
	}
	return days
}

func activity(in StatsInput) []Activity {
	items := make([]Activity, 0, len(in.Calls)+len(in.Appointments))
	for _, c := range in.Calls {
		ts := c.CreatedAt
		if c.StartedAt != nil {
			ts = *c.StartedAt
		}
		items = append(items, Activity{
			ID:        c.ID,
			Type:      "call",
			Contact:   c.ContactName,
			Timestamp: ts,
			Details:   fmt.Sprintf("%s - %d minutes", c.Status, int(math.Round(float64(c.Duration)/60))),
		})
	}
	for _, a := range in.Appointments {
		items = append(items, Activity{
			ID:        a.ID,
			Type:      "appointment",
			Contact:   a.ContactName,
			Timestamp: a.AppointmentTime,
			Details:   fmt.Sprintf("%s - %s", a.Title, a.Status),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
	if len(items) > recentActivity {
		items = items[:recentActivity]
	}
	return items
}
