package campaign_test

import (
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/campaign"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ComputeStats", func() {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	at := func(daysAgo, hour int) *time.Time {
		t := time.Date(2026, 3, 10-daysAgo, hour, 0, 0, 0, time.UTC)
		return &t
	}

	It("returns zeros and seven empty days for an empty campaign", func() {
		s := campaign.ComputeStats(now, campaign.StatsInput{})

		Expect(s.TotalCalls).To(BeZero())
		Expect(s.SuccessRate).To(BeZero())
		Expect(s.AverageCallDuration).To(BeZero())
		Expect(s.CallHistory).To(HaveLen(7))
		Expect(s.CallHistory[0].Date).To(Equal(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)))
		Expect(s.CallHistory[6].Date).To(Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
		Expect(s.RecentActivity).To(BeEmpty())
		Expect(s.AppointmentFunnel).To(HaveLen(4))
	})

	It("aggregates contacts, calls and appointments", func() {
		s := campaign.ComputeStats(now, campaign.StatsInput{
			LinkStatuses: []string{"ACTIVE", "ACTIVE", "BLOCKED"},
			Calls: []campaign.StatsCall{
				{ID: "c1", ContactName: "Ann", Status: "COMPLETED", Duration: 90, StartedAt: at(0, 9)},
				{ID: "c2", ContactName: "Bob", Status: "FAILED", Duration: 10, StartedAt: at(0, 10)},
				{ID: "c3", ContactName: "Cy", Status: "COMPLETED", Duration: 0, StartedAt: at(2, 10)},
				{ID: "c4", ContactName: "Old", Status: "COMPLETED", Duration: 0, StartedAt: at(9, 10)},
			},
			Appointments: []campaign.StatsAppointment{
				{ID: "a1", ContactName: "Ann", Title: "Demo", Status: "SCHEDULED", AppointmentTime: *at(-1, 9), CreatedAt: *at(0, 11)},
				{ID: "a2", ContactName: "Cy", Title: "Follow up", Status: "COMPLETED", AppointmentTime: *at(1, 9), CreatedAt: *at(3, 11)},
			},
		})

		Expect(s.TotalContacts).To(Equal(3))
		Expect(s.ActiveContacts).To(Equal(2))
		Expect(s.TotalCalls).To(Equal(4))
		Expect(s.TotalDuration).To(Equal(100))
		Expect(s.AverageCallDuration).To(Equal(25))
		Expect(s.SuccessRate).To(Equal(75))
		Expect(s.AppointmentsScheduled).To(Equal(1))
		Expect(s.AppointmentsCompleted).To(Equal(1))

		today := s.CallHistory[6]
		Expect(today.Calls).To(Equal(2))
		Expect(today.SuccessRate).To(Equal(50))
		Expect(today.Appointments).To(Equal(1))
		Expect(s.CallHistory[4].Calls).To(Equal(1))
		Expect(s.CallHistory[3].Appointments).To(Equal(1))
	})

	It("lists the most recent activity first and keeps ten", func() {
		var calls []campaign.StatsCall
		for i := 0; i < 12; i++ {
			calls = append(calls, campaign.StatsCall{ID: string(rune('a' + i)), Status: "COMPLETED", Duration: 120, StartedAt: at(0, i)})
		}

		s := campaign.ComputeStats(now, campaign.StatsInput{Calls: calls})

		Expect(s.RecentActivity).To(HaveLen(10))
		Expect(s.RecentActivity[0].ID).To(Equal("l"))
		Expect(s.RecentActivity[0].Details).To(Equal("COMPLETED - 2 minutes"))
		Expect(s.RecentActivity[0].Type).To(Equal("call"))
	})
})
