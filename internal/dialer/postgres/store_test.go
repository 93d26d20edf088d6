package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/calllog"
	"github.com/frahmantamala/dialer-dashboard/internal/campaign"
	campaignDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/campaign"
	contactDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/contact"
	dialerPostgres "github.com/frahmantamala/dialer-dashboard/internal/dialer/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/testsupport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestDialerPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dialer Postgres Suite")
}

var _ = Describe("Dialer Store", func() {
	var (
		db    *gorm.DB
		store *dialerPostgres.Store
		ctx   context.Context
		camp  *campaignDatamodel.Campaign
		ann   *contactDatamodel.Contact
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = testsupport.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		store = dialerPostgres.NewStore(db)

		msg := "Be brief"
		camp = &campaignDatamodel.Campaign{Name: "Spring", Status: campaign.StatusActive, AdminID: "admin-1", SystemMessage: &msg}
		Expect(db.Create(camp).Error).To(Succeed())
		ann = &contactDatamodel.Contact{Name: "Ann", Phone: "+100", Status: "ACTIVE", AdminID: "admin-1"}
		Expect(db.Create(ann).Error).To(Succeed())
		Expect(db.Create(&campaignDatamodel.CampaignContact{CampaignID: camp.ID, ContactID: ann.ID, Status: "ACTIVE"}).Error).To(Succeed())
	})

	It("reads the campaign and the linked target", func() {
		info, err := store.Campaign(ctx, camp.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(*info.SystemMessage).To(Equal("Be brief"))

		target, err := store.Target(ctx, camp.ID, ann.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(target.Phone).To(Equal("+100"))
		Expect(target.LinkStatus).To(Equal("ACTIVE"))
	})

	It("answers nil for a missing campaign or link", func() {
		info, err := store.Campaign(ctx, "nope")
		Expect(err).NotTo(HaveOccurred())
		Expect(info).To(BeNil())

		target, err := store.Target(ctx, camp.ID, "nope")
		Expect(err).NotTo(HaveOccurred())
		Expect(target).To(BeNil())
	})

	It("records the call and bumps the link's attempts", func() {
		log := &calllog.CallLog{CampaignID: camp.ID, ContactID: ann.ID, CallSid: "CA1", Status: calllog.StatusInitiated}

		Expect(store.RecordCall(ctx, log)).To(Succeed())
		Expect(log.ID).NotTo(BeEmpty())

		var link campaignDatamodel.CampaignContact
		Expect(db.Where("campaign_id = ? AND contact_id = ?", camp.ID, ann.ID).First(&link).Error).To(Succeed())
		Expect(link.CallAttempts).To(Equal(1))
		Expect(link.LastCalled).NotTo(BeNil())

		again := &calllog.CallLog{CampaignID: camp.ID, ContactID: ann.ID, CallSid: "CA1", Status: calllog.StatusInitiated}
		Expect(store.RecordCall(ctx, again)).To(MatchError(calllog.ErrDuplicateCallSid))
	})

	Describe("scheduled calls", func() {
		var due, later *campaignDatamodel.ScheduledCall
		now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

		BeforeEach(func() {
			due = &campaignDatamodel.ScheduledCall{CampaignID: camp.ID, ContactID: ann.ID, Phone: "+100", ScheduledAt: now.Add(-time.Minute), Status: campaign.CallPending}
			later = &campaignDatamodel.ScheduledCall{CampaignID: camp.ID, ContactID: ann.ID, Phone: "+100", ScheduledAt: now.Add(time.Hour), Status: campaign.CallPending}
			Expect(db.Create(due).Error).To(Succeed())
			Expect(db.Create(later).Error).To(Succeed())
		})

		statusOf := func(id string) campaignDatamodel.ScheduledCall {
			var sc campaignDatamodel.ScheduledCall
			Expect(db.Where("id = ?", id).First(&sc).Error).To(Succeed())
			return sc
		}

		It("claims only due pending calls, once", func() {
			claimed, err := store.DueCalls(ctx, now, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(claimed).To(HaveLen(1))
			Expect(claimed[0].ID).To(Equal(due.ID))
			Expect(claimed[0].Status).To(Equal(campaign.CallDialing))

			claimed, err = store.DueCalls(ctx, now, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(claimed).To(BeEmpty())
		})

		It("completes a call with its sid", func() {
			Expect(store.CompleteScheduled(ctx, due.ID, "CA9")).To(Succeed())

			sc := statusOf(due.ID)
			Expect(sc.Status).To(Equal(campaign.CallCompleted))
			Expect(*sc.CallSid).To(Equal("CA9"))
			Expect(sc.Attempts).To(Equal(1))
		})

		It("puts a failed call back or marks it failed", func() {
			Expect(store.RetryScheduled(ctx, due.ID, 1, "busy", false)).To(Succeed())
			sc := statusOf(due.ID)
			Expect(sc.Status).To(Equal(campaign.CallPending))
			Expect(*sc.LastError).To(Equal("busy"))

			Expect(store.RetryScheduled(ctx, due.ID, 3, "busy", true)).To(Succeed())
			sc = statusOf(due.ID)
			Expect(sc.Status).To(Equal(campaign.CallFailed))
			Expect(sc.Attempts).To(Equal(3))
		})

		It("reclaims a call left in DIALING past the reclaim window", func() {
			stale := &campaignDatamodel.ScheduledCall{CampaignID: camp.ID, ContactID: ann.ID, Phone: "+100", ScheduledAt: now.Add(-time.Hour), Status: campaign.CallDialing, Attempts: 1}
			fresh := &campaignDatamodel.ScheduledCall{CampaignID: camp.ID, ContactID: ann.ID, Phone: "+100", ScheduledAt: now.Add(-time.Hour), Status: campaign.CallDialing}
			Expect(db.Create(stale).Error).To(Succeed())
			Expect(db.Create(fresh).Error).To(Succeed())
			Expect(db.Model(stale).UpdateColumn("updated_at", now.Add(-20*time.Minute)).Error).To(Succeed())
			Expect(db.Model(fresh).UpdateColumn("updated_at", now.Add(-time.Minute)).Error).To(Succeed())

			claimed, err := store.WithReclaimAfter(5*time.Minute).DueCalls(ctx, now, 10)
			Expect(err).NotTo(HaveOccurred())

			ids := []string{}
			for _, sc := range claimed {
				ids = append(ids, sc.ID)
			}
			Expect(ids).To(ConsistOf(stale.ID, due.ID))

			sc := statusOf(stale.ID)
			Expect(sc.Status).To(Equal(campaign.CallDialing))
			Expect(sc.Attempts).To(Equal(1))
			Expect(*sc.LastError).To(Equal("reclaimed after a stalled dial"))
			untouched := statusOf(fresh.ID)
			Expect(untouched.LastError).To(BeNil())
			Expect(untouched.UpdatedAt).To(BeTemporally("~", now.Add(-time.Minute), time.Second))
		})
	})
})
