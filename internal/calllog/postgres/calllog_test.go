package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/calllog"
	calllogPostgres "github.com/frahmantamala/dialer-dashboard/internal/calllog/postgres"
	appointmentDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/appointment"
	campaignDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/campaign"
	contactDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/contact"
	"github.com/frahmantamala/dialer-dashboard/internal/testsupport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestCallLogPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Call Log Postgres Suite")
}

var _ = Describe("Call Log Repository", func() {
	var (
		db       *gorm.DB
		repo     *calllogPostgres.Repository
		ctx      context.Context
		campaign *campaignDatamodel.Campaign
		other    *campaignDatamodel.Campaign
		ann      *contactDatamodel.Contact
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = testsupport.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		repo = calllogPostgres.NewRepository(db)

		campaign = &campaignDatamodel.Campaign{Name: "Spring", Status: "ACTIVE", AdminID: "admin-1"}
		other = &campaignDatamodel.Campaign{Name: "Other", Status: "ACTIVE", AdminID: "admin-2"}
		ann = &contactDatamodel.Contact{Name: "Ann", Phone: "+100", Status: "ACTIVE", AdminID: "admin-1"}
		Expect(db.Create(campaign).Error).To(Succeed())
		Expect(db.Create(other).Error).To(Succeed())
		Expect(db.Create(ann).Error).To(Succeed())
	})

	create := func(campaignID, sid string) *calllog.CallLog {
		c := &calllog.CallLog{CampaignID: campaignID, ContactID: ann.ID, CallSid: sid, Status: "COMPLETED"}
		Expect(repo.Create(ctx, c)).To(Succeed())
		return c
	}

	It("loads summaries and the booked appointment", func() {
		c := create(campaign.ID, "CA1")
		appt := &appointmentDatamodel.Appointment{CampaignID: campaign.ID, ContactID: ann.ID, CallLogID: &c.ID, Title: "Demo", AppointmentTime: time.Now(), Status: "SCHEDULED"}
		Expect(db.Create(appt).Error).To(Succeed())

		loaded, err := repo.Get(ctx, c.ID)

		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.AdminID()).To(Equal("admin-1"))
		Expect(loaded.Campaign.Name).To(Equal("Spring"))
		Expect(loaded.Contact.Phone).To(Equal("+100"))
		Expect(loaded.Appointment.Title).To(Equal("Demo"))
	})

	It("lists within the tenant and assigned campaigns", func() {
		create(campaign.ID, "CA1")
		create(other.ID, "CA2")

		logs, err := repo.List(ctx, calllog.Filter{Scope: auth.CampaignScope{AdminID: "admin-1"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(logs).To(HaveLen(1))
		Expect(logs[0].CallSid).To(Equal("CA1"))

		logs, err = repo.List(ctx, calllog.Filter{Scope: auth.CampaignScope{AdminID: "admin-1", Assigned: true, CampaignIDs: []string{"nope"}}})
		Expect(err).NotTo(HaveOccurred())
		Expect(logs).To(BeEmpty())
	})

	It("rejects duplicate call sids", func() {
		create(campaign.ID, "CA1")

		err := repo.Create(ctx, &calllog.CallLog{CampaignID: campaign.ID, ContactID: ann.ID, CallSid: "CA1", Status: "X"})

		Expect(err).To(MatchError(calllog.ErrDuplicateCallSid))
	})

	It("resolves campaign and contact owners", func() {
		ref, err := repo.CampaignRef(ctx, campaign.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ref.AdminID).To(Equal("admin-1"))

		ref, err = repo.CampaignRef(ctx, "missing")
		Expect(err).NotTo(HaveOccurred())
		Expect(ref).To(BeNil())

		admin, err := repo.ContactAdminID(ctx, ann.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(admin).To(Equal("admin-1"))
	})

	It("detaches appointments on delete", func() {
		c := create(campaign.ID, "CA1")
		appt := &appointmentDatamodel.Appointment{CampaignID: campaign.ID, ContactID: ann.ID, CallLogID: &c.ID, Title: "Demo", AppointmentTime: time.Now(), Status: "SCHEDULED"}
		Expect(db.Create(appt).Error).To(Succeed())

		Expect(repo.Delete(ctx, c.ID)).To(Succeed())

		var reloaded appointmentDatamodel.Appointment
		Expect(db.First(&reloaded, "id = ?", appt.ID).Error).To(Succeed())
		Expect(reloaded.CallLogID).To(BeNil())
		Expect(repo.Delete(ctx, c.ID)).To(MatchError(calllog.ErrNotFound))
	})
})
