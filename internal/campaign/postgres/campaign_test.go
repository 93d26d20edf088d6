package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/campaign"
	campaignPostgres "github.com/frahmantamala/dialer-dashboard/internal/campaign/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/contact"
	appointmentDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/appointment"
	calllogDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/calllog"
	campaignDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/campaign"
	contactDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/contact"
	employeeDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/dialer-dashboard/internal/testsupport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestCampaignPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Campaign Postgres Suite")
}

var _ = Describe("Campaign Repository", func() {
	var (
		db    *gorm.DB
		repo  *campaignPostgres.Repository
		ctx   context.Context
		admin *userDatamodel.User
		ann   *contactDatamodel.Contact
		bob   *contactDatamodel.Contact
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = testsupport.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		repo = campaignPostgres.NewRepository(db)

		admin = &userDatamodel.User{Name: "Ada", Email: "ada@example.com", Username: "ada", PasswordHash: "x", Role: "ADMIN", Status: "ACTIVE"}
		Expect(db.Create(admin).Error).To(Succeed())
		ann = &contactDatamodel.Contact{Name: "Ann", Phone: "+100", Status: "ACTIVE", AdminID: admin.ID, Tags: []contactDatamodel.ContactTag{{Tag: "vip"}}}
		bob = &contactDatamodel.Contact{Name: "Bob", Phone: "+200", Status: "ACTIVE", AdminID: admin.ID}
		Expect(db.Create(ann).Error).To(Succeed())
		Expect(db.Create(bob).Error).To(Succeed())
	})

	create := func(name string) *campaign.Campaign {
		c := &campaign.Campaign{Name: name, Status: campaign.StatusActive, AdminID: admin.ID, Settings: map[string]interface{}{}}
		Expect(repo.Create(ctx, c, "")).To(Succeed())
		return c
	}

	It("loads the admin summary and links", func() {
		c := create("Spring")
		_, err := repo.Link(ctx, c.ID, ann.ID)
		Expect(err).NotTo(HaveOccurred())

		loaded, err := repo.Get(ctx, c.ID)

		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Admin.Name).To(Equal("Ada"))
		Expect(loaded.Contacts).To(HaveLen(1))
		Expect(loaded.Contacts[0].Status).To(Equal(contact.StatusActive))
		Expect(loaded.ContactCount).To(Equal(1))

		_, err = repo.Get(ctx, "missing")
		Expect(err).To(MatchError(campaign.ErrNotFound))
	})

	It("lists with contact counts and honours the assigned scope", func() {
		spring := create("Spring")
		create("Summer")
		_, err := repo.Link(ctx, spring.ID, ann.ID)
		Expect(err).NotTo(HaveOccurred())

		all, err := repo.List(ctx, auth.CampaignScope{AdminID: admin.ID})
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(2))

		scoped, err := repo.List(ctx, auth.CampaignScope{AdminID: admin.ID, Assigned: true, CampaignIDs: []string{spring.ID}})
		Expect(err).NotTo(HaveOccurred())
		Expect(scoped).To(HaveLen(1))
		Expect(scoped[0].ContactCount).To(Equal(1))
	})

	It("assigns the creating employee", func() {
		c := &campaign.Campaign{Name: "Spring", Status: campaign.StatusActive, AdminID: admin.ID}
		Expect(repo.Create(ctx, c, "emp-1")).To(Succeed())

		var n int64
		db.Model(&employeeDatamodel.CampaignEmployee{}).Where("campaign_id = ? AND employee_id = ?", c.ID, "emp-1").Count(&n)
		Expect(n).To(Equal(int64(1)))
	})

	It("links once and unlinks", func() {
		c := create("Spring")

		created, err := repo.Link(ctx, c.ID, ann.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeTrue())
		created, err = repo.Link(ctx, c.ID, ann.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeFalse())

		member, err := repo.Member(ctx, c.ID, ann.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(member.Tags).To(ConsistOf("vip"))

		Expect(repo.Unlink(ctx, c.ID, ann.ID)).To(Succeed())
		Expect(repo.Unlink(ctx, c.ID, ann.ID)).To(MatchError(campaign.ErrNotLinked))
	})

	It("creates and links a contact in one go", func() {
		c := create("Spring")
		newContact := &contact.Contact{ID: "contact-new", Name: "Cy", Phone: "+300", Status: contact.StatusActive, AdminID: admin.ID, Tags: []string{"lead"}}

		Expect(repo.CreateAndLink(ctx, c.ID, newContact)).To(Succeed())

		members, err := repo.Members(ctx, c.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(members).To(HaveLen(1))
		Expect(members[0].Tags).To(ConsistOf("lead"))

		found, err := repo.ContactByPhone(ctx, admin.ID, "+300")
		Expect(err).NotTo(HaveOccurred())
		Expect(found.ID).To(Equal("contact-new"))
	})

	It("updates messages independently", func() {
		c := create("Spring")
		sys := "system"

		m, err := repo.UpdateMessages(ctx, c.ID, campaign.UpdateMessagesDTO{SystemMessage: &sys})

		Expect(err).NotTo(HaveOccurred())
		Expect(*m.SystemMessage).To(Equal("system"))
		Expect(m.InitialMessage).To(BeNil())
	})

	It("ranks leads by appointment count", func() {
		c := create("Spring")
		for _, id := range []string{ann.ID, bob.ID} {
			_, err := repo.Link(ctx, c.ID, id)
			Expect(err).NotTo(HaveOccurred())
		}
		now := time.Now().UTC()
		for i, id := range []string{bob.ID, bob.ID, ann.ID} {
			appt := &appointmentDatamodel.Appointment{CampaignID: c.ID, ContactID: id, Title: "Demo", AppointmentTime: now.Add(time.Duration(i) * time.Hour), Status: "SCHEDULED"}
			Expect(db.Create(appt).Error).To(Succeed())
		}
		Expect(db.Create(&calllogDatamodel.CallLog{CampaignID: c.ID, ContactID: bob.ID, CallSid: "CA1", Status: "COMPLETED"}).Error).To(Succeed())

		leads, err := repo.Leads(ctx, c.ID)

		Expect(err).NotTo(HaveOccurred())
		Expect(leads).To(HaveLen(2))
		Expect(leads[0].Name).To(Equal("Bob"))
		Expect(leads[0].AppointmentCount).To(Equal(2))
		Expect(leads[0].LatestCall.CallSid).To(Equal("CA1"))
		Expect(leads[1].LatestCall).To(BeNil())
	})

	It("pages appointments in time order with contact details", func() {
		c := create("Spring")
		base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			appt := &appointmentDatamodel.Appointment{CampaignID: c.ID, ContactID: ann.ID, Title: "Demo", AppointmentTime: base.Add(time.Duration(2-i) * time.Hour), Status: "SCHEDULED"}
			Expect(db.Create(appt).Error).To(Succeed())
		}

		items, total, err := repo.Appointments(ctx, campaign.AppointmentFilter{CampaignID: c.ID, Page: 1, Limit: 2})

		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(int64(3)))
		Expect(items).To(HaveLen(2))
		Expect(items[0].Start).To(BeTemporally("==", base))
		Expect(items[0].End).To(BeTemporally("==", base.Add(time.Hour)))
		Expect(items[0].Contact.Phone).To(Equal("+100"))
	})

	It("collects stats input", func() {
		c := create("Spring")
		_, err := repo.Link(ctx, c.ID, ann.ID)
		Expect(err).NotTo(HaveOccurred())
		duration := 42
		Expect(db.Create(&calllogDatamodel.CallLog{CampaignID: c.ID, ContactID: ann.ID, CallSid: "CA1", Status: "COMPLETED", Duration: &duration}).Error).To(Succeed())

		in, err := repo.StatsInput(ctx, c.ID)

		Expect(err).NotTo(HaveOccurred())
		Expect(in.LinkStatuses).To(ConsistOf("ACTIVE"))
		Expect(in.Calls).To(HaveLen(1))
		Expect(in.Calls[0].Duration).To(Equal(42))
		Expect(in.Calls[0].ContactName).To(Equal("Ann"))
	})

	It("cancels only pending scheduled calls", func() {
		c := create("Spring")
		sc := &campaign.ScheduledCall{CampaignID: c.ID, ContactID: ann.ID, Phone: "+100", ScheduledAt: time.Now().Add(time.Hour), Status: campaign.CallPending}
		Expect(repo.CreateScheduledCall(ctx, sc)).To(Succeed())

		ok, err := repo.CancelScheduledCall(ctx, sc.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		ok, err = repo.CancelScheduledCall(ctx, sc.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		_, err = repo.GetScheduledCall(ctx, "missing")
		Expect(err).To(MatchError(campaign.ErrCallNotFound))
	})

	It("unassigns and reports missing assignments", func() {
		c := create("Spring")
		Expect(repo.Assign(ctx, c.ID, "emp-1")).To(Succeed())
		Expect(repo.Assign(ctx, c.ID, "emp-1")).To(Succeed())

		Expect(repo.Unassign(ctx, c.ID, "emp-1")).To(Succeed())
		Expect(repo.Unassign(ctx, c.ID, "emp-1")).To(MatchError(campaign.ErrNotAssigned))
	})

	It("deletes the campaign with everything attached", func() {
		c := create("Spring")
		_, err := repo.Link(ctx, c.ID, ann.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(db.Create(&calllogDatamodel.CallLog{CampaignID: c.ID, ContactID: ann.ID, CallSid: "CA1", Status: "COMPLETED"}).Error).To(Succeed())
		Expect(db.Create(&campaignDatamodel.ScheduledCall{CampaignID: c.ID, ContactID: ann.ID, Phone: "+100", ScheduledAt: time.Now(), Status: "PENDING"}).Error).To(Succeed())

		Expect(repo.Delete(ctx, c.ID)).To(Succeed())

		var n int64
		db.Model(&campaignDatamodel.CampaignContact{}).Where("campaign_id = ?", c.ID).Count(&n)
		Expect(n).To(BeZero())
		db.Model(&calllogDatamodel.CallLog{}).Where("campaign_id = ?", c.ID).Count(&n)
		Expect(n).To(BeZero())
		db.Model(&contactDatamodel.Contact{}).Count(&n)
		Expect(n).To(Equal(int64(2)))
		Expect(repo.Delete(ctx, c.ID)).To(MatchError(campaign.ErrNotFound))
	})
})
