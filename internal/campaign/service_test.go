package campaign_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/campaign"
	"github.com/frahmantamala/dialer-dashboard/internal/contact"
	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCampaign(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Campaign Suite")
}

type assignments map[string][]string

func (a assignments) AssignedCampaignIDs(_ context.Context, employeeID string) ([]string, error) {
	return a[employeeID], nil
}

func (a assignments) IsAssigned(_ context.Context, employeeID, campaignID string) (bool, error) {
	for _, id := range a[employeeID] {
		if id == campaignID {
			return true, nil
		}
	}
	return false, nil
}

func (a assignments) ContactInCampaigns(context.Context, string, []string) (bool, error) {
	return false, nil
}

type link struct{ campaignID, contactID string }

type mockRepository struct {
	campaigns    map[string]*campaign.Campaign
	contacts     map[string]*contact.Contact
	links        map[link]string
	employees    map[string]string // employee -> admin
	assigned     map[link]bool     // {campaign, employee}
	scheduled    map[string]*campaign.ScheduledCall
	appointments []campaign.AppointmentItem
	createdBy    string
	lastFilter   campaign.AppointmentFilter
	lastScope    auth.CampaignScope
	seq          int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		campaigns: map[string]*campaign.Campaign{
			"camp-1": {ID: "camp-1", Name: "Spring", Status: campaign.StatusActive, AdminID: "admin-1"},
			"camp-2": {ID: "camp-2", Name: "Summer", Status: campaign.StatusActive, AdminID: "admin-1"},
			"camp-x": {ID: "camp-x", Name: "Theirs", Status: campaign.StatusActive, AdminID: "admin-2"},
		},
		contacts: map[string]*contact.Contact{
			"contact-1": {ID: "contact-1", Name: "Ann", Phone: "+100", Status: contact.StatusActive, AdminID: "admin-1"},
			"contact-2": {ID: "contact-2", Name: "Bob", Phone: "+200", Status: contact.StatusBlocked, AdminID: "admin-1"},
			"contact-x": {ID: "contact-x", Name: "Xi", Phone: "+900", Status: contact.StatusActive, AdminID: "admin-2"},
		},
		links:     map[link]string{},
		employees: map[string]string{"emp-1": "admin-1", "emp-x": "admin-2"},
		assigned:  map[link]bool{},
		scheduled: map[string]*campaign.ScheduledCall{},
	}
}

func (m *mockRepository) nextID(prefix string) string {
	m.seq++
	return prefix + "-" + string(rune('0'+m.seq))
}

func (m *mockRepository) List(_ context.Context, scope auth.CampaignScope) ([]*campaign.Campaign, error) {
	m.lastScope = scope
	out := []*campaign.Campaign{}
	for _, c := range m.campaigns {
		if c.AdminID == scope.AdminID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockRepository) Get(_ context.Context, id string) (*campaign.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockRepository) Create(_ context.Context, c *campaign.Campaign, employeeID string) error {
	c.ID = m.nextID("camp")
	m.campaigns[c.ID] = c
	m.createdBy = employeeID
	return nil
}

func (m *mockRepository) Update(_ context.Context, c *campaign.Campaign) error {
	m.campaigns[c.ID] = c
	return nil
}

func (m *mockRepository) UpdateMessages(_ context.Context, id string, dto campaign.UpdateMessagesDTO) (campaign.Messages, error) {
	c := m.campaigns[id]
	if dto.SystemMessage != nil {
		c.SystemMessage = dto.SystemMessage
	}
	if dto.InitialMessage != nil {
		c.InitialMessage = dto.InitialMessage
	}
	return campaign.Messages{SystemMessage: c.SystemMessage, InitialMessage: c.InitialMessage}, nil
}

func (m *mockRepository) Delete(_ context.Context, id string) error {
	delete(m.campaigns, id)
	return nil
}

func (m *mockRepository) Employees(_ context.Context, campaignID string) ([]campaign.AssignedEmployee, error) {
	out := []campaign.AssignedEmployee{}
	for k := range m.assigned {
		if k.campaignID == campaignID {
			out = append(out, campaign.AssignedEmployee{EmployeeID: k.contactID})
		}
	}
	return out, nil
}

func (m *mockRepository) EmployeeAdminID(_ context.Context, employeeID string) (string, error) {
	return m.employees[employeeID], nil
}

func (m *mockRepository) Assign(_ context.Context, campaignID, employeeID string) error {
	m.assigned[link{campaignID, employeeID}] = true
	return nil
}

func (m *mockRepository) Unassign(_ context.Context, campaignID, employeeID string) error {
	k := link{campaignID, employeeID}
	if !m.assigned[k] {
		return campaign.ErrNotAssigned
	}
	delete(m.assigned, k)
	return nil
}

func (m *mockRepository) Members(_ context.Context, campaignID string) ([]*campaign.Member, error) {
	out := []*campaign.Member{}
	for k, id := range m.links {
		if k.campaignID == campaignID {
			out = append(out, &campaign.Member{Contact: m.contacts[k.contactID], Campaign: campaign.Link{ID: id, ContactID: k.contactID, Status: contact.StatusActive}})
		}
	}
	return out, nil
}

func (m *mockRepository) Member(_ context.Context, campaignID, contactID string) (*campaign.Member, error) {
	id, ok := m.links[link{campaignID, contactID}]
	if !ok {
		return nil, campaign.ErrNotLinked
	}
	return &campaign.Member{Contact: m.contacts[contactID], Campaign: campaign.Link{ID: id, ContactID: contactID, Status: contact.StatusActive}}, nil
}

func (m *mockRepository) GetContact(_ context.Context, id string) (*contact.Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return nil, contact.ErrNotFound
	}
	return c, nil
}

func (m *mockRepository) ContactByPhone(_ context.Context, adminID, phone string) (*contact.Contact, error) {
	for _, c := range m.contacts {
		if c.AdminID == adminID && c.Phone == phone {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) Link(_ context.Context, campaignID, contactID string) (bool, error) {
	k := link{campaignID, contactID}
	if _, ok := m.links[k]; ok {
		return false, nil
	}
	m.links[k] = m.nextID("link")
	return true, nil
}

func (m *mockRepository) CreateAndLink(ctx context.Context, campaignID string, c *contact.Contact) error {
	m.contacts[c.ID] = c
	_, err := m.Link(ctx, campaignID, c.ID)
	return err
}

func (m *mockRepository) Unlink(_ context.Context, campaignID, contactID string) error {
	k := link{campaignID, contactID}
	if _, ok := m.links[k]; !ok {
		return campaign.ErrNotLinked
	}
	delete(m.links, k)
	return nil
}

func (m *mockRepository) Leads(context.Context, string) ([]*campaign.Lead, error) {
	return []*campaign.Lead{}, nil
}

func (m *mockRepository) StatsInput(context.Context, string) (campaign.StatsInput, error) {
	return campaign.StatsInput{
		LinkStatuses: []string{contact.StatusActive, contact.StatusInactive},
		Calls:        []campaign.StatsCall{{ID: "c1", Status: "COMPLETED", Duration: 60}},
	}, nil
}

func (m *mockRepository) Appointments(_ context.Context, f campaign.AppointmentFilter) ([]campaign.AppointmentItem, int64, error) {
	m.lastFilter = f
	return m.appointments, int64(len(m.appointments)), nil
}

func (m *mockRepository) ScheduledCalls(_ context.Context, campaignID string, _, _ *time.Time) ([]*campaign.ScheduledCall, error) {
	out := []*campaign.ScheduledCall{}
	for _, sc := range m.scheduled {
		if sc.CampaignID == campaignID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (m *mockRepository) CreateScheduledCall(_ context.Context, sc *campaign.ScheduledCall) error {
	sc.ID = m.nextID("call")
	m.scheduled[sc.ID] = sc
	return nil
}

func (m *mockRepository) GetScheduledCall(_ context.Context, id string) (*campaign.ScheduledCall, error) {
	sc, ok := m.scheduled[id]
	if !ok {
		return nil, campaign.ErrCallNotFound
	}
	return sc, nil
}

func (m *mockRepository) CancelScheduledCall(_ context.Context, id string) (bool, error) {
	sc := m.scheduled[id]
	if sc.Status != campaign.CallPending {
		return false, nil
	}
	sc.Status = campaign.CallCancelled
	return true, nil
}

var (
	admin      = &auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin, Permissions: permission.Full()}
	otherAdmin = &auth.Principal{UserID: "admin-2", Role: auth.RoleAdmin, Permissions: permission.Full()}
)

func employee(m permission.Matrix) *auth.Principal {
	return &auth.Principal{UserID: "emp-user", EmployeeID: "emp-1", Role: auth.RoleEmployee, AdminID: "admin-1", Permissions: m}
}

func statusOf(err error) int {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	return appErr.StatusCode
}

var _ = Describe("Campaign Service", func() {
	var (
		repo    *mockRepository
		store   assignments
		service *campaign.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		store = assignments{"emp-1": {"camp-1"}}
		policy := auth.NewABACPolicy(store, logger.Discard())
		service = campaign.NewService(repo, policy, logger.Discard())
	})

	Describe("List", func() {
		It("scopes an employee to assigned campaigns", func() {
			m := permission.Default()
			m.Campaigns.View = true

			_, err := service.List(ctx, employee(m))

			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastScope.Assigned).To(BeTrue())
			Expect(repo.lastScope.CampaignIDs).To(ConsistOf("camp-1"))
		})

		It("returns nothing without touching the repository when nothing is assigned", func() {
			m := permission.Default()
			m.Campaigns.View = true
			store["emp-1"] = nil

			campaigns, err := service.List(ctx, employee(m))

			Expect(err).NotTo(HaveOccurred())
			Expect(campaigns).To(BeEmpty())
			Expect(repo.lastScope.AdminID).To(BeEmpty())
		})

		It("forbids employees without campaigns.view", func() {
			_, err := service.List(ctx, employee(permission.Default()))

			Expect(statusOf(err)).To(Equal(http.StatusForbidden))
		})
	})

	Describe("Create", func() {
		It("forces ACTIVE and assigns the creating employee", func() {
			m := permission.Default()
			m.Campaigns.Create = true

			c, err := service.Create(ctx, employee(m), campaign.CreateCampaignDTO{Name: "  Autumn "})

			Expect(err).NotTo(HaveOccurred())
			Expect(c.Name).To(Equal("Autumn"))
			Expect(c.Status).To(Equal(campaign.StatusActive))
			Expect(c.AdminID).To(Equal("admin-1"))
			Expect(repo.createdBy).To(Equal("emp-1"))
		})

		It("rejects employees without campaigns.create", func() {
			_, err := service.Create(ctx, employee(permission.Default()), campaign.CreateCampaignDTO{Name: "Autumn"})

			Expect(err).To(MatchError("No permission to create campaigns"))
		})

		It("requires a name and ordered dates", func() {
			_, err := service.Create(ctx, admin, campaign.CreateCampaignDTO{})
			Expect(err).To(MatchError("Campaign name is required"))

			start := time.Now()
			end := start.Add(-time.Hour)
			_, err = service.Create(ctx, admin, campaign.CreateCampaignDTO{Name: "X", StartDate: &start, EndDate: &end})
			Expect(err).To(MatchError("End date must be after start date"))
		})
	})

	Describe("Get, Update and Delete", func() {
		It("hides other tenants' campaigns", func() {
			_, err := service.Get(ctx, otherAdmin, "camp-1")

			Expect(err).To(Equal(internal.ErrCampaignNotFound))
		})

		It("hides unassigned campaigns from employees", func() {
			m := permission.Default()
			m.Campaigns.View = true

			_, err := service.Get(ctx, employee(m), "camp-2")

			Expect(err).To(Equal(internal.ErrCampaignNotFound))
		})

		It("rejects an unknown status", func() {
			status := "DONE"

			_, err := service.Update(ctx, admin, "camp-1", campaign.UpdateCampaignDTO{Status: &status})

			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})

		It("applies a partial update", func() {
			status := campaign.StatusPaused

			c, err := service.Update(ctx, admin, "camp-1", campaign.UpdateCampaignDTO{Status: &status})

			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(campaign.StatusPaused))
			Expect(c.Name).To(Equal("Spring"))
		})

		It("needs campaigns.delete for employees", func() {
			m := permission.Default()
			m.Campaigns.View = true

			err := service.Delete(ctx, employee(m), "camp-1")

			Expect(err).To(MatchError("No permission to delete campaigns"))
			Expect(repo.campaigns).To(HaveKey("camp-1"))
		})
	})

	Describe("Messages", func() {
		It("updates only the supplied message", func() {
			msg := "Be nice"

			m, err := service.UpdateMessages(ctx, admin, "camp-1", campaign.UpdateMessagesDTO{SystemMessage: &msg})

			Expect(err).NotTo(HaveOccurred())
			Expect(*m.SystemMessage).To(Equal("Be nice"))
			Expect(m.InitialMessage).To(BeNil())
		})
	})

	Describe("Employees", func() {
		It("is admin only", func() {
			m := permission.Full()

			_, err := service.AssignEmployee(ctx, employee(m), "camp-1", campaign.AssignEmployeeDTO{EmployeeID: "emp-1"})

			Expect(statusOf(err)).To(Equal(http.StatusForbidden))
		})

		It("assigns idempotently", func() {
			for i := 0; i < 2; i++ {
				employees, err := service.AssignEmployee(ctx, admin, "camp-1", campaign.AssignEmployeeDTO{EmployeeID: "emp-1"})
				Expect(err).NotTo(HaveOccurred())
				Expect(employees).To(HaveLen(1))
			}
		})

		It("refuses another tenant's employee", func() {
			_, err := service.AssignEmployee(ctx, admin, "camp-1", campaign.AssignEmployeeDTO{EmployeeID: "emp-x"})

			Expect(err).To(Equal(internal.ErrEmployeeNotFound))
		})

		It("reports a missing assignment on unassign", func() {
			err := service.UnassignEmployee(ctx, admin, "camp-1", "emp-1")

			Expect(statusOf(err)).To(Equal(http.StatusNotFound))
		})
	})

	Describe("AddContact", func() {
		It("links an existing contact by id", func() {
			member, created, err := service.AddContact(ctx, admin, "camp-1", campaign.AddContactDTO{ContactID: "contact-1"})

			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())
			Expect(member.Name).To(Equal("Ann"))
		})

		It("links by phone when the tenant already has it", func() {
			dto := campaign.AddContactDTO{CreateContactDTO: contact.CreateContactDTO{Name: "Ann again", Phone: "+100"}}

			member, created, err := service.AddContact(ctx, admin, "camp-1", dto)

			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())
			Expect(member.ID).To(Equal("contact-1"))
		})

		It("creates and links a new contact", func() {
			dto := campaign.AddContactDTO{CreateContactDTO: contact.CreateContactDTO{Name: "Cy", Phone: "+300"}}

			member, created, err := service.AddContact(ctx, admin, "camp-1", dto)

			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeTrue())
			Expect(member.AdminID).To(Equal("admin-1"))
			Expect(member.Status).To(Equal(contact.StatusActive))
		})

		It("is a no-op when already linked", func() {
			_, _, err := service.AddContact(ctx, admin, "camp-1", campaign.AddContactDTO{ContactID: "contact-1"})
			Expect(err).NotTo(HaveOccurred())

			_, created, err := service.AddContact(ctx, admin, "camp-1", campaign.AddContactDTO{ContactID: "contact-1"})

			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())
			Expect(repo.links).To(HaveLen(1))
		})

		It("refuses another tenant's contact", func() {
			_, _, err := service.AddContact(ctx, admin, "camp-1", campaign.AddContactDTO{ContactID: "contact-x"})

			Expect(err).To(Equal(internal.ErrContactNotFound))
		})

		It("needs contacts.create to create a new contact", func() {
			m := permission.Default()
			m.Campaigns.Edit = true
			dto := campaign.AddContactDTO{CreateContactDTO: contact.CreateContactDTO{Name: "Cy", Phone: "+300"}}

			_, _, err := service.AddContact(ctx, employee(m), "camp-1", dto)

			Expect(statusOf(err)).To(Equal(http.StatusForbidden))
		})

		It("validates a new contact", func() {
			dto := campaign.AddContactDTO{CreateContactDTO: contact.CreateContactDTO{Phone: "+300"}}

			_, _, err := service.AddContact(ctx, admin, "camp-1", dto)

			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("RemoveContact", func() {
		It("is 404 when the contact is not linked", func() {
			err := service.RemoveContact(ctx, admin, "camp-1", "contact-1")

			Expect(statusOf(err)).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Stats", func() {
		It("computes from the repository input", func() {
			fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			service.WithClock(func() time.Time { return fixed })

			s, err := service.Stats(ctx, admin, "camp-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(s.TotalContacts).To(Equal(2))
			Expect(s.ActiveContacts).To(Equal(1))
			Expect(s.SuccessRate).To(Equal(100))
			Expect(s.CallHistory[6].Date).To(Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
		})
	})

	Describe("Appointments", func() {
		It("defaults and caps paging", func() {
			page, err := service.Appointments(ctx, admin, "camp-1", campaign.AppointmentQuery{Limit: 5000})

			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilter.Page).To(Equal(1))
			Expect(repo.lastFilter.Limit).To(Equal(200))
			Expect(page.Pagination.Limit).To(Equal(200))
		})

		It("rejects an unknown status", func() {
			_, err := service.Appointments(ctx, admin, "camp-1", campaign.AppointmentQuery{Status: "LATE"})

			Expect(err).To(MatchError("Invalid status"))
		})
	})

	Describe("CalendarEvents", func() {
		It("merges appointments and live scheduled calls as 30 minute slots", func() {
			start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
			repo.appointments = []campaign.AppointmentItem{{ID: "a1", Title: "Demo", Start: start, Contact: campaign.AppointmentWho{Phone: "+100"}}}
			repo.scheduled["s1"] = &campaign.ScheduledCall{ID: "s1", CampaignID: "camp-1", Phone: "+200", ScheduledAt: start.Add(time.Hour), Status: campaign.CallPending}
			repo.scheduled["s2"] = &campaign.ScheduledCall{ID: "s2", CampaignID: "camp-1", Phone: "+300", ScheduledAt: start, Status: campaign.CallCancelled}

			events, err := service.CalendarEvents(ctx, admin, "camp-1", start, start.Add(24*time.Hour))

			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(2))
			Expect(events[0].Type).To(Equal("appointment"))
			Expect(events[0].End).To(Equal(start.Add(30 * time.Minute)))
			Expect(events[0].BackgroundColor).To(Equal("#10B981"))
			Expect(events[1].Title).To(Equal("Scheduled Call: +200"))
			Expect(events[1].BorderColor).To(Equal("#4F46E5"))
		})
	})

	Describe("Scheduled calls", func() {
		var when time.Time

		BeforeEach(func() {
			when = time.Now().Add(time.Hour)
			repo.links[link{"camp-1", "contact-1"}] = "link-1"
			repo.links[link{"camp-1", "contact-2"}] = "link-2"
		})

		It("schedules a linked contact with its phone", func() {
			sc, err := service.ScheduleCall(ctx, admin, "camp-1", campaign.ScheduleCallDTO{ContactID: "contact-1", ScheduledAt: &when})

			Expect(err).NotTo(HaveOccurred())
			Expect(sc.Phone).To(Equal("+100"))
			Expect(sc.Status).To(Equal(campaign.CallPending))
		})

		It("requires the contact to be linked", func() {
			_, err := service.ScheduleCall(ctx, admin, "camp-2", campaign.ScheduleCallDTO{ContactID: "contact-1", ScheduledAt: &when})

			Expect(err).To(MatchError("Contact is not linked to this campaign"))
		})

		It("refuses blocked contacts", func() {
			_, err := service.ScheduleCall(ctx, admin, "camp-1", campaign.ScheduleCallDTO{ContactID: "contact-2", ScheduledAt: &when})

			Expect(err).To(MatchError("Contact is blocked"))
		})

		It("requires a time", func() {
			_, err := service.ScheduleCall(ctx, admin, "camp-1", campaign.ScheduleCallDTO{ContactID: "contact-1"})

			Expect(err).To(MatchError("Scheduled time is required"))
		})

		It("cancels only pending calls of the same campaign", func() {
			sc, err := service.ScheduleCall(ctx, admin, "camp-1", campaign.ScheduleCallDTO{ContactID: "contact-1", ScheduledAt: &when})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.CancelScheduledCall(ctx, admin, "camp-2", sc.ID)).To(Equal(internal.ErrScheduleNotFound))
			Expect(service.CancelScheduledCall(ctx, admin, "camp-1", sc.ID)).To(Succeed())
			Expect(service.CancelScheduledCall(ctx, admin, "camp-1", sc.ID)).To(MatchError("Only pending calls can be cancelled"))
		})
	})
})

var _ = Describe("Campaign Handler", func() {
	var (
		repo   *mockRepository
		router chi.Router
	)

	as := func(p *auth.Principal) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
			})
		}
	}

	BeforeEach(func() {
		repo = newMockRepository()
		policy := auth.NewABACPolicy(assignments{}, logger.Discard())
		h := campaign.NewHandler(campaign.NewService(repo, policy, logger.Discard()), logger.Discard())

		router = chi.NewRouter()
		router.Use(as(admin))
		router.Post("/campaigns", h.CreateCampaign)
		router.Get("/campaigns/{id}", h.GetCampaign)
		router.Delete("/campaigns/{id}", h.DeleteCampaign)
		router.Post("/campaigns/{id}/contacts", h.AddContact)
		router.Get("/campaigns/{id}/calendar-events", h.CalendarEvents)
		router.Get("/campaigns/{id}/appointments", h.ListAppointments)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("creates a campaign with 201", func() {
		rec := do(http.MethodPost, "/campaigns", `{"name":"Autumn"}`)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["status"]).To(Equal("ACTIVE"))
	})

	It("answers 404 for another tenant's campaign", func() {
		rec := do(http.MethodGet, "/campaigns/camp-x", "")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(ContainSubstring("Campaign not found or unauthorized"))
	})

	It("answers 204 on delete", func() {
		rec := do(http.MethodDelete, "/campaigns/camp-1", "")

		Expect(rec.Code).To(Equal(http.StatusNoContent))
	})

	It("answers 201 for a new contact and 200 for an existing phone", func() {
		rec := do(http.MethodPost, "/campaigns/camp-1/contacts", `{"name":"Cy","phone":"+300"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		rec = do(http.MethodPost, "/campaigns/camp-1/contacts", `{"name":"Ann","phone":"+100"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("requires calendar bounds", func() {
		rec := do(http.MethodGet, "/campaigns/camp-1/calendar-events?start=2026-05-01", "")

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("Start and end dates are required"))
	})

	It("wraps calendar events", func() {
		rec := do(http.MethodGet, "/campaigns/camp-1/calendar-events?start=2026-05-01&end=2026-05-31", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"events":[]`))
	})

	It("pages appointments", func() {
		rec := do(http.MethodGet, "/campaigns/camp-1/appointments?page=2&limit=10", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"page":2`))
		Expect(rec.Body.String()).To(ContainSubstring(`"limit":10`))
	})
})
