package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type fakeAssignments struct {
	campaigns map[string][]string // employeeID -> campaign ids
	links     map[string][]string // contactID -> campaign ids
}

func (f *fakeAssignments) AssignedCampaignIDs(_ context.Context, employeeID string) ([]string, error) {
	return f.campaigns[employeeID], nil
}

func (f *fakeAssignments) IsAssigned(_ context.Context, employeeID, campaignID string) (bool, error) {
	for _, id := range f.campaigns[employeeID] {
		if id == campaignID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAssignments) ContactInCampaigns(_ context.Context, contactID string, campaignIDs []string) (bool, error) {
	for _, linked := range f.links[contactID] {
		for _, id := range campaignIDs {
			if linked == id {
				return true, nil
			}
		}
	}
	return false, nil
}

type fakeCampaignLookup map[string]*CampaignRef

func (f fakeCampaignLookup) FindCampaignRef(_ context.Context, id string) (*CampaignRef, error) {
	return f[id], nil
}

func adminPrincipal(id string) *Principal {
	return &Principal{UserID: id, Role: RoleAdmin, AdminID: id, Status: UserStatusActive, Permissions: permission.Full()}
}

func employeePrincipal(adminID string, m permission.Matrix) *Principal {
	return &Principal{UserID: "emp-user", EmployeeID: "emp-1", Role: RoleEmployee, AdminID: adminID, Status: UserStatusActive, Permissions: m}
}

func statusOf(err error) int {
	appErr, ok := internal.IsAppError(err)
	gomega.Expect(ok).To(gomega.BeTrue())
	return appErr.StatusCode
}

var _ = ginkgo.Describe("ABAC policy", func() {
	var (
		store  *fakeAssignments
		policy *ABACPolicy
		ctx    context.Context
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		store = &fakeAssignments{
			campaigns: map[string][]string{"emp-1": {"camp-1"}},
			links:     map[string][]string{"contact-in": {"camp-1"}, "contact-out": {"camp-2"}},
		}
		policy = NewABACPolicy(store, logger.Discard())
	})

	ginkgo.Describe("AuthorizeContact", func() {
		ginkgo.It("lets the owning admin through", func() {
			err := policy.AuthorizeContact(ctx, adminPrincipal("admin-1"), &ContactRef{ID: "c", AdminID: "admin-1"}, permission.ActionEdit)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("forbids an admin from touching another tenant's contact", func() {
			err := policy.AuthorizeContact(ctx, adminPrincipal("admin-1"), &ContactRef{ID: "c", AdminID: "admin-2"}, permission.ActionEdit)
			gomega.Expect(statusOf(err)).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("checks the matrix flag before existence", func() {
			err := policy.AuthorizeContact(ctx, employeePrincipal("admin-1", permission.Default()), nil, permission.ActionDelete)

			gomega.Expect(statusOf(err)).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(err.Error()).To(gomega.Equal("You don't have permission to delete contacts"))
		})

		ginkgo.It("returns not found for a missing contact", func() {
			err := policy.AuthorizeContact(ctx, adminPrincipal("admin-1"), nil, permission.ActionView)
			gomega.Expect(errors.Is(err, internal.ErrContactNotFound)).To(gomega.BeTrue())
		})

		ginkgo.It("lets an ALL-access employee see every contact of the tenant", func() {
			m := permission.Default()
			m.Contacts.View = true
			m.Contacts.AccessType = permission.AccessAll

			err := policy.AuthorizeContact(ctx, employeePrincipal("admin-1", m), &ContactRef{ID: "contact-out", AdminID: "admin-1"}, permission.ActionView)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("limits an ASSIGNED employee to contacts of assigned campaigns", func() {
			m := permission.Default()
			m.Contacts.View = true
			emp := employeePrincipal("admin-1", m)

			gomega.Expect(policy.AuthorizeContact(ctx, emp, &ContactRef{ID: "contact-in", AdminID: "admin-1"}, permission.ActionView)).To(gomega.Succeed())

			err := policy.AuthorizeContact(ctx, emp, &ContactRef{ID: "contact-out", AdminID: "admin-1"}, permission.ActionView)
			gomega.Expect(err.Error()).To(gomega.Equal("You don't have access to this contact"))
		})

		ginkgo.It("treats the legacy CAMPAIGN_ONLY value like ASSIGNED", func() {
			m := permission.Default()
			m.Contacts.View = true
			m.Contacts.AccessType = permission.AccessCampaignOnly

			err := policy.AuthorizeContact(ctx, employeePrincipal("admin-1", m), &ContactRef{ID: "contact-out", AdminID: "admin-1"}, permission.ActionView)
			gomega.Expect(statusOf(err)).To(gomega.Equal(http.StatusForbidden))
		})
	})

	ginkgo.Describe("AuthorizeCampaign", func() {
		ginkgo.It("hides other tenants' campaigns behind 404", func() {
			err := policy.AuthorizeCampaign(ctx, adminPrincipal("admin-1"), &CampaignRef{ID: "camp-9", AdminID: "admin-2"}, permission.ActionView)
			gomega.Expect(errors.Is(err, internal.ErrCampaignNotFound)).To(gomega.BeTrue())
		})

		ginkgo.It("needs the campaigns flag for employees", func() {
			err := policy.AuthorizeCampaign(ctx, employeePrincipal("admin-1", permission.Default()), &CampaignRef{ID: "camp-1", AdminID: "admin-1"}, permission.ActionView)

			gomega.Expect(statusOf(err)).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(err.Error()).To(gomega.Equal("No permission to view campaigns"))
		})

		ginkgo.It("hides unassigned campaigns from employees", func() {
			m := permission.Default()
			m.Campaigns.View = true
			emp := employeePrincipal("admin-1", m)

			gomega.Expect(policy.AuthorizeCampaign(ctx, emp, &CampaignRef{ID: "camp-1", AdminID: "admin-1"}, permission.ActionView)).To(gomega.Succeed())

			err := policy.AuthorizeCampaign(ctx, emp, &CampaignRef{ID: "camp-2", AdminID: "admin-1"}, permission.ActionView)
			gomega.Expect(statusOf(err)).To(gomega.Equal(http.StatusNotFound))
		})
	})

	ginkgo.Describe("scopes", func() {
		ginkgo.It("gives admins an unrestricted tenant scope", func() {
			scope, err := policy.ContactScope(ctx, adminPrincipal("admin-1"))

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(scope.AdminID).To(gomega.Equal("admin-1"))
			gomega.Expect(scope.Assigned).To(gomega.BeFalse())
		})

		ginkgo.It("restricts ASSIGNED employees to their campaigns", func() {
			scope, err := policy.ContactScope(ctx, employeePrincipal("admin-1", permission.Default()))

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(scope.Assigned).To(gomega.BeTrue())
			gomega.Expect(scope.CampaignIDs).To(gomega.ConsistOf("camp-1"))
		})

		ginkgo.It("requires the flag for campaign-owned data", func() {
			_, err := policy.CampaignScope(ctx, employeePrincipal("admin-1", permission.Default()), permission.ResourceCallLogs, permission.ActionView)
			gomega.Expect(statusOf(err)).To(gomega.Equal(http.StatusForbidden))
		})
	})

	ginkgo.Describe("RequireCampaignView", func() {
		var router *chi.Mux

		ginkgo.BeforeEach(func() {
			lookup := fakeCampaignLookup{"camp-1": {ID: "camp-1", AdminID: "admin-1"}}
			router = chi.NewRouter()
			router.Route("/campaigns/{id}", func(r chi.Router) {
				r.Use(RequireCampaignView(policy, lookup))
				r.Get("/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
			})
		})

		serve := func(p *Principal, id string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/campaigns/"+id+"/", nil)
			if p != nil {
				req = req.WithContext(WithPrincipal(req.Context(), p))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		ginkgo.It("passes the owner through", func() {
			gomega.Expect(serve(adminPrincipal("admin-1"), "camp-1").Code).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("answers 404 with a JSON body for unknown campaigns", func() {
			w := serve(adminPrincipal("admin-1"), "missing")

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNotFound))
			var body internal.Response
			gomega.Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(gomega.Succeed())
			gomega.Expect(body.Error).To(gomega.Equal("Campaign not found or unauthorized"))
		})

		ginkgo.It("answers 401 without a principal", func() {
			gomega.Expect(serve(nil, "camp-1").Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})
})
