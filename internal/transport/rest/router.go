package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/dialer-dashboard/internal/appointment"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/calllog"
	"github.com/frahmantamala/dialer-dashboard/internal/campaign"
	"github.com/frahmantamala/dialer-dashboard/internal/contact"
	"github.com/frahmantamala/dialer-dashboard/internal/dialer"
	"github.com/frahmantamala/dialer-dashboard/internal/registration"
	"github.com/frahmantamala/dialer-dashboard/internal/team"
	"github.com/frahmantamala/dialer-dashboard/internal/transport/middleware"
	"github.com/frahmantamala/dialer-dashboard/internal/transport/swagger"
	"github.com/frahmantamala/dialer-dashboard/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers are the mounted route groups. A nil handler leaves its routes out.
type Handlers struct {
	Auth         *auth.Handler
	Registration *registration.Handler
	Team         *team.Handler
	Campaign     *campaign.Handler
	Contact      *contact.Handler
	CallLog      *calllog.Handler
	Appointment  *appointment.Handler
	Dialer       *dialer.Handler
	User         *user.Handler
}

// Options carries the cross-cutting pieces of the router.
type Options struct {
	AllowedOrigins string
	OpenAPIPath    string
	// Validator checks requests against the API document when set.
	Validator *middleware.OpenAPIValidator
	// AuthLimiter throttles the credential endpoints when set.
	AuthLimiter *middleware.RateLimiter
	ABAC        *auth.ABACPolicy
	Campaigns   auth.CampaignLookup
}

func RegisterAllRoutes(router *chi.Mux, health *HealthHandler, h Handlers, opts Options, logger *slog.Logger) {
	rbac := auth.NewRBACAuthorization(auth.NewPermissionChecker(), logger)

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)

	openAPIPath := opts.OpenAPIPath
	if openAPIPath == "" {
		openAPIPath = "./api/openapi.yml"
	}
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, openAPIPath)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api", func(r chi.Router) {
		if opts.Validator != nil {
			r.Use(opts.Validator.Middleware)
		}

		r.Get("/health", health.healthCheckHandler)
		r.Get("/ping", health.pingHandler)

		limited := func(fn http.HandlerFunc) http.Handler {
			if opts.AuthLimiter == nil {
				return fn
			}
			return opts.AuthLimiter.Middleware(fn)
		}

		r.Route("/auth", func(ar chi.Router) {
			if h.Auth != nil {
				ar.Method(http.MethodPost, "/login", limited(h.Auth.Login))
				ar.Post("/refresh", h.Auth.RefreshToken)
			}
			if h.Registration != nil {
				ar.Method(http.MethodPost, "/register", limited(h.Registration.Register))
				ar.Method(http.MethodPost, "/signup", limited(h.Registration.Signup))
				ar.Method(http.MethodPut, "/signup", limited(h.Registration.VerifySignup))
			}
			if h.Auth != nil {
				ar.Group(func(pr chi.Router) {
					pr.Use(h.Auth.AuthMiddleware)
					pr.Post("/logout", h.Auth.Logout)
					pr.Get("/me", h.Auth.Me)
				})
			}
		})

		if h.Auth == nil {
			return
		}

		// everything below needs a bearer token
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
				pr.Get("/settings", h.User.GetSettings)
				pr.Put("/settings", h.User.UpdateSettings)
			}

			if h.Team != nil {
				pr.Route("/team/employees", func(tr chi.Router) {
					tr.Use(rbac.RequireAdmin("Only admins can manage employees"))
					tr.Get("/", h.Team.ListEmployees)
					tr.Post("/", h.Team.CreateEmployee)
					tr.Patch("/{id}", h.Team.UpdateEmployee)
					tr.Delete("/{id}", h.Team.DeleteEmployee)
				})
			}

			if h.Contact != nil {
				pr.Route("/contacts", func(cr chi.Router) {
					cr.Get("/", h.Contact.ListContacts)
					cr.Post("/", h.Contact.CreateContact)
					cr.Put("/", h.Contact.UpdateContact)
					cr.Delete("/", h.Contact.DeleteContact)
					cr.Get("/export", h.Contact.ExportContacts)
					cr.Post("/import", h.Contact.ImportContacts)
					cr.Put("/{id}", h.Contact.UpdateContact)
					cr.Delete("/{id}", h.Contact.DeleteContact)
				})
			}

			if h.CallLog != nil {
				pr.Route("/call-logs", func(lr chi.Router) {
					lr.Get("/", h.CallLog.ListCallLogs)
					lr.Post("/", h.CallLog.CreateCallLog)
					lr.Get("/{id}", h.CallLog.GetCallLog)
					lr.Put("/{id}", h.CallLog.UpdateCallLog)
					lr.Delete("/{id}", h.CallLog.DeleteCallLog)
				})
			}

			if h.Appointment != nil {
				pr.Route("/appointments", func(ar chi.Router) {
					ar.Get("/", h.Appointment.ListAppointments)
					ar.Post("/", h.Appointment.CreateAppointment)
					ar.Get("/{id}", h.Appointment.GetAppointment)
					ar.Put("/{id}", h.Appointment.UpdateAppointment)
					ar.Delete("/{id}", h.Appointment.DeleteAppointment)
				})
			}

			if h.Dialer != nil {
				pr.Post("/calls/start_call", h.Dialer.StartCall)
				pr.Post("/calls/start", h.Dialer.Start)
			}

			if h.Campaign != nil {
				pr.Route("/campaigns", func(cr chi.Router) {
					cr.Get("/", h.Campaign.ListCampaigns)
					cr.Post("/", h.Campaign.CreateCampaign)

					cr.Route("/{id}", func(sr chi.Router) {
						if opts.ABAC != nil && opts.Campaigns != nil {
							sr.Use(auth.RequireCampaignView(opts.ABAC, opts.Campaigns))
						}
						registerCampaignRoutes(sr, h)
					})
				})
			}
		})
	})
}

func registerCampaignRoutes(r chi.Router, h Handlers) {
	r.Get("/", h.Campaign.GetCampaign)
	r.Put("/", h.Campaign.UpdateCampaign)
	r.Delete("/", h.Campaign.DeleteCampaign)
	r.Get("/settings", h.Campaign.GetSettings)
	r.Put("/settings", h.Campaign.UpdateSettings)

	r.Get("/employees", h.Campaign.ListEmployees)
	r.Post("/employees", h.Campaign.AssignEmployee)
	r.Delete("/employees/{employeeId}", h.Campaign.UnassignEmployee)

	r.Get("/contacts", h.Campaign.ListContacts)
	r.Post("/contacts", h.Campaign.AddContact)
	if h.Contact != nil {
		r.Post("/contacts/import", h.Contact.ImportCampaignContacts)
		r.Get("/contacts/export", h.Contact.ExportCampaignContacts)
	}
	r.Delete("/contacts/{contactId}", h.Campaign.RemoveContact)

	r.Get("/leads", h.Campaign.ListLeads)
	r.Get("/stats", h.Campaign.GetStats)
	r.Get("/appointments", h.Campaign.ListAppointments)
	r.Get("/calendar-events", h.Campaign.CalendarEvents)

	r.Get("/scheduled-calls", h.Campaign.ListScheduledCalls)
	r.Post("/scheduled-calls", h.Campaign.ScheduleCall)
	r.Delete("/scheduled-calls/{callId}", h.Campaign.CancelScheduledCall)

	if h.Dialer != nil {
		r.Post("/contacts/{contactId}/call", h.Dialer.CallContact)
		r.Get("/call-logs", h.Dialer.CampaignCallLogs)
		r.Get("/call-logs/{callSid}", h.Dialer.CampaignTranscript)
	}
}
