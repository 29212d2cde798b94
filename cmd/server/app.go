package main

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/auth"
	"github.com/diewo77/go-rentals/gate"
	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/handlers"
	"github.com/diewo77/go-rentals/internal/middleware"
	"github.com/diewo77/go-rentals/internal/policy"
	"github.com/diewo77/go-rentals/internal/services"
)

// profileCacheTTL bounds how long a role change takes to apply without an
// explicit invalidation.
const profileCacheTTL = 5 * time.Minute

// App is the main application handler that sets up all routes.
type App struct {
	mux      *http.ServeMux
	db       *gorm.DB
	authGate *policy.AuthGate

	settings  *services.SettingsCache
	users     *services.UserService
	rentals   *services.RentalService
	invoices  *services.InvoiceService
	payments  *services.PaymentService
	dashboard *services.DashboardService
}

// NewApp wires services and handlers over db. settings is shared by every
// service that prices or settles; now is their clock.
func NewApp(db *gorm.DB, settings *services.SettingsCache, now services.Clock) *App {
	if now == nil {
		now = time.Now
	}
	users := services.NewUserService(db)
	invoices := services.NewInvoiceService(db, settings, now)
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		authGate:  policy.NewAuthGate(users, profileCacheTTL),
		settings:  settings,
		users:     users,
		rentals:   services.NewRentalService(db, settings, now),
		invoices:  invoices,
		payments:  services.NewPaymentService(db, invoices, now),
		dashboard: services.NewDashboardService(db, now),
	}
	app.setupRoutes(now)
	return app
}

// ServeHTTP applies the global middleware: session context and language.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	auth.Middleware(middleware.Prefs(a.mux)).ServeHTTP(w, r)
}

// guard requires a session and the resource:action permission.
func (a *App) guard(resource string, action gate.Action, h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(a.authGate.RequirePermission(resource, action)(h))
}

func (a *App) admin(h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(a.authGate.RequireAdmin()(h))
}

// crud registers the five REST routes of a collection.
func (a *App) crud(base, resource string, list, get, create, update, remove http.HandlerFunc) {
	a.mux.Handle("GET "+base, a.guard(resource, gate.ActionList, list))
	a.mux.Handle("GET "+base+"/{id}", a.guard(resource, gate.ActionView, get))
	a.mux.Handle("POST "+base, a.guard(resource, gate.ActionCreate, create))
	a.mux.Handle("PATCH "+base+"/{id}", a.guard(resource, gate.ActionUpdate, update))
	a.mux.Handle("DELETE "+base+"/{id}", a.guard(resource, gate.ActionDelete, remove))
}

func (a *App) setupRoutes(now services.Clock) {
	// Public
	a.mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	a.mux.HandleFunc("GET /healthz", a.healthz)

	ah := handlers.NewAuthHandler(a.users)
	a.mux.HandleFunc("POST /api/auth/login", ah.Login)
	a.mux.HandleFunc("POST /api/auth/logout", ah.Logout)
	a.mux.Handle("GET /api/auth/me", auth.RequireAuth(http.HandlerFunc(ah.Me)))
	a.mux.Handle("POST /api/auth/password", auth.RequireAuth(http.HandlerFunc(ah.ChangePassword)))

	// Reference data
	brands := handlers.NewCatalogHandler(services.NewBrandCatalog(a.db))
	a.crud("/api/brands", policy.ResourceBrand, brands.List, brands.Get, brands.Create, brands.Update, brands.Delete)
	vmodels := handlers.NewCatalogHandler(services.NewModelCatalog(a.db), "brand_id")
	a.crud("/api/models", policy.ResourceModel, vmodels.List, vmodels.Get, vmodels.Create, vmodels.Update, vmodels.Delete)
	vehicles := handlers.NewCatalogHandler(services.NewVehicleCatalog(a.db), "model_id")
	a.crud("/api/vehicles", policy.ResourceVehicle, vehicles.List, vehicles.Get, vehicles.Create, vehicles.Update, vehicles.Delete)
	clients := handlers.NewCatalogHandler(services.NewClientCatalog(a.db), "type")
	a.crud("/api/clients", policy.ResourceClient, clients.List, clients.Get, clients.Create, clients.Update, clients.Delete)

	// Rentals
	rh := handlers.NewRentalHandler(a.rentals)
	a.crud("/api/rentals", policy.ResourceRental, rh.List, rh.Get, rh.Create, rh.Update, rh.Delete)
	a.mux.Handle("POST /api/rentals/billing-status", a.guard(policy.ResourceRental, gate.ActionUpdate, rh.SetBillingStatus))

	// Invoices
	ih := handlers.NewInvoiceHandler(a.invoices, now)
	a.mux.Handle("GET /api/invoices", a.guard(policy.ResourceInvoice, gate.ActionList, ih.List))
	a.mux.Handle("GET /api/invoices/next-number", a.guard(policy.ResourceInvoice, gate.ActionCreate, ih.NextNumber))
	a.mux.Handle("GET /api/invoices/export", a.guard(policy.ResourceInvoice, gate.ActionExport, ih.Export))
	a.mux.Handle("GET /api/invoices/{id}", a.guard(policy.ResourceInvoice, gate.ActionView, ih.Get))
	a.mux.Handle("POST /api/invoices", a.guard(policy.ResourceInvoice, gate.ActionCreate, ih.Create))
	a.mux.Handle("POST /api/invoices/from-rentals", a.guard(policy.ResourceInvoice, gate.ActionCreate, ih.FromRentals))
	a.mux.Handle("PATCH /api/invoices/{id}", a.guard(policy.ResourceInvoice, gate.ActionUpdate, ih.Update))
	a.mux.Handle("POST /api/invoices/{id}/validate", a.guard(policy.ResourceInvoice, gate.ActionUpdate, ih.Validate))
	a.mux.Handle("POST /api/invoices/{id}/cancel", a.guard(policy.ResourceInvoice, gate.ActionUpdate, ih.Cancel))

	// Payments
	ph := handlers.NewPaymentHandler(a.payments)
	a.mux.Handle("GET /api/invoices/{id}/allocations", a.guard(policy.ResourcePayment, gate.ActionList, ph.ByInvoice))
	a.mux.Handle("GET /api/payments", a.guard(policy.ResourcePayment, gate.ActionList, ph.List))
	a.mux.Handle("GET /api/payments/total", a.guard(policy.ResourcePayment, gate.ActionList, ph.Total))
	a.mux.Handle("GET /api/payments/next-number", a.guard(policy.ResourcePayment, gate.ActionCreate, ph.NextNumber))
	a.mux.Handle("GET /api/payments/{id}", a.guard(policy.ResourcePayment, gate.ActionView, ph.Get))
	a.mux.Handle("POST /api/payments", a.guard(policy.ResourcePayment, gate.ActionSettle, ph.Settle))
	a.mux.Handle("PUT /api/payments/{id}", a.guard(policy.ResourcePayment, gate.ActionSettle, ph.Resettle))
	a.mux.Handle("GET /api/payment-lines", a.guard(policy.ResourcePayment, gate.ActionList, ph.Lines))
	a.mux.Handle("POST /api/payment-lines/{id}/status", a.guard(policy.ResourcePayment, gate.ActionUpdate, ph.UpdateLineStatus))
	a.mux.Handle("GET /api/due-dates", a.guard(policy.ResourcePayment, gate.ActionList, ph.DueDates))

	// Dashboard
	dh := handlers.NewDashboardHandler(a.dashboard, a.settings)
	a.mux.Handle("GET /api/dashboard", a.guard(policy.ResourceDashboard, gate.ActionView, dh.Overview))
	a.mux.Handle("GET /api/dashboard/stats", a.guard(policy.ResourceDashboard, gate.ActionView, dh.Stats))
	a.mux.Handle("GET /api/dashboard/charts", a.guard(policy.ResourceDashboard, gate.ActionView, dh.Charts))

	// Expenses
	eh := handlers.NewExpenseHandler(services.NewExpenseService(a.db))
	a.crud("/api/expenses", policy.ResourceExpense, eh.List, eh.Get, eh.Create, eh.Update, eh.Delete)

	// Parameters and general configuration
	prh := handlers.NewParameterHandler(services.NewParameterService(a.db))
	a.mux.Handle("GET /api/parameters/{type}", a.guard(policy.ResourceParameter, gate.ActionList, prh.List))
	a.mux.Handle("POST /api/parameters", a.guard(policy.ResourceParameter, gate.ActionCreate, prh.Create))
	a.mux.Handle("PATCH /api/parameters/{id}", a.guard(policy.ResourceParameter, gate.ActionUpdate, prh.Update))
	a.mux.Handle("DELETE /api/parameters/{id}", a.guard(policy.ResourceParameter, gate.ActionDelete, prh.Delete))

	sh := handlers.NewSettingsHandler(a.settings)
	a.mux.Handle("GET /api/settings", a.guard(policy.ResourceSettings, gate.ActionView, sh.Get))
	a.mux.Handle("PATCH /api/settings", a.guard(policy.ResourceSettings, gate.ActionUpdate, sh.Update))
	a.mux.Handle("POST /api/settings/reload", a.admin(sh.Reload))

	// Users
	uh := handlers.NewUserHandler(a.users, a.authGate, a.authGate)
	a.mux.Handle("GET /api/users", a.admin(uh.List))
	a.mux.Handle("POST /api/users", a.admin(uh.Create))
	a.mux.Handle("GET /api/users/{id}", auth.RequireAuth(http.HandlerFunc(uh.Get)))
	a.mux.Handle("PATCH /api/users/{id}", a.admin(uh.Update))
	a.mux.Handle("POST /api/users/{id}/password", auth.RequireAuth(http.HandlerFunc(uh.SetPassword)))
	a.mux.Handle("DELETE /api/users/{id}", a.admin(uh.Delete))
}

// healthz also checks the database.
func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := a.db.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
