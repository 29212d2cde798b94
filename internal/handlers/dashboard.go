package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/i18n"
	"github.com/diewo77/go-rentals/internal/middleware"
	"github.com/diewo77/go-rentals/internal/services"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
	settings  services.SettingsProvider
}

func NewDashboardHandler(dashboard *services.DashboardService, settings services.SettingsProvider) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, settings: settings}
}

func (h *DashboardHandler) filter(w http.ResponseWriter, r *http.Request) (services.DashboardFilter, bool) {
	from, to, ok := dateRange(w, r)
	if !ok {
		return services.DashboardFilter{}, false
	}
	q := r.URL.Query()
	return services.DashboardFilter{
		From:      from,
		To:        to,
		VehicleID: q.Get("vehicle_id"),
		ClientID:  q.Get("client_id"),
		BrandID:   q.Get("brand_id"),
	}, true
}

// Overview: GET /api/dashboard?from=&to=&vehicle_id=&client_id=&brand_id=
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filter(w, r)
	if !ok {
		return
	}
	d, err := h.dashboard.Overview(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

// Dataset is one series of a chart.
type Dataset struct {
	Label string `json:"label"`
	Data  []any  `json:"data"`
}

// Chart is the labels-plus-datasets shape the front end plots.
type Chart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Charts groups every chart of the dashboard page.
type Charts struct {
	Revenue       Chart                  `json:"revenue"`
	VehicleStatus Chart                  `json:"vehicle_status"`
	BillingStatus Chart                  `json:"billing_status"`
	Top           services.TopPerformers `json:"top"`
}

func revenueChart(lang string, s services.RevenueSeries) Chart {
	c := Chart{
		Labels: make([]string, len(s.Buckets)),
		Datasets: []Dataset{
			{Label: i18n.T(lang, "revenue"), Data: make([]any, len(s.Buckets))},
			{Label: i18n.T(lang, "count"), Data: make([]any, len(s.Buckets))},
		},
	}
	for i, b := range s.Buckets {
		if s.Granularity == services.Monthly {
			c.Labels[i] = i18n.MonthLabel(lang, b.Start)
		} else {
			c.Labels[i] = i18n.DayLabel(lang, b.Start)
		}
		c.Datasets[0].Data[i] = b.Revenue
		c.Datasets[1].Data[i] = b.Count
	}
	return c
}

// countChart builds a single-dataset chart from label codes and counts.
func countChart(lang string, codes []string, counts []int) Chart {
	c := Chart{Labels: make([]string, len(codes)), Datasets: []Dataset{{Data: make([]any, len(codes))}}}
	for i, code := range codes {
		c.Labels[i] = i18n.T(lang, code)
		c.Datasets[0].Data[i] = counts[i]
	}
	return c
}

// localizeTop replaces the placeholder name of unresolved references.
func localizeTop(lang string, top services.TopPerformers) services.TopPerformers {
	unknown := i18n.T(lang, "unknown")
	fix := func(ps []services.Performer) {
		for i := range ps {
			if ps[i].Name == services.UnknownLabel {
				ps[i].Name = unknown
			}
		}
	}
	fix(top.Vehicles)
	fix(top.Clients)
	return top
}

// Charts: GET /api/dashboard/charts with the same filters as Overview.
// Labels follow the request language.
func (h *DashboardHandler) Charts(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filter(w, r)
	if !ok {
		return
	}
	d, err := h.dashboard.Overview(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lang := middleware.LangFrom(r)
	st := d.Stats
	httpx.JSON(w, http.StatusOK, Charts{
		Revenue: revenueChart(lang, d.Revenue),
		VehicleStatus: countChart(lang,
			[]string{"available", "rented", "maintenance"},
			[]int{st.AvailableVehicles, st.RentedVehicles, st.MaintenanceVehicles}),
		BillingStatus: countChart(lang,
			[]string{"invoiced", "open"},
			[]int{d.Billing.Invoiced, d.Billing.Open}),
		Top: localizeTop(lang, d.Top),
	})
}

// statsResponse adds display strings rounded to the configured decimals.
type statsResponse struct {
	services.DashboardStats
	Display map[string]string `json:"display"`
}

// Stats: GET /api/dashboard/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filter(w, r)
	if !ok {
		return
	}
	st, err := h.dashboard.Stats(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cfg, err := h.settings.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	display := map[string]string{}
	for k, v := range map[string]decimal.Decimal{
		"total_revenue":   st.TotalRevenue,
		"pending_revenue": st.PendingRevenue,
		"unpaid_amount":   st.UnpaidAmount,
		"cash_in":         st.CashIn,
	} {
		display[k] = cfg.Format(v)
	}
	httpx.JSON(w, http.StatusOK, statsResponse{DashboardStats: st, Display: display})
}
