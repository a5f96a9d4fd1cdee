// Package fleet serves the fleet dashboard API.
package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/corner-25/test-umc-sub000/auth"
	"github.com/corner-25/test-umc-sub000/core/audit"
	corefleet "github.com/corner-25/test-umc-sub000/core/fleet"
	"github.com/corner-25/test-umc-sub000/core/ingest"
	"github.com/corner-25/test-umc-sub000/core/logger"
	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/core/tripstore"
	inflog "github.com/corner-25/test-umc-sub000/infra/logger"
	"github.com/corner-25/test-umc-sub000/pkg/charts"
	"github.com/corner-25/test-umc-sub000/pkg/export"
)

const (
	defaultTripLimit = 500
	maxTripLimit     = 10000
	defaultMaxUpload = 32 << 20
)

// Deps are the services behind the API. Pipeline and Audit may be nil, which
// disables uploads and the audit listing.
type Deps struct {
	Store     tripstore.Store
	Catalog   *corefleet.Catalog
	Config    corefleet.Config
	Pipeline  *ingest.Pipeline
	Audit     audit.Store
	MaxUpload int64
	Log       logger.Logger
}

// Handler implements the /api/fleet routes.
type Handler struct {
	Deps
	now func() time.Time
}

// NewHandler fills defaults in d.
func NewHandler(d Deps) *Handler {
	d.Config.SetDefaults()
	if d.MaxUpload <= 0 {
		d.MaxUpload = defaultMaxUpload
	}
	if d.Log == nil {
		d.Log = inflog.NopLogger{}
	}
	return &Handler{Deps: d, now: time.Now}
}

// Middleware wraps a route handler; route is the mux pattern.
type Middleware func(route string, h http.Handler) http.Handler

// Register mounts the routes on mux. authn guards every route and admin
// guards the ones that change data; either may be nil in tests.
func (h *Handler) Register(mux *http.ServeMux, authn, admin func(http.Handler) http.Handler, wrap Middleware) {
	if authn == nil {
		authn = func(next http.Handler) http.Handler { return next }
	}
	if admin == nil {
		admin = func(next http.Handler) http.Handler { return next }
	}
	if wrap == nil {
		wrap = func(_ string, next http.Handler) http.Handler { return next }
	}
	routes := []struct {
		pattern string
		handler http.HandlerFunc
		admin   bool
	}{
		{"GET /api/fleet/summary", h.summary, false},
		{"GET /api/fleet/vehicles", h.vehicles, false},
		{"GET /api/fleet/drivers", h.drivers, false},
		{"GET /api/fleet/overloads", h.overloads, false},
		{"GET /api/fleet/trips", h.trips, false},
		{"GET /api/fleet/pivot", h.pivot, false},
		{"GET /api/fleet/series", h.series, false},
		{"GET /api/fleet/export", h.export, false},
		{"GET /api/fleet/charts/{name}", h.chart, false},
		{"GET /api/fleet/batches", h.batches, false},
		{"POST /api/fleet/ingest", h.ingest, true},
		{"GET /api/fleet/audit", h.audit, true},
	}
	for _, rt := range routes {
		var next http.Handler = rt.handler
		if rt.admin {
			next = admin(next)
		}
		mux.Handle(rt.pattern, wrap(rt.pattern, authn(next)))
	}
	mux.Handle("GET /healthz", wrap("GET /healthz", http.HandlerFunc(h.health)))
}

// request resolves the filter of r, scoped to the user, and loads the trips
// of its date range.
func (h *Handler) request(w http.ResponseWriter, r *http.Request) (corefleet.Filter, []model.Trip, bool) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return f, nil, false
	}
	u, _ := auth.UserFrom(r.Context())
	if f, err = scope(f, u); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return f, nil, false
	}
	trips, err := h.Store.Trips(r.Context(), tripstore.Query{From: f.From, To: f.To})
	if err != nil {
		h.Log.Errorf("load trips: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load trips")
		return f, nil, false
	}
	return f, trips, true
}

// allTrips loads every stored trip, for pivots whose periods ignore the
// date filter.
func (h *Handler) allTrips(ctx context.Context) ([]model.Trip, error) {
	return h.Store.Trips(ctx, tripstore.Query{})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	f, trips, ok := h.request(w, r)
	if !ok {
		return
	}
	writeJSON(w, corefleet.Summarize(trips, f))
}

func (h *Handler) vehicles(w http.ResponseWriter, r *http.Request) {
	f, trips, ok := h.request(w, r)
	if !ok {
		return
	}
	writeJSON(w, corefleet.VehicleKPIs(trips, h.Catalog, h.Config, f))
}

func (h *Handler) drivers(w http.ResponseWriter, r *http.Request) {
	f, trips, ok := h.request(w, r)
	if !ok {
		return
	}
	writeJSON(w, corefleet.DriverKPIs(trips, h.Config, f))
}

func (h *Handler) overloadList(r *http.Request, f corefleet.Filter, trips []model.Trip) ([]corefleet.Overload, error) {
	found := corefleet.DetectOverloads(f.Apply(trips), h.Config)
	sev := strings.ToLower(r.URL.Query().Get("severity"))
	subject := strings.ToLower(r.URL.Query().Get("subject"))
	switch sev {
	case "", string(corefleet.SeverityWarning), string(corefleet.SeverityCritical):
	default:
		return nil, fmt.Errorf("unknown severity %q", sev)
	}
	switch subject {
	case "", corefleet.SubjectDriver, corefleet.SubjectVehicle:
	default:
		return nil, fmt.Errorf("unknown subject %q", subject)
	}
	out := make([]corefleet.Overload, 0, len(found))
	for _, o := range found {
		if (sev == "" || string(o.Severity) == sev) && (subject == "" || o.Subject == subject) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (h *Handler) overloads(w http.ResponseWriter, r *http.Request) {
	f, trips, ok := h.request(w, r)
	if !ok {
		return
	}
	out, err := h.overloadList(r, f, trips)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, out)
}

type tripPage struct {
	Total  int          `json:"total"`
	Offset int          `json:"offset"`
	Trips  []model.Trip `json:"trips"`
}

func (h *Handler) trips(w http.ResponseWriter, r *http.Request) {
	f, trips, ok := h.request(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit, err := intParam(q, "limit", defaultTripLimit, maxTripLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intParam(q, "offset", 0, 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	trips = f.Apply(trips)
	tripstore.SortTrips(trips)
	page := tripPage{Total: len(trips), Offset: offset, Trips: []model.Trip{}}
	if offset < len(trips) {
		end := offset + limit
		if end > len(trips) {
			end = len(trips)
		}
		page.Trips = trips[offset:end]
	}
	writeJSON(w, page)
}

func (h *Handler) pivotTable(w http.ResponseWriter, r *http.Request) (corefleet.PivotTable, bool) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return corefleet.PivotTable{}, false
	}
	u, _ := auth.UserFrom(r.Context())
	if f, err = scope(f, u); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return corefleet.PivotTable{}, false
	}
	pq, err := parsePivot(r.URL.Query(), f)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return corefleet.PivotTable{}, false
	}
	trips, err := h.allTrips(r.Context())
	if err != nil {
		h.Log.Errorf("load trips: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load trips")
		return corefleet.PivotTable{}, false
	}
	return corefleet.Pivot(trips, pq), true
}

func (h *Handler) pivot(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.pivotTable(w, r); ok {
		writeJSON(w, p)
	}
}

func (h *Handler) series(w http.ResponseWriter, r *http.Request) {
	f, trips, ok := h.request(w, r)
	if !ok {
		return
	}
	writeJSON(w, corefleet.DailySeries(trips, f))
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	table, err := export.ParseTable(q.Get("table"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var t export.Table
	if table == export.TablePivot {
		p, ok := h.pivotTable(w, r)
		if !ok {
			return
		}
		t = export.PivotTable(p)
	} else {
		f, trips, ok := h.request(w, r)
		if !ok {
			return
		}
		switch table {
		case export.TableVehicles:
			t = export.VehicleTable(corefleet.VehicleKPIs(trips, h.Catalog, h.Config, f))
		case export.TableDrivers:
			t = export.DriverTable(corefleet.DriverKPIs(trips, h.Config, f))
		case export.TableOverloads:
			found, err := h.overloadList(r, f, trips)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			t = export.OverloadTable(found)
		case export.TableTrips:
			trips = f.Apply(trips)
			tripstore.SortTrips(trips)
			t = export.TripTable(trips)
		}
	}
	name := fmt.Sprintf("umc-%s-%s.%s", table, h.now().Format("20060102"), format.Extension())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	if err := export.Write(w, format, t); err != nil {
		h.Log.Errorf("export %s: %v", table, err)
	}
}

func (h *Handler) chart(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(r.PathValue("name"))
	if !charts.Valid(name) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown chart %q", name))
		return
	}
	var c charts.Renderer
	if name == charts.NamePivot {
		p, ok := h.pivotTable(w, r)
		if !ok {
			return
		}
		c = charts.Pivot(p)
	} else {
		f, trips, ok := h.request(w, r)
		if !ok {
			return
		}
		switch name {
		case charts.NameVehicleKm:
			c = charts.VehicleKm(corefleet.VehicleKPIs(trips, h.Catalog, h.Config, f))
		case charts.NameFuel:
			c = charts.Fuel(corefleet.VehicleKPIs(trips, h.Catalog, h.Config, f))
		case charts.NameDaily:
			c = charts.Daily(corefleet.DailySeries(trips, f))
		}
	}
	html, err := charts.HTML(c)
	if err != nil {
		h.Log.Errorf("chart %s: %v", name, err)
		writeError(w, http.StatusInternalServerError, "could not render chart")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (h *Handler) batches(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.Batches(r.Context())
	if err != nil {
		h.Log.Errorf("list batches: %v", err)
		writeError(w, http.StatusInternalServerError, "could not list batches")
		return
	}
	if list == nil {
		list = []model.Batch{}
	}
	// Issues quote raw cells of every department; scoped viewers get counts only.
	if u, _ := auth.UserFrom(r.Context()); !u.IsAdmin() && len(u.Departments) > 0 {
		for i := range list {
			list[i].Issues = nil
		}
	}
	writeJSON(w, list)
}

// ingest imports the file of the "file" form field. An optional "sheet"
// field selects the worksheet of an xlsx upload.
func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	if h.Pipeline == nil {
		writeError(w, http.StatusNotImplemented, "uploads are disabled")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart upload")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	src, err := ingest.ReaderSource(hdr.Filename, file)
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	if x, ok := src.(*ingest.XLSXSource); ok {
		x.Sheet = r.FormValue("sheet")
	}
	u, _ := auth.UserFrom(r.Context())
	batch, err := h.Pipeline.RunAs(r.Context(), src, u.Username)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ingest.ErrNoHeader) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(batch)
}

func (h *Handler) audit(w http.ResponseWriter, r *http.Request) {
	if h.Audit == nil {
		writeJSON(w, []audit.Record{})
		return
	}
	q := r.URL.Query()
	aq := audit.Query{Source: q.Get("source"), FailedOnly: q.Get("failed") == "true"}
	var err error
	if aq.Since, err = parseDay(q.Get("since")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if aq.Limit, err = intParam(q, "limit", 100, 1000); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := h.Audit.Query(r.Context(), aq)
	if err != nil {
		h.Log.Errorf("query audit: %v", err)
		writeError(w, http.StatusInternalServerError, "could not read audit log")
		return
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Time.After(recs[j].Time) })
	if recs == nil {
		recs = []audit.Record{}
	}
	writeJSON(w, recs)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := h.Store.Batches(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, map[string]any{"status": "ok", "vehicles": h.Catalog.Len()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
