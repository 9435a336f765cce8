/*
handlers.go - HTTP API handlers for the addition engine

PURPOSE:
  Exposes eligibility evaluation, revenue simulation, advice and monthly
  billing verification via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the engine packages.

ENDPOINTS:
  Facilities:
    GET    /api/facilities                       List facilities
    POST   /api/facilities                       Create or update a facility
    GET    /api/facilities/{id}                  Facility profile
    GET    /api/facilities/{id}/staff            Raw staff roster
    POST   /api/facilities/{id}/staff            Add staff records
    POST   /api/facilities/{id}/children         Add children
    POST   /api/facilities/{id}/usage            Add usage records
    POST   /api/facilities/{id}/billing          Add billing records

  Assessment:
    GET    /api/facilities/{id}/eligibility      Raw + resolved judgments
    GET    /api/facilities/{id}/simulation       ?children=&days=
    GET    /api/facilities/{id}/advice           ?children=&days= (optional)

  Verification:
    GET    /api/facilities/{id}/verification/usage         ?month=YYYY-MM
    GET    /api/facilities/{id}/verification/upper-limits  ?month=YYYY-MM
    GET    /api/facilities/{id}/verification/runs

  Stateless:
    POST   /api/evaluate                         Body: facility snapshot
    POST   /api/simulate                         Body: SimulateRequest

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input (generic.IsClientError)
  - 404: Facility not found
  - 500: Internal errors

  Verification endpoints never fail on a broken source: the result comes
  back with a blocking verification_unavailable error instead.

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/facility"
	"github.com/warp/addition-engine/factory"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/revenue"
	"github.com/warp/addition-engine/store/sqlite"
	"github.com/warp/addition-engine/verification"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Snapshots *factory.SnapshotFactory
	Assessor  *facility.Assessor
	Verifier  *verification.Service

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:     store,
		Snapshots: factory.NewSnapshotFactory(),
		Assessor:  facility.NewAssessor(store),
		Verifier:  verification.NewService(store, store),
	}
}

// =============================================================================
// FACILITY HANDLERS
// =============================================================================

// ListFacilities returns all facilities.
func (h *Handler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	facilities, err := h.Store.ListFacilities(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list facilities", err)
		return
	}

	dtos := make([]factory.FacilityJSON, len(facilities))
	for i, p := range facilities {
		dtos[i] = factory.ProfileToJSON(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateFacility creates or updates a facility.
func (h *Handler) CreateFacility(w http.ResponseWriter, r *http.Request) {
	var req factory.FacilityJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	if _, ok := revenue.UnitPrice(req.RegionGrade); !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown region grade %d", req.RegionGrade), nil)
		return
	}

	p := factory.ProfileFromJSON(req)
	if err := h.Store.SaveFacility(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save facility", err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.ProfileToJSON(p))
}

// GetFacility returns a facility profile.
func (h *Handler) GetFacility(w http.ResponseWriter, r *http.Request) {
	p, ok := h.facility(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, factory.ProfileToJSON(p))
}

// ListStaff returns the raw roster of a facility.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	p, ok := h.facility(w, r)
	if !ok {
		return
	}
	records, err := h.Store.StaffRecords(r.Context(), p.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load staff", err)
		return
	}
	dtos := make([]factory.StaffJSON, len(records))
	for i, rec := range records {
		dtos[i] = factory.StaffToJSON(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddStaff saves a list of staff records.
func (h *Handler) AddStaff(w http.ResponseWriter, r *http.Request) {
	p, ok := h.facility(w, r)
	if !ok {
		return
	}
	var req []factory.StaffJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	for _, sj := range req {
		if sj.ID == "" {
			sj.ID = newID("staff")
		}
		if err := h.Store.SaveStaff(r.Context(), p.ID, factory.StaffFromJSON(sj)); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save staff", err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]int{"saved": len(req)})
}

// AddChildren saves a list of children.
func (h *Handler) AddChildren(w http.ResponseWriter, r *http.Request) {
	p, ok := h.facility(w, r)
	if !ok {
		return
	}
	var req []factory.ChildJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	for _, cj := range req {
		if cj.ID == "" {
			cj.ID = newID("child")
		}
		if err := h.Store.SaveChild(r.Context(), p.ID, factory.ChildFromJSON(cj)); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save child", err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]int{"saved": len(req)})
}

// AddUsage saves a list of usage records.
func (h *Handler) AddUsage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.facility(w, r)
	if !ok {
		return
	}
	var req []factory.UsageJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	records := make([]verification.UsageRecord, 0, len(req))
	for _, uj := range req {
		if uj.ID == "" {
			uj.ID = newID("usage")
		}
		rec, err := factory.UsageFromJSON(uj)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid usage record", err)
			return
		}
		records = append(records, rec)
	}
	for _, rec := range records {
		if err := h.Store.SaveUsage(r.Context(), p.ID, rec); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save usage record", err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]int{"saved": len(records)})
}

// AddBilling saves a list of billing records.
func (h *Handler) AddBilling(w http.ResponseWriter, r *http.Request) {
	p, ok := h.facility(w, r)
	if !ok {
		return
	}
	var req []factory.BillingJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	records := make([]verification.BillingRecord, 0, len(req))
	for _, bj := range req {
		if bj.ID == "" {
			bj.ID = newID("billing")
		}
		rec, err := factory.BillingFromJSON(bj)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid billing record", err)
			return
		}
		records = append(records, rec)
	}
	for _, rec := range records {
		if err := h.Store.SaveBilling(r.Context(), p.ID, rec); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save billing record", err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]int{"saved": len(records)})
}

// =============================================================================
// ASSESSMENT HANDLERS
// =============================================================================

// GetEligibility evaluates the stored roster of a facility.
func (h *Handler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	a, ok := h.assess(w, r, nil)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toEligibilityResponse(a))
}

// GetSimulation estimates monthly revenue with the selected additions.
// GET /api/facilities/{id}/simulation?children=10&days=20
func (h *Handler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	p, ok := h.facility(w, r)
	if !ok {
		return
	}
	census, err := censusFromQuery(r, p)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid census", err)
		return
	}
	if census == nil {
		writeError(w, http.StatusBadRequest, "children and days are required", nil)
		return
	}

	a, err := h.Assessor.Assess(r.Context(), p, census)
	if err != nil {
		writeError(w, statusFor(err), "Failed to assess facility", err)
		return
	}
	writeJSON(w, http.StatusOK, toSimulationDTO(*a.Simulation, a.Additions.Codes))
}

// GetAdvice returns improvement suggestions. With children and days the
// suggestions carry yen estimates.
func (h *Handler) GetAdvice(w http.ResponseWriter, r *http.Request) {
	p, ok := h.facility(w, r)
	if !ok {
		return
	}
	census, err := censusFromQuery(r, p)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid census", err)
		return
	}

	a, err := h.Assessor.Assess(r.Context(), p, census)
	if err != nil {
		writeError(w, statusFor(err), "Failed to assess facility", err)
		return
	}
	writeJSON(w, http.StatusOK, toSuggestionDTOs(a.Suggestions))
}

// =============================================================================
// VERIFICATION HANDLERS
// =============================================================================

// GetUsageVerification verifies one month of usage records.
func (h *Handler) GetUsageVerification(w http.ResponseWriter, r *http.Request) {
	p, ok := h.facility(w, r)
	if !ok {
		return
	}
	ym, err := monthFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	writeJSON(w, http.StatusOK, toUsageResultDTO(h.Verifier.VerifyUsage(r.Context(), p.ID, ym)))
}

// GetUpperLimitVerification checks one month of co-payments.
func (h *Handler) GetUpperLimitVerification(w http.ResponseWriter, r *http.Request) {
	p, ok := h.facility(w, r)
	if !ok {
		return
	}
	ym, err := monthFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	writeJSON(w, http.StatusOK, toUpperLimitResultDTO(h.Verifier.CheckUpperLimits(r.Context(), p.ID, ym)))
}

// ListFacilityRuns returns the verification history of one facility.
func (h *Handler) ListFacilityRuns(w http.ResponseWriter, r *http.Request) {
	p, ok := h.facility(w, r)
	if !ok {
		return
	}
	runs, err := h.Store.ListVerificationRuns(r.Context(), verification.RunStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list verification runs", err)
		return
	}

	dtos := []RunDTO{}
	for _, run := range runs {
		if run.FacilityID == p.ID {
			dtos = append(dtos, toRunDTO(run))
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListVerificationRuns returns run history across facilities.
// GET /api/verification/runs?status=failed
func (h *Handler) ListVerificationRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListVerificationRuns(r.Context(), verification.RunStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list verification runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// STATELESS HANDLERS
// =============================================================================

// EvaluateResponse is the full assessment of a posted snapshot.
type EvaluateResponse struct {
	Eligibility EligibilityResponse `json:"eligibility"`
	Simulation  *SimulationDTO      `json:"simulation,omitempty"`
	Suggestions []SuggestionDTO     `json:"suggestions"`
}

// Evaluate assesses a snapshot without touching the store.
// POST /api/evaluate
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var sj factory.SnapshotJSON
	if err := json.NewDecoder(r.Body).Decode(&sj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	snap, err := h.Snapshots.FromJSON(sj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid snapshot", err)
		return
	}

	a, err := facility.Assess(snap.Profile, snap.Staff, snap.Census)
	if err != nil {
		writeError(w, statusFor(err), "Failed to assess facility", err)
		return
	}

	resp := EvaluateResponse{
		Eligibility: toEligibilityResponse(a),
		Suggestions: toSuggestionDTOs(a.Suggestions),
	}
	if a.Simulation != nil {
		sim := toSimulationDTO(*a.Simulation, a.Additions.Codes)
		resp.Simulation = &sim
	}
	writeJSON(w, http.StatusOK, resp)
}

// Simulate runs the revenue simulator on raw inputs.
// POST /api/simulate
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	b, err := revenue.Simulate(req.input())
	if err != nil {
		writeError(w, statusFor(err), "Invalid simulation input", err)
		return
	}
	writeJSON(w, http.StatusOK, toSimulationDTO(b, nil))
}

// =============================================================================
// HELPERS
// =============================================================================

// facility loads the {id} facility, writing the error response on failure.
func (h *Handler) facility(w http.ResponseWriter, r *http.Request) (facility.Profile, bool) {
	id := generic.FacilityID(chi.URLParam(r, "id"))
	p, err := h.Store.GetFacility(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), "Failed to load facility", err)
		return facility.Profile{}, false
	}
	return p, true
}

func (h *Handler) assess(w http.ResponseWriter, r *http.Request, census *revenue.Census) (facility.Assessment, bool) {
	p, ok := h.facility(w, r)
	if !ok {
		return facility.Assessment{}, false
	}
	a, err := h.Assessor.Assess(r.Context(), p, census)
	if err != nil {
		writeError(w, statusFor(err), "Failed to assess facility", err)
		return facility.Assessment{}, false
	}
	return a, true
}

func toEligibilityResponse(a facility.Assessment) EligibilityResponse {
	selected := make([]string, len(a.Selected))
	for i, j := range a.Selected {
		selected[i] = string(j.Code)
	}
	return EligibilityResponse{
		FacilityID:    string(a.FacilityID),
		Statistics:    toStatisticsDTO(a.Statistics),
		Judgments:     toJudgmentDTOs(a.Judgments),
		Resolved:      toJudgmentDTOs(a.Resolved),
		Selected:      selected,
		AdditionUnits: a.Additions.Units,
		PercentRate:   a.Additions.Percent,
	}
}

// censusFromQuery returns nil when neither children nor days is given.
func censusFromQuery(r *http.Request, p facility.Profile) (*revenue.Census, error) {
	q := r.URL.Query()
	children, days := q.Get("children"), q.Get("days")
	if children == "" && days == "" {
		return nil, nil
	}

	n, err := strconv.Atoi(children)
	if err != nil {
		return nil, &generic.InvalidRecordError{RecordID: string(p.ID), Field: "children", Reason: "must be an integer"}
	}
	d, err := decimal.NewFromString(days)
	if err != nil {
		return nil, &generic.InvalidRecordError{RecordID: string(p.ID), Field: "days", Reason: "must be a number"}
	}
	c := p.Census(n, d)
	return &c, nil
}

// monthFromQuery defaults to the previous month, the one being billed.
func monthFromQuery(r *http.Request) (generic.YearMonth, error) {
	month := r.URL.Query().Get("month")
	if month == "" {
		return generic.YearMonthOf(generic.Today()).Previous(), nil
	}
	return generic.ParseYearMonth(month)
}

func statusFor(err error) int {
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
