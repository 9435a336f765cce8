// Package memory provides an in-memory implementation of the engine's data
// sources, for tests and the demo server.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/addition-engine/facility"
	"github.com/warp/addition-engine/factory"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/staffing"
	"github.com/warp/addition-engine/verification"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	facilities map[generic.FacilityID]facility.Profile
	staff      map[generic.FacilityID][]staffing.RawStaffRecord
	children   map[generic.FacilityID][]verification.ChildRecord
	usage      map[generic.FacilityID][]verification.UsageRecord
	billing    map[generic.FacilityID][]verification.BillingRecord
	runs       map[runKey]verification.Run

	// failures makes the named source fail, keyed by "staff", "usage",
	// "children" or "billing".
	failures map[string]error
}

type runKey struct {
	FacilityID generic.FacilityID
	YearMonth  generic.YearMonth
}

func New() *Memory {
	return &Memory{
		facilities: make(map[generic.FacilityID]facility.Profile),
		staff:      make(map[generic.FacilityID][]staffing.RawStaffRecord),
		children:   make(map[generic.FacilityID][]verification.ChildRecord),
		usage:      make(map[generic.FacilityID][]verification.UsageRecord),
		billing:    make(map[generic.FacilityID][]verification.BillingRecord),
		runs:       make(map[runKey]verification.Run),
		failures:   make(map[string]error),
	}
}

// Fail makes every later read of source return err. A nil err clears it.
func (m *Memory) Fail(source string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, source)
		return
	}
	m.failures[source] = err
}

// Import replaces everything stored for the snapshot's facility.
func (m *Memory) Import(s *factory.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := s.Profile.ID
	m.facilities[id] = s.Profile
	m.staff[id] = append([]staffing.RawStaffRecord(nil), s.Staff...)
	m.children[id] = append([]verification.ChildRecord(nil), s.Children...)
	m.usage[id] = append([]verification.UsageRecord(nil), s.Usage...)
	m.billing[id] = append([]verification.BillingRecord(nil), s.Billing...)
}

// =============================================================================
// FACILITIES
// =============================================================================

func (m *Memory) SaveFacility(_ context.Context, p facility.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facilities[p.ID] = p
	return nil
}

func (m *Memory) GetFacility(_ context.Context, id generic.FacilityID) (facility.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.facilities[id]
	if !ok {
		return facility.Profile{}, fmt.Errorf("%w: %s", generic.ErrFacilityNotFound, id)
	}
	return p, nil
}

func (m *Memory) ListFacilities(_ context.Context) ([]facility.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]facility.Profile, 0, len(m.facilities))
	for _, p := range m.facilities {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// SOURCES
// =============================================================================

func (m *Memory) StaffRecords(_ context.Context, facilityID generic.FacilityID) ([]staffing.RawStaffRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["staff"]; err != nil {
		return nil, err
	}
	return append([]staffing.RawStaffRecord(nil), m.staff[facilityID]...), nil
}

func (m *Memory) Children(_ context.Context, facilityID generic.FacilityID) ([]verification.ChildRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["children"]; err != nil {
		return nil, err
	}
	return append([]verification.ChildRecord(nil), m.children[facilityID]...), nil
}

// UsageRecords returns the facility's records dated within ym.
func (m *Memory) UsageRecords(_ context.Context, facilityID generic.FacilityID, ym generic.YearMonth) ([]verification.UsageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["usage"]; err != nil {
		return nil, err
	}

	var out []verification.UsageRecord
	for _, r := range m.usage[facilityID] {
		if ym.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) BillingRecords(_ context.Context, facilityID generic.FacilityID, ym generic.YearMonth) ([]verification.BillingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["billing"]; err != nil {
		return nil, err
	}

	var out []verification.BillingRecord
	for _, r := range m.billing[facilityID] {
		if r.YearMonth == ym {
			out = append(out, r)
		}
	}
	return out, nil
}

// =============================================================================
// VERIFICATION RUNS
// =============================================================================

func (m *Memory) SaveVerificationRun(_ context.Context, r verification.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runKey{r.FacilityID, r.YearMonth}] = r
	return nil
}

func (m *Memory) ListVerificationRuns(_ context.Context, status verification.RunStatus) ([]verification.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []verification.Run
	for _, r := range m.runs {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) IsVerificationComplete(_ context.Context, facilityID generic.FacilityID, ym generic.YearMonth) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[runKey{facilityID, ym}]
	return ok && r.Status == verification.RunCompleted, nil
}
