// Package staffing normalizes raw staff records into StaffFacets: an FTE
// weight plus capability flags that the eligibility rules aggregate over.
package staffing

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/addition-engine/generic"
)

// =============================================================================
// WORK STYLE (勤務形態)
// =============================================================================

type WorkStyle string

const (
	FulltimeDedicated  WorkStyle = "fulltime_dedicated"  // 常勤専従
	FulltimeConcurrent WorkStyle = "fulltime_concurrent" // 常勤兼務
	ParttimeDedicated  WorkStyle = "parttime_dedicated"  // 非常勤専従
	ParttimeConcurrent WorkStyle = "parttime_concurrent" // 非常勤兼務
)

func (w WorkStyle) IsFulltime() bool {
	return w == FulltimeDedicated || w == FulltimeConcurrent
}

func (w WorkStyle) valid() bool {
	switch w {
	case FulltimeDedicated, FulltimeConcurrent, ParttimeDedicated, ParttimeConcurrent:
		return true
	}
	return false
}

// PersonnelType separates staff counted toward the minimum staffing standard
// from staff placed on top of it (加配).
type PersonnelType string

const (
	PersonnelStandard PersonnelType = "standard"
	PersonnelAddition PersonnelType = "addition"
)

// =============================================================================
// QUALIFICATIONS
// =============================================================================

type QualificationCode string

const (
	QualChildInstructor         QualificationCode = "child_instructor"          // 児童指導員
	QualNurseryTeacher          QualificationCode = "nursery_teacher"           // 保育士
	QualSocialWorker            QualificationCode = "social_worker"             // 社会福祉士
	QualCareWorker              QualificationCode = "care_worker"               // 介護福祉士
	QualPsychiatricSocialWorker QualificationCode = "psychiatric_social_worker" // 精神保健福祉士
	QualCertifiedPsychologist   QualificationCode = "certified_psychologist"    // 公認心理師
	QualPhysicalTherapist       QualificationCode = "physical_therapist"        // 理学療法士
	QualOccupationalTherapist   QualificationCode = "occupational_therapist"    // 作業療法士
	QualSpeechTherapist         QualificationCode = "speech_therapist"          // 言語聴覚士
	QualVisionTrainer           QualificationCode = "vision_trainer"            // 視能訓練士
	QualNurse                   QualificationCode = "nurse"                     // 看護職員
)

// Capabilities are the flags the rules care about. A qualification may
// grant several.
type Capabilities struct {
	ChildInstructor     bool // counts as 児童指導員等
	Specialist          bool // professional license for 専門的支援
	WelfareProfessional bool // 社会福祉士・介護福祉士・精神保健福祉士・公認心理師
}

func (c Capabilities) union(o Capabilities) Capabilities {
	return Capabilities{
		ChildInstructor:     c.ChildInstructor || o.ChildInstructor,
		Specialist:          c.Specialist || o.Specialist,
		WelfareProfessional: c.WelfareProfessional || o.WelfareProfessional,
	}
}

var qualificationCapabilities = map[QualificationCode]Capabilities{
	QualChildInstructor:         {ChildInstructor: true},
	QualNurseryTeacher:          {ChildInstructor: true},
	QualSocialWorker:            {ChildInstructor: true, WelfareProfessional: true},
	QualCareWorker:              {ChildInstructor: true, WelfareProfessional: true},
	QualPsychiatricSocialWorker: {ChildInstructor: true, WelfareProfessional: true},
	QualCertifiedPsychologist:   {ChildInstructor: true, Specialist: true, WelfareProfessional: true},
	QualPhysicalTherapist:       {ChildInstructor: true, Specialist: true},
	QualOccupationalTherapist:   {ChildInstructor: true, Specialist: true},
	QualSpeechTherapist:         {ChildInstructor: true, Specialist: true},
	QualVisionTrainer:           {ChildInstructor: true, Specialist: true},
	QualNurse:                   {Specialist: true},
}

// CapabilitiesOf returns the combined capabilities of a set of codes.
// Unknown codes grant nothing.
func CapabilitiesOf(codes []QualificationCode) Capabilities {
	var caps Capabilities
	for _, c := range codes {
		caps = caps.union(qualificationCapabilities[c])
	}
	return caps
}

// =============================================================================
// RAW STAFF RECORD - What the staff source supplies
// =============================================================================

type RawStaffRecord struct {
	ID                    generic.StaffID
	Name                  string
	WorkStyle             WorkStyle
	ContractedWeeklyHours decimal.Decimal
	QualificationCodes    []string
	YearsOfExperience     int
	PersonnelType         PersonnelType
}

// Source supplies the staff roster of a facility.
type Source interface {
	StaffRecords(ctx context.Context, facilityID generic.FacilityID) ([]RawStaffRecord, error)
}

// =============================================================================
// STAFF FACET - Normalized, derived view of one staff member
// =============================================================================

// StaffFacet is derived per call and never persisted.
// Invariant: 0 <= FTE <= 1.
type StaffFacet struct {
	ID                  generic.StaffID
	FTE                 decimal.Decimal
	WorkStyle           WorkStyle
	IsFulltimeDedicated bool
	Qualifications      map[QualificationCode]struct{}
	Capabilities        Capabilities
	YearsOfExperience   uint32
	PersonnelType       PersonnelType
}

func (f StaffFacet) IsFulltime() bool { return f.WorkStyle.IsFulltime() }
func (f StaffFacet) IsAddition() bool { return f.PersonnelType == PersonnelAddition }

// HasQualification reports whether the facet holds code.
func (f StaffFacet) HasQualification(code QualificationCode) bool {
	_, ok := f.Qualifications[code]
	return ok
}

// QualificationList returns the qualification codes in sorted order.
func (f StaffFacet) QualificationList() []QualificationCode {
	out := make([]QualificationCode, 0, len(f.Qualifications))
	for c := range f.Qualifications {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ExperiencedAtLeast reports whether the facet has at least years of experience.
func (f StaffFacet) ExperiencedAtLeast(years uint32) bool {
	return f.YearsOfExperience >= years
}
