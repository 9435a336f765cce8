package eligibility

// RuleKind enumerates every rule the engine knows. Adding a tier means
// adding a constant here, a catalog row, and a case in evaluate().
type RuleKind int

const (
	KindStaffAllocation1Fulltime RuleKind = iota
	KindStaffAllocation2Fulltime
	KindStaffAllocation1Convert
	KindStaffAllocation2Convert
	KindStaffAllocationOther
	KindSpecialistSupport
	KindWelfareProfessional1
	KindWelfareProfessional2
	KindWelfareProfessional3
	KindTreatmentImprovement1
	KindTreatmentImprovement2
	KindTreatmentImprovement3
	KindTreatmentImprovement4

	ruleKindCount
)

// Rule is a catalog entry: identity, grouping and value. The predicate
// lives in evaluate().
type Rule struct {
	Kind      RuleKind
	Code      Code
	Name      string
	ShortName string
	Group     Group
	Priority  uint8
	Value     Value
}

const (
	CodeStaffAllocation1Fulltime Code = "staff_allocation_1_fulltime"
	CodeStaffAllocation2Fulltime Code = "staff_allocation_2_fulltime"
	CodeStaffAllocation1Convert  Code = "staff_allocation_1_convert"
	CodeStaffAllocation2Convert  Code = "staff_allocation_2_convert"
	CodeStaffAllocationOther     Code = "staff_allocation_other"
	CodeSpecialistSupport        Code = "specialist_support_structure"
	CodeWelfareProfessional1     Code = "welfare_professional_1"
	CodeWelfareProfessional2     Code = "welfare_professional_2"
	CodeWelfareProfessional3     Code = "welfare_professional_3"
	CodeTreatmentImprovement1    Code = "treatment_improvement_1"
	CodeTreatmentImprovement2    Code = "treatment_improvement_2"
	CodeTreatmentImprovement3    Code = "treatment_improvement_3"
	CodeTreatmentImprovement4    Code = "treatment_improvement_4"
)

// catalog is ordered by family, then priority. Evaluate emits judgments in
// this order.
var catalog = []Rule{
	// 児童指導員等加配加算 (定員10名以下)
	{KindStaffAllocation1Fulltime, CodeStaffAllocation1Fulltime, "児童指導員等加配加算（常勤専従・経験5年以上）", "加配 専従5年", GroupStaffAllocation, 1, Units(187)},
	{KindStaffAllocation2Fulltime, CodeStaffAllocation2Fulltime, "児童指導員等加配加算（常勤専従・経験5年未満）", "加配 専従", GroupStaffAllocation, 2, Units(152)},
	{KindStaffAllocation1Convert, CodeStaffAllocation1Convert, "児童指導員等加配加算（常勤換算・経験5年以上）", "加配 換算5年", GroupStaffAllocation, 3, Units(123)},
	{KindStaffAllocation2Convert, CodeStaffAllocation2Convert, "児童指導員等加配加算（常勤換算・経験5年未満）", "加配 換算", GroupStaffAllocation, 4, Units(107)},
	{KindStaffAllocationOther, CodeStaffAllocationOther, "児童指導員等加配加算（その他の従業者）", "加配 その他", GroupStaffAllocation, 5, Units(90)},

	// 専門的支援体制加算
	{KindSpecialistSupport, CodeSpecialistSupport, "専門的支援体制加算", "専門体制", GroupNone, 1, Units(123)},

	// 福祉専門職員配置等加算
	{KindWelfareProfessional1, CodeWelfareProfessional1, "福祉専門職員配置等加算（Ⅰ）", "福祉専門Ⅰ", GroupWelfareProfessional, 1, Units(15)},
	{KindWelfareProfessional2, CodeWelfareProfessional2, "福祉専門職員配置等加算（Ⅱ）", "福祉専門Ⅱ", GroupWelfareProfessional, 2, Units(10)},
	{KindWelfareProfessional3, CodeWelfareProfessional3, "福祉専門職員配置等加算（Ⅲ）", "福祉専門Ⅲ", GroupWelfareProfessional, 3, Units(6)},

	// 福祉・介護職員等処遇改善加算
	{KindTreatmentImprovement1, CodeTreatmentImprovement1, "福祉・介護職員等処遇改善加算（Ⅰ）", "処遇改善Ⅰ", GroupTreatmentImprovement, 1, PercentRate("13.4")},
	{KindTreatmentImprovement2, CodeTreatmentImprovement2, "福祉・介護職員等処遇改善加算（Ⅱ）", "処遇改善Ⅱ", GroupTreatmentImprovement, 2, PercentRate("13.1")},
	{KindTreatmentImprovement3, CodeTreatmentImprovement3, "福祉・介護職員等処遇改善加算（Ⅲ）", "処遇改善Ⅲ", GroupTreatmentImprovement, 3, PercentRate("12.1")},
	{KindTreatmentImprovement4, CodeTreatmentImprovement4, "福祉・介護職員等処遇改善加算（Ⅳ）", "処遇改善Ⅳ", GroupTreatmentImprovement, 4, PercentRate("9.8")},
}

// Catalog returns a copy of the rule catalog.
func Catalog() []Rule {
	out := make([]Rule, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for code.
func Lookup(code Code) (Rule, bool) {
	for _, r := range catalog {
		if r.Code == code {
			return r, true
		}
	}
	return Rule{}, false
}
