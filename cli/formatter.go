package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/warp/addition-engine/advisor"
	"github.com/warp/addition-engine/eligibility"
	"github.com/warp/addition-engine/facility"
	"github.com/warp/addition-engine/generic"
	"github.com/warp/addition-engine/revenue"
	"github.com/warp/addition-engine/verification"
)

var (
	colorGreen  = lipgloss.Color("#8ec07c")
	colorYellow = lipgloss.Color("#fabd2f")
	colorRed    = lipgloss.Color("#fb4934")
	colorBlue   = lipgloss.Color("#83a598")
	colorDim    = lipgloss.Color("#928374")
	colorHeader = lipgloss.Color("#fe8019")
)

var (
	styleGreen  = lipgloss.NewStyle().Foreground(colorGreen)
	styleYellow = lipgloss.NewStyle().Foreground(colorYellow)
	styleRed    = lipgloss.NewStyle().Foreground(colorRed)
	styleBlue   = lipgloss.NewStyle().Foreground(colorBlue)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleHeader = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
)

// Formatter renders engine results for a terminal. Plain drops colors but
// keeps the layout.
type Formatter struct {
	Plain bool
}

func (f Formatter) paint(s lipgloss.Style, text string) string {
	if f.Plain {
		return text
	}
	return s.Render(text)
}

func (f Formatter) header(text string) string {
	line := strings.Repeat("─", lipgloss.Width(text))
	return f.paint(styleHeader, text) + "\n" + f.paint(styleDim, line) + "\n"
}

func pad(text string, width int) string {
	if w := lipgloss.Width(text); w < width {
		return text + strings.Repeat(" ", width-w)
	}
	return text
}

// Yen formats an amount with thousands separators, e.g. ¥1,478,400.
func Yen(y generic.Yen) string {
	s := fmt.Sprintf("%d", int64(y))
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-¥" + b.String()
	}
	return "¥" + b.String()
}

// =============================================================================
// ELIGIBILITY
// =============================================================================

func (f Formatter) mark(j eligibility.Judgment) string {
	switch j.Resolution {
	case eligibility.ResolutionSelected, eligibility.ResolutionIndependent:
		if j.IsEligible {
			return f.paint(styleGreen, "●")
		}
	case eligibility.ResolutionSuperseded:
		return f.paint(styleBlue, "○")
	case eligibility.ResolutionClosestMiss:
		return f.paint(styleYellow, "◐")
	}
	return f.paint(styleDim, "·")
}

// FormatAssessment renders resolved judgments with their failing
// requirements.
func (f Formatter) FormatAssessment(p facility.Profile, a facility.Assessment) string {
	var b strings.Builder
	b.WriteString(f.header(fmt.Sprintf("%s (%s) region grade %d", p.Name, p.ID, p.RegionGrade)))

	for _, j := range a.Resolved {
		line := fmt.Sprintf("%s %s %s", f.mark(j), pad(string(j.Code), 44), pad(j.Value.String(), 10))
		if j.Resolution != eligibility.ResolutionNone && j.Resolution != eligibility.ResolutionIndependent {
			line += " " + f.paint(styleDim, string(j.Resolution))
		}
		if j.IsCurrentlyHeld {
			line += " " + f.paint(styleBlue, "[held]")
		}
		b.WriteString(line + "\n")

		if j.IsEligible {
			continue
		}
		for _, r := range j.Requirements {
			if r.Met {
				continue
			}
			b.WriteString(f.paint(styleDim, fmt.Sprintf("    └ %s: %s / %s", r.Name, r.Current.String(), r.Required.String())) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Claimed: %d units/day, %s%%  (%d additions)\n",
		a.Additions.Units, a.Additions.Percent.String(), len(a.Additions.Codes)))
	return b.String()
}

// =============================================================================
// SIMULATION
// =============================================================================

func (f Formatter) FormatSimulation(b revenue.Breakdown) string {
	var out strings.Builder
	out.WriteString(f.header("Monthly revenue"))

	row := func(label string, y generic.Yen) {
		out.WriteString(pad(label, 28) + fmt.Sprintf("%14s", Yen(y)) + "\n")
	}
	row("Base", b.BaseRevenue)
	row("Unit additions", b.SystemAdditionRevenue)
	row("Percent additions", b.PercentAdditionRevenue)
	row("Implementation additions", b.ImplementationAdditionRevenue)
	out.WriteString(f.paint(styleDim, strings.Repeat("─", 42)) + "\n")
	out.WriteString(pad("Total", 28) + f.paint(styleGreen, fmt.Sprintf("%14s", Yen(b.Total))) + "\n")
	out.WriteString(pad("Annual", 28) + fmt.Sprintf("%14s", Yen(b.Annual)) + "\n")
	out.WriteString(f.paint(styleDim, fmt.Sprintf("unit price %s, %s usage days", b.UnitPrice.String(), b.TotalUsageDays.String())) + "\n")
	return out.String()
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

func (f Formatter) priority(p advisor.Priority) string {
	switch p {
	case advisor.PriorityHigh:
		return f.paint(styleRed, "HIGH  ")
	case advisor.PriorityMedium:
		return f.paint(styleYellow, "MEDIUM")
	default:
		return f.paint(styleDim, "LOW   ")
	}
}

func (f Formatter) FormatSuggestions(suggestions []advisor.Suggestion) string {
	var b strings.Builder
	b.WriteString(f.header("Suggestions"))
	if len(suggestions) == 0 {
		b.WriteString(f.paint(styleDim, "Nothing to suggest.") + "\n")
		return b.String()
	}

	for _, s := range suggestions {
		line := fmt.Sprintf("%s %s %s", f.priority(s.Priority), pad(string(s.Kind), 8), s.Title)
		if s.EstimatedMonthlyYen != nil {
			line += " " + f.paint(styleGreen, "("+Yen(*s.EstimatedMonthlyYen)+"/month)")
		}
		b.WriteString(line + "\n")
		if s.Message != "" {
			b.WriteString(f.paint(styleDim, "       "+s.Message) + "\n")
		}
	}
	return b.String()
}

// =============================================================================
// VERIFICATION
// =============================================================================

func (f Formatter) severity(s generic.Severity) string {
	switch s {
	case generic.SeverityError:
		return f.paint(styleRed, "ERROR  ")
	case generic.SeverityWarning:
		return f.paint(styleYellow, "WARNING")
	default:
		return f.paint(styleBlue, "INFO   ")
	}
}

func (f Formatter) FormatReport(r verification.MonthReport) string {
	var b strings.Builder
	b.WriteString(f.header(fmt.Sprintf("Verification %s %s", r.FacilityID, r.YearMonth)))

	u := r.Usage
	b.WriteString(fmt.Sprintf("Usage days %d, billing days %d, excluded %d, time entries %s%% complete\n",
		u.TotalUsageDays, u.TotalBillingDays, u.TotalExcludedDays, u.CompletionRate.String()))

	l := r.UpperLimits
	children := map[generic.ChildID]bool{}
	for _, c := range l.Children {
		children[c.ChildID] = true
	}
	b.WriteString(fmt.Sprintf("Co-payment %s across %d children, %d at limit, %d near limit\n\n",
		Yen(l.TotalCopay), len(children), l.AtLimitCount, l.NearLimitCount))

	vs := r.Validations()
	for _, v := range vs {
		line := f.severity(v.Severity) + " " + pad(v.Code, 28) + " " + v.Message
		if v.ChildID != nil {
			line += f.paint(styleDim, " child="+string(*v.ChildID))
		}
		if v.Date != nil {
			line += f.paint(styleDim, " date="+v.Date.String())
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("%d errors, %d warnings, %d info",
		vs.Count(generic.SeverityError), vs.Count(generic.SeverityWarning), vs.Count(generic.SeverityInfo))
	if vs.BlocksSubmission() {
		b.WriteString(f.paint(styleRed, "✗ submission blocked: "+summary) + "\n")
	} else {
		b.WriteString(f.paint(styleGreen, "✓ ready to submit: "+summary) + "\n")
	}
	return b.String()
}
