package eligibility

import (
	"fmt"
	"sort"
)

// Resolve applies exclusive-group semantics to raw judgments.
//
// For each group the eligible member with the highest value wins (ties go
// to the lower Priority number). Other eligible members are demoted to
// ineligible and marked superseded. When nothing in a group is eligible the
// Priority-1 member is marked as the closest miss. Independent judgments
// pass through unchanged apart from their Resolution.
//
// The input is not modified. Groups appear in order of first appearance,
// with the representative (winner or closest miss) first.
func Resolve(judgments []Judgment) []Judgment {
	out := make([]Judgment, 0, len(judgments))
	done := make(map[Group]bool)

	for i, j := range judgments {
		if !j.Group.IsExclusive() {
			c := j.clone()
			c.Resolution = ResolutionIndependent
			out = append(out, c)
			continue
		}
		if done[j.Group] {
			continue
		}
		done[j.Group] = true
		out = append(out, resolveGroup(j.Group, judgments[i:])...)
	}
	return out
}

func resolveGroup(group Group, rest []Judgment) []Judgment {
	var members []Judgment
	for _, j := range rest {
		if j.Group == group {
			members = append(members, j.clone())
		}
	}
	sort.SliceStable(members, func(a, b int) bool {
		return members[a].Priority < members[b].Priority
	})

	winner := -1
	for i, m := range members {
		if !m.IsEligible {
			continue
		}
		if winner < 0 || beats(m, members[winner]) {
			winner = i
		}
	}

	if winner < 0 {
		for i := range members {
			members[i].Resolution = ResolutionIneligible
		}
		members[0].Resolution = ResolutionClosestMiss
		return members
	}

	w := members[winner]
	for i := range members {
		switch {
		case i == winner:
			members[i].Resolution = ResolutionSelected
		case members[i].IsEligible:
			members[i].IsEligible = false
			members[i].Resolution = ResolutionSuperseded
			members[i].Reason = fmt.Sprintf("superseded by %s (%s)", w.Code, w.Value)
		case members[i].Resolution != ResolutionSuperseded:
			// already-superseded members keep their tag so Resolve is idempotent
			members[i].Resolution = ResolutionIneligible
		}
	}

	ranked := make([]Judgment, 0, len(members))
	ranked = append(ranked, members[winner])
	ranked = append(ranked, members[:winner]...)
	ranked = append(ranked, members[winner+1:]...)
	return ranked
}

func beats(a, b Judgment) bool {
	if c := a.Value.Magnitude().Cmp(b.Value.Magnitude()); c != 0 {
		return c > 0
	}
	return a.Priority < b.Priority
}

// Selected returns the claimable judgments of a resolved list.
func Selected(resolved []Judgment) []Judgment {
	var out []Judgment
	for _, j := range resolved {
		if j.IsClaimable() {
			out = append(out, j)
		}
	}
	return out
}

// ByCode indexes judgments by code.
func ByCode(judgments []Judgment) map[Code]Judgment {
	m := make(map[Code]Judgment, len(judgments))
	for _, j := range judgments {
		m[j.Code] = j
	}
	return m
}
