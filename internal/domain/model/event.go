// Package model contains domain models passed between layers.
package model

import "strings"

// TimelineEvent is a single raw career event submitted by clients before it
// is embedded. All fields are optional but at least one must be set.
type TimelineEvent struct {
	Role         string `json:"role,omitempty"`
	Organization string `json:"organization,omitempty"`
	PeriodLabel  string `json:"period_label,omitempty"`
}

// IsEmpty reports whether the event carries no text at all.
func (e TimelineEvent) IsEmpty() bool {
	return strings.TrimSpace(e.Role) == "" &&
		strings.TrimSpace(e.Organization) == "" &&
		strings.TrimSpace(e.PeriodLabel) == ""
}

// Text renders the event as the sentence sent to the embedding provider,
// e.g. "Senior Engineer at Google (2019-2022)". Empty parts are omitted.
func (e TimelineEvent) Text() string {
	role := strings.TrimSpace(e.Role)
	org := strings.TrimSpace(e.Organization)
	period := strings.TrimSpace(e.PeriodLabel)

	parts := make([]string, 0, 3)
	if role != "" {
		parts = append(parts, role)
	}
	if org != "" {
		if role != "" {
			parts = append(parts, "at "+org)
		} else {
			parts = append(parts, org)
		}
	}
	if period != "" {
		parts = append(parts, "("+period+")")
	}
	return strings.Join(parts, " ")
}

// Goal describes what the user is aiming for.
type Goal struct {
	TargetOrganization string `json:"target_organization,omitempty"`
	TargetPeriod       string `json:"target_period,omitempty"`
}

// Profile carries optional facts about the user.
type Profile struct {
	Institution string `json:"institution,omitempty"`
	Field       string `json:"field,omitempty"`
}
