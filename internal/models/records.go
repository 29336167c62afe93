// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package models

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Enrollment statuses.
const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
)

// SurveyTypeBaseline marks the "before" side of every before/after split.
const SurveyTypeBaseline = "baseline"

// UnknownSchool labels users and rows with no resolvable organization.
const UnknownSchool = "Unknown School"

// Enrollment is a user's enrollment in a course.
type Enrollment struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"user_id"`
	CourseID           string   `json:"course_id"`
	Status             string   `json:"status"`
	ProgressPercentage OptFloat `json:"progress_percentage"`
	EnrolledAt         OptTime  `json:"enrolled_at"`
	CompletedAt        OptTime  `json:"completed_at"`
	CreatedAt          OptTime  `json:"created_at"`
}

// IsCompleted reports whether the enrollment status is completed.
func (e *Enrollment) IsCompleted() bool {
	return e.Status == EnrollmentCompleted
}

// IsInProgress reports a started but unfinished enrollment.
func (e *Enrollment) IsInProgress() bool {
	return !e.IsCompleted() && e.ProgressPercentage.Valid && e.ProgressPercentage.Float64 > 0
}

// HasProgress reports progress > 0 regardless of status.
func (e *Enrollment) HasProgress() bool {
	return e.ProgressPercentage.Valid && e.ProgressPercentage.Float64 > 0
}

// StartedAt is enrolled_at, falling back to created_at.
func (e *Enrollment) StartedAt() OptTime {
	if e.EnrolledAt.Valid {
		return e.EnrolledAt
	}
	return e.CreatedAt
}

// Course is a catalog course.
type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	IsPublished bool   `json:"is_published"`
}

// Module is an ordered section of a course.
type Module struct {
	ID         string `json:"id"`
	CourseID   string `json:"course_id"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
}

// Lesson is an ordered unit of a module.
type Lesson struct {
	ID         string `json:"id"`
	ModuleID   string `json:"module_id"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
}

// LessonProgress records a lesson completion when CompletedAt is set.
type LessonProgress struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	LessonID    string  `json:"lesson_id"`
	CourseID    string  `json:"course_id"`
	CompletedAt OptTime `json:"completed_at"`
}

// Onboarding is the free-form onboarding document stored on a profile.
// Unknown keys are ignored.
type Onboarding struct {
	SchoolName         string   `json:"school_name"`
	State              string   `json:"state"`
	InitialStressLevel OptFloat `json:"initial_stress_level"`
}

// Scan decodes a JSON document column. Malformed documents decode to the
// zero Onboarding.
func (o *Onboarding) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*o = Onboarding{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Onboarding", src)
	}
	*o = Onboarding{}
	_ = o.UnmarshalJSON(raw)
	return nil
}

// UnmarshalJSON tolerates null and non-object documents.
func (o *Onboarding) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*o = Onboarding{}
		return nil
	}
	type plain Onboarding
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		*o = Onboarding{}
		return nil
	}
	*o = Onboarding(p)
	return nil
}

// Profile is the unit of a "user" for all cohort math.
type Profile struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Onboarding  Onboarding `json:"onboarding_data"`
	CreatedAt   OptTime    `json:"created_at"`
}

// School returns the onboarding school name or UnknownSchool.
func (p *Profile) School() string {
	if p.Onboarding.SchoolName == "" {
		return UnknownSchool
	}
	return p.Onboarding.SchoolName
}

// SurveyResponse is one staff survey submission.
type SurveyResponse struct {
	ID                       string   `json:"id"`
	OrganizationID           string   `json:"organization_id"`
	StaffMemberID            *string  `json:"staff_member_id"`
	SurveyType               string   `json:"survey_type"`
	StressLevel              OptFloat `json:"stress_level"`
	PlanningHours            OptFloat `json:"planning_hours"`
	ImplementationConfidence OptFloat `json:"implementation_confidence"`
	RetentionIntent          OptFloat `json:"retention_intent"`
	FeelingValued            OptFloat `json:"feeling_valued"`
	SubmittedAt              OptTime  `json:"submitted_at"`
}

// IsBaseline reports whether the survey is on the "before" side.
func (s *SurveyResponse) IsBaseline() bool {
	return s.SurveyType == SurveyTypeBaseline
}

// MetricSnapshot is one point of an organization level time series.
type MetricSnapshot struct {
	ID             string   `json:"id"`
	OrganizationID string   `json:"organization_id"`
	BuildingID     *string  `json:"building_id"`
	MetricName     string   `json:"metric_name"`
	MetricValue    OptFloat `json:"metric_value"`
	SnapshotDate   OptTime  `json:"snapshot_date"`
}

// Organization is a school or district.
type Organization struct {
	ID            string  `json:"id"`
	PartnershipID *string `json:"partnership_id"`
	Name          string  `json:"name"`
}

// Partnership is a contract covering one or more organizations.
type Partnership struct {
	ID                string  `json:"id"`
	Slug              string  `json:"slug"`
	ContractPhase     *string `json:"contract_phase"`
	ContractStartDate OptTime `json:"contract_start_date"`
}
