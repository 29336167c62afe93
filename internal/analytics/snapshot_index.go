// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package analytics

import (
	"strings"

	"github.com/tomtom215/cohortlens/internal/ingest"
	"github.com/tomtom215/cohortlens/internal/models"
)

// index holds the lookups every stage shares. It is built once per
// request and only read afterwards.
type index struct {
	snap *ingest.Snapshot

	courses     map[string]*models.Course
	profiles    map[string]*models.Profile
	userSchool  map[string]string
	orgs        map[string]*models.Organization
	orgsByName  map[string]*models.Organization
	partnership map[string]*models.Partnership
}

func newIndex(snap *ingest.Snapshot) *index {
	idx := &index{
		snap:        snap,
		courses:     make(map[string]*models.Course, len(snap.Courses)),
		profiles:    make(map[string]*models.Profile, len(snap.Profiles)),
		userSchool:  make(map[string]string, len(snap.Profiles)),
		orgs:        make(map[string]*models.Organization, len(snap.Organizations)),
		orgsByName:  make(map[string]*models.Organization, len(snap.Organizations)),
		partnership: make(map[string]*models.Partnership, len(snap.Partnerships)),
	}
	for i := range snap.Courses {
		idx.courses[snap.Courses[i].ID] = &snap.Courses[i]
	}
	for i := range snap.Profiles {
		p := &snap.Profiles[i]
		idx.profiles[p.ID] = p
		idx.userSchool[p.ID] = p.School()
	}
	for i := range snap.Organizations {
		o := &snap.Organizations[i]
		idx.orgs[o.ID] = o
		if key := strings.ToLower(strings.TrimSpace(o.Name)); key != "" {
			if _, dup := idx.orgsByName[key]; !dup {
				idx.orgsByName[key] = o
			}
		}
	}
	for i := range snap.Partnerships {
		idx.partnership[snap.Partnerships[i].ID] = &snap.Partnerships[i]
	}
	return idx
}

// schoolOfUser is the user's onboarding school, UnknownSchool otherwise.
func (idx *index) schoolOfUser(userID string) string {
	if s, ok := idx.userSchool[userID]; ok {
		return s
	}
	return models.UnknownSchool
}

// schoolOfOrg is the organization's name, UnknownSchool otherwise.
func (idx *index) schoolOfOrg(orgID string) string {
	if o, ok := idx.orgs[orgID]; ok && strings.TrimSpace(o.Name) != "" {
		return o.Name
	}
	return models.UnknownSchool
}

// courseTitle falls back to the id for courses outside the catalog.
func (idx *index) courseTitle(courseID string) string {
	if c, ok := idx.courses[courseID]; ok && c.Title != "" {
		return c.Title
	}
	return courseID
}

// phaseForSchool resolves a contract phase through a case-insensitive
// organization name match.
func (idx *index) phaseForSchool(school string) *string {
	org, ok := idx.orgsByName[strings.ToLower(strings.TrimSpace(school))]
	if !ok || org.PartnershipID == nil {
		return nil
	}
	p, ok := idx.partnership[*org.PartnershipID]
	if !ok || p.ContractPhase == nil || *p.ContractPhase == "" {
		return nil
	}
	phase := *p.ContractPhase
	return &phase
}

// publishedCourses returns the published catalog ordered by title.
func (idx *index) publishedCourses() []*models.Course {
	out := make([]*models.Course, 0, len(idx.snap.Courses))
	for i := range idx.snap.Courses {
		if idx.snap.Courses[i].IsPublished {
			out = append(out, &idx.snap.Courses[i])
		}
	}
	sortCourses(out)
	return out
}
