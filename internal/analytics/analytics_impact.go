// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package analytics

import (
	"sort"

	"github.com/tomtom215/cohortlens/internal/ingest"
	"github.com/tomtom215/cohortlens/internal/models"
)

// impactCards builds one before/after card per partnership. A card is kept
// when the partnership has survey responses or a contract phase.
func impactCards(idx *index, snapshots []bucketedSnapshot) []models.ImpactCard {
	type card struct {
		orgNames       []string
		surveys        int
		stress         beforeAfter
		planning       beforeAfter
		implementation beforeAfter
	}
	cards := make(map[string]*card, len(idx.snap.Partnerships))
	orgPartnership := make(map[string]string)
	for i := range idx.snap.Partnerships {
		cards[idx.snap.Partnerships[i].ID] = &card{}
	}
	for i := range idx.snap.Organizations {
		o := &idx.snap.Organizations[i]
		if o.PartnershipID == nil {
			continue
		}
		if c, ok := cards[*o.PartnershipID]; ok {
			orgPartnership[o.ID] = *o.PartnershipID
			if o.Name != "" {
				c.orgNames = append(c.orgNames, o.Name)
			}
		}
	}
	cardFor := func(orgID string) *card {
		pid, ok := orgPartnership[orgID]
		if !ok {
			return nil
		}
		return cards[pid]
	}

	for i := range idx.snap.SurveyResponses {
		s := &idx.snap.SurveyResponses[i]
		c := cardFor(s.OrganizationID)
		if c == nil {
			continue
		}
		c.surveys++
		baseline := s.IsBaseline()
		if s.StressLevel.Valid {
			c.stress.add(baseline, s.StressLevel.Float64)
		}
		if s.PlanningHours.Valid {
			c.planning.add(baseline, s.PlanningHours.Float64)
		}
		if s.ImplementationConfidence.Valid {
			if v, ok := implementationSample(s.ImplementationConfidence.Float64, models.SurveyConfidenceScale); ok {
				c.implementation.add(baseline, v)
			}
		}
	}
	for _, b := range snapshots {
		c := cardFor(b.row.OrganizationID)
		if c == nil {
			continue
		}
		v := b.row.MetricValue.Float64
		switch b.bucket {
		case models.BucketStress:
			c.stress.add(false, v)
		case models.BucketPlanning:
			c.planning.add(false, v)
		case models.BucketImplementation:
			if v, ok := implementationSample(v, models.SnapshotImplementationScale); ok {
				c.implementation.add(false, v)
			}
		}
	}

	out := make([]models.ImpactCard, 0, len(cards))
	for i := range idx.snap.Partnerships {
		p := &idx.snap.Partnerships[i]
		c := cards[p.ID]
		hasPhase := p.ContractPhase != nil && *p.ContractPhase != ""
		if c.surveys == 0 && !hasPhase {
			continue
		}

		ic := models.ImpactCard{
			PartnershipID:      p.ID,
			Slug:               p.Slug,
			School:             p.Slug,
			SurveyResponses:    c.surveys,
			Stress:             c.stress.result(),
			PlanningHours:      c.planning.result(),
			ImplementationRate: c.implementation.result(),
		}
		if len(c.orgNames) > 0 {
			sort.Strings(c.orgNames)
			ic.School = c.orgNames[0]
		}
		if hasPhase {
			phase := *p.ContractPhase
			ic.Phase = &phase
		}
		if p.ContractStartDate.Valid {
			start := p.ContractStartDate.Time.Format(ingest.DateLayout)
			ic.ContractStartDate = &start
		}
		out = append(out, ic)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].School != out[j].School {
			return out[i].School < out[j].School
		}
		return out[i].PartnershipID < out[j].PartnershipID
	})
	return out
}
