package storage

import (
	"time"

	"github.com/hammamikhairi/vibetimer/internal/domain"
)

// profileRecord is the on-disk and export shape of a profile. Field names
// follow the exported JSON format so files written by older exports import
// unchanged.
type profileRecord struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Activities  []activityRecord `yaml:"activities" json:"activities"`
	RepeatCount int              `yaml:"repeat_count" json:"repeatCount"`
	CreatedAt   time.Time        `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `yaml:"updated_at" json:"updated_at"`
}

type activityRecord struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Duration int    `yaml:"duration" json:"duration"`
	Color    string `yaml:"color" json:"color"`
	Order    int    `yaml:"order" json:"order"`
}

func toRecord(p *domain.Profile) profileRecord {
	r := profileRecord{
		ID:          p.ID,
		Name:        p.Name,
		RepeatCount: p.RepeatCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Activities:  make([]activityRecord, len(p.Activities)),
	}
	for i, a := range p.Activities {
		r.Activities[i] = activityRecord{
			ID:       a.ID,
			Name:     a.Name,
			Duration: a.DurationSeconds,
			Color:    a.Category.Color(),
			Order:    a.Order,
		}
	}
	return r
}

// fromRecord converts a record back. Unknown colours fall back to active.
func fromRecord(r profileRecord) *domain.Profile {
	p := &domain.Profile{
		ID:          r.ID,
		Name:        r.Name,
		RepeatCount: r.RepeatCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Activities:  make([]domain.Activity, len(r.Activities)),
	}
	for i, a := range r.Activities {
		cat, err := domain.ParseCategory(a.Color)
		if err != nil {
			cat = domain.CategoryActive
		}
		p.Activities[i] = domain.Activity{
			ID:              a.ID,
			Name:            a.Name,
			DurationSeconds: a.Duration,
			Category:        cat,
			Order:           a.Order,
		}
	}
	return p
}
