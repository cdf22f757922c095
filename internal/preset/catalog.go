// Package preset provides the built-in workouts offered before the user
// has saved any profiles of their own.
package preset

import (
	"context"
	"sort"
	"strings"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Preset is a read-only workout template.
type Preset struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	Activities  []domain.Activity
	RepeatCount int
}

// TotalSeconds returns the length of a full run.
func (p *Preset) TotalSeconds() int {
	total := 0
	for _, a := range p.Activities {
		total += a.DurationSeconds
	}
	return total * p.RepeatCount
}

// Catalog holds the built-in presets. Safe for concurrent reads.
type Catalog struct {
	presets map[string]*Preset
	log     *logger.Logger
}

// NewCatalog creates a catalog preloaded with the built-in presets.
func NewCatalog(log *logger.Logger) *Catalog {
	c := &Catalog{
		presets: make(map[string]*Preset),
		log:     log,
	}
	c.seed()
	return c
}

// List returns every preset sorted by name.
func (c *Catalog) List(ctx context.Context) ([]*Preset, error) {
	out := make([]*Preset, 0, len(c.presets))
	for _, p := range c.presets {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns a preset by ID.
func (c *Catalog) Get(ctx context.Context, id string) (*Preset, error) {
	p, ok := c.presets[id]
	if !ok {
		c.log.Debug("preset not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return clone(p), nil
}

// Search returns presets whose ID, name, description or tags contain query.
func (c *Catalog) Search(ctx context.Context, query string) ([]*Preset, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	c.log.Debug("searching presets for: %s", q)

	all, _ := c.List(ctx)
	var out []*Preset
	for _, p := range all {
		if matches(p, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func matches(p *Preset, query string) bool {
	if strings.Contains(p.ID, query) ||
		strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func clone(p *Preset) *Preset {
	c := *p
	c.Activities = domain.CloneActivities(p.Activities)
	c.Tags = append([]string(nil), p.Tags...)
	return &c
}

// seed populates the catalog with the built-in presets.
func (c *Catalog) seed() {
	presets := []*Preset{
		tabata(),
		hiit(),
		emom(),
		mobility(),
		boxing(),
	}
	for _, p := range presets {
		c.presets[p.ID] = p
	}
	c.log.Debug("seeded %d presets", len(presets))
}

// build numbers activities and derives stable IDs from the preset ID.
func build(id string, acts ...domain.Activity) []domain.Activity {
	for i := range acts {
		acts[i].ID = id + "-" + string(rune('a'+i))
		acts[i].Order = i
	}
	return acts
}

func work(name string, s int) domain.Activity {
	return domain.Activity{Name: name, DurationSeconds: s, Category: domain.CategoryActive}
}

func rest(name string, s int) domain.Activity {
	return domain.Activity{Name: name, DurationSeconds: s, Category: domain.CategoryRest}
}

func warm(name string, s int) domain.Activity {
	return domain.Activity{Name: name, DurationSeconds: s, Category: domain.CategoryWarmup}
}

func tabata() *Preset {
	return &Preset{
		ID:          "tabata",
		Name:        "Tabata",
		Description: "Eight rounds of 20 seconds flat out, 10 seconds rest.",
		Tags:        []string{"hiit", "short", "classic"},
		Activities:  build("tabata", work("Work", 20), rest("Rest", 10)),
		RepeatCount: 8,
	}
}

func hiit() *Preset {
	return &Preset{
		ID:          "hiit-30-30",
		Name:        "HIIT 30/30",
		Description: "Ten minutes of 30 seconds on, 30 seconds off.",
		Tags:        []string{"hiit", "cardio"},
		Activities:  build("hiit-30-30", work("On", 30), rest("Off", 30)),
		RepeatCount: 10,
	}
}

func emom() *Preset {
	return &Preset{
		ID:          "emom-10",
		Name:        "EMOM 10",
		Description: "Every minute on the minute for ten minutes. Finish the set, rest the remainder.",
		Tags:        []string{"strength", "crossfit"},
		Activities:  build("emom-10", work("Minute", 60)),
		RepeatCount: 10,
	}
}

func mobility() *Preset {
	return &Preset{
		ID:          "mobility",
		Name:        "Morning Mobility",
		Description: "A gentle warm-up flow. One pass through, no rest.",
		Tags:        []string{"stretch", "warmup", "gentle"},
		Activities: build("mobility",
			warm("Neck rolls", 30),
			warm("Arm circles", 30),
			warm("Cat-cow", 45),
			warm("Hip openers", 45),
			warm("Hamstring fold", 45),
			warm("Deep squat hold", 60),
		),
		RepeatCount: 1,
	}
}

func boxing() *Preset {
	return &Preset{
		ID:          "boxing-rounds",
		Name:        "Boxing Rounds",
		Description: "Twelve three-minute rounds with a minute between, after a short warm-up.",
		Tags:        []string{"boxing", "cardio", "rounds"},
		Activities: build("boxing-rounds",
			warm("Skip rope", 60),
			work("Round", 180),
			rest("Corner", 60),
		),
		RepeatCount: 12,
	}
}
