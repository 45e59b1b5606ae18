// Package taxonomy loads the sector/role taxonomy used to enrich gap analysis
// with role keywords and their synonyms.
package taxonomy

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/cv-assistant/internal/types"
)

// FollowupTemplates are question stems for a role
type FollowupTemplates struct {
	Impact      string `yaml:"impact" json:"impact" validate:"min=3"`
	Scale       string `yaml:"scale" json:"scale" validate:"min=3"`
	Reliability string `yaml:"reliability" json:"reliability" validate:"min=3"`
}

// Role is a job family inside a sector
type Role struct {
	ID                string              `yaml:"id" json:"id" validate:"required"`
	Seniority         []string            `yaml:"seniority" json:"seniority" validate:"min=1,dive,oneof=junior mid senior"`
	CoreSkills        []string            `yaml:"core_skills" json:"core_skills" validate:"min=1,dive,required"`
	NiceToHave        []string            `yaml:"nice_to_have" json:"nice_to_have" validate:"dive,required"`
	MetricsTemplates  []string            `yaml:"metrics_templates" json:"metrics_templates" validate:"min=1,dive,min=2"`
	KeywordSynonyms   map[string][]string `yaml:"keyword_synonyms" json:"keyword_synonyms" validate:"dive,dive,required"`
	FollowupTemplates FollowupTemplates   `yaml:"followup_templates" json:"followup_templates"`
}

// Keywords returns the core skills followed by the nice-to-haves
func (r *Role) Keywords() []string {
	out := make([]string, 0, len(r.CoreSkills)+len(r.NiceToHave))
	out = append(out, r.CoreSkills...)
	return append(out, r.NiceToHave...)
}

// Sector groups related roles
type Sector struct {
	ID    string `yaml:"id" json:"id" validate:"required"`
	Name  string `yaml:"name" json:"name" validate:"required"`
	Roles []Role `yaml:"roles" json:"roles" validate:"min=1,dive"`
}

// Taxonomy is the root document
type Taxonomy struct {
	Sectors []Sector `yaml:"sectors" json:"sectors" validate:"min=1,dive"`
}

// InvalidError lists the rule violations of a taxonomy document
type InvalidError struct {
	Path       string
	Violations []types.FieldViolation
}

func (e *InvalidError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return fmt.Sprintf("invalid sector taxonomy %s: %s", e.Path, strings.Join(parts, "; "))
}

// Load reads and validates a taxonomy file. YAML and JSON are both accepted.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		var invalid *InvalidError
		if errors.As(err, &invalid) {
			invalid.Path = path
			return nil, invalid
		}
		return nil, fmt.Errorf("failed to parse taxonomy %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a taxonomy document
func Parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if violations := types.ValidateStruct(&t); violations != nil {
		return nil, &InvalidError{Violations: violations}
	}
	return &t, nil
}

// ResolveRole finds a role by sector and role id
func (t *Taxonomy) ResolveRole(sectorID, roleID string) (*Role, bool) {
	for i := range t.Sectors {
		s := &t.Sectors[i]
		if s.ID != sectorID {
			continue
		}
		for j := range s.Roles {
			if s.Roles[j].ID == roleID {
				return &s.Roles[j], true
			}
		}
		return nil, false
	}
	return nil, false
}

// ExpandSynonyms returns each keyword followed by its synonyms from every
// role, without duplicates and in first-seen order.
func (t *Taxonomy) ExpandSynonyms(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, kw := range keywords {
		add(kw)
		for _, s := range t.Sectors {
			for _, r := range s.Roles {
				for _, syn := range r.KeywordSynonyms[kw] {
					add(syn)
				}
			}
		}
	}
	return out
}

// Provider loads the taxonomy on first use and then serves the same value.
// A nil *Provider means no taxonomy is configured.
type Provider struct {
	load func() (*Taxonomy, error)
}

// NewProvider returns a Provider for the file at path
func NewProvider(path string) *Provider {
	return &Provider{load: sync.OnceValues(func() (*Taxonomy, error) {
		return Load(path)
	})}
}

// Static returns a Provider serving t
func Static(t *Taxonomy) *Provider {
	return &Provider{load: func() (*Taxonomy, error) { return t, nil }}
}

// Taxonomy returns the loaded taxonomy. A load failure is returned on every
// call.
func (p *Provider) Taxonomy() (*Taxonomy, error) {
	return p.load()
}

// RoleKeywords resolves the role and returns its keywords expanded with
// synonyms. ok is false when the provider is nil or the role is unknown.
func (p *Provider) RoleKeywords(sectorID, roleID string) (keywords []string, ok bool, err error) {
	if p == nil || sectorID == "" || roleID == "" {
		return nil, false, nil
	}
	t, err := p.Taxonomy()
	if err != nil {
		return nil, false, err
	}
	role, found := t.ResolveRole(sectorID, roleID)
	if !found {
		return nil, false, nil
	}
	return t.ExpandSynonyms(role.Keywords()), true, nil
}
