// Package catalog serves the read-only template and testimonial catalog
// loaded from an embedded YAML seed.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/louisbranch/paidportfolio/internal/platform/errors"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/domain"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage"
)

//go:embed seed/catalog.yaml
var defaultSeed []byte

// Seed is the decoded catalog document.
type Seed struct {
	Templates    []domain.Template    `yaml:"templates"`
	Testimonials []domain.Testimonial `yaml:"testimonials"`
}

// Catalog answers template and testimonial reads. It is safe for concurrent
// use because nothing mutates it after New.
type Catalog struct {
	templates    []domain.Template
	byID         map[string]int
	testimonials []domain.Testimonial
}

// LoadDefault builds the catalog from the embedded seed.
func LoadDefault() (*Catalog, error) {
	seed, err := ParseSeed(defaultSeed)
	if err != nil {
		return nil, err
	}
	return New(seed)
}

// ParseSeed decodes a YAML catalog document, rejecting unknown keys.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("decode catalog seed: %w", err)
	}
	return seed, nil
}

// New validates seed and builds a catalog preserving seed order.
func New(seed Seed) (*Catalog, error) {
	c := &Catalog{
		templates:    make([]domain.Template, 0, len(seed.Templates)),
		byID:         make(map[string]int, len(seed.Templates)),
		testimonials: make([]domain.Testimonial, 0, len(seed.Testimonials)),
	}
	for _, template := range seed.Templates {
		if err := validateTemplate(template); err != nil {
			return nil, err
		}
		if _, ok := c.byID[template.ID]; ok {
			return nil, fmt.Errorf("template %q is duplicated", template.ID)
		}
		c.byID[template.ID] = len(c.templates)
		c.templates = append(c.templates, template.Clone())
	}
	seen := make(map[string]struct{}, len(seed.Testimonials))
	for _, testimonial := range seed.Testimonials {
		id := strings.TrimSpace(testimonial.ID)
		if id == "" {
			return nil, fmt.Errorf("testimonial id is required")
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("testimonial %q is duplicated", id)
		}
		if testimonial.Rating < 1 || testimonial.Rating > 5 {
			return nil, fmt.Errorf("testimonial %q rating must be between 1 and 5", id)
		}
		seen[id] = struct{}{}
		c.testimonials = append(c.testimonials, testimonial)
	}
	return c, nil
}

func validateTemplate(template domain.Template) error {
	id := strings.TrimSpace(template.ID)
	switch {
	case id == "":
		return fmt.Errorf("template id is required")
	case strings.TrimSpace(template.Name) == "":
		return fmt.Errorf("template %q name is required", id)
	case template.Price < 0 || template.PriceINR < 0:
		return fmt.Errorf("template %q prices must not be negative", id)
	case template.Rating < 1 || template.Rating > 5:
		return fmt.Errorf("template %q rating must be between 1 and 5", id)
	case template.ReviewCount < 0:
		return fmt.Errorf("template %q review count must not be negative", id)
	}
	return nil
}

// List returns every template in seed order.
func (c *Catalog) List(ctx context.Context) ([]domain.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	templates := make([]domain.Template, 0, len(c.templates))
	for _, template := range c.templates {
		templates = append(templates, template.Clone())
	}
	return templates, nil
}

// ListFeatured returns featured templates in seed order.
func (c *Catalog) ListFeatured(ctx context.Context) ([]domain.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	templates := []domain.Template{}
	for _, template := range c.templates {
		if template.IsFeatured {
			templates = append(templates, template.Clone())
		}
	}
	return templates, nil
}

// Get returns one template. Unknown ids yield a not-found error that also
// matches storage.ErrNotFound.
func (c *Catalog) Get(ctx context.Context, id string) (domain.Template, error) {
	if err := ctx.Err(); err != nil {
		return domain.Template{}, err
	}
	idx, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return domain.Template{}, apperrors.Wrap(apperrors.KindNotFound, "template not found", storage.ErrNotFound)
	}
	return c.templates[idx].Clone(), nil
}

// Testimonials returns every testimonial in seed order.
func (c *Catalog) Testimonials(ctx context.Context) ([]domain.Testimonial, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	testimonials := make([]domain.Testimonial, len(c.testimonials))
	copy(testimonials, c.testimonials)
	return testimonials, nil
}
