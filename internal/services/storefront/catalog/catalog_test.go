package catalog

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/louisbranch/paidportfolio/internal/platform/errors"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/domain"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage"
)

func TestLoadDefaultSeed(t *testing.T) {
	t.Parallel()

	c := mustLoad(t)
	templates, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(templates) != 9 {
		t.Fatalf("templates = %d, want 9", len(templates))
	}
	if templates[0].ID != "developer-pro" || templates[8].ID != "open-book-portfolio" {
		t.Fatalf("seed order = %s..%s", templates[0].ID, templates[8].ID)
	}
	for _, template := range templates {
		if template.Price != 10 || template.PriceINR != 950 {
			t.Fatalf("%s price = %d/%d, want 10/950", template.ID, template.Price, template.PriceINR)
		}
		if len(template.Features) == 0 || len(template.TechStack) == 0 {
			t.Fatalf("%s missing features or tech stack", template.ID)
		}
	}

	openBook, err := c.Get(context.Background(), "open-book-portfolio")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if openBook.DemoURL != "https://directtoakash.github.io/NewPortfolio/" {
		t.Fatalf("demo url = %q", openBook.DemoURL)
	}
	if openBook.PreviewImage != "/portfolio-creative.png" {
		t.Fatalf("preview image = %q", openBook.PreviewImage)
	}
}

func TestListFeaturedFiltersInSeedOrder(t *testing.T) {
	t.Parallel()

	featured, err := mustLoad(t).ListFeatured(context.Background())
	if err != nil {
		t.Fatalf("list featured: %v", err)
	}
	want := []string{"developer-pro", "creative-studio", "tech-pioneer", "dark-matter", "open-book-portfolio"}
	if len(featured) != len(want) {
		t.Fatalf("featured = %d, want %d", len(featured), len(want))
	}
	for i, template := range featured {
		if template.ID != want[i] {
			t.Fatalf("featured[%d] = %s, want %s", i, template.ID, want[i])
		}
		if !template.IsFeatured {
			t.Fatalf("%s is not featured", template.ID)
		}
	}
}

func TestGetUnknownTemplate(t *testing.T) {
	t.Parallel()

	_, err := mustLoad(t).Get(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Fatalf("kind = %s, want not_found", apperrors.KindOf(err))
	}
}

func TestReturnedTemplatesAreCopies(t *testing.T) {
	t.Parallel()

	c := mustLoad(t)
	ctx := context.Background()
	templates, err := c.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	templates[0].Name = "Changed"
	templates[0].Features[0] = "Changed"

	again, err := c.Get(ctx, "developer-pro")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.Name != "Developer Pro" || again.Features[0] != "GitHub Integration" {
		t.Fatalf("catalog mutated through returned slice: %+v", again)
	}
}

func TestTestimonials(t *testing.T) {
	t.Parallel()

	testimonials, err := mustLoad(t).Testimonials(context.Background())
	if err != nil {
		t.Fatalf("testimonials: %v", err)
	}
	if len(testimonials) != 3 {
		t.Fatalf("testimonials = %d, want 3", len(testimonials))
	}
	if testimonials[0].Name != "Sarah Chen" || testimonials[0].Role != "Software Engineer at Google" {
		t.Fatalf("first testimonial = %+v", testimonials[0])
	}
	for _, testimonial := range testimonials {
		if testimonial.Rating != 5 || testimonial.Avatar != "" {
			t.Fatalf("testimonial = %+v", testimonial)
		}
	}
}

func TestNewRejectsInvalidSeed(t *testing.T) {
	t.Parallel()

	valid := domain.Template{ID: "a", Name: "A", Rating: 5}
	cases := map[string]Seed{
		"missing id":         {Templates: []domain.Template{{Name: "A", Rating: 5}}},
		"duplicate id":       {Templates: []domain.Template{valid, valid}},
		"rating too high":    {Templates: []domain.Template{{ID: "a", Name: "A", Rating: 6}}},
		"negative reviews":   {Templates: []domain.Template{{ID: "a", Name: "A", Rating: 4, ReviewCount: -1}}},
		"negative price":     {Templates: []domain.Template{{ID: "a", Name: "A", Rating: 4, Price: -1}}},
		"testimonial rating": {Testimonials: []domain.Testimonial{{ID: "t", Rating: 0}}},
	}
	for name, seed := range cases {
		if _, err := New(seed); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParseSeedRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	if _, err := ParseSeed([]byte("templates:\n  - id: a\n    colour: red\n")); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mustLoad(t).List(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func mustLoad(t *testing.T) *Catalog {
	t.Helper()
	c, err := LoadDefault()
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}
	return c
}
