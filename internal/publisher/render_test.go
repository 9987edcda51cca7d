package publisher

import (
	"strings"
	"testing"

	"github.com/pagecraft/pagecraft/internal/pages"
)

func testDocument() pages.Document {
	return pages.Document{
		{
			ID:   "p1",
			Name: "Home",
			Slug: "home",
			Elements: []pages.Element{
				{ID: "e1", Type: pages.ElementHero, Props: map[string]any{
					"title":    "Fresh Bread Daily",
					"subtitle": "Baked every morning",
				}},
				{ID: "e2", Type: pages.ElementText, Props: map[string]any{
					"content": "We use <local> flour.",
				}},
				{ID: "e3", Type: pages.ElementButton, Props: map[string]any{
					"href": "/contact.html",
				}},
			},
		},
		{
			ID:   "p2",
			Name: "Contact",
			Slug: "contact",
			Elements: []pages.Element{
				{ID: "e4", Type: pages.ElementForm, Props: map[string]any{}},
				{ID: "e5", Type: pages.ElementGallery, Props: map[string]any{
					"images": []any{
						map[string]any{"url": "https://img/1.jpg", "alt": "one"},
						map[string]any{"url": "https://img/2.jpg", "alt": "two"},
					},
				}},
			},
		},
	}
}

func TestRenderPage_Home(t *testing.T) {
	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	doc := testDocument()
	html, err := renderer.RenderPage("Corner Bakery", doc, doc[0])
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := string(html)

	for _, want := range []string{
		"<title>Home — Corner Bakery</title>",
		"<h1>Fresh Bread Daily</h1>",
		"<p>Baked every morning</p>",
		`<a href="/">Home</a>`,
		`<a href="/contact.html">Contact</a>`,
		">Learn more</a>", // button label default
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	// User content must be escaped.
	if strings.Contains(out, "<local>") {
		t.Fatal("expected user content to be HTML-escaped")
	}
	if !strings.Contains(out, "&lt;local&gt;") {
		t.Fatal("expected escaped user content in output")
	}
}

func TestRenderPage_GalleryAndForm(t *testing.T) {
	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	doc := testDocument()
	html, err := renderer.RenderPage("Corner Bakery", doc, doc[1])
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := string(html)

	for _, want := range []string{
		`<img src="https://img/1.jpg" alt="one">`,
		`<img src="https://img/2.jpg" alt="two">`,
		">Send</button>", // form submit default
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderPage_UnknownElement(t *testing.T) {
	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	doc := pages.Document{{ID: "p1", Name: "Home", Slug: "home", Elements: []pages.Element{
		{ID: "e1", Type: "widget"},
	}}}

	if _, err := renderer.RenderPage("Site", doc, doc[0]); err == nil {
		t.Fatal("expected error for unknown element type")
	}
}
