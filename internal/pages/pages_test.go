package pages

import (
	"strings"
	"testing"
)

func TestParse_ValidDocument(t *testing.T) {
	data := []byte(`[
		{"id": "p1", "name": "Home", "slug": "home", "elements": [
			{"id": "e1", "type": "hero", "props": {"title": "Welcome"}},
			{"id": "e2", "type": "text", "props": {"content": "Hello"}}
		]},
		{"id": "p2", "name": "About", "slug": "about", "elements": []}
	]`)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(doc) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc))
	}
	if doc[0].Elements[0].Type != ElementHero {
		t.Fatalf("unexpected element type: %q", doc[0].Elements[0].Type)
	}
}

func TestParse_UnknownElementType(t *testing.T) {
	data := []byte(`[{"id": "p1", "name": "Home", "slug": "home", "elements": [
		{"id": "e1", "type": "carousel"}
	]}]`)

	_, err := Parse(data)
	if err == nil || !strings.Contains(err.Error(), "unknown type") {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestValidate_DuplicateSlug(t *testing.T) {
	doc := Document{
		{ID: "p1", Slug: "home"},
		{ID: "p2", Slug: "home"},
	}
	err := doc.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate slug") {
		t.Fatalf("expected duplicate slug error, got %v", err)
	}
}

func TestValidate_MissingIDs(t *testing.T) {
	if err := (Document{{Slug: "home"}}).Validate(); err == nil {
		t.Fatal("expected error for page without id")
	}
	doc := Document{{ID: "p1", Slug: "home", Elements: []Element{{Type: ElementText}}}}
	if err := doc.Validate(); err == nil {
		t.Fatal("expected error for element without id")
	}
}

func TestHome(t *testing.T) {
	doc := Document{
		{ID: "p1", Slug: "about"},
		{ID: "p2", Slug: "home"},
	}
	page, ok := doc.Home()
	if !ok || page.ID != "p2" {
		t.Fatalf("expected home page p2, got %+v ok=%v", page, ok)
	}

	doc = Document{{ID: "p1", Slug: "about"}}
	page, ok = doc.Home()
	if !ok || page.ID != "p1" {
		t.Fatalf("expected fallback to first page, got %+v ok=%v", page, ok)
	}

	if _, ok := (Document{}).Home(); ok {
		t.Fatal("expected no home page for empty document")
	}
}
