// Package pages defines the page document format the editor produces: a list
// of pages, each built from typed elements. The same document is stored on
// projects, snapshotted onto deployments, and rendered by the publisher.
package pages

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Element types the editor can place on a page.
const (
	ElementHero    = "hero"
	ElementText    = "text"
	ElementImage   = "image"
	ElementGallery = "gallery"
	ElementButton  = "button"
	ElementForm    = "form"
)

var knownElementTypes = map[string]bool{
	ElementHero:    true,
	ElementText:    true,
	ElementImage:   true,
	ElementGallery: true,
	ElementButton:  true,
	ElementForm:    true,
}

// Element is a single block on a page. Props carries the type-specific
// content (hero title, image URL, gallery items, ...) as loose JSON so the
// editor can evolve element schemas without backend migrations.
type Element struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Props map[string]any `json:"props,omitempty"`
}

// Page is one page of a website.
type Page struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	Elements []Element `json:"elements"`
}

// Document is the full set of pages for a website.
type Document []Page

// Parse decodes and validates a page document.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid page document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks the structural invariants the editor relies on: every page
// has an id and a slug, slugs are unique, and every element has an id and a
// known type.
func (d Document) Validate() error {
	slugs := make(map[string]bool, len(d))
	for i, page := range d {
		if page.ID == "" {
			return fmt.Errorf("page %d: missing id", i)
		}
		if page.Slug == "" {
			return fmt.Errorf("page %q: missing slug", page.ID)
		}
		if slugs[page.Slug] {
			return fmt.Errorf("page %q: duplicate slug %q", page.ID, page.Slug)
		}
		slugs[page.Slug] = true

		for j, el := range page.Elements {
			if el.ID == "" {
				return fmt.Errorf("page %q: element %d: missing id", page.ID, j)
			}
			if !knownElementTypes[el.Type] {
				return fmt.Errorf("page %q: element %q: unknown type %q", page.ID, el.ID, el.Type)
			}
		}
	}
	return nil
}

// Home returns the page rendered as the site index: the page with slug
// "home" if present, otherwise the first page.
func (d Document) Home() (Page, bool) {
	if len(d) == 0 {
		return Page{}, false
	}
	for _, page := range d {
		if page.Slug == "home" {
			return page, true
		}
	}
	return d[0], true
}

// Starter returns the page document new projects begin with: a single
// empty home page.
func Starter() []byte {
	doc := Document{
		{
			ID:       uuid.New().String(),
			Name:     "Home",
			Slug:     "home",
			Elements: []Element{},
		},
	}
	data, _ := json.Marshal(doc)
	return data
}
