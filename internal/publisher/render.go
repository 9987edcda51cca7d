package publisher

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/pagecraft/pagecraft/internal/pages"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Renderer turns page documents into static HTML.
type Renderer struct {
	layout   *template.Template
	elements *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	layout, err := template.ParseFS(templateFiles, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout template: %w", err)
	}
	elements, err := template.ParseFS(templateFiles, "templates/elements.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse element templates: %w", err)
	}
	return &Renderer{layout: layout, elements: elements}, nil
}

type navItem struct {
	Name string
	Href string
}

type layoutView struct {
	SiteName string
	PageName string
	Nav      []navItem
	Elements []template.HTML
}

// RenderPage renders one page of a document. The document supplies the nav.
func (r *Renderer) RenderPage(siteName string, doc pages.Document, page pages.Page) ([]byte, error) {
	view := layoutView{
		SiteName: siteName,
		PageName: page.Name,
	}

	home, _ := doc.Home()
	for _, p := range doc {
		href := "/" + p.Slug + ".html"
		if p.ID == home.ID {
			href = "/"
		}
		view.Nav = append(view.Nav, navItem{Name: p.Name, Href: href})
	}

	for _, el := range page.Elements {
		html, err := r.renderElement(el)
		if err != nil {
			return nil, fmt.Errorf("page %q: %w", page.Slug, err)
		}
		view.Elements = append(view.Elements, html)
	}

	var buf bytes.Buffer
	if err := r.layout.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("page %q: layout render failed: %w", page.Slug, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderElement(el pages.Element) (template.HTML, error) {
	var view any
	switch el.Type {
	case pages.ElementHero:
		view = struct{ Title, Subtitle string }{
			Title:    propString(el.Props, "title"),
			Subtitle: propString(el.Props, "subtitle"),
		}
	case pages.ElementText:
		view = struct{ Content string }{Content: propString(el.Props, "content")}
	case pages.ElementImage:
		view = imageView{
			URL:     propString(el.Props, "url"),
			Alt:     propString(el.Props, "alt"),
			Caption: propString(el.Props, "caption"),
		}
	case pages.ElementGallery:
		view = struct{ Images []imageView }{Images: galleryImages(el.Props)}
	case pages.ElementButton:
		label := propString(el.Props, "label")
		if label == "" {
			label = "Learn more"
		}
		view = struct{ Label, Href string }{Label: label, Href: propString(el.Props, "href")}
	case pages.ElementForm:
		submit := propString(el.Props, "submit_label")
		if submit == "" {
			submit = "Send"
		}
		view = struct{ Action, SubmitLabel string }{
			Action:      propString(el.Props, "action"),
			SubmitLabel: submit,
		}
	default:
		return "", fmt.Errorf("element %q: unknown type %q", el.ID, el.Type)
	}

	var buf bytes.Buffer
	if err := r.elements.ExecuteTemplate(&buf, el.Type, view); err != nil {
		return "", fmt.Errorf("element %q: render failed: %w", el.ID, err)
	}
	return template.HTML(buf.String()), nil
}

type imageView struct {
	URL     string
	Alt     string
	Caption string
}

func propString(props map[string]any, key string) string {
	if props == nil {
		return ""
	}
	s, _ := props[key].(string)
	return s
}

func galleryImages(props map[string]any) []imageView {
	items, _ := props["images"].([]any)
	views := make([]imageView, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		views = append(views, imageView{
			URL: propString(entry, "url"),
			Alt: propString(entry, "alt"),
		})
	}
	return views
}
