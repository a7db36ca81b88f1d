// Package render turns entries into chat message payloads.
package render

import (
	"strings"

	"github.com/starford/mosaic/internal/i18n"
	"github.com/starford/mosaic/internal/models"
)

// MediaRef is the link attached below a message.
type MediaRef struct {
	Type    models.MediaType `json:"type"`
	URL     string           `json:"url"`
	Caption string           `json:"caption"`
}

// Message is the renderable form of one entry in one language.
type Message struct {
	Date      string    `json:"date"`
	LocalDate string    `json:"local_date"`
	Language  string    `json:"language"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Permalink string    `json:"permalink,omitempty"`
	Media     *MediaRef `json:"media,omitempty"`
}

// Markdown returns the chat text:
//
//	*<local date>*
//	*<title>*
//	<text>
//
// followed by a blank line and [caption](url) when media is attached.
func (m Message) Markdown() string {
	var b strings.Builder
	b.WriteString("*" + m.LocalDate + "*\n")
	b.WriteString("*" + m.Title + "*\n")
	b.WriteString(m.Text)
	if m.Media != nil {
		b.WriteString("\n\n[" + m.Media.Caption + "](" + m.Media.URL + ")")
	}
	return b.String()
}

// Start is the greeting shown before the first menu.
type Start struct {
	Language string `json:"language"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
}

// Markdown returns the bold title and the text, separated by a blank line.
func (s Start) Markdown() string {
	return "*" + s.Title + "*\n\n" + s.Text
}

// Renderer builds messages with texts from a catalog.
type Renderer struct {
	cat        *i18n.Catalog
	startImage string
}

// New creates a renderer. startImage is the public URL of the greeting
// picture; empty means none.
func New(cat *i18n.Catalog, startImage string) *Renderer {
	return &Renderer{cat: cat, startImage: startImage}
}

// Catalog returns the catalog used for texts.
func (r *Renderer) Catalog() *i18n.Catalog { return r.cat }

// Entry renders e in lang. Missing translations fall back to the catalog's
// default language, then to any language present.
func (r *Renderer) Entry(e models.Entry, lang string) Message {
	def := r.cat.DefaultLanguage()
	return Message{
		Date:      e.Date.String(),
		LocalDate: r.cat.FormatDate(e.Date.Year, e.Date.Month, e.Date.Day, lang),
		Language:  lang,
		Kind:      e.Kind,
		Title:     e.Title.Get(lang, def),
		Text:      e.Text.Get(lang, def),
		Permalink: e.Permalink,
		Media:     mediaRef(e.Media, lang, def),
	}
}

func mediaRef(m models.Media, lang, def string) *MediaRef {
	var url, caption string
	switch v := m.(type) {
	case models.Image:
		url, caption = v.URL, v.Caption
	case models.Video:
		src := v.Source(lang, def)
		url, caption = src.URL, src.Title
	case models.ExternalVideo:
		url = v.URL(lang, def)
	default:
		return nil
	}
	if url == "" {
		return nil
	}
	if caption == "" {
		caption = url
	}
	return &MediaRef{Type: m.Type(), URL: url, Caption: caption}
}

// Start renders the greeting in lang.
func (r *Renderer) Start(lang string) Start {
	return Start{
		Language: lang,
		Title:    r.cat.Message(i18n.MsgStartTitle, lang),
		Text:     r.cat.Message(i18n.MsgStartText, lang),
		ImageURL: r.startImage,
	}
}
