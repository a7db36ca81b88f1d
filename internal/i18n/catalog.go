// Package i18n holds the localized texts shown to chat users.
//
// A catalog file has three sections: messages.<key>.<lang>,
// buttons.<name>.caption.<lang> and months.<lang> (twelve names). JSON
// message files of the older layout, with numeric button names, also load.
package i18n

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Message keys.
const (
	MsgStartTitle    = "start_message_title"
	MsgStartText     = "start_message_text"
	MsgKeyboard      = "keyboard"
	MsgYearKeyboard  = "year_keyboard"
	MsgMonthKeyboard = "month_keyboard"
	MsgDayKeyboard   = "day_keyboard"
	MsgNotFound      = "not_found"
	MsgUnavailable   = "unavailable"
)

// Button names.
const (
	BtnLatest   = "latest"
	BtnPrevious = "previous"
	BtnCalendar = "calendar"
	BtnTop      = "top"
)

// legacyButtons maps the numeric names of older message files.
var legacyButtons = map[string]string{
	"1": BtnLatest,
	"2": BtnPrevious,
	"3": BtnCalendar,
	"4": BtnTop,
}

type button struct {
	Caption map[string]string `yaml:"caption" json:"caption"`
}

type document struct {
	Languages []string                     `yaml:"languages" json:"languages"`
	Messages  map[string]map[string]string `yaml:"messages" json:"messages"`
	Buttons   map[string]button            `yaml:"buttons" json:"buttons"`
	Months    map[string][]string          `yaml:"months" json:"months"`
}

// unmarshal decodes JSON message files with encoding/json, since they may
// be tab-indented, and everything else as YAML.
func unmarshal(data []byte, doc *document) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		return json.Unmarshal(trimmed, doc)
	}
	return yaml.Unmarshal(data, doc)
}

// Catalog resolves localized texts. It is immutable after construction.
type Catalog struct {
	languages []string
	messages  map[string]map[string]string
	buttons   map[string]map[string]string
	months    map[string][]string
	matcher   language.Matcher
}

// Default returns the built-in English and German catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("i18n: embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file and layers it over the built-in catalog, so
// keys missing from the file keep their default texts. An empty path
// returns Default().
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("i18n: read %s: %w", path, err)
	}
	var base, overlay document
	if err := yaml.Unmarshal(defaultCatalog, &base); err != nil {
		return nil, fmt.Errorf("i18n: embedded catalog: %w", err)
	}
	if err := unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("i18n: parse %s: %w", path, err)
	}
	return build(merge(base, overlay))
}

// Parse builds a catalog from YAML or JSON data alone.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("i18n: parse: %w", err)
	}
	return build(doc)
}

func merge(base, over document) document {
	if len(over.Languages) > 0 {
		base.Languages = over.Languages
	}
	if base.Messages == nil {
		base.Messages = map[string]map[string]string{}
	}
	for key, texts := range over.Messages {
		if base.Messages[key] == nil {
			base.Messages[key] = map[string]string{}
		}
		for lang, text := range texts {
			base.Messages[key][lang] = text
		}
	}
	if base.Buttons == nil {
		base.Buttons = map[string]button{}
	}
	for name, b := range over.Buttons {
		if alias, ok := legacyButtons[name]; ok {
			name = alias
		}
		merged := base.Buttons[name]
		if merged.Caption == nil {
			merged.Caption = map[string]string{}
		}
		for lang, text := range b.Caption {
			merged.Caption[lang] = text
		}
		base.Buttons[name] = merged
	}
	if base.Months == nil {
		base.Months = map[string][]string{}
	}
	for lang, names := range over.Months {
		base.Months[lang] = names
	}
	return base
}

func build(doc document) (*Catalog, error) {
	c := &Catalog{
		messages: doc.Messages,
		buttons:  map[string]map[string]string{},
		months:   map[string][]string{},
	}
	if c.messages == nil {
		c.messages = map[string]map[string]string{}
	}
	for name, b := range doc.Buttons {
		if alias, ok := legacyButtons[name]; ok {
			name = alias
		}
		c.buttons[name] = b.Caption
	}
	for lang, names := range doc.Months {
		if len(names) != 12 {
			return nil, fmt.Errorf("i18n: months.%s: want 12 names, got %d", lang, len(names))
		}
		c.months[lang] = names
	}

	c.languages = doc.Languages
	if len(c.languages) == 0 {
		c.languages = discoverLanguages(c.messages)
	}
	if len(c.languages) == 0 {
		return nil, fmt.Errorf("i18n: catalog defines no languages")
	}

	tags := make([]language.Tag, 0, len(c.languages))
	for _, l := range c.languages {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("i18n: language %q: %w", l, err)
		}
		tags = append(tags, tag)
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// discoverLanguages collects the languages used by messages, English first.
func discoverLanguages(messages map[string]map[string]string) []string {
	seen := map[string]struct{}{}
	for _, texts := range messages {
		for lang := range texts {
			seen[lang] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for lang := range seen {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i] == "en") != (out[j] == "en") {
			return out[i] == "en"
		}
		return out[i] < out[j]
	})
	return out
}

// Languages returns the supported language codes, default first.
func (c *Catalog) Languages() []string { return slices.Clone(c.languages) }

// DefaultLanguage is the language used when nothing else matches.
func (c *Catalog) DefaultLanguage() string { return c.languages[0] }

// Match picks the supported language closest to a client language code such
// as "de", "de-AT" or "en-US". Unknown or empty codes get the default.
func (c *Catalog) Match(code string) string {
	if code == "" {
		return c.DefaultLanguage()
	}
	tag, err := language.Parse(code)
	if err != nil {
		return c.DefaultLanguage()
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No || idx < 0 || idx >= len(c.languages) {
		return c.DefaultLanguage()
	}
	return c.languages[idx]
}

// MatchAcceptLanguage picks a supported language from an Accept-Language
// header value.
func (c *Catalog) MatchAcceptLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return c.DefaultLanguage()
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(c.languages) {
		return c.DefaultLanguage()
	}
	return c.languages[idx]
}

func (c *Catalog) lookup(texts map[string]string, lang string) (string, bool) {
	if s, ok := texts[lang]; ok && s != "" {
		return s, true
	}
	if s, ok := texts[c.DefaultLanguage()]; ok && s != "" {
		return s, true
	}
	return "", false
}

// Message returns the text for key in lang, falling back to the default
// language and finally to the key itself.
func (c *Catalog) Message(key, lang string) string {
	if s, ok := c.lookup(c.messages[key], lang); ok {
		return s
	}
	return key
}

// Button returns the caption of a named button.
func (c *Catalog) Button(name, lang string) string {
	if s, ok := c.lookup(c.buttons[name], lang); ok {
		return s
	}
	return name
}

// MonthName returns the localized name of m.
func (c *Catalog) MonthName(m time.Month, lang string) string {
	if m < time.January || m > time.December {
		return m.String()
	}
	for _, l := range []string{lang, c.DefaultLanguage()} {
		if names, ok := c.months[l]; ok {
			return names[m-1]
		}
	}
	return m.String()
}

// FormatDate renders a date as "02 January 2006" with localized month names.
func (c *Catalog) FormatDate(year int, month time.Month, day int, lang string) string {
	return fmt.Sprintf("%02d %s %04d", day, c.MonthName(month, lang), year)
}
