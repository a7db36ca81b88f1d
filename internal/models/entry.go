// Package models defines the domain types for mosaic.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MediaType tags the media variant attached to an entry.
type MediaType string

const (
	MediaNone          MediaType = "none"
	MediaImage         MediaType = "image"
	MediaVideo         MediaType = "video"
	MediaExternalVideo MediaType = "external-video"
)

// YouTubeWatchURL is the prefix for external video links.
const YouTubeWatchURL = "https://www.youtube.com/watch?v="

// Media is one of Image, Video or ExternalVideo. A nil Media means MediaNone.
type Media interface {
	Type() MediaType
	isMedia()
}

// Image is a picture with an optional caption.
type Image struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

func (Image) Type() MediaType { return MediaImage }
func (Image) isMedia()        {}

// VideoSource is a hosted video in one language.
type VideoSource struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Video holds one hosted video per language.
type Video struct {
	Sources map[string]VideoSource `json:"sources"`
}

func (Video) Type() MediaType { return MediaVideo }
func (Video) isMedia()        {}

// Source returns the video for lang, falling back to the other languages.
func (v Video) Source(lang string, fallbacks ...string) VideoSource {
	for _, l := range append([]string{lang}, fallbacks...) {
		if s, ok := v.Sources[l]; ok && s.URL != "" {
			return s
		}
	}
	for _, l := range sortedKeys(v.Sources) {
		if s := v.Sources[l]; s.URL != "" {
			return s
		}
	}
	return VideoSource{}
}

// ExternalVideo is a video hosted on YouTube, identified per language.
type ExternalVideo struct {
	IDs Localized `json:"ids"`
}

func (ExternalVideo) Type() MediaType { return MediaExternalVideo }
func (ExternalVideo) isMedia()        {}

// URL returns the watch URL for lang.
func (v ExternalVideo) URL(lang string, fallbacks ...string) string {
	id := v.IDs.Get(lang, fallbacks...)
	if id == "" {
		return ""
	}
	return YouTubeWatchURL + id
}

// Localized maps a language code to a string.
type Localized map[string]string

// Get returns the value for lang, then for each fallback, then for the
// smallest language code present. Empty values are skipped.
func (l Localized) Get(lang string, fallbacks ...string) string {
	for _, k := range append([]string{lang}, fallbacks...) {
		if v := l[k]; v != "" {
			return v
		}
	}
	for _, k := range sortedKeys(l) {
		if v := l[k]; v != "" {
			return v
		}
	}
	return ""
}

// Entry is one dated content item of the dataset.
type Entry struct {
	Date      Date      `json:"date"`
	Kind      string    `json:"kind"`
	Title     Localized `json:"title"`
	Text      Localized `json:"text"`
	Media     Media     `json:"-"`
	Permalink string    `json:"permalink,omitempty"`
}

// MediaType returns the tag of the attached media.
func (e Entry) MediaType() MediaType {
	if e.Media == nil {
		return MediaNone
	}
	return e.Media.Type()
}

// record holds the scalar fields of a raw dataset record.
type record struct {
	Date      string
	Kind      string
	MediaType string
	Permalink string
}

func (r record) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Date, validation.Required, validation.Date(DateLayout)),
		validation.Field(&r.Kind, validation.Required),
		validation.Field(&r.MediaType, validation.In("none", "image", "video", "youtube")),
	)
}

// DecodeEntry builds an Entry from one raw dataset record. The media variant
// is chosen by media_type and its fields must be present.
func DecodeEntry(data []byte) (Entry, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Entry{}, fmt.Errorf("record: %w", err)
	}
	if raw == nil {
		return Entry{}, fmt.Errorf("record: null")
	}

	var rec record
	for key, dst := range map[string]*string{
		"date":       &rec.Date,
		"kind":       &rec.Kind,
		"media_type": &rec.MediaType,
		"permalink":  &rec.Permalink,
	} {
		s, err := stringField(raw, key)
		if err != nil {
			return Entry{}, err
		}
		*dst = s
	}
	rec.MediaType = strings.ToLower(strings.TrimSpace(rec.MediaType))
	if err := rec.Validate(); err != nil {
		return Entry{}, fmt.Errorf("record: %w", err)
	}

	date, err := ParseDate(rec.Date)
	if err != nil {
		return Entry{}, err
	}

	title, err := localizedField(raw, "title_")
	if err != nil {
		return Entry{}, err
	}
	text, err := localizedField(raw, "text_")
	if err != nil {
		return Entry{}, err
	}

	media, err := decodeMedia(raw, rec.MediaType)
	if err != nil {
		return Entry{}, fmt.Errorf("record %s: %w", rec.Date, err)
	}

	return Entry{
		Date:      date,
		Kind:      rec.Kind,
		Title:     title,
		Text:      text,
		Media:     media,
		Permalink: rec.Permalink,
	}, nil
}

func decodeMedia(raw map[string]json.RawMessage, mediaType string) (Media, error) {
	switch mediaType {
	case "", "none":
		return nil, nil

	case "image":
		// Upstream writes "image": "false" for image entries without a picture.
		val, ok := raw["image"]
		if !ok || !isObject(val) {
			return nil, nil
		}
		var img Image
		if err := json.Unmarshal(val, &img); err != nil {
			return nil, fmt.Errorf("image: %w", err)
		}
		if img.URL == "" {
			return nil, fmt.Errorf("image: url is required")
		}
		return img, nil

	case "video":
		sources := make(map[string]VideoSource)
		for key, val := range raw {
			lang, ok := strings.CutPrefix(key, "video_")
			if !ok || !isObject(val) {
				continue
			}
			var src VideoSource
			if err := json.Unmarshal(val, &src); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			if src.URL != "" {
				sources[lang] = src
			}
		}
		if len(sources) == 0 {
			return nil, fmt.Errorf("video: no video_<lang> source with url")
		}
		return Video{Sources: sources}, nil

	case "youtube":
		ids, err := localizedField(raw, "youtube_")
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("youtube: no youtube_<lang> id")
		}
		return ExternalVideo{IDs: ids}, nil
	}
	return nil, fmt.Errorf("unknown media_type %q", mediaType)
}

func stringField(raw map[string]json.RawMessage, key string) (string, error) {
	val, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(val, &s); err != nil {
		return "", fmt.Errorf("%s: want string: %w", key, err)
	}
	return s, nil
}

func localizedField(raw map[string]json.RawMessage, prefix string) (Localized, error) {
	out := make(Localized)
	for key := range raw {
		lang, ok := strings.CutPrefix(key, prefix)
		if !ok || lang == "" {
			continue
		}
		s, err := stringField(raw, key)
		if err != nil {
			return nil, err
		}
		if s != "" {
			out[lang] = s
		}
	}
	return out, nil
}

func isObject(val json.RawMessage) bool {
	trimmed := bytes.TrimSpace(val)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
