package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2023-01-05")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2023, Month: time.January, Day: 5}, d)
	assert.Equal(t, "2023-01-05", d.String())

	for _, bad := range []string{"", "2023-1-05", "2023-01-5", "2023/01/05", "2023-02-30", "20230105"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, "ParseDate(%q)", bad)
	}
}

func TestDateCompareAndAddDays(t *testing.T) {
	a := Date{Year: 2023, Month: time.January, Day: 31}
	b := a.AddDays(1)
	assert.Equal(t, Date{Year: 2023, Month: time.February, Day: 1}, b)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, Date{Year: 2022, Month: time.December, Day: 31}, Date{Year: 2023, Month: time.January, Day: 1}.AddDays(-1))
}

func TestDecodeEntry_Image(t *testing.T) {
	e, err := DecodeEntry([]byte(`{
		"date": "2023-01-03", "kind": "mosaic", "media_type": "Image",
		"title_de": "Titel", "title_en": "Title", "text_en": "Body",
		"image": {"url": "https://example.org/a.jpg", "caption": "A"},
		"permalink": "https://example.org/p/1"
	}`))
	require.NoError(t, err)
	assert.Equal(t, MediaImage, e.MediaType())
	assert.Equal(t, Image{URL: "https://example.org/a.jpg", Caption: "A"}, e.Media)
	assert.Equal(t, "Titel", e.Title.Get("de"))
	assert.Equal(t, "Body", e.Text.Get("de", "en"))
	assert.Equal(t, "https://example.org/p/1", e.Permalink)
}

func TestDecodeEntry_ImageFalseMeansNoMedia(t *testing.T) {
	e, err := DecodeEntry([]byte(`{"date": "2023-01-03", "kind": "mosaic", "media_type": "image", "image": "false"}`))
	require.NoError(t, err)
	assert.Equal(t, MediaNone, e.MediaType())
	assert.Nil(t, e.Media)
}

func TestDecodeEntry_Video(t *testing.T) {
	e, err := DecodeEntry([]byte(`{
		"date": "2023-01-03", "kind": "mosaic", "media_type": "video",
		"video_de": {"url": "https://v/de.mp4", "title": "Film"},
		"video_en": {"url": "https://v/en.mp4"}
	}`))
	require.NoError(t, err)
	v, ok := e.Media.(Video)
	require.True(t, ok)
	assert.Equal(t, "https://v/de.mp4", v.Source("de").URL)
	assert.Equal(t, "https://v/en.mp4", v.Source("en").URL)
	assert.Equal(t, "https://v/de.mp4", v.Source("fr").URL)
}

func TestDecodeEntry_YouTube(t *testing.T) {
	e, err := DecodeEntry([]byte(`{"date": "2023-01-03", "kind": "mosaic", "media_type": "youtube", "youtube_de": "abc123"}`))
	require.NoError(t, err)
	assert.Equal(t, MediaExternalVideo, e.MediaType())
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", e.Media.(ExternalVideo).URL("en"))
}

func TestDecodeEntry_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad date":          `{"date": "2023-13-01", "kind": "mosaic"}`,
		"missing date":      `{"kind": "mosaic"}`,
		"missing kind":      `{"date": "2023-01-01"}`,
		"unknown media":     `{"date": "2023-01-01", "kind": "mosaic", "media_type": "hologram"}`,
		"image without url": `{"date": "2023-01-01", "kind": "mosaic", "media_type": "image", "image": {"caption": "x"}}`,
		"video no source":   `{"date": "2023-01-01", "kind": "mosaic", "media_type": "video"}`,
		"youtube no id":     `{"date": "2023-01-01", "kind": "mosaic", "media_type": "youtube"}`,
		"title not string":  `{"date": "2023-01-01", "kind": "mosaic", "title_en": 5}`,
		"not an object":     `[1, 2]`,
		"null":              `null`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEntry([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestLocalizedGetFallback(t *testing.T) {
	l := Localized{"fr": "Bonjour", "en": ""}
	assert.Equal(t, "Bonjour", l.Get("de", "en"))
	assert.Equal(t, "", Localized{}.Get("de"))
}
