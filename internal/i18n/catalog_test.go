package i18n

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{"en", "de"}, c.Languages())
	assert.Equal(t, "en", c.DefaultLanguage())
	assert.Equal(t, "Gestern", c.Button(BtnPrevious, "de"))
	assert.Equal(t, "Calendar", c.Button(BtnCalendar, "en"))
	assert.Equal(t, "Wähle einen Monat", c.Message(MsgMonthKeyboard, "de"))
}

func TestMatch(t *testing.T) {
	c := Default()
	cases := map[string]string{
		"de":    "de",
		"DE":    "de",
		"de-AT": "de",
		"de-CH": "de",
		"en":    "en",
		"en-GB": "en",
		"fr":    "en",
		"":      "en",
		"!!":    "en",
	}
	for code, want := range cases {
		assert.Equal(t, want, c.Match(code), "code %q", code)
	}
}

func TestMatchAcceptLanguage(t *testing.T) {
	c := Default()
	assert.Equal(t, "de", c.MatchAcceptLanguage("de-DE,de;q=0.9,en;q=0.8"))
	assert.Equal(t, "en", c.MatchAcceptLanguage("fr-FR,en;q=0.5"))
	assert.Equal(t, "en", c.MatchAcceptLanguage(""))
}

func TestFallbacks(t *testing.T) {
	c := Default()
	assert.Equal(t, "Choose a day", c.Message(MsgDayKeyboard, "fr"))
	assert.Equal(t, "no_such_key", c.Message("no_such_key", "de"))
	assert.Equal(t, "back", c.Button("back", "en"))
	assert.Equal(t, "March", c.MonthName(time.March, "fr"))
	assert.Equal(t, "März", c.MonthName(time.March, "de"))
}

func TestFormatDate(t *testing.T) {
	c := Default()
	assert.Equal(t, "04 January 2023", c.FormatDate(2023, time.January, 4, "en"))
	assert.Equal(t, "29 Februar 2024", c.FormatDate(2024, time.February, 29, "de"))
}

func TestLoad_LegacyMessagesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	legacy := `{
		"messages": {
			"keyboard": {"en": "Pick one", "de": "Such aus"},
			"start_message_title": {"en": "Hello", "de": "Hallo"}
		},
		"buttons": {
			"1": {"caption": {"en": "Latest", "de": "Neuester"}},
			"4": {"caption": {"en": "Top", "de": "Anfang"}}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Such aus", c.Message(MsgKeyboard, "de"))
	assert.Equal(t, "Neuester", c.Button(BtnLatest, "de"))
	assert.Equal(t, "Top", c.Button(BtnTop, "en"))
	// Untouched keys keep the built-in texts.
	assert.Equal(t, "Gestern", c.Button(BtnPrevious, "de"))
	assert.Equal(t, "Juli", c.MonthName(time.July, "de"))
}

func TestLoad_EmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "en", c.DefaultLanguage())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("months:\n  en: [Jan]\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestParse_DiscoversLanguages(t *testing.T) {
	c, err := Parse([]byte(`messages: {keyboard: {fr: Choisis, en: Choose, de: Wähle}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "de", "fr"}, c.Languages())
	assert.Equal(t, "fr", c.Match("fr-CA"))

	_, err = Parse([]byte(`messages: {}`))
	assert.Error(t, err)
}
