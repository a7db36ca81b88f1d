// Package navcodec encodes menu navigation state into short callback tokens.
//
// A token has the wire form <function>_<layer>_<value>. All navigation state
// lives in the token itself; nothing is kept on the server between calls.
package navcodec

import (
	"strings"

	"github.com/cockroachdb/errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mosaic/internal/apperr"
)

// Separator joins the three token fields. Values must never contain it.
const Separator = "_"

// MaxLen is the callback-data limit of the chat front-end.
const MaxLen = 64

// Function says whether a token runs a command or opens a menu.
type Function string

const (
	Command Function = "c"
	Menu    Function = "m"
)

// Layer is the menu level a token originates from.
type Layer string

const (
	LayerMain  Layer = "ma"
	LayerYear  Layer = "yr"
	LayerMonth Layer = "mo"
	LayerDay   Layer = "dy"
)

// Reserved values. Anything else is a date fragment.
const (
	ValueLatest   = "latest"
	ValuePrevious = "previous"
	ValueCalendar = "calendar"
	ValueTop      = "top"
)

// Token is one decoded navigation step.
type Token struct {
	Function Function `json:"function"`
	Layer    Layer    `json:"layer"`
	Value    string   `json:"value"`
}

// New is shorthand for constructing a Token.
func New(f Function, l Layer, value string) Token {
	return Token{Function: f, Layer: l, Value: value}
}

// Validate checks that every field is known and free of the separator.
func (t Token) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Function, validation.Required, validation.In(Command, Menu)),
		validation.Field(&t.Layer, validation.Required, validation.In(LayerMain, LayerYear, LayerMonth, LayerDay)),
		validation.Field(&t.Value, validation.Required, validation.By(noSeparator)),
	)
}

func noSeparator(v any) error {
	s, _ := v.(string)
	if strings.Contains(s, Separator) {
		return errors.Newf("must not contain %q", Separator)
	}
	return nil
}

// Encode returns the wire form of t.
func Encode(t Token) (string, error) {
	if err := t.Validate(); err != nil {
		return "", errors.Wrapf(apperr.ErrInvalidField, "%v", err)
	}
	s := string(t.Function) + Separator + string(t.Layer) + Separator + t.Value
	if len(s) > MaxLen {
		return "", errors.Wrapf(apperr.ErrInvalidField, "token %q longer than %d bytes", s, MaxLen)
	}
	return s, nil
}

// MustEncode is Encode for tokens built from constants and validated fragments.
func MustEncode(t Token) string {
	s, err := Encode(t)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the wire form without validation.
func (t Token) String() string {
	return string(t.Function) + Separator + string(t.Layer) + Separator + t.Value
}

// Decode parses a wire token. Exactly three non-empty fields with a known
// function and layer are required; anything else is ErrMalformedToken.
func Decode(s string) (Token, error) {
	parts := strings.Split(s, Separator)
	if len(parts) != 3 {
		return Token{}, errors.Wrapf(apperr.ErrMalformedToken, "%q: want 3 fields, got %d", s, len(parts))
	}
	t := Token{Function: Function(parts[0]), Layer: Layer(parts[1]), Value: parts[2]}
	if err := t.Validate(); err != nil {
		return Token{}, errors.Wrapf(apperr.ErrMalformedToken, "%q: %v", s, err)
	}
	return t, nil
}

// IsReserved reports whether v is one of the sentinel values.
func IsReserved(v string) bool {
	switch v {
	case ValueLatest, ValuePrevious, ValueCalendar, ValueTop:
		return true
	}
	return false
}
