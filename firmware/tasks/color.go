package tasks

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnrecognizedColor is returned by ParseColor for values outside the palette.
var ErrUnrecognizedColor = errors.New("unrecognized color")

// Color is a style color as stored. Stored values are not validated; the
// renderer maps anything unknown to the default pairing.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
	ColorRed   Color = "red"
)

// Style is the display color pairing.
type Style struct {
	Background Color
	Foreground Color
}

// DefaultStyle is white background, black text.
var DefaultStyle = Style{Background: ColorWhite, Foreground: ColorBlack}

// Known reports whether c is one of the palette colors.
func (c Color) Known() bool {
	switch c {
	case ColorWhite, ColorBlack, ColorRed:
		return true
	}
	return false
}

// ParseColor accepts white, black or red in any case.
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	if !c.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedColor, s)
	}
	return c, nil
}

// ParseStyle parses both colors. An unrecognized value falls back to the
// default for that side and the error is returned alongside the result.
func ParseStyle(bg, fg string) (Style, error) {
	st := DefaultStyle
	var errs []error
	if c, err := ParseColor(bg); err == nil {
		st.Background = c
	} else {
		errs = append(errs, fmt.Errorf("background: %w", err))
	}
	if c, err := ParseColor(fg); err == nil {
		st.Foreground = c
	} else {
		errs = append(errs, fmt.Errorf("text: %w", err))
	}
	return st, errors.Join(errs...)
}
