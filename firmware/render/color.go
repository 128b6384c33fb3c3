package render

import (
	"todowrist/firmware/tasks"
	"todowrist/hal"
)

// Background maps a stored style color onto the panel palette. Anything but
// black or red is white.
func Background(c tasks.Color) hal.PanelColor {
	switch c {
	case tasks.ColorBlack:
		return hal.PanelBlack
	case tasks.ColorRed:
		return hal.PanelRed
	default:
		return hal.PanelWhite
	}
}

// Foreground maps a stored style color onto the panel palette. Anything but
// white or red is black.
func Foreground(c tasks.Color) hal.PanelColor {
	switch c {
	case tasks.ColorWhite:
		return hal.PanelWhite
	case tasks.ColorRed:
		return hal.PanelRed
	default:
		return hal.PanelBlack
	}
}
