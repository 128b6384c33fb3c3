package app

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"todowrist/firmware/fonts/font6x8"
	"todowrist/hal"

	"tinygo.org/x/tinyfont"
)

const maxPanicPages = 256

// drawPanic logs the stack and shows the panic on the panel, black on
// white, wrapped to the panel width.
func drawPanic(h hal.HAL, v any, stack []byte) {
	var stackLines []string
	for _, line := range strings.Split(string(stack), "\n") {
		if line != "" {
			stackLines = append(stackLines, line)
		}
	}

	if l := h.Logger(); l != nil {
		l.WriteLineString(fmt.Sprintf("todowrist panic: %v", v))
		for _, line := range stackLines {
			l.WriteLineString(line)
		}
	}

	panel := h.Panel()
	if panel == nil {
		return
	}
	if err := panel.Init(); err != nil {
		return
	}

	lines := []string{"todowrist panic:", fmt.Sprintf("%v", v)}
	if len(stackLines) > 0 {
		lines = append(lines, "stack:")
		lines = append(lines, stackLines...)
	} else {
		lines = append(lines, "stack: unavailable")
	}

	panel.SetFullWindow()
	panel.FirstPage()
	for page := 0; page < maxPanicPages; page++ {
		panel.FillScreen(hal.PanelWhite)
		drawPanicLines(panel, lines)
		if !panel.NextPage() {
			break
		}
	}
	panel.Hibernate()
}

func drawPanicLines(d hal.Panel, lines []string) {
	maxW, maxH := d.Size()
	cols := maxW / font6x8.Width
	if cols <= 0 {
		cols = 1
	}
	fg := hal.PanelBlack.RGBA()

	y := int16(0)
	for _, line := range lines {
		line = strings.ReplaceAll(line, "\t", " ")
		for len(line) > 0 {
			if y+font6x8.Height > maxH {
				return
			}
			chunk, rest := takeRunes(line, cols)
			tinyfont.WriteLine(d, font6x8.Font, 0, y+font6x8.Height-1, chunk, fg)
			y += font6x8.Height
			line = strings.TrimLeft(rest, " ")
		}
	}
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if int64(len(s)) <= int64(n) {
		return s, ""
	}
	var i int
	var count int16
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		if size <= 0 {
			break
		}
		i += size
		count++
	}
	if i >= len(s) {
		return s, ""
	}
	return s[:i], s[i:]
}
