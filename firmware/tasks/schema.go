package tasks

import (
	"strconv"

	"todowrist/firmware/prefs"
)

// Store namespaces.
const (
	NamespaceTasks = "tasks"
	NamespaceStyle = "style"
)

// slotRecord maps one slot onto its store keys.
type slotRecord struct {
	TextKey string
	DoneKey string
}

func slotKeys(i int) slotRecord {
	n := strconv.Itoa(i)
	return slotRecord{TextKey: "task" + n, DoneKey: "done" + n}
}

// styleRecord maps the style onto its store keys.
var styleRecord = struct {
	BackgroundKey string
	ForegroundKey string
}{
	BackgroundKey: "bg",
	ForegroundKey: "text",
}

func loadSlot(s prefs.Store, i int) Task {
	k := slotKeys(i)
	return Task{
		Text:      s.GetString(NamespaceTasks, k.TextKey, ""),
		Completed: s.GetBool(NamespaceTasks, k.DoneKey, false),
	}
}

func loadStyle(s prefs.Store) Style {
	return Style{
		Background: Color(s.GetString(NamespaceStyle, styleRecord.BackgroundKey, string(DefaultStyle.Background))),
		Foreground: Color(s.GetString(NamespaceStyle, styleRecord.ForegroundKey, string(DefaultStyle.Foreground))),
	}
}
