//go:build !tinygo

// Command mkflash builds a preferences flash image with tasks and style
// already stored, and prints the contents of existing images.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	toml "github.com/pelletier/go-toml/v2"

	"todowrist/firmware/prefs"
	"todowrist/firmware/render"
	"todowrist/firmware/tasks"
)

const (
	defaultFlashPath = "todowrist.flash"
	defaultFlashSize = 64 * 1024
	defaultEraseSize = 4096
)

// Seed is the TOML input of the build command.
type Seed struct {
	Tasks      []string `toml:"tasks"`
	Completed  []bool   `toml:"completed"`
	Background string   `toml:"background"`
	Foreground string   `toml:"foreground"`
}

type CLI struct {
	Build BuildCmd `cmd:"" help:"Write a new flash image from a seed file"`
	Dump  DumpCmd  `cmd:"" help:"Print the tasks stored in a flash image"`
}

type BuildCmd struct {
	Seed  string `arg:"" help:"Seed file (TOML)" type:"existingfile"`
	Out   string `short:"o" help:"Output flash image path" default:"todowrist.flash"`
	Size  uint32 `help:"Flash image size (bytes)" default:"65536"`
	Erase uint32 `help:"Erase block size (bytes)" default:"4096"`
}

func (c *BuildCmd) Run() error {
	data, err := os.ReadFile(c.Seed)
	if err != nil {
		return err
	}
	var seed Seed
	if err := toml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse %s: %w", c.Seed, err)
	}
	return build(seed, c.Out, c.Size, c.Erase)
}

type DumpCmd struct {
	Image string `arg:"" help:"Flash image path" default:"todowrist.flash"`
	Erase uint32 `help:"Erase block size (bytes)" default:"4096"`
}

func (c *DumpCmd) Run() error {
	return dump(os.Stdout, c.Image, c.Erase)
}

func build(seed Seed, outPath string, size, eraseSize uint32) error {
	if len(seed.Tasks) > tasks.Slots {
		return fmt.Errorf("seed has %d tasks, at most %d fit", len(seed.Tasks), tasks.Slots)
	}
	bg, fg := seed.Background, seed.Foreground
	if bg == "" {
		bg = string(tasks.DefaultStyle.Background)
	}
	if fg == "" {
		fg = string(tasks.DefaultStyle.Foreground)
	}
	style, err := tasks.ParseStyle(bg, fg)
	if err != nil {
		return err
	}

	ff, err := createFlashFile(outPath, size, eraseSize)
	if err != nil {
		return err
	}
	defer func() { _ = ff.Close() }()

	store, err := prefs.OpenFlash(ff, prefs.FlashOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	state := tasks.New(store, nil)
	var texts [tasks.Slots]string
	copy(texts[:], seed.Tasks)
	if err := state.SubmitAll(texts); err != nil {
		return err
	}
	for i, done := range seed.Completed {
		if !done {
			continue
		}
		if err := state.ToggleCompletion(i); err != nil {
			return err
		}
	}
	return state.SetStyle(style)
}

func dump(w io.Writer, path string, eraseSize uint32) error {
	ff, err := openFlashFile(path, eraseSize)
	if err != nil {
		return err
	}
	defer func() { _ = ff.Close() }()

	store, err := prefs.OpenFlash(ff, prefs.FlashOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	state := tasks.New(store, nil)
	state.Load()
	for i, t := range state.Tasks() {
		fmt.Fprintln(w, render.RowLabel(i, t))
	}
	st := state.Style()
	fmt.Fprintf(w, "style: %s on %s\n", st.Foreground, st.Background)
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli, kong.Name("mkflash"), kong.Description("todowrist preferences image tool"))
	kctx.FatalIfErrorf(kctx.Run())
}
