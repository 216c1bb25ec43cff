package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mockup/pkg/design"
	"github.com/matzehuels/mockup/pkg/layer"
)

// =============================================================================
// Edit Scripts
// =============================================================================

// Script is an edit session replayed through the editor:
//
//	product = "classic-tee"
//	color = "white"
//	size = "M"
//	preset = "small"
//
//	[[step]]
//	do = "text"
//	content = "Hello"
//	as = "title"
//
//	[[step]]
//	do = "side"
//	side = "back"
//
//	[[step]]
//	do = "image"
//	src = "logo.png"
//	preset = "large"
//
// Image paths are resolved against the script's directory. Later steps
// refer to earlier elements by their "as" name.
type Script struct {
	Product  string `toml:"product"`
	Color    string `toml:"color"`
	Size     string `toml:"size"`
	Preset   string `toml:"preset"`
	Backdrop bool   `toml:"backdrop"`
	Steps    []Step `toml:"step"`

	dir string
}

// Step is one editor command.
type Step struct {
	Do string `toml:"do"`
	As string `toml:"as"`

	// Target names an element created by an earlier step.
	Target string `toml:"target"`

	Content  string  `toml:"content"`
	Font     string  `toml:"font"`
	Color    string  `toml:"color"`
	FontSize float64 `toml:"font_size"`

	Src string `toml:"src"`

	Side    string  `toml:"side"`
	Preset  string  `toml:"preset"`
	X       float64 `toml:"x"`
	Y       float64 `toml:"y"`
	Degrees float64 `toml:"degrees"`
	On      bool    `toml:"on"`
	Fill    string  `toml:"fill"`
}

// loadScript reads a script file.
func loadScript(path string) (*Script, error) {
	var s Script
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return nil, fmt.Errorf("load script %s: %w", path, err)
	}
	if s.Product == "" || s.Color == "" {
		return nil, fmt.Errorf("script %s: product and color are required", path)
	}
	s.dir = filepath.Dir(path)
	return &s, nil
}

// resolve makes relative image paths relative to the script.
func (s *Script) resolve(src string) string {
	switch {
	case src == "",
		strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"),
		strings.HasPrefix(src, "data:"), strings.HasPrefix(src, "file://"),
		filepath.IsAbs(src):
		return src
	}
	return filepath.Join(s.dir, src)
}

// scriptRunner applies steps to an editor it drives from the calling
// goroutine.
type scriptRunner struct {
	script  *Script
	editor  *design.Editor
	aliases map[string]string

	// onStep, if set, is called before step i (1-based) of n is applied.
	onStep func(i, n int, step Step)
}

func newScriptRunner(s *Script, e *design.Editor) *scriptRunner {
	return &scriptRunner{script: s, editor: e, aliases: make(map[string]string)}
}

// run applies every step, letting the loop settle after each one, then
// flushes pending edits. A preset on a text or image step is applied once
// the element has been placed.
func (r *scriptRunner) run(ctx context.Context) error {
	loop := r.editor.Loop()
	for i, step := range r.script.Steps {
		if r.onStep != nil {
			r.onStep(i+1, len(r.script.Steps), step)
		}
		id, err := r.apply(ctx, step)
		if err == nil {
			err = loop.Settle(ctx)
		}
		if err == nil && id != "" && step.Preset != "" && r.placed(id) {
			err = r.editor.ApplyPreset(id, step.Preset)
		}
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Do, err)
		}
	}
	r.editor.Flush()
	return loop.Settle(ctx)
}

// apply runs one step. It returns the id of an element the step created.
func (r *scriptRunner) apply(ctx context.Context, step Step) (string, error) {
	e := r.editor
	switch step.Do {
	case "text":
		id, err := e.AddText(ctx, step.Content, design.TextStyle{
			FontFamily: step.Font, ColorHex: step.Color, SizePx: step.FontSize,
		})
		r.alias(step.As, id)
		return id, err
	case "image":
		id, err := e.AddImage(ctx, r.script.resolve(step.Src))
		r.alias(step.As, id)
		return id, err
	case "side":
		side, err := layer.ParseSide(step.Side)
		if err != nil {
			return "", err
		}
		return "", e.SwitchSide(ctx, side)
	case "default_preset":
		return "", e.SetPreset(step.Preset)
	case "backdrop":
		return "", e.SetBackdrop(step.On, step.Fill)
	case "reset":
		return "", e.Reset(ctx)
	}

	id, err := r.target(step)
	if err != nil {
		return "", err
	}
	switch step.Do {
	case "move":
		return "", e.Move(id, step.X, step.Y)
	case "rotate":
		return "", e.Rotate(id, step.Degrees)
	case "preset":
		return "", e.ApplyPreset(id, step.Preset)
	case "select":
		return "", e.Select(id)
	case "delete":
		return "", e.Delete(id)
	}
	return "", fmt.Errorf("unknown action %q", step.Do)
}

// placed reports whether id made it onto the active side. Failed image
// loads are reported through the notifier and leave no element behind.
func (r *scriptRunner) placed(id string) bool {
	_, ok := r.editor.Session().ActiveStack().Get(id)
	return ok
}

func (r *scriptRunner) alias(name, id string) {
	if name != "" && id != "" {
		r.aliases[name] = id
	}
}

func (r *scriptRunner) target(step Step) (string, error) {
	if step.Target == "" {
		if id := r.editor.Selected(); id != "" {
			return id, nil
		}
		return "", fmt.Errorf("no target and nothing selected")
	}
	if id, ok := r.aliases[step.Target]; ok {
		return id, nil
	}
	return "", fmt.Errorf("unknown target %q", step.Target)
}
