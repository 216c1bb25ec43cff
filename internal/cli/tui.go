package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/mockup/pkg/design"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorText)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorFaint)
)

// Nudge steps for keyboard moves and rotations.
const (
	moveStep   = 10.0
	rotateStep = 15.0
	maxNotices = 3
)

var nudges = map[string][2]float64{
	"H": {-moveStep, 0},
	"L": {moveStep, 0},
	"K": {0, -moveStep},
	"J": {0, moveStep},
}

// =============================================================================
// Messages
// =============================================================================

// stateMsg carries a published editor state and the layers of the active
// side, both read on the editor loop.
type stateMsg struct {
	state  design.State
	layers []layer.Record
}

// noticeMsg is a user notification from the editor.
type noticeMsg struct{ err error }

// doneMsg reports the result of an editor command.
type doneMsg struct {
	info string
	err  error
}

// =============================================================================
// EditorModel - Interactive design editor
// =============================================================================

type inputMode int

const (
	modeNormal inputMode = iota
	modeText
	modeImage
)

// EditorModel is the bubbletea model driving a design.Editor. Every editor
// call goes through Editor.Do so it runs on the editor loop.
type EditorModel struct {
	ctx     context.Context
	editor  *design.Editor
	product string
	open    func(*design.Editor) error

	state   design.State
	layers  []layer.Record
	cursor  int
	mode    inputMode
	input   string
	notices []string
	status  string
}

// NewEditorModel creates the model. open runs on the loop when the
// program starts and must open a session.
func NewEditorModel(ctx context.Context, e *design.Editor, product string, open func(*design.Editor) error) EditorModel {
	return EditorModel{ctx: ctx, editor: e, product: product, open: open}
}

// do runs fn on the editor loop as a tea command.
func (m EditorModel) do(info string, fn func(*design.Editor) error) tea.Cmd {
	ctx, e := m.ctx, m.editor
	return func() tea.Msg {
		return doneMsg{info: info, err: e.Do(ctx, fn)}
	}
}

func (m EditorModel) Init() tea.Cmd {
	return m.do("", m.open)
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state, m.layers = msg.state, msg.layers
		if i := m.indexOf(msg.state.Selected); i >= 0 {
			m.cursor = i
		}
		m.cursor = max(0, min(m.cursor, len(m.layers)-1))
	case noticeMsg:
		m.notices = append(m.notices, errors.UserMessage(msg.err))
		if len(m.notices) > maxNotices {
			m.notices = m.notices[len(m.notices)-maxNotices:]
		}
	case doneMsg:
		switch {
		case msg.err != nil:
			m.status = StyleWarning.Render(errors.UserMessage(msg.err))
		case msg.info != "":
			m.status = StyleSuccess.Render(msg.info)
		}
	case tea.KeyMsg:
		if m.mode != modeNormal {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m EditorModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode, m.input = modeNormal, ""
	case tea.KeyEnter:
		value, mode := strings.TrimSpace(m.input), m.mode
		m.mode, m.input = modeNormal, ""
		if value == "" {
			return m, nil
		}
		ctx := m.ctx
		if mode == modeText {
			return m, m.do("", func(e *design.Editor) error {
				_, err := e.AddText(ctx, value)
				return err
			})
		}
		return m, m.do("Loading image...", func(e *design.Editor) error {
			_, err := e.AddImage(ctx, value)
			return err
		})
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m EditorModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := m.ctx
	id := m.current()

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		return m, m.do("", func(e *design.Editor) error { return e.ToggleSide(ctx) })
	case "t":
		m.mode = modeText
	case "i":
		m.mode = modeImage
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			return m, m.selectCurrent()
		}
	case "down", "j":
		if m.cursor < len(m.layers)-1 {
			m.cursor++
			return m, m.selectCurrent()
		}
	case "H", "L", "K", "J":
		if id == "" {
			return m, nil
		}
		d := nudges[msg.String()]
		return m, m.do("", func(e *design.Editor) error {
			s := e.Adapter().Surface()
			h, ok := s.FindByLayer(id)
			if !ok {
				return errors.New(errors.ErrCodeNotFound, "layer %s", id)
			}
			obj, _ := s.Get(h)
			return e.Move(id, obj.X+d[0], obj.Y+d[1])
		})
	case "r":
		if id == "" {
			return m, nil
		}
		return m, m.do("", func(e *design.Editor) error {
			s := e.Adapter().Surface()
			h, ok := s.FindByLayer(id)
			if !ok {
				return errors.New(errors.ErrCodeNotFound, "layer %s", id)
			}
			obj, _ := s.Get(h)
			return e.Rotate(id, obj.Angle+rotateStep)
		})
	case "p":
		if id == "" {
			return m, nil
		}
		current := m.layers[m.cursor].PresetID
		return m, m.do("", func(e *design.Editor) error {
			ids := e.Presets().IDs()
			next := ids[(slices.Index(ids, current)+1)%len(ids)]
			return e.ApplyPreset(id, next)
		})
	case "x", "delete":
		if id == "" {
			return m, nil
		}
		return m, m.do("Deleted", func(e *design.Editor) error { return e.Delete(id) })
	case "b":
		return m, m.do("", func(e *design.Editor) error {
			on, fill := e.Adapter().Backdrop()
			return e.SetBackdrop(!on, fill)
		})
	case "e":
		return m, m.export()
	case "ctrl+s":
		return m, func() tea.Msg {
			var id string
			err := m.editor.Do(ctx, func(e *design.Editor) error {
				var err error
				id, err = e.Save(ctx)
				return err
			})
			return doneMsg{info: "Saved " + id, err: err}
		}
	}
	return m, nil
}

// export writes both sides as <slug>-<side>.png in the working directory.
// Renders finish on the loop while the command waits off it, so editing
// continues while the inactive side's images load.
func (m EditorModel) export() tea.Cmd {
	ctx, ed := m.ctx, m.editor
	return func() tea.Msg {
		type result struct {
			path string
			err  error
		}
		results := make(chan result, len(layer.Sides))
		err := ed.Do(ctx, func(e *design.Editor) error {
			s := e.Session()
			if s == nil {
				return errors.New(errors.ErrCodeValidation, "no product selected")
			}
			for _, side := range layer.Sides {
				path := fmt.Sprintf("%s-%s.png", s.Product.Slug, side)
				e.DownloadAsync(ctx, side, 1, func(data []byte, err error) {
					if err == nil {
						err = os.WriteFile(path, data, 0o644)
					}
					results <- result{path, err}
				})
			}
			return nil
		})
		if err != nil {
			return doneMsg{err: err}
		}
		var paths []string
		for range layer.Sides {
			select {
			case r := <-results:
				if r.err != nil {
					return doneMsg{err: r.err}
				}
				paths = append(paths, r.path)
			case <-ctx.Done():
				return doneMsg{err: ctx.Err()}
			}
		}
		slices.Sort(paths)
		return doneMsg{info: "Exported " + strings.Join(paths, ", ")}
	}
}

func (m EditorModel) selectCurrent() tea.Cmd {
	id := m.current()
	return m.do("", func(e *design.Editor) error { return e.Select(id) })
}

func (m EditorModel) current() string {
	if m.cursor < 0 || m.cursor >= len(m.layers) {
		return ""
	}
	return m.layers[m.cursor].ID
}

func (m EditorModel) indexOf(id string) int {
	for i, r := range m.layers {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (m EditorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.product))
	b.WriteString("  ")
	b.WriteString(StyleHighlight.Render(strings.ToUpper(m.state.Side.String())))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("tab side  t text  i image  ↑/↓ select  HJKL move  r rotate  p preset  x delete  b backdrop  e export  ^s save  q quit"))
	b.WriteString("\n\n")

	b.WriteString(m.priceLine())
	b.WriteString("\n\n")

	if len(m.layers) == 0 {
		b.WriteString(listDimStyle.Render("  no layers on this side"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.layerTable())
		b.WriteString("\n")
	}

	if lm := m.state.ActiveLayer; lm != nil {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  %.0f x %.0f px · %.2f x %.2f in @ %.0f dpi · %s %s",
			lm.WidthPx, lm.HeightPx, lm.WidthIn, lm.HeightIn, lm.DPI, lm.Rule, lm.Cost.StringFixed(2))))
		b.WriteString("\n")
	}

	switch m.mode {
	case modeText:
		b.WriteString("\n" + listSelectedStyle.Render("Text: ") + m.input + "█\n")
	case modeImage:
		b.WriteString("\n" + listSelectedStyle.Render("Image URL or path: ") + m.input + "█\n")
	}

	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	for _, n := range m.notices {
		b.WriteString(styleIconWarning.Render(iconWarning) + " " + listDimStyle.Render(n) + "\n")
	}
	return b.String()
}

func (m EditorModel) priceLine() string {
	parts := []string{
		"base " + m.state.BasePrice.StringFixed(2),
		"front " + m.state.FrontCost.StringFixed(2),
		"back " + m.state.BackCost.StringFixed(2),
	}
	return listNormalStyle.Render(strings.Join(parts, "  ")) + "  " +
		StyleNumber.Render("total "+m.state.TotalPrice.StringFixed(2))
}

func (m EditorModel) layerTable() string {
	rows := make([][]string, 0, len(m.layers))
	for i, r := range m.layers {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, string(r.Kind), layerLabel(r), r.PresetID, r.Cost.StringFixed(2)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers("", "Kind", "Content", "Preset", "Cost").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case row == m.cursor:
				return listSelectedStyle
			}
			return listNormalStyle
		}).
		Render()
}

func layerLabel(r layer.Record) string {
	switch {
	case r.Text != nil:
		return truncateLabel(r.Text.Content, 28)
	case r.Image != nil:
		return truncateLabel(r.Image.SourceURI, 28)
	}
	return r.ID
}

func truncateLabel(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
