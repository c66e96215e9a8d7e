package viz

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/wavesim/internal/audio"
	"github.com/san-kum/wavesim/internal/field"
	"github.com/san-kum/wavesim/internal/wave"
)

func TestBuildFrame(t *testing.T) {
	g, _ := field.New(4)
	_ = g.Put(1, 1, 2)
	_ = g.SetParam(2, 2, field.Propagation, 1)
	_ = g.SetParam(2, 2, field.Damping, 1)

	f := BuildFrame(g.Snapshot(), 7, audio.Point{X: 3, Y: 0}, audio.Point{X: 9, Y: 9})

	base := (1 - 0.2) + 0.2/2
	tests := []struct {
		name string
		x, y int
		want float64
	}{
		{"quiet cell", 0, 1, base},
		{"displaced cell", 1, 1, 2.0/20 + base},
		{"retuned cell", 2, 2, 0 + 0.5},
		{"microphone", 3, 0, MicMarker},
	}
	for _, tt := range tests {
		if got := f.At(tt.x, tt.y); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: expected %f, got %f", tt.name, tt.want, got)
		}
	}
	if f.Step != 7 || f.Size != 4 {
		t.Errorf("unexpected frame header %d/%d", f.Step, f.Size)
	}
}

func TestFrameBuffer(t *testing.T) {
	var b FrameBuffer
	if f, seq := b.Latest(); !f.Empty() || seq != 0 {
		t.Fatal("new buffer should be empty")
	}
	b.Publish(Frame{Size: 2, Values: make([]float64, 4)})
	b.Publish(Frame{Size: 3, Values: make([]float64, 9)})
	f, seq := b.Latest()
	if seq != 2 || f.Size != 3 {
		t.Errorf("expected second frame, got size %d seq %d", f.Size, seq)
	}
}

func TestLevels(t *testing.T) {
	f := Frame{Size: 2, Values: []float64{1, 2, 3, MicMarker}}
	lv := Levels(f)
	if lv[0] != 0 || lv[2] != levels-1 || lv[3] != micLevel {
		t.Errorf("unexpected levels %v", lv)
	}
	if lv[1] != (levels-1)/2+1 && lv[1] != (levels-1)/2 {
		t.Errorf("midpoint level %d", lv[1])
	}

	flat := Levels(Frame{Size: 1, Values: []float64{0.9}})
	if flat[0] != 0 {
		t.Errorf("flat frame should map to the lowest level, got %d", flat[0])
	}
}

func TestHeatmapRender(t *testing.T) {
	g, _ := field.New(8)
	_ = g.Put(4, 4, 1)
	f := BuildFrame(g.Snapshot(), 0)

	h := NewHeatmap(ThemeMinimal)
	out := h.Render(f, 8, 4, 2, 2)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(lines))
	}
	if strings.Count(out, "◆") != 1 {
		t.Error("expected exactly one cursor marker")
	}
	if h.Render(Frame{}, 8, 4, 0, 0) != "" {
		t.Error("empty frame should render nothing")
	}
}

func TestCanvasProfile(t *testing.T) {
	c := NewCanvas(10, 2)
	c.Profile([]float64{0, 1, 0, -1, 0}, 1)
	out := c.String()
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("expected 2 rows, got %q", out)
	}
	blank := string(rune(brailleBlank))
	if !strings.ContainsFunc(out, func(r rune) bool { return r > brailleBlank && r < brailleBlank+0x100 }) {
		t.Error("expected dots on the canvas")
	}
	c.Clear()
	if strings.ReplaceAll(strings.ReplaceAll(c.String(), blank, ""), "\n", "") != "" {
		t.Error("clear should blank every cell")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil, 5); got != "─────" {
		t.Errorf("expected placeholder, got %q", got)
	}
	out := Sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 4)
	if strings.Count(out, "█") != 1 {
		t.Errorf("expected one full bar in the last four values, got %q", out)
	}
}

func TestLerpColor(t *testing.T) {
	if c := lerpColor("#000000", "#ffffff", 0.5); c != "#7f7f7f" {
		t.Errorf("expected mid grey, got %s", c)
	}
	if c := lerpColor("#102030", "#102030", 0.3); c != "#102030" {
		t.Errorf("expected unchanged color, got %s", c)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the first")
	}
	seen := map[string]bool{}
	th := Themes[0]
	for range Themes {
		seen[th.Name] = true
		th = NextTheme(th)
	}
	if len(seen) != len(Themes) || th.Name != Themes[0].Name {
		t.Errorf("theme cycle broken: %v", seen)
	}
}

type fakeSession struct {
	n      int
	orders []wave.Order
	mics   [2]audio.Point
	frames FrameBuffer
	status Status
	reject error
}

func (s *fakeSession) Size() int { return s.n }

func (s *fakeSession) Submit(o wave.Order) error {
	if s.reject != nil {
		return s.reject
	}
	s.orders = append(s.orders, o)
	return nil
}

func (s *fakeSession) MoveMic(ch audio.Channel, x, y int) error {
	s.mics[ch] = audio.Point{X: x, Y: y}
	return nil
}

func (s *fakeSession) Mic(ch audio.Channel) audio.Point { return s.mics[ch] }
func (s *fakeSession) Frames() *FrameBuffer             { return &s.frames }
func (s *fakeSession) Status() Status                   { return s.status }

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModelSubmitsOrders(t *testing.T) {
	s := &fakeSession{n: 16}
	m := NewModel(s, field.DefaultParams, 10*time.Millisecond)

	m = press(m, "h", "h", "k", "d")
	if len(s.orders) != 1 {
		t.Fatalf("expected one order, got %d", len(s.orders))
	}
	if got := s.orders[0]; got != (wave.Drop{X: 6, Y: 7, Amount: 5}) {
		t.Errorf("unexpected drop %v", got)
	}

	m = press(m, "tab", "]", "]", "enter")
	want := wave.ChangeParameter{X: 6, Y: 7, Which: field.Damping, Value: 0.3}
	got, ok := s.orders[1].(wave.ChangeParameter)
	if !ok || got.Which != want.Which || math.Abs(got.Value-want.Value) > 1e-12 || got.X != 6 || got.Y != 7 {
		t.Errorf("expected %v, got %v", want, s.orders[1])
	}

	m = press(m, "2")
	if s.mics[audio.Right] != (audio.Point{X: 6, Y: 7}) {
		t.Errorf("right mic not moved: %+v", s.mics[audio.Right])
	}

	m = press(m, "f")
	if len(s.orders) != 2+16*16 {
		t.Errorf("fill should queue one order per cell, got %d", len(s.orders)-2)
	}
	_ = m
}

func TestModelClampsCursorAndStaged(t *testing.T) {
	s := &fakeSession{n: 4}
	m := NewModel(s, field.Params{C: 0.95, K: 0}, time.Millisecond)
	m = press(m, "L", "J", "]", "]")
	if m.cursorX != 3 || m.cursorY != 3 {
		t.Errorf("cursor should stop at the edge, got (%d,%d)", m.cursorX, m.cursorY)
	}
	if m.staged.C != 1 {
		t.Errorf("propagation should clamp at 1, got %f", m.staged.C)
	}
	for i := 0; i < 30; i++ {
		m = press(m, "+")
	}
	if m.dropAmount != 10 {
		t.Errorf("drop amount should clamp at 10, got %f", m.dropAmount)
	}
}

func TestModelReportsRejection(t *testing.T) {
	s := &fakeSession{n: 4, reject: errors.New("wave: simulator stopped")}
	m := press(NewModel(s, field.DefaultParams, time.Millisecond), "d")
	if !strings.Contains(m.message, "stopped") {
		t.Errorf("expected rejection message, got %q", m.message)
	}
}

func TestModelQuitsWhenSessionEnds(t *testing.T) {
	s := &fakeSession{n: 4, status: Status{Done: true, State: wave.Stopped}}
	m := NewModel(s, field.DefaultParams, time.Millisecond)
	_, cmd := m.Update(TickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit once the session is done")
	}
}

func TestModelQuitKey(t *testing.T) {
	s := &fakeSession{n: 4}
	m := NewModel(s, field.DefaultParams, time.Millisecond)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if len(s.orders) != 1 || s.orders[0] != (wave.Quit{}) {
		t.Errorf("expected a Quit order, got %v", s.orders)
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit command")
	}
}

func TestModelView(t *testing.T) {
	s := &fakeSession{n: 8}
	g, _ := field.New(8)
	s.frames.Publish(BuildFrame(g.Snapshot(), 1))
	s.status = Status{Step: 1, State: wave.Rotated, Energy: 0.5}
	m := NewModel(s, field.DefaultParams, time.Millisecond)
	next, _ := m.Update(TickMsg(time.Now()))
	out := next.(Model).View()
	for _, want := range []string{"WAVESIM", "rotated", "Cursor"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModelQuitKeyReportsRejection(t *testing.T) {
	s := &fakeSession{n: 4, reject: errors.New("wave: simulator stopped")}
	m := NewModel(s, field.DefaultParams, time.Millisecond)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if msg := next.(Model).message; !strings.Contains(msg, "stopped") {
		t.Errorf("expected the rejected quit in the status line, got %q", msg)
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit command even when the order is rejected")
	}
}
