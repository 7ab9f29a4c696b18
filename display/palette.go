package display

import "github.com/fatih/color"

// Tone selects the colour of a row's value cells
type Tone int

const (
	ToneNeutral Tone = iota
	ToneUp
	ToneDown
)

func (t Tone) String() string {
	switch t {
	case ToneUp:
		return "up"
	case ToneDown:
		return "down"
	default:
		return "neutral"
	}
}

type Palette struct {
	up      *color.Color
	down    *color.Color
	neutral *color.Color
	title   *color.Color
}

// NewPalette returns a palette that always (enabled) or never emits ANSI
// sequences, regardless of the global color.NoColor detection.
func NewPalette(enabled bool) *Palette {
	p := &Palette{
		up:      color.New(color.FgGreen),
		down:    color.New(color.FgRed),
		neutral: color.New(color.Faint),
		title:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.up, p.down, p.neutral, p.title} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Palette) Paint(tone Tone, s string) string {
	switch tone {
	case ToneUp:
		return p.up.Sprint(s)
	case ToneDown:
		return p.down.Sprint(s)
	default:
		return p.neutral.Sprint(s)
	}
}

func (p *Palette) Title(s string) string {
	return p.title.Sprint(s)
}
