package board

// Background identifies a backdrop preset by key. Unknown keys render as
// the default preset so documents from newer versions still open.
type Background string

const (
	BackgroundWhite    Background = "white"
	BackgroundBlack    Background = "black"
	BackgroundGrid     Background = "grid"
	BackgroundDarkGrid Background = "dark-grid"

	DefaultBackground = BackgroundWhite
)

// Backdrop is the resolved visual style of a background preset.
type Backdrop struct {
	Fill        string
	Grid        bool
	GridColor   string
	GridSpacing float64
}

var backdrops = map[Background]Backdrop{
	BackgroundWhite:    {Fill: "#ffffff"},
	BackgroundBlack:    {Fill: "#121212"},
	BackgroundGrid:     {Fill: "#ffffff", Grid: true, GridColor: "#d9dce1", GridSpacing: 40},
	BackgroundDarkGrid: {Fill: "#121212", Grid: true, GridColor: "#2e3238", GridSpacing: 40},
}

// Backdrop resolves the preset for b, falling back to the default for
// unknown keys.
func (b Background) Backdrop() Backdrop {
	if bd, ok := backdrops[b]; ok {
		return bd
	}
	return backdrops[DefaultBackground]
}
