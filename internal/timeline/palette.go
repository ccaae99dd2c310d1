package timeline

import "strconv"

// palette mirrors the pastel set used by the frontend Gantt bars.
var palette = []string{
	"#81C784",
	"#90CAF9",
	"#FFB74D",
	"#CE93D8",
	"#E57373",
	"#F06292",
	"#4DD0E1",
	"#FFF176",
	"#AED581",
	"#B39DDB",
	"#9FA8DA",
	"#BCAAA4",
	"#B0BEC5",
	"#80CBC4",
}

// Color assigns a deterministic bar color by entity index: palette[i mod n].
// Determinism keeps visual regression tests stable for a fixed ordering.
func Color(i int) string {
	n := len(palette)
	return palette[((i%n)+n)%n]
}

// ContrastColor picks black or white text for a "#RRGGBB" background using
// the perceived-luminance weights 0.299/0.587/0.114.
func ContrastColor(background string) string {
	if len(background) != 7 || background[0] != '#' {
		return "#000000"
	}
	r, errR := strconv.ParseInt(background[1:3], 16, 32)
	g, errG := strconv.ParseInt(background[3:5], 16, 32)
	b, errB := strconv.ParseInt(background[5:7], 16, 32)
	if errR != nil || errG != nil || errB != nil {
		return "#000000"
	}
	luminance := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
	if luminance > 0.5 {
		return "#000000"
	}
	return "#ffffff"
}
