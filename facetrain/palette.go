package facetrain

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// blue, azure, cyan, green, orange, yellow, red, magenta
var paletteHex = [...]string{
	"#0000ff",
	"#0080ff",
	"#00ffff",
	"#00ff00",
	"#ff8000",
	"#ffff00",
	"#ff0000",
	"#ff00ff",
}

// Palette holds the outline colors, cycled by detection index.
var Palette = func() [len(paletteHex)]color.RGBA {
	var p [len(paletteHex)]color.RGBA
	for i, hex := range paletteHex {
		c, err := colorful.Hex(hex)
		if err != nil {
			panic(err)
		}
		r, g, b := c.RGB255()
		p[i] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	return p
}()

// ColorAt returns the color of the i-th detection.
func ColorAt(i int) color.RGBA {
	return Palette[i%len(Palette)]
}
