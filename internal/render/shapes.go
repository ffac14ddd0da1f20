package render

import "fmt"

// Built-in piece outlines on a 45x45 view box. Each template takes the body
// colour then the outline colour.
var pieceShapes = map[rune]string{
	'P': `<circle cx="22.5" cy="13" r="5" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		`<path d="M 16 34 L 19 20 L 26 20 L 29 34 Z" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		baseShape,
	'R': `<path d="M 14 14 L 14 9 L 18 9 L 18 11 L 21 11 L 21 9 L 24 9 L 24 11 L 27 11 L 27 9 L 31 9 L 31 14 L 28 17 L 28 34 L 17 34 L 17 17 Z" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		baseShape,
	'N': `<path d="M 14 34 L 16 26 C 12 24 11 18 15 14 L 20 9 L 22 5 L 24 9 C 31 10 34 17 33 24 L 31 34 Z" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		`<circle cx="19.5" cy="15" r="1.5" style="fill:%[2]s;stroke:%[2]s;stroke-width:0.5"/>` +
		baseShape,
	'B': `<circle cx="22.5" cy="7" r="2.5" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		`<path d="M 22.5 9.5 C 16 15 15 23 18 29 L 27 29 C 30 23 29 15 22.5 9.5 Z" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		`<path d="M 17 34 L 18 29 L 27 29 L 28 34 Z" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		baseShape,
	'Q': `<path d="M 12 34 L 9 14 L 15 22 L 18 11 L 22.5 21 L 27 11 L 30 22 L 36 14 L 33 34 Z" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		`<circle cx="9" cy="13" r="2" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		`<circle cx="18" cy="10" r="2" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		`<circle cx="27" cy="10" r="2" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		`<circle cx="36" cy="13" r="2" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		baseShape,
	'K': `<path d="M 21 4 L 24 4 L 24 7 L 27 7 L 27 10 L 24 10 L 24 15 L 21 15 L 21 10 L 18 10 L 18 7 L 21 7 Z" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		`<path d="M 13 34 C 7 24 13 15 22.5 19 C 32 15 38 24 32 34 Z" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>` +
		baseShape,
}

const baseShape = `<path d="M 11 34 L 34 34 L 34 39 L 11 39 Z" style="fill:%[1]s;stroke:%[2]s;stroke-width:1.5"/>`

const (
	lightBody = "#FFFFFF"
	darkBody  = "#1B1B1B"
	outline   = "#000000"
	lightLine = "#F5F5F5"
)

// builtinSVG returns the default sprite for symbol, or false for unknown
// symbols.
func builtinSVG(symbol rune) ([]byte, bool) {
	upper := symbol
	body, line := lightBody, outline
	if symbol >= 'a' && symbol <= 'z' {
		upper = symbol - 'a' + 'A'
		body, line = darkBody, lightLine
	}
	shape, ok := pieceShapes[upper]
	if !ok {
		return nil, false
	}
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">` +
		fmt.Sprintf(shape, body, line) +
		`</svg>`
	return []byte(svg), true
}
