package display

// Segment bits in g-f-e-d-c-b-a order.
//
//	 a
//	f b
//	 g
//	e c
//	 d
const (
	segA byte = 1 << 0
	segB byte = 1 << 1
	segC byte = 1 << 2
	segD byte = 1 << 3
	segE byte = 1 << 4
	segF byte = 1 << 5
	segG byte = 1 << 6
)

// font maps a rune to its 7-segment pattern. Letters without a usable
// uppercase form are drawn lowercase, so 'B' and 'b' render alike.
var font = map[rune]byte{
	'0': segA | segB | segC | segD | segE | segF,
	'1': segB | segC,
	'2': segA | segB | segG | segE | segD,
	'3': segA | segB | segG | segC | segD,
	'4': segF | segG | segB | segC,
	'5': segA | segF | segG | segC | segD,
	'6': segA | segF | segE | segD | segC | segG,
	'7': segA | segB | segC,
	'8': segA | segB | segC | segD | segE | segF | segG,
	'9': segA | segB | segC | segD | segF | segG,
	'A': segA | segB | segC | segE | segF | segG,
	'b': segF | segE | segD | segC | segG,
	'C': segA | segF | segE | segD,
	'c': segG | segE | segD,
	'd': segB | segC | segD | segE | segG,
	'E': segA | segF | segG | segE | segD,
	'F': segA | segF | segG | segE,
	'G': segA | segF | segE | segD | segC,
	'H': segF | segE | segG | segB | segC,
	'h': segF | segE | segG | segC,
	'I': segB | segC,
	'J': segB | segC | segD | segE,
	'L': segF | segE | segD,
	'n': segE | segG | segC,
	'O': segA | segB | segC | segD | segE | segF,
	'o': segG | segC | segD | segE,
	'P': segA | segB | segG | segF | segE,
	'r': segE | segG,
	'S': segA | segF | segG | segC | segD,
	't': segF | segE | segD | segG,
	'U': segB | segC | segD | segE | segF,
	'u': segC | segD | segE,
	'V': segB | segC | segD | segE | segF,
	'Y': segF | segG | segB | segC | segD,
	' ': 0,
	'-': segG,
	'_': segD,
}

// glyph returns the pattern for r, falling back to the other letter case
// and then to a blank.
func glyph(r rune) byte {
	if g, ok := font[r]; ok {
		return g
	}
	switch {
	case r >= 'a' && r <= 'z':
		return font[r-'a'+'A']
	case r >= 'A' && r <= 'Z':
		return font[r-'A'+'a']
	}
	return 0
}
