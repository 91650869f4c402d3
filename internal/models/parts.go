package models

const (
	gsmSingleLimit = 160
	gsmPartLimit   = 153
	ucsSingleLimit = 70
	ucsPartLimit   = 67
)

const gsmBasic = "@£$¥èéùìòÇ\nØø\rÅåΔ_ΦΓΛΩΠΨΣΘΞÆæßÉ !\"#¤%&'()*+,-./0123456789:;<=>?" +
	"¡ABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÑÜ§¿abcdefghijklmnopqrstuvwxyzäöñüà"

// Extension characters take an escape plus the character itself.
const gsmExtension = "^{}\\[~]|€\f"

var (
	gsmBasicSet     = runeSet(gsmBasic)
	gsmExtensionSet = runeSet(gsmExtension)
)

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

// CountParts returns how many SMS segments the text occupies.
// GSM-7 text uses 160 septets for one part and 153 per concatenated part;
// anything outside the GSM-7 alphabet is sent as UCS-2 with 70 and 67.
func CountParts(text string) int {
	if text == "" {
		return 1
	}

	septets, gsm := gsmLength(text)
	if gsm {
		return segments(septets, gsmSingleLimit, gsmPartLimit)
	}

	return segments(ucs2Length(text), ucsSingleLimit, ucsPartLimit)
}

func gsmLength(text string) (int, bool) {
	n := 0
	for _, r := range text {
		if _, ok := gsmBasicSet[r]; ok {
			n++
			continue
		}
		if _, ok := gsmExtensionSet[r]; ok {
			n += 2
			continue
		}
		return 0, false
	}
	return n, true
}

// ucs2Length counts UTF-16 code units, so astral characters take two.
func ucs2Length(text string) int {
	n := 0
	for _, r := range text {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func segments(length, single, part int) int {
	if length <= single {
		return 1
	}
	return (length + part - 1) / part
}
