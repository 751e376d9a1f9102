package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"homeval/models"
)

var (
	streetReplacements = map[string]string{
		"улица":      "ул",
		"проспект":   "пр-кт",
		"переулок":   "пер",
		"шоссе":      "ш",
		"бульвар":    "б-р",
		"площадь":    "пл",
		"набережная": "наб",
		"проезд":     "пр-д",
		"тупик":      "туп",
		"аллея":      "ал",
		"микрорайон": "мкр",
		"корпус":     "к",
		"строение":   "стр",
		"дом":        "д",
		"город":      "г",
		"квартира":   "кв",
	}

	multiSpaceRegex = regexp.MustCompile(`\s+`)
	nonAlnumRegex   = regexp.MustCompile(`[^\p{L}\p{N}\s-]`)
)

// Fingerprint is a stable key for a valuation request, used to name runs and
// failure artifacts. It never leaves the process as an identity.
func Fingerprint(in models.ValuationInput) string {
	input := fmt.Sprintf("%s|%s|%d|%.1f",
		NormalizeAddress(in.Address),
		strings.TrimSpace(in.RoomNumber),
		in.RoomsCount,
		in.Area,
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:8])
}

// PassiveFingerprint keys a calculator fetch the same way.
func PassiveFingerprint(in models.PassiveInput) string {
	input := fmt.Sprintf("%s|%s|%s|%s",
		NormalizeAddress(in.Address),
		strings.TrimSpace(in.TotalArea),
		strings.TrimSpace(in.RoomsCount),
		strings.ToLower(in.ValuationType),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:8])
}

func NormalizeAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	addr = strings.ReplaceAll(addr, "ё", "е")
	addr = nonAlnumRegex.ReplaceAllString(addr, " ")

	words := strings.Fields(addr)
	for i, w := range words {
		if abbrev, ok := streetReplacements[w]; ok {
			words[i] = abbrev
		}
	}
	addr = strings.Join(words, " ")
	addr = multiSpaceRegex.ReplaceAllString(addr, " ")
	return strings.TrimSpace(addr)
}
