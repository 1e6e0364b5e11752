package smoke

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalizeTitle приводит заголовок к NFC и складывает регистр,
// чтобы "Café" и "CAFÉ" считались одним заголовком.
func normalizeTitle(title string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(title)))
}

// missingTitles возвращает заголовки из want, которых нет в got.
func missingTitles(want, got []string) []string {
	present := make(map[string]struct{}, len(got))
	for _, t := range got {
		present[normalizeTitle(t)] = struct{}{}
	}
	var missing []string
	for _, t := range want {
		if _, ok := present[normalizeTitle(t)]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}
