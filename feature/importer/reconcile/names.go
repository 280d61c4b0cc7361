package reconcile

import "strings"

// productNameCutset ends the model part of an imported product name.
const productNameCutset = `,(/\-|`

// SanitizeProductName derives a product name from an import line. A leading
// manufacturer name is removed and the rest is cut at the first of
// , ( / \ - |. Falls back to the raw name, then to fallback.
func SanitizeProductName(raw, manufacturerName, fallback string) string {
	name := strings.TrimSpace(raw)
	if m := strings.TrimSpace(manufacturerName); m != "" && len(name) >= len(m) && strings.EqualFold(name[:len(m)], m) {
		name = strings.TrimSpace(name[len(m):])
	}
	if i := strings.IndexAny(name, productNameCutset); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)

	if name == "" {
		name = strings.TrimSpace(raw)
	}
	if name == "" {
		name = fallback
	}
	return name
}
