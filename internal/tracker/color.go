package tracker

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// LegacyDefaultColor is the colour every client used to get before colours
// were derived from names.
const LegacyDefaultColor = "#0ea5e9"

var clientPalette = []string{
	"#ef4444", "#f97316", "#f59e0b", "#84cc16",
	"#22c55e", "#14b8a6", "#06b6d4", "#3b82f6",
	"#6366f1", "#8b5cf6", "#d946ef", "#ec4899",
}

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ClientColor derives a stable palette colour from a client name.
func ClientColor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	return clientPalette[h.Sum32()%uint32(len(clientPalette))]
}

// ResolveColor returns color when it is a valid #rrggbb value, and the
// name-derived colour when it is empty.
func ResolveColor(name, color string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return ClientColor(name), nil
	}
	if !hexColorRe.MatchString(color) {
		return "", fmt.Errorf("invalid color %q, want #rrggbb", color)
	}
	return strings.ToLower(color), nil
}
