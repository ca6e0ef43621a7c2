package shared

import "strings"

// PinHints centers body in height lines and keeps hints on the last lines.
// When both do not fit, body comes first and hints follow directly.
func PinHints(body, hints string, height int) string {
	body = strings.TrimRight(body, "\n")
	hints = strings.TrimRight(hints, "\n")

	var bodyLines []string
	if body != "" {
		bodyLines = strings.Split(body, "\n")
	}
	hintLines := strings.Split(hints, "\n")

	gap := height - len(bodyLines) - len(hintLines)
	if gap <= 0 {
		return strings.Join(append(bodyLines, hintLines...), "\n")
	}

	top := gap / 2
	lines := make([]string, 0, height)
	lines = append(lines, make([]string, top)...)
	lines = append(lines, bodyLines...)
	lines = append(lines, make([]string, gap-top)...)
	lines = append(lines, hintLines...)
	return strings.Join(lines, "\n")
}
