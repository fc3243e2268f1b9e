package challenge

import "strings"

// Matches reports whether the current file content solves the challenge.
//
// Equality tolerates the differences editors introduce on save: trailing
// whitespace on each line and any run of trailing blank lines are ignored.
// Leading whitespace, interior blank lines, and line order are significant,
// so a single wrong character still fails.
func Matches(current, target string) bool {
	return normalize(current) == normalize(target)
}

func normalize(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
