package repositories

import "strings"

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// escapeLike makes LIKE wildcards in user input match literally. Queries using it
// must declare ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
