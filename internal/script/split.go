package script

import "strings"

// compatReplacements rewrite MySQL-isms found in exported seed scripts.
var compatReplacements = strings.NewReplacer(
	"SET FOREIGN_KEY_CHECKS=0;", "",
	"SET FOREIGN_KEY_CHECKS=1;", "",
	" VALUE ", " VALUES ",
)

// Clean applies the fixed compatibility substitutions to a script.
func Clean(text string) string {
	return compatReplacements.Replace(text)
}

// Split breaks a script into statements on the terminator character.
// Line comments are removed first, so a terminator inside a comment does
// not end a statement, and terminators inside quoted literals are kept.
// Blank lines are dropped and fragments left empty are discarded.
func Split(text string) []string {
	var (
		statements []string
		current    strings.Builder
		quoted     bool
	)
	flush := func() {
		var lines []string
		for _, line := range strings.Split(current.String(), "\n") {
			if strings.TrimSpace(line) != "" {
				lines = append(lines, strings.TrimRight(line, " \t\r"))
			}
		}
		if stmt := strings.TrimSpace(strings.Join(lines, "\n")); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\'':
			quoted = !quoted
		case !quoted && c == '-' && i+1 < len(text) && text[i+1] == '-':
			// Skip to the end of the line, keeping the newline.
			for i+1 < len(text) && text[i+1] != '\n' {
				i++
			}
			continue
		case !quoted && c == ';':
			flush()
			continue
		}
		current.WriteByte(c)
	}
	flush()
	return statements
}
