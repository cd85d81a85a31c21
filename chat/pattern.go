package chat

import (
	"regexp"
	"strings"
)

// compiledPattern wraps a regexp compiled once at registration time.
type compiledPattern struct {
	re *regexp.Regexp
}

func compilePattern(expr string) (*compiledPattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, newValidation("message_pattern", expr, FieldError{
			Path: "pattern", Message: err.Error(),
		})
	}
	return &compiledPattern{re: re}, nil
}

func (p *compiledPattern) MatchString(s string) bool {
	if p == nil || p.re == nil {
		return false
	}
	return p.re.MatchString(s)
}

// mentionPattern builds the case-insensitive "(^|\s)@name\b" detector for
// a bot's user_name. regexp.QuoteMeta escapes any metacharacters in the
// name before compilation — spec.md §9 calls the unescaped version (where
// e.g. a "." in the name matches arbitrary characters) a latent bug to be
// fixed in the port, not carried forward.
func mentionPattern(userName string) (*compiledPattern, error) {
	escaped := regexp.QuoteMeta(strings.TrimSpace(userName))
	return compilePattern(`(?i)(^|\s)@` + escaped + `\b`)
}
