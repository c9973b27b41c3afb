package placeholder

import (
	"regexp"
	"strings"
)

// Pattern matches ${NAME} and ${NAME:-default} tokens. The match is
// ungreedy so several tokens in one string are found separately.
var Pattern = regexp.MustCompile(`\$\{([\w\pL\pN\pP\pS :_-]*?)\}`)

// SecretPrefix marks a value whose placeholders are secrets.
const SecretPrefix = "[SECRET]"

// Token is one placeholder occurrence.
type Token struct {
	// Name is the trimmed variable name.
	Name string

	// Default is the trimmed text after ":-", empty when there is none.
	Default string

	// HasDefault reports whether the token carried a ":-" part.
	HasDefault bool

	// Secret is set when the enclosing value had the secret prefix.
	Secret bool

	// Path is the dotted path of the leaf the token was found in.
	Path string

	// Raw is the full matched text, e.g. "${NAME:-x}".
	Raw string
}

// Find returns the tokens in s in order of appearance.
func Find(s string) []Token {
	matches := Pattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, parseToken(m[0], m[1]))
	}
	return tokens
}

func parseToken(raw, inner string) Token {
	name, def, found := strings.Cut(inner, ":-")
	return Token{
		Name:       strings.TrimSpace(name),
		Default:    strings.TrimSpace(def),
		HasDefault: found,
		Raw:        raw,
	}
}

// StripSecret removes the secret prefix. Values that are not longer than
// the prefix are returned unchanged.
func StripSecret(s string) (string, bool) {
	if len(s) > len(SecretPrefix) && strings.HasPrefix(s, SecretPrefix) {
		return s[len(SecretPrefix):], true
	}
	return s, false
}

// IsEnvValuePath reports whether a dotted leaf path addresses a whole env
// var value, e.g. spec.containers.0.env.3.valueFrom.
func IsEnvValuePath(path string) bool {
	return strings.Contains(path, ".env.") && len(path) > len(".valueFrom") && strings.HasSuffix(path, ".valueFrom")
}
