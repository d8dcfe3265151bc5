package client

import (
	"errors"
	"strings"
	"unicode"
)

var errUnterminatedQuote = errors.New("unterminated quote")

// splitArgs splits a command line on whitespace. Double or single quotes group
// words, and a backslash escapes the next rune inside double quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inArg   bool
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case quote != 0:
			switch {
			case r == '\\' && quote == '"':
				escaped = true
			case r == quote:
				quote = 0
			default:
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case unicode.IsSpace(r):
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

// splitOptions separates key=value options from positional arguments. Keys
// are lower-cased.
func splitOptions(args []string) ([]string, map[string]string) {
	positional := make([]string, 0, len(args))
	options := make(map[string]string)
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if ok && key != "" && !strings.ContainsAny(key, "/:") {
			options[strings.ToLower(key)] = value
			continue
		}
		positional = append(positional, arg)
	}
	return positional, options
}

func firstOption(options map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := options[k]; ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
