package client

import "strings"

// handleTabCompletion completes a command name, or the option key being
// typed after a command that takes key=value options.
func (a *App) handleTabCompletion() {
	value := a.input.Value()
	if value == "" || a.input.Position() != len([]rune(value)) {
		return
	}
	prefix := string(a.cfg.CommandPrefix)
	if !strings.HasPrefix(value, prefix) {
		return
	}

	var candidates []string
	head, word := "", value
	if idx := strings.LastIndexAny(value, " \t"); idx >= 0 {
		head, word = value[:idx+1], value[idx+1:]
		trigger := "/" + strings.TrimPrefix(strings.Fields(value)[0], prefix)
		cmd, ok := a.commandSpec(strings.ToLower(trigger))
		if !ok || strings.Contains(word, "=") {
			return
		}
		candidates = cmd.options
	} else {
		for _, cmd := range a.commands {
			candidates = append(candidates, prefix+strings.TrimPrefix(cmd.trigger, "/"))
		}
	}

	completed, ok := completeWord(word, candidates)
	if !ok {
		return
	}
	a.input.SetValue(head + completed)
	a.input.CursorEnd()
}

// completeWord extends word to the longest prefix shared by the candidates
// that start with it.
func completeWord(word string, candidates []string) (string, bool) {
	matches := make([]string, 0)
	for _, c := range candidates {
		if strings.HasPrefix(c, strings.ToLower(word)) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return "", false
	}
	prefix := longestCommonPrefix(matches)
	if len(prefix) <= len(word) {
		return "", false
	}
	return prefix, true
}

func longestCommonPrefix(values []string) string {
	if len(values) == 0 {
		return ""
	}
	prefix := values[0]
	for _, s := range values[1:] {
		for !strings.HasPrefix(s, prefix) {
			if prefix == "" {
				return ""
			}
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
