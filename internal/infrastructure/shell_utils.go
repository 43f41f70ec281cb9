package infrastructure

import "strings"

// shellMetaChars are the bytes that make a word unsafe to paste into a shell unquoted
const shellMetaChars = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// ShellEscape quotes s so the logged command line can be pasted into a shell.
// Used for display only; commands are executed without a shell.
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellMetaChars) {
		return s
	}
	// close the quote, emit a double-quoted ', reopen
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellEscapeCommand renders a binary and its arguments as one loggable line
func ShellEscapeCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellEscape(binary))
	for _, arg := range args {
		parts = append(parts, ShellEscape(arg))
	}
	return strings.Join(parts, " ")
}
