package pipeline

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	nonHandleChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	bracedSpan     = regexp.MustCompile(`\{([\s\S]*?)\}`)
)

// cleanHandle reduces a raw completion to a handle candidate: last word
// of the first line, NFC-normalized, with everything outside
// [A-Za-z0-9_] stripped. Models tend to prepend filler ("Here is: X"),
// so the last word is the likeliest payload.
func cleanHandle(raw string) string {
	line := firstLine(raw)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	word := norm.NFC.String(fields[len(fields)-1])
	return nonHandleChars.ReplaceAllString(word, "")
}

// cleanBio reduces a raw completion to a single plain line: first line,
// quotes dropped, NFC-normalized, whitespace trimmed.
func cleanBio(raw string) string {
	line := firstLine(raw)
	line = strings.ReplaceAll(line, `"`, "")
	return strings.TrimSpace(norm.NFC.String(line))
}

// extractPayload pulls the content out of a completion. The prompt
// contract asks the model to wrap the payload in curly braces; the first
// such span wins. A response with no braced span is used raw, so an
// uncooperative model still yields content.
func extractPayload(raw string) string {
	if m := bracedSpan.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// firstLine returns raw up to the first line break, trimmed.
func firstLine(raw string) string {
	line, _, _ := strings.Cut(raw, "\n")
	return strings.TrimSpace(line)
}

// truncate bounds s to at most n runes, cutting on rune boundaries so a
// multi-byte character is never split.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
