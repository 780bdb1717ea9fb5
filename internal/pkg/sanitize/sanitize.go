/*
Package sanitize normalizes display strings that arrive from untrusted peers.

Nicknames are reduced to plain text with a strict bluemonday policy, trimmed, and capped
in length. Message text is left untouched; rendering is the presentation layer's job.
*/
package sanitize

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// MaxNicknameLength is the maximum number of runes kept from a nickname.
	MaxNicknameLength = 32

	// maxNicknameRounds bounds how many layers of escaping are peeled off a nickname.
	// Input that is still changing after that many rounds is rejected.
	maxNicknameRounds = 4
)

var nicknamePolicy = bluemonday.StrictPolicy()

// Nickname strips all markup from a nickname and trims it to MaxNicknameLength runes.
// It returns an empty string when nothing printable is left; callers treat that as invalid.
//
// The result is a fixed point: Nickname(Nickname(s)) == Nickname(s), so a nickname accepted
// locally is accepted unchanged by every peer that sanitizes it again.
func Nickname(nickname string) string {
	current := nickname

	for range maxNicknameRounds {
		next := nicknameRound(current)
		if next == current {
			// Brackets that survive are stray text such as "a < b"; never hand them on.
			if strings.ContainsAny(next, "<>") {
				return ""
			}
			return next
		}
		current = next
	}

	return ""
}

// nicknameRound peels one layer of escaping, drops markup and normalizes whitespace.
func nicknameRound(s string) string {
	if s == "" {
		return ""
	}

	// The strict policy escapes what it keeps; unescape again to get plain text back.
	plain := html.UnescapeString(nicknamePolicy.Sanitize(html.UnescapeString(s)))

	plain = strings.Join(strings.Fields(plain), " ")

	if utf8.RuneCountInString(plain) > MaxNicknameLength {
		plain = strings.TrimSpace(string([]rune(plain)[:MaxNicknameLength]))
	}

	return plain
}
