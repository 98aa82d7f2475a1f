package publish

import (
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"sticker2emoji/internal/domain"
)

const maxSetNameLen = 64

// ParsePackName accepts a bare set name or any of the t.me links that point
// to one (addstickers/<name>, addemoji/<name>, addemoji?set=<name>).
func ParsePackName(inp string) (string, error) {
	const errMsg = "ParsePackName"

	name := strings.TrimSpace(inp)

	if strings.Contains(name, "/") || strings.Contains(name, "?") {
		if !strings.Contains(name, "://") {
			name = "https://" + name
		}

		u, err := url.Parse(name)
		if err != nil {
			return "", errors.Wrap(domain.Mark(err, domain.ErrInvalidPackName), errMsg)
		}

		name = u.Query().Get("set")
		if name == "" {
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			name = parts[len(parts)-1]
		}
	}

	if !validSetName(name) {
		err := errors.Errorf("%q is not a sticker set name", inp)

		return "", errors.Wrap(domain.Mark(err, domain.ErrInvalidPackName), errMsg)
	}

	return name, nil
}

func validSetName(name string) bool {
	if name == "" || len(name) > maxSetNameLen {
		return false
	}

	for _, r := range name {
		if !isNameRune(r) {
			return false
		}
	}

	return true
}

func isNameRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// PackNameFromTitle turns a display title into a set name stem: diacritics
// are stripped, everything outside [A-Za-z0-9] becomes a single underscore
// and the result starts with a letter.
func PackNameFromTitle(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	ascii, _, err := transform.String(t, title)
	if err != nil {
		ascii = title
	}

	var sb strings.Builder

	lastUnderscore := true
	for _, r := range ascii {
		if isNameRune(r) && r != '_' {
			sb.WriteRune(r)
			lastUnderscore = false

			continue
		}

		if !lastUnderscore {
			sb.WriteByte('_')
			lastUnderscore = true
		}
	}

	name := strings.TrimRight(sb.String(), "_")
	if name == "" || !unicode.IsLetter(rune(name[0])) {
		name = "e_" + name
	}

	return strings.TrimRight(name, "_")
}

// SetName appends the mandatory _by_<bot> suffix and trims the stem so the
// full name fits the Bot API limit.
func SetName(stem, botUsername string) string {
	suffix := "_by_" + botUsername
	if strings.HasSuffix(strings.ToLower(stem), strings.ToLower(suffix)) {
		return stem
	}

	if room := maxSetNameLen - len(suffix); len(stem) > room {
		stem = strings.TrimRight(stem[:max(room, 1)], "_")
	}

	return stem + suffix
}

// ValidateStem checks a user supplied set name stem before any work is done.
func ValidateStem(stem string) error {
	if validSetName(stem) && unicode.IsLetter(rune(stem[0])) && !strings.Contains(stem, "__") {
		return nil
	}

	err := errors.Errorf("%q is not a valid emoji pack name", stem)

	return errors.Wrap(domain.Mark(err, domain.ErrInvalidPackName), "ValidateStem")
}

// OwnedStem tags stem with the owner's user id and an optional nonce, so the
// same source pack can be converted by many users and more than once. The
// stem is shortened up front so SetName never trims the tag away.
func OwnedStem(stem string, userID int64, nonce, botUsername string) string {
	tag := "_u" + strconv.FormatInt(userID, 10)
	if nonce != "" {
		tag += "_" + nonce
	}

	if room := maxSetNameLen - len("_by_"+botUsername) - len(tag); len(stem) > room {
		stem = strings.TrimRight(stem[:max(room, 1)], "_")
	}

	return stem + tag
}
