package assembler

import (
	"fmt"
	"strings"
	"time"

	"github.com/attestly/poa-backend/pkg/enums"
)

const filenameTimestampLayout = "20060102T150405Z"

// sanitizeName reduces a principal name to lowercase ASCII letters, digits
// and hyphens so the filename is safe for object storage and downloads.
func sanitizeName(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "principal"
	}
	return out
}

// Filename derives the instrument's deterministic filename. The same logical
// inputs always produce the same name; the disambiguator keeps distinct
// drafts with identical principals from colliding.
func Filename(family enums.POAFamily, state enums.USState, principalName string, generatedAt time.Time, disambiguator string) string {
	parts := []string{
		"poa",
		string(family),
		strings.ToLower(string(state)),
		sanitizeName(principalName),
		generatedAt.UTC().Format(filenameTimestampLayout),
	}
	if disambiguator != "" {
		parts = append(parts, disambiguator)
	}
	return strings.Join(parts, "_") + ".pdf"
}

// ObjectPath returns the storage path for a generated instrument.
func ObjectPath(tenantID, poaID, filename string) string {
	return fmt.Sprintf("poa/%s/%s/%s", tenantID, poaID, filename)
}
