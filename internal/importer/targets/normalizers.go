package targets

import "strings"

// NormalizeIMEI strips the separators spreadsheets tend to introduce in
// IMEI columns (spaces, dashes) so the same device always keys the same.
func NormalizeIMEI(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}
