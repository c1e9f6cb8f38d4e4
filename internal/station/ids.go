package station

import (
	"regexp"
	"strings"
)

var entityIDPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// GenerateEntityID turns a human-readable string into a stable entity id:
// runs of non-alphanumeric characters collapse to a single underscore and
// the result is lowercased. "EnBW Station #42" becomes "enbw_station_42".
func GenerateEntityID(line string) string {
	return strings.ToLower(entityIDPattern.ReplaceAllString(line, "_"))
}
