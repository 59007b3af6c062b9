package domain

import (
	"strconv"
	"strings"
	"time"
)

// FormatDurationISO8601 formata uma duração no estilo ISO-8601 (PT1H,
// PT30M, PT1H30M, PT2.5S). Esse formato entra na composição das chaves
// de quota e precisa ser idêntico entre instâncias.
func FormatDurationISO8601(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}

	var b strings.Builder
	if d < 0 {
		b.WriteString("-")
		d = -d
	}
	b.WriteString("PT")

	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d.Seconds()

	if hours > 0 {
		b.WriteString(strconv.FormatInt(int64(hours), 10))
		b.WriteString("H")
	}
	if minutes > 0 {
		b.WriteString(strconv.FormatInt(int64(minutes), 10))
		b.WriteString("M")
	}
	if seconds > 0 {
		// sem notação científica para valores comuns
		b.WriteString(strconv.FormatFloat(seconds, 'f', -1, 64))
		b.WriteString("S")
	}

	return b.String()
}
