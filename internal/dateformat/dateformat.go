package dateformat

import (
	"strconv"
	"strings"
	"time"
)

// Format renders ts (epoch seconds, interpreted in local time) using a
// pattern built from the tokens y M d h m s. A run of the same token letter
// is a single substitution: y prints the year right-truncated to the run
// length, the others print the field value, zero-padded to width 2 whenever
// the run is longer than one letter. Every other character, including
// unrecognized letters, passes through unchanged.
func Format(ts int64, pattern string) string {
	t := time.Unix(ts, 0)
	var b strings.Builder
	rs := []rune(pattern)
	for i := 0; i < len(rs); {
		r := rs[i]
		n := 1
		for i+n < len(rs) && rs[i+n] == r {
			n++
		}
		switch r {
		case 'y':
			y := strconv.Itoa(t.Year())
			if len(y) > n {
				y = y[len(y)-n:]
			}
			b.WriteString(y)
		case 'M':
			writeField(&b, int(t.Month()), n)
		case 'd':
			writeField(&b, t.Day(), n)
		case 'h':
			writeField(&b, t.Hour(), n)
		case 'm':
			writeField(&b, t.Minute(), n)
		case 's':
			writeField(&b, t.Second(), n)
		default:
			for j := 0; j < n; j++ {
				b.WriteRune(r)
			}
		}
		i += n
	}
	return b.String()
}

// writeField emits exactly two digits for multi-letter runs, keeping only
// the last two after a zero prefix.
func writeField(b *strings.Builder, v, runLen int) {
	s := strconv.Itoa(v)
	if runLen > 1 {
		s = "0" + s
		s = s[len(s)-2:]
	}
	b.WriteString(s)
}
