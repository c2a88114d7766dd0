package metric

import (
	"sort"
	"strconv"
	"strings"
)

// Encode serializes a point to one Prometheus exposition line:
//
//	metric_name{label1="value1",label2="value2"} value timestamp_ms
//
// A point with no labels omits the braces entirely. Labels are written in
// sorted key order so output is deterministic within a call.
//
// Names and label values are embedded verbatim: a value containing a
// double quote, brace or newline corrupts the line. Escaping would change
// the series visible downstream, so it needs agreement with consumers of
// the written data before the output format moves.
func Encode(p Point) string {
	var b strings.Builder

	b.WriteString(p.Name)

	if len(p.Labels) > 0 {
		keys := make([]string, 0, len(p.Labels))
		for k := range p.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteString(`="`)
			b.WriteString(p.Labels[k])
			b.WriteByte('"')
		}
		b.WriteByte('}')
	}

	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(p.Value, 'g', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(p.TimestampMs, 10))

	return b.String()
}

// EncodeAll serializes points to a newline-joined payload, one line per
// point, in input order. This is the body of a single import request.
func EncodeAll(points []Point) string {
	lines := make([]string, len(points))
	for i, p := range points {
		lines[i] = Encode(p)
	}
	return strings.Join(lines, "\n")
}
