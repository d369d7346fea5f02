package metrics

import (
	"bufio"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ContentType is the value served on scrape responses.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

func sortFamilies(fams []*family) {
	sort.Slice(fams, func(i, j int) bool { return fams[i].def.Name < fams[j].def.Name })
}

// WriteTo renders every registered family and its series in the Prometheus
// text exposition format: a HELP line, a TYPE line, then one data line per
// series. Families are sorted by name and series by label values, so output
// is deterministic for a fixed registry state.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	for _, f := range r.snapshot() {
		if err := writeFamily(bw, f); err != nil {
			return cw.n, err
		}
	}
	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

func writeFamily(w *bufio.Writer, f *family) error {
	name := f.def.Name

	w.WriteString("# HELP ")
	w.WriteString(name)
	w.WriteByte(' ')
	w.WriteString(escapeHelp(f.def.Help))
	w.WriteByte('\n')
	w.WriteString("# TYPE ")
	w.WriteString(name)
	w.WriteByte(' ')
	w.WriteString(f.def.Type.String())
	w.WriteByte('\n')

	for _, s := range f.snapshot() {
		switch f.def.Type {
		case TypeCounter, TypeGauge:
			writeSample(w, name, "", f.def.LabelNames, s.labelValues, "", "", formatValue(s.value()))

		case TypeHistogram:
			bucketCounts, count, sum := s.histogramState()
			for i, c := range bucketCounts {
				bound := "+Inf"
				if i < len(f.def.Buckets) {
					bound = formatValue(f.def.Buckets[i])
				}
				writeSample(w, name, "_bucket", f.def.LabelNames, s.labelValues, bucketLabel, bound, strconv.FormatUint(c, 10))
			}
			writeSample(w, name, "_sum", f.def.LabelNames, s.labelValues, "", "", formatValue(sum))
			writeSample(w, name, "_count", f.def.LabelNames, s.labelValues, "", "", strconv.FormatUint(count, 10))

		case TypeSummary:
			count, sum := s.summaryState()
			writeSample(w, name, "_sum", f.def.LabelNames, s.labelValues, "", "", formatValue(sum))
			writeSample(w, name, "_count", f.def.LabelNames, s.labelValues, "", "", strconv.FormatUint(count, 10))
		}
	}
	return nil
}

// writeSample emits one data line. extraName/extraValue append a trailing
// label pair (the histogram "le" bound); the braces are omitted entirely when
// the line carries no labels at all.
func writeSample(w *bufio.Writer, name, suffix string, labelNames, labelValues []string, extraName, extraValue, value string) {
	w.WriteString(name)
	w.WriteString(suffix)

	if len(labelNames) > 0 || extraName != "" {
		w.WriteByte('{')
		for i, ln := range labelNames {
			if i > 0 {
				w.WriteByte(',')
			}
			w.WriteString(ln)
			w.WriteString(`="`)
			w.WriteString(escapeLabelValue(labelValues[i]))
			w.WriteByte('"')
		}
		if extraName != "" {
			if len(labelNames) > 0 {
				w.WriteByte(',')
			}
			w.WriteString(extraName)
			w.WriteString(`="`)
			w.WriteString(extraValue)
			w.WriteByte('"')
		}
		w.WriteByte('}')
	}

	w.WriteByte(' ')
	w.WriteString(value)
	w.WriteByte('\n')
}

// formatValue renders a sample value. Shortest float form, with the infinities
// and NaN spelled the way scrapers expect.
func formatValue(v float64) string {
	switch {
	case math.IsInf(v, +1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeHelp(s string) string {
	return helpEscaper.Replace(s)
}

func escapeLabelValue(s string) string {
	return labelEscaper.Replace(s)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
