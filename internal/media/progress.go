package media

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// ProgressFunc receives extraction progress as a percentage in [0,100].
// It may be called from a goroutine other than the caller's. Reports are
// advisory and never affect the extraction result.
type ProgressFunc func(percent int)

// progressWriter parses ffmpeg's "-progress" key=value stream. It stops at
// 99; completion is reported by the extractor once the output is verified.
type progressWriter struct {
	total  time.Duration
	report ProgressFunc
	buf    []byte
	last   int
}

func newProgressWriter(total time.Duration, report ProgressFunc) *progressWriter {
	return &progressWriter{total: total, report: report, last: -1}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
		w.handle(line)
	}
	return len(p), nil
}

func (w *progressWriter) handle(line string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}

	switch key {
	// out_time_ms is microseconds too, despite the name.
	case "out_time_us", "out_time_ms":
		if w.total.Microseconds() <= 0 {
			return
		}
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			return
		}
		pct := int(us * 100 / w.total.Microseconds())
		if pct > 99 {
			pct = 99
		}
		w.emit(pct)
	}
}

// emit forwards monotonically increasing percentages only.
func (w *progressWriter) emit(pct int) {
	if w.report == nil || pct <= w.last {
		return
	}
	w.last = pct
	w.report(pct)
}
