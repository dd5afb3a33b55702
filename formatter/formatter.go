// Package formatter renders sink record lines, subscriber markup entries and
// variadic argument lists.
package formatter

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/lixenwraith/logsink/sanitizer"
)

// Markup used in rendered subscriber batches
const (
	LineBreak            = "<br>"
	DefaultCriticalColor = "#ff1f00"
)

// dumper is the spew configuration for composite values, compact and deterministic
var dumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Formatter renders record lines and markup entries. Safe for concurrent use once configured.
type Formatter struct {
	sanitizer     *sanitizer.Sanitizer
	escapeMarkup  bool
	criticalColor string
}

// New creates a formatter with the provided markup sanitizer
func New(s ...*sanitizer.Sanitizer) *Formatter {
	var san *sanitizer.Sanitizer
	if len(s) > 0 && s[0] != nil {
		san = s[0]
	} else {
		san = sanitizer.New().Policy(sanitizer.PolicyMarkup)
	}
	return &Formatter{
		sanitizer:     san,
		escapeMarkup:  true,
		criticalColor: DefaultCriticalColor,
	}
}

// EscapeMarkup sets whether entry text is escaped before it is embedded in markup
func (f *Formatter) EscapeMarkup(escape bool) *Formatter {
	f.escapeMarkup = escape
	return f
}

// CriticalColor sets the color of the critical marker
func (f *Formatter) CriticalColor(color string) *Formatter {
	if color != "" {
		f.criticalColor = color
	}
	return f
}

// Line renders the record line "[category] text"
func (f *Formatter) Line(category, text string) string {
	buf := make([]byte, 0, len(category)+len(text)+3)
	buf = append(buf, '[')
	buf = append(buf, category...)
	buf = append(buf, "] "...)
	buf = append(buf, text...)
	return string(buf)
}

// AppendEntry appends one markup entry for line to buf: the line, wrapped in the
// critical marker when critical, followed by a line break
func (f *Formatter) AppendEntry(buf []byte, line string, critical bool) []byte {
	if f.escapeMarkup {
		line = f.sanitizer.Sanitize(line)
	}

	if critical {
		buf = append(buf, `<font color="`...)
		buf = append(buf, f.criticalColor...)
		buf = append(buf, `">`...)
		buf = append(buf, line...)
		buf = append(buf, "</font>"...)
	} else {
		buf = append(buf, line...)
	}

	return append(buf, LineBreak...)
}

// Args joins values as space-separated raw strings.
// Composite values are dumped with spew, byte slices are hex encoded.
func Args(args ...any) string {
	var buf []byte
	for i, arg := range args {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = appendValue(buf, arg)
	}
	return string(buf)
}

// appendValue converts any value to its raw string representation
func appendValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case string:
		return append(buf, val...)
	case int:
		return strconv.AppendInt(buf, int64(val), 10)
	case int32:
		return strconv.AppendInt(buf, int64(val), 10)
	case int64:
		return strconv.AppendInt(buf, val, 10)
	case uint:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint32:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint64:
		return strconv.AppendUint(buf, val, 10)
	case float32:
		return strconv.AppendFloat(buf, float64(val), 'f', -1, 32)
	case float64:
		return strconv.AppendFloat(buf, val, 'f', -1, 64)
	case bool:
		return strconv.AppendBool(buf, val)
	case nil:
		return append(buf, "nil"...)
	case time.Time:
		return val.AppendFormat(buf, time.RFC3339Nano)
	case time.Duration:
		return append(buf, val.String()...)
	case error:
		return append(buf, val.Error()...)
	case fmt.Stringer:
		return append(buf, val.String()...)
	case []byte:
		return hex.AppendEncode(buf, val)
	default:
		var b bytes.Buffer
		dumper.Fdump(&b, val)
		// Trim trailing new line added by spew
		return append(buf, bytes.TrimSpace(b.Bytes())...)
	}
}
