package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

//nolint:gochecknoglobals // palette is a static lookup shared across encoder instances.
var levelPalette = map[zapcore.Level]*color.Color{
	zapcore.DebugLevel:  color.New(color.FgCyan),
	zapcore.InfoLevel:   color.New(color.FgGreen),
	zapcore.WarnLevel:   color.New(color.FgYellow),
	zapcore.ErrorLevel:  color.New(color.FgRed, color.Bold),
	zapcore.DPanicLevel: color.New(color.FgHiRed, color.Bold, color.Underline),
	zapcore.PanicLevel:  color.New(color.FgHiRed, color.Bold),
	zapcore.FatalLevel:  color.New(color.FgMagenta, color.Bold),
}

//nolint:gochecknoglobals // static styles
var (
	timeStyle = color.New(color.Faint)
	keyStyle  = color.New(color.FgHiCyan)
	valStyle  = color.New(color.Faint)
)

// prettyEncoder wraps zap's JSON encoder to produce colorized, indented output suited for terminals.
type prettyEncoder struct {
	zapcore.Encoder
}

// Clone ensures derived loggers keep the pretty encoder wrapper.
func (e *prettyEncoder) Clone() zapcore.Encoder {
	return &prettyEncoder{Encoder: e.Encoder.Clone()}
}

// newPrettyLogger creates a pretty logger without caller tracking.
// Use Named() loggers for component identification.
func newPrettyLogger(cfg *zap.Config) *zap.Logger {
	enc := &prettyEncoder{Encoder: zapcore.NewJSONEncoder(cfg.EncoderConfig)}
	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), cfg.Level)
	return zap.New(core, zap.ErrorOutput(zapcore.AddSync(os.Stderr)))
}

// EncodeEntry renders a header line followed by the entry fields as indented key/value lines.
func (e *prettyEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	jsonBuf, err := e.Encoder.EncodeEntry(entry, fields)
	if err != nil {
		return nil, err
	}

	raw := append([]byte(nil), jsonBuf.Bytes()...)
	jsonBuf.Reset()

	var payload map[string]any
	if unmarshalErr := json.Unmarshal(bytes.TrimSpace(raw), &payload); unmarshalErr != nil {
		// not a JSON object, emit as is
		_, _ = jsonBuf.Write(raw)
		return jsonBuf, nil
	}

	jsonBuf.AppendString(header(entry))
	jsonBuf.AppendByte('\n')

	for _, line := range metadataLines(payload) {
		jsonBuf.AppendString(line)
		jsonBuf.AppendByte('\n')
	}

	return jsonBuf, nil
}

func header(entry zapcore.Entry) string {
	ts := entry.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	level := strings.ToUpper(entry.Level.String())
	if c, ok := levelPalette[entry.Level]; ok {
		level = c.Sprint(level)
	}

	var b strings.Builder
	b.WriteString(timeStyle.Sprint("[" + ts.Format(time.DateTime) + "]"))
	b.WriteByte(' ')
	b.WriteString(level)
	if entry.LoggerName != "" {
		b.WriteString(" " + keyStyle.Sprint(entry.LoggerName))
	}
	if entry.Message != "" {
		b.WriteString(" " + entry.Message)
	}
	return b.String()
}

func metadataLines(payload map[string]any) []string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		switch k {
		case "time", "level", "msg", "logger":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		val, err := json.MarshalIndent(payload[k], "  ", "  ")
		if err != nil {
			continue
		}
		lines = append(lines, "  "+keyStyle.Sprint(k)+": "+valStyle.Sprint(string(val)))
	}
	return lines
}
