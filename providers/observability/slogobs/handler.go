package slogobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	timeLayout     = "2006-01-02 15:04:05"
	jsonTimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

var levelColors = map[string]*color.Color{
	"TRACE": color.New(color.FgHiBlack),
	"DEBUG": color.New(color.FgBlue),
	"INFO":  color.New(color.FgGreen),
	"WARN":  color.New(color.FgYellow),
	"ERROR": color.New(color.FgRed, color.Bold),
}

func init() {
	// Handler decides itself whether to paint, so the package-level NoColor
	// detection (stdout only) must not veto it.
	for _, c := range levelColors {
		c.EnableColor()
	}
}

// HandlerOptions configures NewHandler. Zero values mean compact output at
// INFO on os.Stdout.
type HandlerOptions struct {
	Format Format
	Level  slog.Leveler
	Output io.Writer
	// Colors forces ANSI colors. Without it colors are used only when Output
	// is a terminal and NO_COLOR is unset. JSON is never colored.
	Colors bool
}

// Handler renders records in one of the Format layouts. Handlers derived via
// WithAttrs and WithGroup write under the parent's lock.
type Handler struct {
	format Format
	level  slog.Leveler
	out    io.Writer
	colors bool
	mu     *sync.Mutex

	// attrs already carry the group prefix that was open when they were added.
	attrs  map[string]any
	prefix string
}

func NewHandler(opts *HandlerOptions) *Handler {
	var o HandlerOptions
	if opts != nil {
		o = *opts
	}
	if o.Output == nil {
		o.Output = os.Stdout
	}
	if o.Format == "" {
		o.Format = FormatCompact
	}
	if o.Level == nil {
		o.Level = slog.LevelInfo
	}

	colors := o.Colors
	if !colors && o.Format != FormatJSON {
		colors = isColorTerminal(o.Output)
	}
	return &Handler{
		format: o.Format,
		level:  o.Level,
		out:    o.Output,
		colors: colors && o.Format != FormatJSON,
		mu:     &sync.Mutex{},
		attrs:  map[string]any{},
	}
}

func isColorTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := h.clone()
	for _, a := range attrs {
		flatten(clone.attrs, clone.prefix, a)
	}
	return clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.prefix = h.prefix + name + "."
	return clone
}

func (h *Handler) clone() *Handler {
	c := *h
	c.attrs = maps.Clone(h.attrs)
	return &c
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	fields := maps.Clone(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		flatten(fields, h.prefix, a)
		return true
	})

	var buf bytes.Buffer
	switch h.format {
	case FormatJSON:
		fields["time"] = r.Time.Format(jsonTimeLayout)
		fields["level"] = LevelName(r.Level)
		fields["msg"] = r.Message
		if err := json.NewEncoder(&buf).Encode(fields); err != nil {
			return err
		}
	case FormatPretty:
		fmt.Fprintf(&buf, "%s %s  %s\n", r.Time.Format(timeLayout), h.levelLabel(r.Level, "%-5s"), r.Message)
		keys := slices.Sorted(maps.Keys(fields))
		for i, key := range keys {
			branch := "├─"
			if i == len(keys)-1 {
				branch = "└─"
			}
			fmt.Fprintf(&buf, "    %s %s: %v\n", branch, key, fields[key])
		}
	default:
		fmt.Fprintf(&buf, "%s %s %s", r.Time.Format(timeLayout), h.levelLabel(r.Level, "%5s"), r.Message)
		if len(fields) > 0 {
			encoded, err := json.Marshal(fields)
			if err != nil {
				encoded = []byte(`"[unencodable attributes]"`)
			}
			buf.WriteString(" → ")
			buf.Write(encoded)
		}
		buf.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

func (h *Handler) levelLabel(level slog.Level, layout string) string {
	name := LevelName(level)
	label := fmt.Sprintf(layout, name)
	if !h.colors {
		return label
	}
	return levelColors[name].Sprint(label)
}

// flatten writes a into dst under prefix, expanding groups into dotted keys.
// Errors and durations are stored as text.
func flatten(dst map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, member := range v.Group() {
			flatten(dst, inner, member)
		}
		return
	}
	if a.Key == "" {
		return
	}

	key := prefix + a.Key
	switch val := v.Any().(type) {
	case error:
		dst[key] = val.Error()
	case time.Duration:
		dst[key] = val.String()
	default:
		dst[key] = val
	}
}
