package internal

import (
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

//go:embed inspect.html
var templatesFS embed.FS

const redacted = "[redacted]"

// Scanner walks raw store entries by key prefix.
type Scanner interface {
	Scan(prefix string, fn func(key string, val []byte) error) error
}

type InspectRow struct {
	Key    string
	Type   string
	Detail string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// Inspector renders the raw content of the store as an HTML table.
// It is meant for local debugging and is only mounted when DEBUG_INSPECT is set.
type Inspector struct {
	scanner Scanner
	mapper  RowMapper
	stats   StatsProvider
	tmpl    *template.Template
	log     *slog.Logger
}

func NewInspector(scanner Scanner, stats StatsProvider, log *slog.Logger) *Inspector {
	return &Inspector{
		scanner: scanner,
		mapper:  DefaultMapper,
		stats:   stats,
		tmpl:    template.Must(template.ParseFS(templatesFS, "inspect.html")),
		log:     log,
	}
}

func (i *Inspector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = "chat:"
	}

	data := PageData{Prefix: prefix, Stats: make(map[string]any)}
	if i.stats != nil {
		data.Stats = i.stats()
	}

	err := i.scanner.Scan(prefix, func(key string, val []byte) error {
		data.Items = append(data.Items, i.mapper(key, val))
		return nil
	})
	if err != nil {
		i.log.Error("Inspection scan failed", "prefix", prefix, "error", err)
		http.Error(w, "scan failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := i.tmpl.Execute(w, data); err != nil {
		i.log.Warn("Inspection render failed", "error", err)
	}
}

// DefaultMapper names the entry after its key prefix.
// User records never show their password hash.
func DefaultMapper(key string, val []byte) InspectRow {
	kind, _, found := strings.Cut(key, ":")
	if !found {
		kind = "raw"
	}
	row := InspectRow{Key: key, Type: strings.ToUpper(kind), Detail: string(val)}

	switch kind {
	case "user":
		row.Detail = redactUser(val)
	case "seq":
		row.Detail = "Size: " + strconv.Itoa(len(val)) + " bytes"
	}
	return row
}

func redactUser(val []byte) string {
	var fields map[string]any
	if err := json.Unmarshal(val, &fields); err != nil {
		return redacted
	}
	if _, ok := fields["password_hash"]; ok {
		fields["password_hash"] = redacted
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return redacted
	}
	return string(out)
}
