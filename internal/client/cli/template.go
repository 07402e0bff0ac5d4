package cli

import (
	"fmt"
	"io"
	"text/template"
	"time"
)

var templateFuncs = template.FuncMap{
	"ts":    func(t time.Time) string { return t.Local().Format("2006-01-02 15:04:05") },
	"float": func(n int) float64 { return float64(n) },
	"short": func(id string) string {
		if len(id) <= 8 {
			return id
		}
		return id[:8]
	},
}

func render(w io.Writer, tmpl *template.Template, data any) error {
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	return nil
}

func mustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(templateFuncs).Parse(text))
}

var statusTemplate = mustTemplate("status", `=== Device Status ===

{{- if .LoggedIn }}
Store:   {{.StoreID}}
Device:  {{.DeviceID}}
{{- if .ExpiresAt }}
Token expires: {{ts .ExpiresAt}}
{{- end}}
{{- else }}
Status: Not logged in. Run 'posync login <token>'.
{{- end}}

{{- if .LastSyncAt }}
Last sync: {{ts .LastSyncAt}} (server seq {{.LastPullSeq}})
{{- else }}
Last sync: never
{{- end}}

Outbox:
  Pending:        {{.Outbox.Pending}}
  Failed:         {{.Outbox.Failed}}
  Synced:         {{.Outbox.Synced}}
  Discarded:      {{.Outbox.Discarded}}
  Open conflicts: {{.Outbox.OpenConflicts}}
{{- if .Outbox.Failed }}

⚠️  {{.Outbox.Failed}} event(s) were rejected by the server. Fix the data and run 'posync reset-failed'.
{{- end}}
{{- if .Outbox.OpenConflicts }}
⚠️  {{.Outbox.OpenConflicts}} conflict(s) need a decision. Run 'posync conflicts'.
{{- end}}
{{- if .Outbox.Corrupt }}
⚠️  {{.Outbox.Corrupt}} event record(s) are unreadable and skipped by sync.
{{- end}}
`)

var roundTemplate = mustTemplate("round", `
Pushed:     {{.Pushed}} (accepted {{.Accepted}}, failed {{.Failed}}, conflicted {{.Conflicted}})
{{- if .Skipped }}
Skipped:    {{.Skipped}} (circuit open)
{{- end}}
{{- if .Retrying }}
Retrying:   {{.Retrying}}
{{- end}}
{{- if .Ambiguous }}
Unanswered: {{.Ambiguous}}
{{- end}}
Pulled:     {{.Pulled}} (applied {{.Applied}})
{{- if .Divergent }}
Divergent:  {{.Divergent}}
{{- end}}
Duration:   {{.Duration}}
`)

var productTemplate = mustTemplate("product", `
=== Product ===

ID:        {{.Product.ID}}
Name:      {{.Product.Name}}
{{- if .Product.Category }}
Category:  {{.Product.Category}}
{{- end}}
{{- if .Product.SKU }}
SKU:       {{.Product.SKU}}
{{- end}}
{{- if .Product.Barcode }}
Barcode:   {{.Product.Barcode}}
{{- end}}
Price:     {{printf "%.2f" .Product.PriceUSD}} USD / {{printf "%.2f" .Product.PriceBs}} Bs
Active:    {{.Product.IsActive}}
{{- if .Stock }}
Stock:     {{.Stock.Quantity}}{{ if le .Stock.Quantity (float .Product.LowStockThreshold) }} (low){{ end }}
{{- end}}
Updated:   {{ts .Product.UpdatedAt}}
`)

var productListTemplate = mustTemplate("products", `{{ range . -}}
{{short .ID}}  {{printf "%-32s" .Name}} {{printf "%8.2f" .PriceUSD}} USD{{ if not .IsActive }}  (inactive){{ end }}
{{ else -}}
No products.
{{ end -}}
`)

var customerTemplate = mustTemplate("customer", `
=== Customer ===

ID:        {{.ID}}
Name:      {{.Name}}
{{- if .DocumentID }}
Document:  {{.DocumentID}}
{{- end}}
{{- if .Phone }}
Phone:     {{.Phone}}
{{- end}}
{{- if .Email }}
Email:     {{.Email}}
{{- end}}
{{- if .Note }}
Note:      {{.Note}}
{{- end}}
Updated:   {{ts .UpdatedAt}}
`)

var eventListTemplate = mustTemplate("events", `{{ range . -}}
{{.Seq}}  {{short .EventID}}  {{printf "%-20s" .Type}} {{.EntityKey}}  {{.SyncStatus}}{{ if .SyncAttempts }} attempts={{.SyncAttempts}}{{ end }}{{ if .LastError }}  {{.LastError}}{{ end }}
{{ else -}}
No events.
{{ end -}}
`)

var conflictListTemplate = mustTemplate("conflicts", `{{ range . -}}
{{.ID}}  {{.Status}}{{ if .Resolution }}/{{.Resolution}}{{ end }}  {{.EntityType}}/{{.EntityID}}  event {{short .EventID}}
    {{.Reason}}{{ if .RequiresManualReview }} (manual review){{ end }}
{{ else -}}
No conflicts.
{{ end -}}
`)

var conflictTemplate = mustTemplate("conflict", `Conflict {{.ID}} ({{.Status}}{{ if .Resolution }}/{{.Resolution}}{{ end }})
Entity:   {{.EntityType}}/{{.EntityID}}
Event:    {{.EventID}}
Reason:   {{.Reason}}
{{- if .ConflictingWith }}
Against:  {{ range $i, $id := .ConflictingWith }}{{ if $i }}, {{ end }}{{short $id}}{{ end }}
{{- end}}
{{- if .RequiresManualReview }}
Requires manual review.
{{- end}}
`)

var eventTemplate = mustTemplate("event", `✓ Recorded {{.Type}} {{.EventID}} (seq {{.Seq}})
`)
