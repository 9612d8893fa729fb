package report

import (
	"encoding/json"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/jogardn/order-forwarder/pkg/models"
)

const pageCSS = `
  * { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: system-ui, sans-serif; background: #f4f6f9; color: #1a1a2e; padding: 2rem; }
  h1 { font-size: 1.6rem; margin-bottom: 0.25rem; }
  h2 { font-size: 1.1rem; margin-bottom: 0.75rem; color: #444; }
  .meta { color: #666; font-size: 0.85rem; margin-bottom: 2rem; }
  .cards { display: flex; gap: 1rem; margin-bottom: 2rem; }
  .card { background: #fff; border-radius: 8px; padding: 1.25rem 1.75rem; box-shadow: 0 1px 4px rgba(0,0,0,.08); min-width: 140px; }
  .card .value { font-size: 2rem; font-weight: 700; color: #4f46e5; }
  .card .label { font-size: 0.8rem; color: #888; margin-top: 0.2rem; }
  .card.failed .value { color: #b91c1c; }
  table { width: 100%; border-collapse: collapse; background: #fff; margin-bottom: 2rem; box-shadow: 0 1px 4px rgba(0,0,0,.08); }
  th { background: #4f46e5; color: #fff; text-align: left; padding: 0.65rem 1rem; font-size: 0.8rem; text-transform: uppercase; }
  td { padding: 0.6rem 1rem; font-size: 0.88rem; border-bottom: 1px solid #f0f0f0; }
  .badge { display: inline-block; padding: 2px 8px; border-radius: 99px; font-size: 0.75rem; font-weight: 600; background: #e5e7eb; }
  .badge-paid { background: #d1fae5; color: #065f46; }
  .badge-unfulfilled { background: #fee2e2; color: #991b1b; }
  .badge-partial, .badge-partially_fulfilled { background: #fef3c7; color: #92400e; }
  .none { color: #aaa; }
  details { background: #fff; border-radius: 8px; margin-bottom: 0.75rem; box-shadow: 0 1px 4px rgba(0,0,0,.08); }
  summary { cursor: pointer; padding: 0.75rem 1rem; font-size: 0.9rem; font-weight: 600; }
  .order-num { color: #4f46e5; }
  pre { padding: 1rem 1.25rem; font-size: 0.78rem; overflow-x: auto; background: #1e1e2e; color: #cdd6f4; line-height: 1.5; }
`

var pageTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"badge":   badgeClass,
	"payload": payloadJSON,
	"deref":   deref,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Shopify to Everstox Report</title>
  <style>{{.CSS}}</style>
</head>
<body>
  <h1>Shopify to Everstox Report</h1>
  <p class="meta">Generated at {{.GeneratedAt}} &middot; run {{.Result.RunID}} &middot; last {{.Result.Days}} days</p>

  <div class="cards">
    <div class="card"><div class="value">{{.Stats.Loaded}}</div><div class="label">Orders loaded</div></div>
    <div class="card"><div class="value">{{.Stats.Sent}}</div><div class="label">Sent to Everstox</div></div>
    <div class="card failed"><div class="value">{{.Stats.Failed}}</div><div class="label">Failed</div></div>
  </div>
  {{- with .Stats.CircuitState}}
  <p class="meta">Everstox circuit breaker: {{.}} &middot; {{$.Stats.Rejected}} rejected</p>
  {{- end}}

  <h2>Loaded Orders</h2>
  <table>
    <thead><tr><th>Order</th><th>Financial Status</th><th>Fulfillment Status</th><th>Total</th><th>Created At</th></tr></thead>
    <tbody>
    {{- range .Result.Orders}}
      <tr>
        <td><strong>{{.Name}}</strong></td>
        <td><span class="badge {{badge .FinancialStatus}}">{{.FinancialStatus}}</span></td>
        <td>{{with deref .FulfillmentStatus}}<span class="badge {{badge .}}">{{.}}</span>{{else}}<span class="none">-</span>{{end}}</td>
        <td>{{.TotalPrice}} {{.Currency}}</td>
        <td>{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td>
      </tr>
    {{- end}}
    </tbody>
  </table>

  <h2>Everstox Payloads</h2>
  {{- range .Result.Sent}}
  <details>
    <summary><span class="order-num">{{.Source.Name}}</span> &middot; {{.Payload.OrderNumber}} &middot; {{.Source.FinancialStatus}}</summary>
    <pre>{{payload .Payload}}</pre>
  </details>
  {{- else}}
  <p class="none">No orders were sent.</p>
  {{- end}}

  {{- if .Result.Failed}}
  <h2>Failures</h2>
  <table>
    <thead><tr><th>Order</th><th>Error</th></tr></thead>
    <tbody>
    {{- range .Result.Failed}}
      <tr><td><strong>{{.Source.Name}}</strong></td><td>{{.Error}}</td></tr>
    {{- end}}
    </tbody>
  </table>
  {{- end}}
</body>
</html>
`))

type htmlPage struct {
	CSS         template.CSS
	GeneratedAt string
	Result      *models.RunResult
	Stats       Statistics
}

func renderHTML(w io.Writer, result *models.RunResult, stats Statistics, generatedAt time.Time) error {
	return pageTemplate.Execute(w, htmlPage{
		CSS:         template.CSS(pageCSS),
		GeneratedAt: generatedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
		Result:      result,
		Stats:       stats,
	})
}

func badgeClass(status string) string {
	switch s := strings.ToLower(status); s {
	case "paid", "unfulfilled", "partial", "partially_fulfilled":
		return "badge-" + s
	default:
		return ""
	}
}

func payloadJSON(order models.EverstoxOrder) (string, error) {
	data, err := json.MarshalIndent(order, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
