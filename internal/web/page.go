package web

import (
	"html/template"
	"net/http"

	appLog "crmcal/internal/log"
)

// pageTemplate renders the month grid as static HTML. The root element
// carries data-ready="true" so headless captures know rendering is done.
var pageTemplate = template.Must(template.New("calendar").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.MonthLabel}} {{.Year}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 24px; color: #18181b; }
.grid { display: grid; grid-template-columns: repeat(7, 1fr); border-left: 1px solid #e4e4e7; border-top: 1px solid #e4e4e7; }
.head { padding: 8px; text-align: center; font-weight: 600; text-transform: uppercase; color: #71717a; background: #fafafa; border-right: 1px solid #e4e4e7; border-bottom: 1px solid #e4e4e7; }
.cell { min-height: 120px; padding: 6px; border-right: 1px solid #e4e4e7; border-bottom: 1px solid #e4e4e7; }
.pad { background: #fafafa; }
.today .day { background: #4f46e5; color: #fff; border-radius: 50%; padding: 2px 7px; }
.count { float: right; font-size: 10px; color: #a1a1aa; font-weight: 700; }
.ev { margin-top: 4px; padding: 3px 6px; border-radius: 6px; font-size: 12px; overflow: hidden; white-space: nowrap; text-overflow: ellipsis; }
.indigo { background: #e0e7ff; color: #4338ca; }
.red { background: #fee2e2; color: #b91c1c; }
.emerald { background: #d1fae5; color: #047857; }
</style>
</head>
<body>
<div data-ready="true">
<h1>{{.MonthLabel}} {{.Year}}</h1>
<div class="grid">
{{- range .Weekdays}}<div class="head">{{.}}</div>{{end}}
{{- range .Cells}}
{{- if .Padding}}<div class="cell pad"></div>
{{- else}}<div class="cell{{if .IsToday}} today{{end}}" data-date="{{.Date}}"><span class="day">{{.Day}}</span>{{with .Events}}<span class="count">{{len .}} events</span>{{end}}
{{- range .Events}}<div class="ev {{.Color}}">{{.TimeLabel}} {{.Title}}</div>{{end}}</div>
{{- end}}
{{- end}}
</div>
</div>
</body>
</html>
`))

// handlePage serves the month grid as HTML; it accepts the same ?month
// parameter as /api/calendar.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	view, err := s.viewFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, toMonthDTO(view)); err != nil {
		appLog.Error("calendar page render failed", err)
	}
}
