package server

import (
	"html/template"
	"net/http"

	"github.com/iafilius/StateScatter/src/logging"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>State Scatter</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.label { cursor: pointer; margin: 0 1em; }
.active { font-weight: bold; color: #000; }
.inactive { color: #999; }
</style>
</head>
<body>
<img id="chart" src="/api/v1/chart.svg?field={{.SelectedX}}" width="850" height="500" alt="scatter chart">
<p>
{{range .Labels}}<span class="label {{if .Active}}active{{else}}inactive{{end}}" data-value="{{.Field}}">{{.Text}}</span>
{{end}}</p>
<script>
document.querySelectorAll('.label').forEach(function (el) {
  el.addEventListener('click', function () {
    fetch('/api/v1/select', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({field: el.dataset.value})
    }).then(function () { location.reload(); });
  });
});
</script>
</body>
</html>
`))

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, s.state()); err != nil {
		logging.Errorf("render page: %v", err)
	}
}
