// Package webpage renders the small HTML surface of the embedded app:
// the plan picker and the redirect page that breaks out of Shopify's
// admin iframe.
package webpage

import (
	"html/template"
	"io"

	"github.com/employee-suite/employee-suite/internal/models"
)

// Shopify loads the app inside an iframe, so a plain Location header
// cannot send the merchant to the charge confirmation page. The
// redirect page escapes the frame from the top window instead.
var redirectTmpl = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Redirecting…</title>
<script type="text/javascript">
  var target = {{.Target}};
  if (window.top === window.self) {
    window.location.href = target;
  } else {
    window.top.location.href = target;
  }
</script>
</head>
<body>
<p>Redirecting you to <a href="{{.Target}}">{{.Target}}</a></p>
</body>
</html>
`))

var subscribeTmpl = template.Must(template.New("subscribe").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Employee Suite - Choose a plan</title>
</head>
<body>
<h1>Choose a plan</h1>
{{if .Message}}<p class="message">{{.Message}}</p>{{end}}
<ul>
{{range .Tiers}}
  <li>
    <h2>{{.Name}}</h2>
    <p>${{printf "%.2f" .PriceUSD}}/month, {{.TrialDays}}-day trial</p>
    <form method="POST" action="/billing/create-charge">
      <input type="hidden" name="shop" value="{{$.Shop}}">
      <input type="hidden" name="plan" value="{{.Name}}">
      <button type="submit">Subscribe</button>
    </form>
  </li>
{{end}}
</ul>
</body>
</html>
`))

type redirectData struct {
	Target string
}

// SubscribePage is the data for the plan picker.
type SubscribePage struct {
	Shop    string
	Message string
	Tiers   []models.PlanTier
}

// RenderRedirect writes the frame-escaping redirect page for target.
func RenderRedirect(w io.Writer, target string) error {
	return redirectTmpl.Execute(w, redirectData{Target: target})
}

// RenderSubscribe writes the plan picker with an optional banner
// message.
func RenderSubscribe(w io.Writer, page SubscribePage) error {
	return subscribeTmpl.Execute(w, page)
}
