package socialauth

import "html/template"

// Page names.
const (
	pageResult = "result.html"
	pageDone   = "done.html"
	pageError  = "error.html"
)

const layout = `{{define "head"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="referrer" content="no-referrer">
<title>{{.Title}}</title>
<style>
body{margin:0;min-height:100vh;display:flex;align-items:center;justify-content:center;
font-family:system-ui,sans-serif;background:linear-gradient(135deg,#FBF9D1,#E6CFA9);color:#9A3F3F}
main{background:#fff;padding:2rem 2.5rem;border-radius:12px;box-shadow:0 8px 24px rgba(0,0,0,.1);text-align:center;max-width:32rem}
h1{margin-top:0}
.muted{color:#C1856D;font-size:.9rem}
</style>
</head>
<body><main>{{end}}
{{define "foot"}}</main></body></html>{{end}}
`

const resultPage = `{{define "result.html"}}{{template "head" .}}
{{if .Failed}}<h1>Sign-in failed</h1>
<p>{{.Message}}</p>
<p class="muted">Return to the terminal to try again.</p>
{{else}}<h1>You're signed in</h1>
<p>You can close this tab and return to the terminal.</p>
{{end}}{{template "foot" .}}{{end}}`

const donePage = `{{define "done.html"}}{{template "head" .}}
<h1>Already completed</h1>
<p>This sign-in has already been handled. You can close this tab.</p>
{{template "foot" .}}{{end}}`

const errorPage = `{{define "error.html"}}{{template "head" .}}
<h1>Oops!</h1>
<p>{{.Message}}</p>
<p class="muted">Error Code: {{.Status}}</p>
{{template "foot" .}}{{end}}`

func pages() *template.Template {
	return template.Must(template.New("pages").Parse(layout + resultPage + donePage + errorPage))
}
