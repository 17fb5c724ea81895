package notify

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

const operatorHTML = `<h2>New trip intake</h2>
<table>
<tr><td>ID</td><td>{{.ID}}</td></tr>
<tr><td>Name</td><td>{{or .Name "(not given)"}}</td></tr>
<tr><td>Email</td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
<tr><td>Destinations</td><td>{{.Destinations}}</td></tr>
<tr><td>Dates</td><td>{{deref .StartDate "?"}} to {{deref .EndDate "?"}}</td></tr>
<tr><td>Notes</td><td>{{deref .Notes "-"}}</td></tr>
<tr><td>Received</td><td>{{.CreatedAt.UTC.Format "2006-01-02 15:04 MST"}}</td></tr>
</table>`

const operatorText = `New trip intake {{.ID}}
Name: {{or .Name "(not given)"}}
Email: {{.Email}}
Destinations: {{.Destinations}}
Dates: {{deref .StartDate "?"}} to {{deref .EndDate "?"}}
Notes: {{deref .Notes "-"}}
Received: {{.CreatedAt.UTC.Format "2006-01-02 15:04 MST"}}
`

const confirmationHTML = `<p>Hi {{or .Name "there"}},</p>
<p>Thanks for telling us about your trip to <strong>{{.Destinations}}</strong>.
{{- if .StartDate}} We have your dates as {{deref .StartDate ""}}{{if .EndDate}} to {{deref .EndDate ""}}{{end}}.{{end}}</p>
<p>A planner will reply to this address within two business days.</p>
<p style="color:#888">Reference: {{.ID}}</p>`

const confirmationText = `Hi {{or .Name "there"}},

Thanks for telling us about your trip to {{.Destinations}}.
{{- if .StartDate}} We have your dates as {{deref .StartDate ""}}{{if .EndDate}} to {{deref .EndDate ""}}{{end}}.{{end}}

A planner will reply to this address within two business days.

Reference: {{.ID}}
`

func deref(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

type templates struct {
	operatorHTML     *htmltemplate.Template
	operatorText     *texttemplate.Template
	confirmationHTML *htmltemplate.Template
	confirmationText *texttemplate.Template
}

func mustTemplates() templates {
	hf := htmltemplate.FuncMap{"deref": deref}
	tf := texttemplate.FuncMap{"deref": deref}
	return templates{
		operatorHTML:     htmltemplate.Must(htmltemplate.New("operator.html").Funcs(hf).Parse(operatorHTML)),
		operatorText:     texttemplate.Must(texttemplate.New("operator.txt").Funcs(tf).Parse(operatorText)),
		confirmationHTML: htmltemplate.Must(htmltemplate.New("confirmation.html").Funcs(hf).Parse(confirmationHTML)),
		confirmationText: texttemplate.Must(texttemplate.New("confirmation.txt").Funcs(tf).Parse(confirmationText)),
	}
}
