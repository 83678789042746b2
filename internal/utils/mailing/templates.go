package mailing

import (
	"bytes"
	"html/template"
)

var lowStockTemplate = template.Must(template.New("low_stock").Parse(`<p>Hi {{.Username}},</p>
<p><strong>{{.Ingredient}}</strong> is running low: {{.Quantity}} {{.Unit}} left
(threshold {{.Threshold}} {{.Unit}}).</p>
{{if .AppURL}}<p><a href="{{.AppURL}}">Open your pantry</a></p>{{end}}`))

type LowStockData struct {
	Username   string
	Ingredient string
	Quantity   string
	Threshold  string
	Unit       string
	AppURL     string
}

func LowStockSubject(ingredient string) string {
	return "Low stock: " + ingredient
}

func RenderLowStock(data LowStockData) (string, error) {
	var buf bytes.Buffer
	if err := lowStockTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
