package ui

import (
	"fmt"
	"html/template"
)

func formatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

func templateHTML(b []byte) template.HTML {
	return template.HTML(b)
}
