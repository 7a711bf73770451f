// Package templates embeds the HTML views of the planner page
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
)

//go:embed *.html
var files embed.FS

// Parse loads every embedded view. The page is rendered with "layout";
// "loading" is also served alone as the HTMX polling fragment.
func Parse() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(Funcs()).ParseFS(files, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// Funcs returns the formatting helpers available to the views
func Funcs() template.FuncMap {
	return template.FuncMap{
		"num":   Num,
		"money": Money,
		"abs":   math.Abs,
		"join":  strings.Join,
		"add": func(a, b int) int {
			return a + b
		},
	}
}

// Num prints integers without decimals and other values as short as possible
func Num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Money formats a value in reais with a decimal comma
func Money(v float64) string {
	return "R$ " + strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1)
}
