// Package helpers holds the markup helpers used by the HTML pages.
package helpers

import (
	"fmt"
	"html/template"
)

const (
	WikiURL       = "https://github.com/dingbat/nsrails/wiki"
	SourceURL     = "https://github.com/dingbat/nsrails"
	ScreencastURL = "http://vimeo.com/dq/nsrails"

	RibbonAsset = "/assets/forkme.png"
	RibbonAlt   = "Fork me on GitHub"
)

func linkTo(label, url string) template.HTML {
	return template.HTML(fmt.Sprintf(`<a href="%s">%s</a>`,
		template.HTMLEscapeString(url), template.HTMLEscapeString(label)))
}

// WikiLink links label to the project wiki.
func WikiLink(label string) template.HTML { return linkTo(label, WikiURL) }

// SourceLink links label to the source repository.
func SourceLink(label string) template.HTML { return linkTo(label, SourceURL) }

// ScreencastLink links label to the screencast.
func ScreencastLink(label string) template.HTML { return linkTo(label, ScreencastURL) }

// ForkRibbon is the decorative "fork me" image pinned to the page corner.
func ForkRibbon() template.HTML {
	return template.HTML(fmt.Sprintf(`<img id="ribbon" src="%s" alt="%s">`, RibbonAsset, RibbonAlt))
}

// FuncMap exposes the helpers to html/template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"wikiLink":       WikiLink,
		"sourceLink":     SourceLink,
		"screencastLink": ScreencastLink,
		"forkRibbon":     ForkRibbon,
	}
}
