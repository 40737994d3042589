// Package main provides the entry point for the sitecap CLI.
//
// sitecap records what a website can do. A language-model agent explores
// the site through a controlled browser and registers the pages and
// interactive elements it finds into a durable capability document, one
// per domain.
//
// Usage:
//
//	sitecap record --url https://example.com --scenario "find the search flow"
//	sitecap record session.yaml
//
// See --help for all available options.
package main

func main() {
	Execute()
}
