// Package ui holds the colored terminal printers and table rendering used by
// the command line. Output honors quiet mode; errors always go to stderr.
package ui
