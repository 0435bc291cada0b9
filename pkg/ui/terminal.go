package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Banner is printed at the top of interactive commands
const Banner = `
  ┌─┐┌─┐┬  ┬  ┌─┐┬ ┬┌─┐┬─┐┌─┐┌─┐┬ ┬
  ├┤ │ ││  │  │ ││││├─┘├┬┘├─┤├─┘├─┤
  └  └─┘┴─┘┴─┘└─┘└┴┘└─┘┴└─┴ ┴┴  ┴ ┴
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	errOut  io.Writer = os.Stderr
	quiet   bool
	noColor bool
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		mu.Lock()
		plain := noColor
		mu.Unlock()
		if plain {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// SetOutput redirects regular and error output
func SetOutput(stdout, stderr io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out, errOut = stdout, stderr
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// SetNoColor disables ANSI colors
func SetNoColor(v bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = v
}

func writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	if quiet {
		return io.Discard
	}
	return out
}

// Out returns the writer regular output goes to, io.Discard in quiet mode
func Out() io.Writer {
	return writer()
}

// PrintBanner prints the banner
func PrintBanner() {
	fmt.Fprint(writer(), Cyan(Banner))
}

// PrintError prints an error message in red. Errors are shown in quiet mode.
func PrintError(msg string, args ...interface{}) {
	mu.Lock()
	w := errOut
	mu.Unlock()
	if len(args) > 0 {
		fmt.Fprintln(w, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(w, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(writer(), Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	fmt.Fprintf(writer(), "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	w := writer()
	if len(args) > 0 {
		fmt.Fprintln(w, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(w, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(writer(), Magenta(msg))
}
