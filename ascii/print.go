package ascii

import (
	"fmt"
	"html"
	"io"
	"log"
	"time"
)

const (
	CursorHome     = "\033[H"
	ClearScreen    = "\033[2J"
	resetTermColor = "\x1B[0m"
)

// Debug enables timing output from TrackTime.
var Debug = false

// TrackTime logs the time spent since start when Debug is set.
func TrackTime(start time.Time, name string) {
	elapsed := time.Since(start)
	if Debug {
		log.Printf("event=%s duration=%s", name, elapsed)
	}
}

// PrintASCII writes lines to a terminal, one per row.
func PrintASCII(w io.Writer, lines []string) error {
	defer TrackTime(time.Now(), "print_ascii")
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, resetTermColor)
	return err
}

// PrintHTML writes lines as a monospaced html page. With negative set the
// page uses white text on black.
func PrintHTML(w io.Writer, lines []string, negative bool) error {
	defer TrackTime(time.Now(), "print_html")
	if negative {
		fmt.Fprintf(w, "<html><body bgcolor='#000000' text='#ffffff'><pre style='font-family:Courier;line-height:1'>\n")
	} else {
		fmt.Fprintf(w, "<html><body bgcolor='#ffffff' text='#000000'><pre style='font-family:Courier;line-height:1'>\n")
	}
	for _, line := range lines {
		fmt.Fprintf(w, "%s\n", html.EscapeString(line))
	}
	_, err := fmt.Fprintf(w, "</pre></body></html>\n")
	return err
}
