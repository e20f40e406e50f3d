package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiGray   = "\033[90m"
	ansiBold   = "\033[1m"
)

type painter bool

func (p painter) paint(code, text string) string {
	if !p {
		return text
	}
	return code + text + ansiReset
}

// Fprint writes err to w as a multi-line report. When err carries an *Error
// anywhere in its chain, the report shows its code, category, detail (or
// the registered explanation), cause and hint; any context added by the
// wrapping errors is kept on the first line.
func Fprint(w io.Writer, err error, color bool) {
	p := painter(color)
	var ce *Error
	if !stderrors.As(err, &ce) {
		fmt.Fprintf(w, "%s %s\n", p.paint(ansiRed+ansiBold, "Error:"), err)
		return
	}

	var b strings.Builder
	b.WriteString(p.paint(ansiRed+ansiBold, "Error"))
	if ce.Code != "" {
		b.WriteString(p.paint(ansiBold, " "+ce.Code))
	}
	if ce.Category != "" {
		b.WriteString(p.paint(ansiGray, " ["+string(ce.Category)+"]"))
	}
	b.WriteString(": ")
	b.WriteString(ce.Message)
	if prefix, ok := strings.CutSuffix(err.Error(), ce.Error()); ok && prefix != "" {
		b.WriteString(p.paint(ansiGray, " (in "+strings.TrimSuffix(prefix, ": ")+")"))
	}
	b.WriteString("\n")

	detail := ce.Detail
	if detail == "" {
		detail = registry[ce.Code].Detail
	}
	for _, line := range wrapText(detail, 72) {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	if ce.Wrapped != nil {
		b.WriteString("  " + p.paint(ansiGray, "cause: ") + ce.Wrapped.Error() + "\n")
	}
	if ce.Suggestion != "" {
		b.WriteString("  " + p.paint(ansiYellow, "hint: ") + ce.Suggestion + "\n")
	}
	io.WriteString(w, b.String())
}

// PrintError writes err to stderr, in color when stderr is a terminal.
func PrintError(err error) {
	Fprint(os.Stderr, err, isatty.IsTerminal(os.Stderr.Fd()))
}

func wrapText(text string, width int) []string {
	var (
		lines   []string
		current strings.Builder
	)
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+len(word)+1 > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
