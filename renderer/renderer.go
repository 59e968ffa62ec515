// Package renderer formats holdings and valuations as markdown reports.
package renderer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/etnz/costbasis"
)

// dateFormat is the format of instants in reports.
const dateFormat = "2006-01-02 15:04"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(dateFormat)
}

// averageCost returns the average cost per unit, or "-" without a position.
func averageCost(h costbasis.Holding) string {
	p, err := h.AverageCost()
	if err != nil {
		return "-"
	}
	return p.Decimal().Round(4).String() + " " + p.Currency()
}

// describe names the kind of an effect, marking reversed ones.
func describe(e costbasis.Effect) string {
	s := string(e.Type)
	if e.Type == costbasis.EvtReverse {
		s += " of " + shortID(e.Ref.String())
	}
	if e.Reversed {
		s = "~~" + s + "~~"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// quantity renders a signed quantity change, "-" when there is none.
func quantity(q costbasis.Quantity) string {
	if q.IsZero() {
		return "-"
	}
	if q.IsPositive() {
		return "+" + q.String()
	}
	return q.String()
}

// table writes a two column key/value table.
func table(w io.Writer, rows [][2]string) {
	fmt.Fprintln(w, "| | |")
	fmt.Fprintln(w, "|:---|---:|")
	for _, r := range rows {
		fmt.Fprintf(w, "| %s | %s |\n", r[0], r[1])
	}
	fmt.Fprintln(w)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
