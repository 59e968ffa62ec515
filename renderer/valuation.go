package renderer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/costbasis"
)

// ValuationMarkdown renders a holding valued in a reporting currency.
func ValuationMarkdown(v costbasis.Valuation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s on %s\n\n", v.Asset, formatTime(v.At))
	fmt.Fprintf(&b, "%s units at %s, in %s.\n\n", v.Quantity, v.Price, v.Currency)
	table(&b, [][2]string{
		{"Market value", v.MarketValue.String()},
		{"Cost basis", v.CostBasis.String()},
		{"Unrealized gain", v.UnrealizedGain.SignedString()},
		{"Realized", v.Realized.SignedString()},
		{"Income", v.Income.String()},
	})
	return b.String()
}

// ReplayFailureMarkdown explains why a replay failed, and what was applied before.
func ReplayFailureMarkdown(err error) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Replay failed\n\n")

	var replayErr *costbasis.ReplayError
	if !errors.As(err, &replayErr) {
		fmt.Fprintf(&b, "%s\n", escape(err.Error()))
		return b.String()
	}

	if replayErr.Event == nil {
		fmt.Fprintf(&b, "The events of %s were rejected before any was applied: %s\n", replayErr.Applied.Asset(), escape(replayErr.Err.Error()))
		return b.String()
	}
	m := replayErr.Event.Meta()
	fmt.Fprintf(&b, "Event #%d was refused: %s\n\n", replayErr.Index, escape(replayErr.Err.Error()))
	rows := [][2]string{
		{"Type", string(replayErr.Event.What())},
		{"ID", m.ID.String()},
		{"Asset", m.Asset.String()},
		{"At", formatTime(m.At)},
		{"Sequence", fmt.Sprint(m.Seq)},
	}
	if m.Memo != "" {
		rows = append(rows, [2]string{"Memo", escape(m.Memo)})
	}
	table(&b, rows)

	section(&b, "## Applied before the failure", func(w io.Writer) bool {
		if replayErr.Applied.Len() == 0 {
			return false
		}
		h := replayErr.Applied
		table(w, [][2]string{
			{"Events applied", fmt.Sprint(h.Len())},
			{"Quantity", h.Quantity().String()},
			{"Cost basis", h.CostBasis().String()},
			{"Realized", h.Realized().SignedString()},
			{"Last event", formatTime(h.LastEvent())},
		})
		return true
	})
	return b.String()
}
