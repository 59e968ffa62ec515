package renderer

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/etnz/costbasis"
)

// HoldingMarkdown renders a holding and its journal.
func HoldingMarkdown(h costbasis.Holding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", h.Asset())
	table(&b, [][2]string{
		{"Quantity", h.Quantity().String()},
		{"Cost basis", h.CostBasis().String()},
		{"Average cost", averageCost(h)},
		{"Realized", h.Realized().SignedString()},
		{"Income", h.Income().String()},
		{"Last event", formatTime(h.LastEvent())},
	})

	section(&b, "## Journal", func(w io.Writer) bool {
		journal := h.Journal()
		if len(journal) == 0 {
			return false
		}
		fmt.Fprintln(w, "| Date | Event | Quantity | Basis | Realized | Income |")
		fmt.Fprintln(w, "|:---|:---|---:|---:|---:|---:|")
		for _, e := range journal {
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
				formatTime(e.At),
				describe(e),
				quantity(e.Quantity),
				e.Basis.SignedString(),
				e.Realized.SignedString(),
				e.Income.SignedString(),
			)
		}
		fmt.Fprintln(w)
		return true
	})
	return b.String()
}

// HoldingsMarkdown renders a summary of several holdings, with totals per basis currency.
func HoldingsMarkdown(holdings []costbasis.Holding) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Holdings\n\n")
	if len(holdings) == 0 {
		fmt.Fprint(&b, "No holding.\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| Asset | Quantity | Cost basis | Average cost | Realized | Income |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|")
	type total struct{ basis, realized, income costbasis.Money }
	totals := make(map[string]total)
	for _, h := range holdings {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			h.Asset(),
			h.Quantity(),
			h.CostBasis(),
			averageCost(h),
			h.Realized().SignedString(),
			h.Income(),
		)
		t, ok := totals[h.Currency()]
		if !ok {
			t = total{h.CostBasis(), h.Realized(), h.Income()}
		} else {
			// same currency, additions cannot fail.
			t.basis, _ = t.basis.Add(h.CostBasis())
			t.realized, _ = t.realized.Add(h.Realized())
			t.income, _ = t.income.Add(h.Income())
		}
		totals[h.Currency()] = t
	}
	fmt.Fprintln(&b)

	fmt.Fprint(&b, "## Totals\n\n")
	fmt.Fprintln(&b, "| Currency | Cost basis | Realized | Income |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	for _, cur := range slices.Sorted(maps.Keys(totals)) {
		t := totals[cur]
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cur, t.basis, t.realized.SignedString(), t.income)
	}
	return b.String()
}
