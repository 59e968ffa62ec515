package costbasis

import "fmt"

// CostBasisMethod defines the method for calculating cost basis.
type CostBasisMethod int

const (
	// AverageCost blends every unit held into a single cost per unit, updated
	// on each acquisition.
	AverageCost CostBasisMethod = iota
	// FIFO matches disposals against the oldest lots first. Lot tracking is
	// not implemented, the ledger only accepts AverageCost.
	FIFO
)

func (m CostBasisMethod) String() string {
	switch m {
	case AverageCost:
		return "average"
	case FIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// ParseCostBasisMethod parses a string into a supported CostBasisMethod.
func ParseCostBasisMethod(s string) (CostBasisMethod, error) {
	switch s {
	case "average", "":
		return AverageCost, nil
	case "fifo":
		return 0, fmt.Errorf("cost basis method %q is not supported, only \"average\" is", s)
	default:
		return 0, fmt.Errorf("unknown cost basis method: %q", s)
	}
}
