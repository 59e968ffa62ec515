// Package costbasis tracks the cost basis of investment holdings with
// accounting grade precision.
//
// The package is made of:
//   - exact decimal value types: Money rounded half-to-even at its currency
//     scale, Price, Quantity, Percent, directional ExchangeRate and Fee.
//   - a closed family of Events (acquisitions, disposals, dividends, splits,
//     returns of capital and reversals) with a stable JSONL encoding.
//   - the ledger: ApplyEvent moves a Holding from one state to the next using
//     the average cost method, and Replay orders and applies a whole stream.
//   - valuation helpers converting a holding into a reporting currency with
//     rates supplied by a RateResolver.
//
// The package never logs, never performs I/O and never retries: every
// failure is returned as an error wrapping one of the Err* sentinels.
//
// This package serves as the foundational logic for the `cbs` command-line
// tool.
package costbasis
