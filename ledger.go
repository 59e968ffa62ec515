package costbasis

import "fmt"

// ApplyEvent returns the holding after event e, using the average cost method.
//
// It either applies e completely or fails and returns an *EventError,
// leaving h untouched.
func ApplyEvent(h Holding, e Event) (Holding, error) {
	next, err := apply(h, e)
	if err != nil {
		return h, &EventError{Event: e, Err: err}
	}
	return next, nil
}

func apply(h Holding, e Event) (Holding, error) {
	if e == nil {
		return h, fmt.Errorf("%w: nil event", ErrUnknownEvent)
	}
	if err := e.Validate(); err != nil {
		return h, err
	}
	m := e.Meta()
	if m.Asset != h.asset {
		return h, fmt.Errorf("%w: holding is %s", ErrAssetMismatch, h.asset)
	}
	if m.At.Before(h.last) {
		return h, fmt.Errorf("%w: last event on %s", ErrOutOfOrderEvent, h.last.Format(timeFormat))
	}
	if h.indexOf(m.ID) >= 0 {
		return h, fmt.Errorf("%w: event %s already applied", ErrInvalidEvent, m.ID)
	}

	var (
		eff Effect
		err error
	)
	switch v := e.(type) {
	case Acquisition:
		eff, err = h.acquire(v.Quantity, v.Price, v.Rate, v.Fees)
	case DividendReinvestment:
		eff, err = h.acquire(v.Quantity, v.Price, v.Rate, nil)
	case Disposal:
		eff, err = h.dispose(v)
	case DividendCashPayment:
		eff, err = h.dividend(v)
	case StockSplit:
		eff, err = h.split(v)
	case ReturnOfCapital:
		eff, err = h.returnCapital(v)
	case Reversal:
		return h.reverse(v)
	default:
		return h, fmt.Errorf("%w: %T", ErrUnknownEvent, e)
	}
	if err != nil {
		return h, err
	}
	eff.Event, eff.Type, eff.At = m.ID, e.What(), m.At
	return h.with(eff)
}

// with returns h updated by eff, and eff appended to a copy of its journal.
func (h Holding) with(eff Effect) (Holding, error) {
	zero := Money{cur: h.basis.cur}
	for _, m := range []*Money{&eff.Basis, &eff.Realized, &eff.Income} {
		if m.cur == "" {
			*m = zero
		}
	}
	var err error
	next := h
	next.quantity = h.quantity.Add(eff.Quantity)
	if next.basis, err = h.basis.Add(eff.Basis); err != nil {
		return h, err
	}
	if next.realized, err = h.realized.Add(eff.Realized); err != nil {
		return h, err
	}
	if next.income, err = h.income.Add(eff.Income); err != nil {
		return h, err
	}
	if next.quantity.IsNegative() {
		return h, fmt.Errorf("%w: %s units held, %s removed", ErrInsufficientQuantity, h.quantity, eff.Quantity.Neg())
	}
	if next.basis.IsNegative() {
		return h, fmt.Errorf("%w: cost basis would become %s", ErrInvalidAmount, next.basis)
	}
	next.last = eff.At
	next.journal = append(h.journal[:len(h.journal):len(h.journal)], eff)
	return next, nil
}

// toBasis converts a per unit price into the basis currency.
func (h Holding) toBasis(p Price, r *ExchangeRate) (Price, error) {
	if p.cur == h.basis.cur {
		return p, nil
	}
	if r == nil || r.to != h.basis.cur {
		return Price{}, fmt.Errorf("%w: price in %s, basis in %s", ErrMissingExchangeRate, p.cur, h.basis.cur)
	}
	return r.convertPrice(p)
}

func (h Holding) acquire(q Quantity, p Price, r *ExchangeRate, fees Fees) (Effect, error) {
	price, err := h.toBasis(p, r)
	if err != nil {
		return Effect{}, err
	}
	charged, err := fees.Total(h.basis.cur)
	if err != nil {
		return Effect{}, err
	}
	basis, err := price.Total(q).Add(charged)
	if err != nil {
		return Effect{}, err
	}
	return Effect{Quantity: q, Basis: basis}, nil
}

func (h Holding) dispose(v Disposal) (Effect, error) {
	if v.Quantity.GreaterThan(h.quantity) {
		return Effect{}, fmt.Errorf("%w: selling %s, holding %s", ErrInsufficientQuantity, v.Quantity, h.quantity)
	}
	price, err := h.toBasis(v.Price, v.Rate)
	if err != nil {
		return Effect{}, err
	}
	charged, err := v.Fees.Total(h.basis.cur)
	if err != nil {
		return Effect{}, err
	}
	// the cost of the units sold is the basis share they represent, selling
	// everything releases the whole basis.
	sold := Money{value: divRoundBank(h.basis.value.Mul(v.Quantity.value), h.quantity.value, fraction(h.basis.cur)), cur: h.basis.cur}
	proceeds := price.Total(v.Quantity)
	gain, err := proceeds.Sub(sold)
	if err != nil {
		return Effect{}, err
	}
	if gain, err = gain.Sub(charged); err != nil {
		return Effect{}, err
	}
	return Effect{Quantity: v.Quantity.Neg(), Basis: sold.Neg(), Realized: gain}, nil
}

func (h Holding) dividend(v DividendCashPayment) (Effect, error) {
	if err := h.noPosition(); err != nil {
		return Effect{}, err
	}
	perUnit, err := h.toBasis(v.PerUnit, v.Rate)
	if err != nil {
		return Effect{}, err
	}
	return Effect{Income: perUnit.Total(h.quantity)}, nil
}

func (h Holding) split(v StockSplit) (Effect, error) {
	added := h.quantity.Mul(Quantity{value: v.Ratio}).Sub(h.quantity)
	return Effect{Quantity: added}, nil
}

func (h Holding) returnCapital(v ReturnOfCapital) (Effect, error) {
	amount := v.Amount
	if amount.cur != h.basis.cur {
		if v.Rate == nil || v.Rate.to != h.basis.cur {
			return Effect{}, fmt.Errorf("%w: capital returned in %s, basis in %s", ErrMissingExchangeRate, amount.cur, h.basis.cur)
		}
		var err error
		if amount, err = v.Rate.ConvertForward(amount); err != nil {
			return Effect{}, err
		}
	}
	reduction := amount
	if c, _ := amount.Cmp(h.basis); c > 0 {
		reduction = h.basis
	}
	excess, err := amount.Sub(reduction)
	if err != nil {
		return Effect{}, err
	}
	return Effect{Basis: reduction.Neg(), Realized: excess}, nil
}

// dependsOnState reports whether an effect was computed from the quantity or
// the basis held at the time.
func dependsOnState(t EventType) bool {
	switch t {
	case EvtDispose, EvtSplit, EvtDividend, EvtReturn:
		return true
	}
	return false
}

// reverse applies the exact inverse of the referenced effect.
//
// A reversal is illegal when a later, still effective, event was computed
// from the state the referenced event produced: undoing it would leave that
// later effect inconsistent.
func (h Holding) reverse(v Reversal) (Holding, error) {
	i := h.indexOf(v.Ref)
	if i < 0 {
		return h, fmt.Errorf("%w: unknown event %s", ErrIllegalReversal, v.Ref)
	}
	ref := h.journal[i]
	switch {
	case ref.Type == EvtReverse:
		return h, fmt.Errorf("%w: event %s is a reversal", ErrIllegalReversal, v.Ref)
	case ref.Reversed:
		return h, fmt.Errorf("%w: event %s is already reversed", ErrIllegalReversal, v.Ref)
	}
	if !ref.Quantity.IsZero() || !ref.Basis.IsZero() {
		for _, later := range h.journal[i+1:] {
			if !later.Reversed && dependsOnState(later.Type) {
				return h, fmt.Errorf("%w: %s on %s depends on event %s", ErrIllegalReversal, later.Type, later.At.Format(timeFormat), v.Ref)
			}
		}
	}

	next, err := h.with(Effect{
		Event:    v.ID,
		Type:     EvtReverse,
		At:       v.At,
		Quantity: ref.Quantity.Neg(),
		Basis:    ref.Basis.Neg(),
		Realized: ref.Realized.Neg(),
		Income:   ref.Income.Neg(),
		Ref:      v.Ref,
	})
	if err != nil {
		return h, fmt.Errorf("%w: %w", ErrIllegalReversal, err)
	}
	next.journal[i].Reversed = true
	return next, nil
}
