package costbasis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType identifies the kind of an event in its JSON encoding.
type EventType string

// Event types.
const (
	EvtAcquire  EventType = "acquire"
	EvtDispose  EventType = "dispose"
	EvtDividend EventType = "dividend"
	EvtReinvest EventType = "reinvest"
	EvtSplit    EventType = "split"
	EvtReturn   EventType = "return-of-capital"
	EvtReverse  EventType = "reversal"
)

// Event is an immutable fact about a holding.
//
// The set of events is closed: Acquisition, Disposal, DividendCashPayment,
// DividendReinvestment, StockSplit, ReturnOfCapital and Reversal. A
// correction is a new Reversal, never an edit.
type Event interface {
	What() EventType // What returns the kind of event.
	When() time.Time // When returns the instant the event occurred.
	Meta() Base      // Meta returns the fields common to every event.
	// Validate checks the event on its own, regardless of any holding state.
	Validate() error
	Equal(Event) bool
	isEvent()
}

// Base holds the fields shared by every event.
type Base struct {
	ID    uuid.UUID // ID identifies the event, reversals refer to it.
	Asset AssetID   // Asset is the holding the event applies to.
	At    time.Time // At is the instant of the event.
	Seq   int64     // Seq is the caller insertion order, it breaks ties between identical instants.
	Memo  string    // Memo is an optional free text note.
}

// NewBase returns a Base with a fresh random ID.
func NewBase(asset AssetID, at time.Time, seq int64) Base {
	return Base{ID: uuid.New(), Asset: asset, At: at, Seq: seq}
}

func (b Base) Meta() Base      { return b }
func (b Base) When() time.Time { return b.At }

func (b Base) validate() error {
	switch {
	case b.ID == uuid.Nil:
		return fmt.Errorf("%w: missing id", ErrInvalidEvent)
	case b.Asset == "":
		return fmt.Errorf("%w: missing asset", ErrInvalidEvent)
	case b.At.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	}
	return nil
}

func (b Base) equal(o Base) bool {
	return b.ID == o.ID && b.Asset == o.Asset && b.At.Equal(o.At) && b.Seq == o.Seq && b.Memo == o.Memo
}

// write appends the common fields, the event type first.
func (b Base) write(w *jsonWriter, what EventType) {
	w.Append("type", what)
	w.Append("id", b.ID)
	w.Append("asset", b.Asset)
	w.Append("at", b.At.UTC().Format(time.RFC3339Nano))
	w.Optional("seq", b.Seq)
	w.Optional("memo", b.Memo)
}

// baseJSON decodes the common fields.
type baseJSON struct {
	Type  EventType `json:"type"`
	ID    uuid.UUID `json:"id"`
	Asset AssetID   `json:"asset"`
	At    time.Time `json:"at"`
	Seq   int64     `json:"seq"`
	Memo  string    `json:"memo"`
}

func (b baseJSON) base() Base {
	return Base{ID: b.ID, Asset: b.Asset, At: b.At, Seq: b.Seq, Memo: b.Memo}
}

func rateEqual(a, b *ExchangeRate) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// checkRate checks that an optional rate converts from currency.
func checkRate(r *ExchangeRate, currency string) error {
	if r != nil && r.from != currency {
		return fmt.Errorf("%w: rate %s does not convert from %s", ErrCurrencyMismatch, r.Pair(), currency)
	}
	return nil
}

// Acquisition is a purchase of units.
type Acquisition struct {
	Base
	Quantity Quantity      // Quantity is the number of units bought.
	Price    Price         // Price is the price paid per unit.
	Fees     Fees          // Fees are charged on top of the price.
	Rate     *ExchangeRate // Rate converts Price into the basis currency, nil when they match.
}

// NewAcquisition creates a new Acquisition.
func NewAcquisition(b Base, quantity Quantity, price Price, fees ...Fee) Acquisition {
	return Acquisition{Base: b, Quantity: quantity, Price: price, Fees: fees}
}

func (Acquisition) isEvent()        {}
func (Acquisition) What() EventType { return EvtAcquire }

// Validate checks that quantity and price are positive.
func (t Acquisition) Validate() error {
	if err := t.Base.validate(); err != nil {
		return err
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("%w: acquired quantity must be positive, got %s", ErrInvalidQuantity, t.Quantity)
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("%w: acquisition price must be positive, got %s", ErrInvalidPrice, t.Price)
	}
	return checkRate(t.Rate, t.Price.Currency())
}

func (t Acquisition) Equal(other Event) bool {
	o, ok := other.(Acquisition)
	return ok && t.Base.equal(o.Base) && t.Quantity.Equal(o.Quantity) && t.Price.Equal(o.Price) &&
		t.Fees.Equal(o.Fees) && rateEqual(t.Rate, o.Rate)
}

func (t Acquisition) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	t.Base.write(&w, t.What())
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	w.Optional("fees", t.Fees)
	w.Optional("rate", t.Rate)
	return w.MarshalJSON()
}

func (t *Acquisition) UnmarshalJSON(data []byte) error {
	var v struct {
		baseJSON
		Quantity Quantity      `json:"quantity"`
		Price    Price         `json:"price"`
		Fees     Fees          `json:"fees"`
		Rate     *ExchangeRate `json:"rate"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = Acquisition{Base: v.base(), Quantity: v.Quantity, Price: v.Price, Fees: v.Fees, Rate: v.Rate}
	return nil
}

// Disposal is a sale of units.
type Disposal struct {
	Base
	Quantity Quantity      // Quantity is the number of units sold.
	Price    Price         // Price is the sale price per unit.
	Fees     Fees          // Fees are deducted from the proceeds.
	Rate     *ExchangeRate // Rate converts Price into the basis currency, nil when they match.
}

// NewDisposal creates a new Disposal.
func NewDisposal(b Base, quantity Quantity, price Price, fees ...Fee) Disposal {
	return Disposal{Base: b, Quantity: quantity, Price: price, Fees: fees}
}

func (Disposal) isEvent()        {}
func (Disposal) What() EventType { return EvtDispose }

// Validate checks that quantity is positive. A sale price of zero is a valid
// disposal of worthless units.
func (t Disposal) Validate() error {
	if err := t.Base.validate(); err != nil {
		return err
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("%w: disposed quantity must be positive, got %s", ErrInvalidQuantity, t.Quantity)
	}
	if t.Price.Decimal().IsNegative() {
		return fmt.Errorf("%w: sale price must not be negative, got %s", ErrInvalidPrice, t.Price)
	}
	return checkRate(t.Rate, t.Price.Currency())
}

func (t Disposal) Equal(other Event) bool {
	o, ok := other.(Disposal)
	return ok && t.Base.equal(o.Base) && t.Quantity.Equal(o.Quantity) && t.Price.Equal(o.Price) &&
		t.Fees.Equal(o.Fees) && rateEqual(t.Rate, o.Rate)
}

func (t Disposal) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	t.Base.write(&w, t.What())
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	w.Optional("fees", t.Fees)
	w.Optional("rate", t.Rate)
	return w.MarshalJSON()
}

func (t *Disposal) UnmarshalJSON(data []byte) error {
	var v struct {
		baseJSON
		Quantity Quantity      `json:"quantity"`
		Price    Price         `json:"price"`
		Fees     Fees          `json:"fees"`
		Rate     *ExchangeRate `json:"rate"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = Disposal{Base: v.base(), Quantity: v.Quantity, Price: v.Price, Fees: v.Fees, Rate: v.Rate}
	return nil
}

// DividendCashPayment is a dividend paid in cash for every unit held.
type DividendCashPayment struct {
	Base
	PerUnit Price         // PerUnit is the amount paid per unit held.
	Rate    *ExchangeRate // Rate converts PerUnit into the basis currency, nil when they match.
}

// NewDividendCashPayment creates a new DividendCashPayment.
func NewDividendCashPayment(b Base, perUnit Price) DividendCashPayment {
	return DividendCashPayment{Base: b, PerUnit: perUnit}
}

func (DividendCashPayment) isEvent()        {}
func (DividendCashPayment) What() EventType { return EvtDividend }

func (t DividendCashPayment) Validate() error {
	if err := t.Base.validate(); err != nil {
		return err
	}
	if !t.PerUnit.IsPositive() {
		return fmt.Errorf("%w: dividend per unit must be positive, got %s", ErrInvalidPrice, t.PerUnit)
	}
	return checkRate(t.Rate, t.PerUnit.Currency())
}

func (t DividendCashPayment) Equal(other Event) bool {
	o, ok := other.(DividendCashPayment)
	return ok && t.Base.equal(o.Base) && t.PerUnit.Equal(o.PerUnit) && rateEqual(t.Rate, o.Rate)
}

func (t DividendCashPayment) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	t.Base.write(&w, t.What())
	w.Append("perUnit", t.PerUnit)
	w.Optional("rate", t.Rate)
	return w.MarshalJSON()
}

func (t *DividendCashPayment) UnmarshalJSON(data []byte) error {
	var v struct {
		baseJSON
		PerUnit Price         `json:"perUnit"`
		Rate    *ExchangeRate `json:"rate"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = DividendCashPayment{Base: v.base(), PerUnit: v.PerUnit, Rate: v.Rate}
	return nil
}

// DividendReinvestment is a dividend paid in new units.
//
// It is an acquisition funded by the dividend, without fees.
type DividendReinvestment struct {
	Base
	Quantity Quantity      // Quantity is the number of units received.
	Price    Price         // Price is the reinvestment price per unit.
	Rate     *ExchangeRate // Rate converts Price into the basis currency, nil when they match.
}

// NewDividendReinvestment creates a new DividendReinvestment.
func NewDividendReinvestment(b Base, quantity Quantity, price Price) DividendReinvestment {
	return DividendReinvestment{Base: b, Quantity: quantity, Price: price}
}

func (DividendReinvestment) isEvent()        {}
func (DividendReinvestment) What() EventType { return EvtReinvest }

func (t DividendReinvestment) Validate() error {
	if err := t.Base.validate(); err != nil {
		return err
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("%w: reinvested quantity must be positive, got %s", ErrInvalidQuantity, t.Quantity)
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("%w: reinvestment price must be positive, got %s", ErrInvalidPrice, t.Price)
	}
	return checkRate(t.Rate, t.Price.Currency())
}

func (t DividendReinvestment) Equal(other Event) bool {
	o, ok := other.(DividendReinvestment)
	return ok && t.Base.equal(o.Base) && t.Quantity.Equal(o.Quantity) && t.Price.Equal(o.Price) && rateEqual(t.Rate, o.Rate)
}

func (t DividendReinvestment) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	t.Base.write(&w, t.What())
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	w.Optional("rate", t.Rate)
	return w.MarshalJSON()
}

func (t *DividendReinvestment) UnmarshalJSON(data []byte) error {
	var v struct {
		baseJSON
		Quantity Quantity      `json:"quantity"`
		Price    Price         `json:"price"`
		Rate     *ExchangeRate `json:"rate"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = DividendReinvestment{Base: v.base(), Quantity: v.Quantity, Price: v.Price, Rate: v.Rate}
	return nil
}

// StockSplit multiplies the number of units by Ratio, 2 for a 2-for-1 split,
// 0.1 for a 1-for-10 reverse split.
type StockSplit struct {
	Base
	Ratio decimal.Decimal
}

// NewStockSplit creates a new StockSplit.
func NewStockSplit(b Base, ratio decimal.Decimal) StockSplit {
	return StockSplit{Base: b, Ratio: ratio}
}

func (StockSplit) isEvent()        {}
func (StockSplit) What() EventType { return EvtSplit }

func (t StockSplit) Validate() error {
	if err := t.Base.validate(); err != nil {
		return err
	}
	if !t.Ratio.IsPositive() {
		return fmt.Errorf("%w: split ratio must be positive, got %s", ErrInvalidRatio, t.Ratio)
	}
	return nil
}

func (t StockSplit) Equal(other Event) bool {
	o, ok := other.(StockSplit)
	return ok && t.Base.equal(o.Base) && t.Ratio.Equal(o.Ratio)
}

func (t StockSplit) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	t.Base.write(&w, t.What())
	w.Append("ratio", t.Ratio)
	return w.MarshalJSON()
}

func (t *StockSplit) UnmarshalJSON(data []byte) error {
	var v struct {
		baseJSON
		Ratio decimal.Decimal `json:"ratio"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = StockSplit{Base: v.base(), Ratio: v.Ratio}
	return nil
}

// ReturnOfCapital is a distribution that reduces the cost basis.
type ReturnOfCapital struct {
	Base
	Amount Money         // Amount is the total distributed.
	Rate   *ExchangeRate // Rate converts Amount into the basis currency, nil when they match.
}

// NewReturnOfCapital creates a new ReturnOfCapital.
func NewReturnOfCapital(b Base, amount Money) ReturnOfCapital {
	return ReturnOfCapital{Base: b, Amount: amount}
}

func (ReturnOfCapital) isEvent()        {}
func (ReturnOfCapital) What() EventType { return EvtReturn }

func (t ReturnOfCapital) Validate() error {
	if err := t.Base.validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: returned capital must be positive, got %s", ErrInvalidAmount, t.Amount)
	}
	return checkRate(t.Rate, t.Amount.Currency())
}

func (t ReturnOfCapital) Equal(other Event) bool {
	o, ok := other.(ReturnOfCapital)
	return ok && t.Base.equal(o.Base) && t.Amount.Equal(o.Amount) && rateEqual(t.Rate, o.Rate)
}

func (t ReturnOfCapital) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	t.Base.write(&w, t.What())
	w.Append("amount", t.Amount)
	w.Optional("rate", t.Rate)
	return w.MarshalJSON()
}

func (t *ReturnOfCapital) UnmarshalJSON(data []byte) error {
	var v struct {
		baseJSON
		Amount Money         `json:"amount"`
		Rate   *ExchangeRate `json:"rate"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = ReturnOfCapital{Base: v.base(), Amount: v.Amount, Rate: v.Rate}
	return nil
}

// Reversal cancels the effect of a prior event of the same holding.
type Reversal struct {
	Base
	Ref uuid.UUID // Ref is the ID of the reversed event.
}

// NewReversal creates a new Reversal of the event ref.
func NewReversal(b Base, ref uuid.UUID) Reversal {
	return Reversal{Base: b, Ref: ref}
}

func (Reversal) isEvent()        {}
func (Reversal) What() EventType { return EvtReverse }

func (t Reversal) Validate() error {
	if err := t.Base.validate(); err != nil {
		return err
	}
	if t.Ref == uuid.Nil {
		return fmt.Errorf("%w: missing reference", ErrIllegalReversal)
	}
	if t.Ref == t.ID {
		return fmt.Errorf("%w: event %s reverses itself", ErrIllegalReversal, t.ID)
	}
	return nil
}

func (t Reversal) Equal(other Event) bool {
	o, ok := other.(Reversal)
	return ok && t.Base.equal(o.Base) && t.Ref == o.Ref
}

func (t Reversal) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	t.Base.write(&w, t.What())
	w.Append("ref", t.Ref)
	return w.MarshalJSON()
}

func (t *Reversal) UnmarshalJSON(data []byte) error {
	var v struct {
		baseJSON
		Ref uuid.UUID `json:"ref"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = Reversal{Base: v.base(), Ref: v.Ref}
	return nil
}
