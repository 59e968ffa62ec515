// Package fx reads exchange rate observations from JSON dumps of rate providers.
//
// Providers disagree on the shape of their documents. A Schema locates, with
// jsonpath expressions, the three things needed in each document: the base
// currency, the observation time and an object mapping quote currencies to
// rates. For instance, with the default schema:
//
//	{"base":"EUR","date":"2025-03-03","rates":{"USD":1.0489,"CAD":1.5123}}
//
// yields the EURUSD and EURCAD rates observed on 2025-03-03.
package fx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/costbasis"
	"github.com/shopspring/decimal"
)

// Schema locates rate observations in a JSON document.
type Schema struct {
	Base   string `yaml:"base"`   // path to the base currency
	AsOf   string `yaml:"asOf"`   // path to the observation time
	Quotes string `yaml:"quotes"` // path to the quote currency -> rate object
	Layout string `yaml:"layout"` // time layout of AsOf, ignored for unix timestamps
}

// DefaultSchema matches the common {"base","date","rates"} documents.
var DefaultSchema = Schema{
	Base:   "$.base",
	AsOf:   "$.date",
	Quotes: "$.rates",
	Layout: time.DateOnly,
}

func (s Schema) withDefaults() Schema {
	if s.Base == "" {
		s.Base = DefaultSchema.Base
	}
	if s.AsOf == "" {
		s.AsOf = DefaultSchema.AsOf
	}
	if s.Quotes == "" {
		s.Quotes = DefaultSchema.Quotes
	}
	if s.Layout == "" {
		s.Layout = DefaultSchema.Layout
	}
	return s
}

// Decode reads a stream of JSON documents and returns the rates they contain.
//
// A document that is an array is read as a list of documents. Quotes in a
// currency unknown to the currency table, or in the base currency itself, are
// skipped.
func Decode(r io.Reader, schema Schema) ([]costbasis.ExchangeRate, error) {
	schema = schema.withDefaults()
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var rates []costbasis.ExchangeRate
	for n := 1; ; n++ {
		var doc any
		err := dec.Decode(&doc)
		if err == io.EOF {
			return rates, nil
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", n, err)
		}
		docs := []any{doc}
		if list, ok := doc.([]any); ok {
			docs = list
		}
		for _, d := range docs {
			rs, err := schema.observations(d)
			if err != nil {
				return nil, fmt.Errorf("document %d: %w", n, err)
			}
			rates = append(rates, rs...)
		}
	}
}

// observations extracts the rates of a single document.
func (s Schema) observations(doc any) ([]costbasis.ExchangeRate, error) {
	jbase, err := get(s.Base, doc)
	if err != nil {
		return nil, err
	}
	base, ok := jbase.(string)
	if !ok {
		return nil, fmt.Errorf("base currency at %q is not a string: %v", s.Base, jbase)
	}
	base = strings.ToUpper(base)
	if err := costbasis.ValidateCurrency(base); err != nil {
		return nil, err
	}

	jasOf, err := get(s.AsOf, doc)
	if err != nil {
		return nil, err
	}
	asOf, err := s.instant(jasOf)
	if err != nil {
		return nil, err
	}

	jquotes, err := get(s.Quotes, doc)
	if err != nil {
		return nil, err
	}
	quotes, ok := jquotes.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("quotes at %q are not an object", s.Quotes)
	}

	rates := make([]costbasis.ExchangeRate, 0, len(quotes))
	for _, quote := range slices.Sorted(maps.Keys(quotes)) {
		to := strings.ToUpper(quote)
		if to == base || costbasis.ValidateCurrency(to) != nil {
			continue
		}
		value, err := number(quotes[quote])
		if err != nil {
			return nil, fmt.Errorf("rate %s%s: %w", base, to, err)
		}
		r, err := costbasis.NewExchangeRate(base, to, value, asOf)
		if err != nil {
			return nil, err
		}
		rates = append(rates, r)
	}
	return rates, nil
}

// get evaluates path in doc.
func get(path string, doc any) (any, error) {
	jval, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("cannot evaluate %q: %w", path, err)
	}
	// a path may answer a list of one value, or the value itself.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return nil, fmt.Errorf("nothing found at %q", path)
		}
		jval = jlist[0]
	}
	return jval, nil
}

// instant reads an observation time, either a string in the schema layout or a unix timestamp.
func (s Schema) instant(jval any) (time.Time, error) {
	switch v := jval.(type) {
	case string:
		t, err := time.Parse(s.Layout, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid observation time: %w", err)
		}
		return t.UTC(), nil
	case json.Number:
		sec, err := v.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid unix timestamp %s: %w", v, err)
		}
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid observation time: %v", jval)
}

var errNotANumber = errors.New("not a number")

// number reads a rate, providers send them as numbers or strings.
func number(jval any) (decimal.Decimal, error) {
	switch v := jval.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	}
	return decimal.Decimal{}, fmt.Errorf("%w: %v", errNotANumber, jval)
}

// Load decodes rates from r into book and returns how many were read.
func Load(book *costbasis.RateBook, r io.Reader, schema Schema) (int, error) {
	rates, err := Decode(r, schema)
	if err != nil {
		return 0, err
	}
	for _, rate := range rates {
		book.Add(rate)
	}
	return len(rates), nil
}

// LoadFile is like Load for the content of a file.
func LoadFile(book *costbasis.RateBook, name string, schema Schema) (int, error) {
	f, err := os.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := Load(book, f, schema)
	if err != nil {
		return 0, fmt.Errorf("cannot load rates from %q: %w", name, err)
	}
	return n, nil
}
