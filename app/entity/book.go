package entity

import "github.com/shopspring/decimal"

// Book is the read-only view of a catalogue item that payments need.
type Book struct {
	ID     uint64
	Title  string
	Price  decimal.Decimal
	IsPaid bool
}

func (b *Book) RequiresPurchase() bool {
	return b.IsPaid && b.Price.IsPositive()
}
