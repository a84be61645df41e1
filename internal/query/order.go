package query

import (
	"fmt"
	"strings"
)

// Order is one ORDER BY entry.
type Order struct {
	Column string
	Desc   bool
}

// Asc orders by column ascending.
func Asc(column string) Order { return Order{Column: column} }

// Desc orders by column descending.
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// ParseOrder parses "column", "column ASC" or "column DESC".
func ParseOrder(s string) (Order, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		return Order{Column: fields[0]}, nil
	case 2:
		switch strings.ToUpper(fields[1]) {
		case "ASC":
			return Order{Column: fields[0]}, nil
		case "DESC":
			return Order{Column: fields[0], Desc: true}, nil
		}
	}
	return Order{}, fmt.Errorf("invalid order %q", s)
}

func (o Order) sql() string {
	if o.Desc {
		return QuoteIdent(o.Column) + " DESC"
	}
	return QuoteIdent(o.Column) + " ASC"
}
