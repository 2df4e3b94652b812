package services

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	SurchargeRate = decimal.NewFromFloat(0.10)
	MinServiceFee = decimal.NewFromInt(50)
)

// ServiceFee is the surcharge for hosting at a custom location: 10% of the
// ticket price rounded to whole units, at least 50. Campus events pay
// nothing.
func ServiceFee(price decimal.Decimal, isCustom bool) decimal.Decimal {
	if !isCustom {
		return decimal.Zero
	}
	if price.IsNegative() {
		price = decimal.Zero
	}
	return decimal.Max(MinServiceFee, price.Mul(SurchargeRate).Round(0))
}

type FeeQuote struct {
	Price  decimal.Decimal
	Fee    decimal.Decimal
	Custom bool
}

// QuoteFee treats free events as priced at zero.
func QuoteFee(price decimal.Decimal, isFree, isCustom bool) FeeQuote {
	if isFree || price.IsNegative() {
		price = decimal.Zero
	}
	return FeeQuote{Price: price, Fee: ServiceFee(price, isCustom), Custom: isCustom}
}

func (q FeeQuote) Total() decimal.Decimal {
	return q.Price.Add(q.Fee)
}

// Note is the line shown under the price field. It is empty for campus
// events; the total only appears for paid events.
func (q FeeQuote) Note(currency string) string {
	if !q.Custom {
		return ""
	}
	note := fmt.Sprintf("Custom location surcharge: %s %s", currency, q.Fee.String())
	if q.Price.IsPositive() {
		note += fmt.Sprintf(" — total %s %s", currency, q.Total().String())
	}
	return note
}
