package auction

import "github.com/shopspring/decimal"

// Default commission terms for the Swiss market: 5% of the sale amount,
// capped at 500 CHF, with 7.7% VAT charged on the commission itself.
const (
	DefaultCommissionRate = 0.05
	DefaultCommissionCap  = 50_000 // rappen
	DefaultVATRate        = 0.077
)

// CommissionTerms parameterize the settlement calculation. Zero values fall
// back to the defaults above so stored overrides stay optional.
type CommissionTerms struct {
	Rate    float64
	Cap     int64 // rappen
	VATRate float64
}

// CommissionBreakdown reports the platform's take on a sale. All amounts
// are in rappen. VAT is a platform-side tax on the commission; it is not
// deducted from the seller a second time.
type CommissionBreakdown struct {
	SaleAmount      int64 `json:"sale_amount"`
	Commission      int64 `json:"commission"`
	VAT             int64 `json:"vat"`
	GrossCommission int64 `json:"gross_commission"`
	NetToSeller     int64 `json:"net_to_seller"`
	IsCapped        bool  `json:"is_capped"`
}

// CalculateCommission is deterministic for identical input, which both the
// pre-sale estimate and the final settlement rely on for reconciliation.
// IsCapped distinguishes cap-limited from rate-limited results.
func CalculateCommission(saleAmount int64, terms CommissionTerms) CommissionBreakdown {
	if terms.Rate == 0 {
		terms.Rate = DefaultCommissionRate
	}
	if terms.Cap == 0 {
		terms.Cap = DefaultCommissionCap
	}
	if terms.VATRate == 0 {
		terms.VATRate = DefaultVATRate
	}

	sale := decimal.NewFromInt(saleAmount)
	rated := sale.Mul(decimal.NewFromFloat(terms.Rate)).Round(0)
	cap := decimal.NewFromInt(terms.Cap)

	commission := rated
	capped := false
	if rated.GreaterThanOrEqual(cap) {
		commission = cap
		capped = true
	}

	vat := commission.Mul(decimal.NewFromFloat(terms.VATRate)).Round(0)

	return CommissionBreakdown{
		SaleAmount:      saleAmount,
		Commission:      commission.IntPart(),
		VAT:             vat.IntPart(),
		GrossCommission: commission.Add(vat).IntPart(),
		NetToSeller:     sale.Sub(commission).IntPart(),
		IsCapped:        capped,
	}
}
