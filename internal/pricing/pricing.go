package pricing

// QuoteOptions is one calculator session's selection: a pack, a requested
// page count, a set of add-ons, and a maintenance plan (or "none").
type QuoteOptions struct {
	PackID      string   `json:"packId"`
	Pages       int      `json:"pages"`
	OptionIDs   []string `json:"optionIds"`
	Maintenance string   `json:"maintenance"`
}

// QuoteCalculation is the derived price breakdown. MaintenancePrice is a
// recurring monthly charge and is never folded into TotalPrice.
//
// Invariant: TotalPrice == BasePrice + ExtraPagesPrice + OptionsPrice.
type QuoteCalculation struct {
	BasePrice        int `json:"basePrice"`
	ExtraPagesPrice  int `json:"extraPagesPrice"`
	OptionsPrice     int `json:"optionsPrice"`
	TotalPrice       int `json:"totalPrice"`
	MaintenancePrice int `json:"maintenancePrice"`
}

// Calculate derives the price breakdown for a selection. Pure, no side
// effects, deterministic.
//
// The function is called on every calculator update, including transient
// states, so it degrades instead of erroring:
//   - unknown pack ID yields an all-zero calculation
//   - unknown option IDs are skipped (an option may have been retired from
//     the catalog after the session started)
//   - fewer pages than the pack includes never discounts the base price
func (c *Catalog) Calculate(opts QuoteOptions) QuoteCalculation {
	pack, ok := c.Pack(opts.PackID)
	if !ok {
		return QuoteCalculation{}
	}

	extraPages := opts.Pages - pack.PagesIncluded
	if extraPages < 0 {
		extraPages = 0
	}
	extraPagesPrice := extraPages * PricePerExtraPage

	optionsPrice := 0
	for _, id := range opts.OptionIDs {
		if opt, ok := c.Option(id); ok {
			optionsPrice += opt.Price
		}
	}

	maintenancePrice := 0
	if plan, ok := c.MaintenancePlan(opts.Maintenance); ok {
		maintenancePrice = plan.PricePerMonth
	}

	return QuoteCalculation{
		BasePrice:        pack.BasePrice,
		ExtraPagesPrice:  extraPagesPrice,
		OptionsPrice:     optionsPrice,
		TotalPrice:       pack.BasePrice + extraPagesPrice + optionsPrice,
		MaintenancePrice: maintenancePrice,
	}
}

// DepositAmount returns the upfront payment for a deposit checkout: half the
// total, rounded up to a whole euro.
func DepositAmount(total int) int {
	return (total + 1) / 2
}

// InstallmentsAllowed reports whether the given schedule ("full", "3x", "6x")
// is available for a pack at the given total.
func InstallmentsAllowed(pack Pack, schedule string, total int) bool {
	switch schedule {
	case "full":
		return pack.PaymentOptions.Upfront
	case "3x":
		return pack.PaymentOptions.Installments3x && total >= Installments3xMinAmount
	case "6x":
		return pack.PaymentOptions.Installments6x && total >= Installments6xMinAmount
	default:
		return false
	}
}
