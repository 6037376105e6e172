package billing

import (
	"fmt"
	"strings"

	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/pricing"
)

// BuildCheckout derives the checkout parameters for a pack selection.
//
// The amount is always recomputed from the catalog; the caller's figures
// are never trusted. A deposit collects half the total up front, rounded
// up to a whole euro.
func BuildCheckout(catalog *pricing.Catalog, selection pricing.QuoteOptions, paymentType domain.PaymentType, schedule string) (CheckoutParams, error) {
	pack, ok := catalog.Pack(selection.PackID)
	if !ok {
		return CheckoutParams{}, domain.Invalid("billing.build_checkout", "Formule inconnue")
	}

	calc := catalog.Calculate(selection)

	if schedule != "" && !pricing.InstallmentsAllowed(pack, schedule, calc.TotalPrice) {
		return CheckoutParams{}, domain.Invalid("billing.build_checkout", "Paiement en plusieurs fois non disponible pour cette formule")
	}

	due := calc.TotalPrice
	if paymentType == domain.PaymentTypeDeposit {
		due = pricing.DepositAmount(calc.TotalPrice)
	}

	return CheckoutParams{
		PackID:      pack.ID,
		PackName:    pack.Name,
		Pages:       selection.Pages,
		OptionIDs:   selection.OptionIDs,
		Maintenance: selection.Maintenance,
		PaymentType: paymentType,
		TotalAmount: calc.TotalPrice,
		DueAmount:   due,
	}, nil
}

// lineItemName is the product title shown on the Stripe checkout page.
func lineItemName(p CheckoutParams) string {
	if p.PaymentType == domain.PaymentTypeDeposit {
		return fmt.Sprintf("Acompte - Pack %s", p.PackName)
	}
	return fmt.Sprintf("Pack %s", p.PackName)
}

// lineItemDescription summarizes the selection under the product title.
func lineItemDescription(p CheckoutParams) string {
	parts := []string{fmt.Sprintf("Site web %d pages", p.Pages)}
	if len(p.OptionIDs) > 0 {
		parts = append(parts, "options : "+strings.Join(p.OptionIDs, ", "))
	}
	if p.PaymentType == domain.PaymentTypeDeposit {
		parts = append(parts, fmt.Sprintf("acompte de 50%% sur %d €", p.TotalAmount))
	}
	return strings.Join(parts, " · ")
}
