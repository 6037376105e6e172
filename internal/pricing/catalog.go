// Package pricing implements the quote pricing engine: a static price
// catalog and a pure calculation over a user's selections.
//
// The same calculation runs in the browser-facing calculator and in the
// server-side devis handler; the persisted figure is always the one computed
// here, never the client's.
package pricing

// PricePerExtraPage is the flat rate for each page beyond a pack's included
// count. Global, not per-pack.
const PricePerExtraPage = 100

// PaymentOptions describes which payment schedules a pack supports.
type PaymentOptions struct {
	Upfront        bool
	Installments3x bool
	Installments6x bool
}

// Pack is a named bundle of base features and included page count at a fixed
// base price. Immutable; defined in the catalog and looked up by ID.
type Pack struct {
	ID             string
	Name           string
	BasePrice      int
	PagesIncluded  int
	Popular        bool
	Description    string
	DeliveryTime   string
	Features       []string
	PaymentOptions PaymentOptions
}

// Option is an optional fixed-price add-on, independent of pack choice.
type Option struct {
	ID          string
	Name        string
	Price       int
	Description string
}

// MaintenancePlan is a recurring monthly service tier, priced separately
// from the one-time build cost.
type MaintenancePlan struct {
	ID            string
	Name          string
	PricePerMonth int
	Description   string
	Features      []string
}

// Installment minimum amounts (euros): below these the schedule is not offered.
const (
	Installments3xMinAmount = 600
	Installments6xMinAmount = 1200
)

// Catalog holds the three static price tables. Loaded once at process start
// and never mutated.
type Catalog struct {
	Packs            []Pack
	Options          []Option
	MaintenancePlans []MaintenancePlan
}

// DefaultCatalog returns the agency's published price list.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Packs: []Pack{
			{
				ID:            "starter",
				Name:          "Starter",
				BasePrice:     400,
				PagesIncluded: 1,
				Description:   "Démarrer vite avec une présence propre en ligne",
				DeliveryTime:  "7–10 jours ouvrés",
				Features: []string{
					"Landing page (1 page)",
					"Design sobre et professionnel",
					"Formulaire de contact",
					"Optimisation mobile",
				},
				PaymentOptions: PaymentOptions{Upfront: true},
			},
			{
				ID:            "essentiel",
				Name:          "Essentiel",
				BasePrice:     800,
				PagesIncluded: 4,
				Popular:       true,
				Description:   "Artisans/commerçants qui veulent un site complet",
				DeliveryTime:  "2–3 semaines",
				Features: []string{
					"Jusqu'à 4 pages",
					"SEO de base",
					"Google Maps",
					"Galerie photos",
				},
				PaymentOptions: PaymentOptions{Upfront: true, Installments3x: true},
			},
			{
				ID:            "complet",
				Name:          "Complet",
				BasePrice:     1500,
				PagesIncluded: 8,
				Description:   "Activité installée qui veut un site premium complet",
				DeliveryTime:  "3–4 semaines",
				Features: []string{
					"Jusqu'à 8 pages",
					"Blog intégré",
					"SEO avancé",
					"Formulaires avancés",
				},
				PaymentOptions: PaymentOptions{Upfront: true, Installments3x: true, Installments6x: true},
			},
			{
				ID:            "ecommerce",
				Name:          "E-commerce",
				BasePrice:     2500,
				PagesIncluded: 10,
				Description:   "Boutique en ligne complète avec paiement sécurisé, gestion des produits et des commandes",
				DeliveryTime:  "4–6 semaines",
				Features: []string{
					"Boutique en ligne complète",
					"Gestion des produits",
					"Paiement en ligne sécurisé",
					"Gestion des commandes",
					"Système de panier",
				},
				PaymentOptions: PaymentOptions{Upfront: true, Installments3x: true, Installments6x: true},
			},
		},
		Options: []Option{
			{ID: "blog", Name: "Blog", Price: 300, Description: "Blog avec système de gestion de contenus et pagination"},
			{ID: "gallery", Name: "Galerie photo avancée", Price: 200, Description: "Galerie photos illimitée avec lightbox et catégories"},
			{ID: "seo", Name: "SEO avancé", Price: 300, Description: "Optimisation SEO complète + Google Business + balises avancées"},
			{ID: "booking", Name: "Système de réservation", Price: 500, Description: "Calendrier de réservation en ligne avec gestion des créneaux"},
			{ID: "ecommerce-addon", Name: "Module E-commerce", Price: 800, Description: "Ajout boutique en ligne à un pack existant (max 30 produits)"},
		},
		MaintenancePlans: []MaintenancePlan{
			{
				ID:            "basic",
				Name:          "Maintenance",
				PricePerMonth: 29,
				Description:   "Sans engagement",
				Features:      []string{"Mises à jour", "Petites modifs", "Sauvegardes", "Support"},
			},
			{
				ID:            "premium",
				Name:          "Maintenance premium",
				PricePerMonth: 59,
				Description:   "Sans engagement",
				Features: []string{
					"Tout de la maintenance basique",
					"Sauvegardes quotidiennes",
					"Support prioritaire",
					"2h de modifications/mois incluses",
					"Monitoring 24/7",
				},
			},
		},
	}
}

// Pack looks up a pack by ID.
func (c *Catalog) Pack(id string) (Pack, bool) {
	for _, p := range c.Packs {
		if p.ID == id {
			return p, true
		}
	}
	return Pack{}, false
}

// Option looks up an add-on by ID.
func (c *Catalog) Option(id string) (Option, bool) {
	for _, o := range c.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// MaintenancePlan looks up a maintenance plan by ID.
func (c *Catalog) MaintenancePlan(id string) (MaintenancePlan, bool) {
	for _, p := range c.MaintenancePlans {
		if p.ID == id {
			return p, true
		}
	}
	return MaintenancePlan{}, false
}
