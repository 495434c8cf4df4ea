package model

// Category vocabulary used by the statement categorizer and manual entry.
// Free-form categories are accepted on transactions; these are the ones the
// ingestion pipeline assigns.
const (
	CategoryAbbonamenti     = "Abbonamenti"      // subscriptions
	CategorySpesa           = "Spesa"            // groceries
	CategoryRistorazione    = "Ristorazione"     // dining
	CategoryCarburante      = "Carburante"       // fuel
	CategoryTrasporti       = "Trasporti"        // transport
	CategoryUtenze          = "Utenze"           // utilities
	CategoryShopping        = "Shopping"         // shopping
	CategoryPagamentiOnline = "Pagamenti Online" // online payments
	CategoryPrelievi        = "Prelievi"         // cash withdrawals
	CategoryAltro           = "Altro"            // generic expense bucket

	CategoryStipendio = "Stipendio" // salary
	CategoryBonifico  = "Bonifico"  // incoming transfer
	CategoryAccredito = "Accredito" // generic credit
	CategoryEntrata   = "Entrata"   // generic income bucket
)
