package statement

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/saldo-app/saldo/internal/model"
)

// keywordRule maps a keyword set to a category. Rules are evaluated in
// order; the first match wins, so more specific merchant sets come first.
type keywordRule struct {
	category string
	keywords []string
}

var expenseRules = []keywordRule{
	{model.CategoryAbbonamenti, []string{
		"netflix", "spotify", "prime video", "amazon prime", "disney", "dazn",
		"youtube", "apple.com/bill", "playstation", "xbox", "nintendo",
	}},
	{model.CategorySpesa, []string{
		"esselunga", "coop", "conad", "carrefour", "lidl", "eurospin", "pam",
		"supermercato", "supermarket", "ipercoop",
	}},
	{model.CategoryRistorazione, []string{
		"ristorante", "pizzeria", "trattoria", "osteria", "mcdonald",
		"burger", "sushi", "deliveroo", "glovo", "just eat", "justeat",
	}},
	{model.CategoryCarburante, []string{
		"eni ", "agip", "q8", "esso", "shell", "tamoil", "benzina",
		"carburante", "distributore",
	}},
	{model.CategoryTrasporti, []string{
		"trenitalia", "italo", "trenord", "atm ", "autostrade", "telepass",
		"uber", "taxi", "flixbus", "ryanair", "easyjet",
	}},
	{model.CategoryUtenze, []string{
		"enel", "a2a", "iren", "hera ", "tim ", "vodafone", "fastweb",
		"windtre", "wind tre", "bolletta", "luce e gas",
	}},
	{model.CategoryShopping, []string{
		"amazon", "zalando", "ikea", "mediaworld", "unieuro", "decathlon",
		"zara", "h&m", "leroy merlin",
	}},
	{model.CategoryPagamentiOnline, []string{
		"paypal", "satispay", "klarna", "stripe",
	}},
	{model.CategoryPrelievi, []string{
		"prelievo", "bancomat", "atm prelievo", "withdrawal",
	}},
}

// Categorize assigns a category to a statement row. It is a pure function:
// identical inputs always yield the identical category, regardless of
// invocation order or prior calls.
//
// Positive amounts are classified from the type label's transfer/salary/
// credit vocabulary, defaulting to the generic income bucket. Non-positive
// amounts walk the ordered keyword table over payee+description, then fall
// back to type-label guesses, then to the generic expense bucket.
func Categorize(amount decimal.Decimal, typeLabel, payee, description string) string {
	label := strings.ToLower(typeLabel)

	if amount.IsPositive() {
		switch {
		case containsAny(label, "stipendio", "salary", "emolumenti"):
			return model.CategoryStipendio
		case containsAny(label, "bonifico", "giroconto", "transfer"):
			return model.CategoryBonifico
		case containsAny(label, "accredito", "credit", "rimborso"):
			return model.CategoryAccredito
		default:
			return model.CategoryEntrata
		}
	}

	text := strings.ToLower(payee + " " + description)
	for _, rule := range expenseRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category
			}
		}
	}

	switch {
	case containsAny(label, "prelievo", "withdrawal"):
		return model.CategoryPrelievi
	case containsAny(label, "addebito diretto", "sdd", "domiciliazione"):
		return model.CategoryUtenze
	case containsAny(label, "pos", "carta"):
		return model.CategoryShopping
	default:
		return model.CategoryAltro
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
