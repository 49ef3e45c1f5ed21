package database

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	customersdomain "crmdash/internal/customers/domain"
	forecastsdomain "crmdash/internal/forecasts/domain"
	issuesdomain "crmdash/internal/issues/domain"
	ordersdomain "crmdash/internal/orders/domain"
)

// SeedOptions paramètres de génération. Même Seed et même Now: même jeu de données.
type SeedOptions struct {
	Months    int
	Customers int
	Seed      int64
	Now       time.Time
}

// Table lignes générées pour une table, dans l'ordre des colonnes
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

var (
	companyPrefixes = []string{"Hanil", "Daesung", "Nova", "Blue Ocean", "Sejong", "Orion", "Kumho", "Atlas", "Mirae", "Pacific"}
	companySuffixes = []string{"Tech", "Industries", "Logistics", "Foods", "Systems", "Trading", "Pharma", "Motors"}
	companyTypes    = []string{"B2B", "B2C", "B2G"}
	companySizes    = []string{"대기업", "중견기업", "중소기업"}
	industries      = []string{"Manufacturing", "Retail", "Healthcare", "Finance", "Logistics"}
	countries       = []struct{ country, region string }{
		{"한국", "Seoul"}, {"Korea", "Busan"}, {"중국", "Shanghai"}, {"Japan", "Tokyo"}, {"Vietnam", "Hanoi"},
		{"Germany", "Berlin"}, {"France", "Paris"}, {"UK", "London"}, {"USA", "California"}, {"Canada", "Ontario"},
		{"Brazil", "São Paulo"}, {"Australia", "Sydney"},
	}
	firstNames     = []string{"Minji", "Jun", "Seoyeon", "Hyun", "Jiho", "Sora", "Daniel", "Emma", "Lucas", "Mia"}
	lastNames      = []string{"Kim", "Lee", "Park", "Choi", "Jung", "Kang", "Smith", "Martin"}
	positions      = []string{"Manager", "Director", "Buyer", "Engineer", "CFO"}
	departments    = []string{"Purchasing", "Operations", "Finance", "R&D"}
	products       = []string{"P-100", "P-110", "P-200", "P-210", "P-300", "P-400"}
	payments       = []string{"Paid", "Pending", "Overdue"}
	deliveries     = []string{"Delivered", "Shipped", "Preparing"}
	models         = []string{"prophet", "arima", "xgboost"}
	issueTypes     = []string{"Delay", "Damage", "Billing", "Quality", "Other"}
	severities     = []string{"Low", "Medium", "High"}
	issueStatuses  = []string{"Open", "In Progress", "Resolved", "Resolved"}
)

type generator struct {
	rnd *rand.Rand
}

func (g *generator) pick(values []string) string {
	return values[g.rnd.Intn(len(values))]
}

// maybe retourne nil avec la probabilité p (valeur NULL)
func (g *generator) maybe(p float64, v any) any {
	if g.rnd.Float64() < p {
		return nil
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Generate construit un jeu de données déterministe:
// clients, contacts, commandes sur Months mois jusqu'à Now, prévisions sur les 6 mois suivants, incidents.
// Quelques références orphelines et valeurs NULL sont volontairement générées.
func Generate(opts SeedOptions) []Table {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	now := day(opts.Now.UTC())
	g := &generator{rnd: rand.New(rand.NewSource(opts.Seed))}

	customers := Table{Name: customersdomain.CustomerTable, Columns: customersdomain.CustomerColumns}
	for id := 1; id <= opts.Customers; id++ {
		place := countries[g.rnd.Intn(len(countries))]
		customers.Rows = append(customers.Rows, []any{
			int64(id),
			fmt.Sprintf("%s %s", g.pick(companyPrefixes), g.pick(companySuffixes)),
			fmt.Sprintf("%s %s", g.pick(lastNames), g.pick(firstNames)),
			g.maybe(0.05, g.pick(companyTypes)),
			g.maybe(0.05, g.pick(industries)),
			place.region,
			g.maybe(0.03, place.country),
			g.maybe(0.05, g.pick(companySizes)),
			now.AddDate(0, 0, -g.rnd.Intn(730)),
		})
	}

	contacts := Table{Name: customersdomain.ContactTable, Columns: customersdomain.ContactColumns}
	var contactIDs []int64
	for c := 1; c <= opts.Customers; c++ {
		for n := 1 + g.rnd.Intn(3); n > 0; n-- {
			id := int64(len(contactIDs) + 1)
			contactIDs = append(contactIDs, id)
			first, last := g.pick(firstNames), g.pick(lastNames)
			contacts.Rows = append(contacts.Rows, []any{
				id,
				g.maybe(0.03, int64(c)),
				fmt.Sprintf("%s %s", last, first),
				fmt.Sprintf("%s.%s%d@example.com", first, last, id),
				g.pick(positions),
				g.pick(departments),
				fmt.Sprintf("010-%04d-%04d", g.rnd.Intn(10000), g.rnd.Intn(10000)),
				g.maybe(0.05, now.AddDate(0, 0, -g.rnd.Intn(120))),
			})
		}
	}

	orders := Table{Name: ordersdomain.Table, Columns: ordersdomain.Columns}
	start := now.AddDate(0, -opts.Months, 0)
	for d := start; !d.After(now) && len(contactIDs) > 0; d = d.AddDate(0, 0, 1) {
		for n := g.rnd.Intn(7); n > 0; n-- {
			quantity := float64(1 + g.rnd.Intn(50))
			price := float64(10 + g.rnd.Intn(490))
			unitCost := round2(price * (0.5 + g.rnd.Float64()*0.35))
			amount := quantity * price
			costTotal := round2(unitCost * quantity)
			contactID := contactIDs[g.rnd.Intn(len(contactIDs))]
			if g.rnd.Float64() < 0.01 {
				contactID = int64(len(contactIDs)) + 1000
			}
			orders.Rows = append(orders.Rows, []any{
				int64(len(orders.Rows) + 1),
				g.maybe(0.02, contactID),
				g.pick(products),
				d,
				quantity,
				g.maybe(0.01, amount),
				unitCost,
				costTotal,
				math.Round((amount-costTotal)/amount*10000) / 10000,
				round2(amount - costTotal),
				g.pick(payments),
				g.pick(deliveries),
			})
		}
	}

	forecasts := Table{Name: forecastsdomain.Table, Columns: forecastsdomain.Columns}
	generated := now.Add(2 * time.Hour)
	for c := 1; c <= opts.Customers; c++ {
		if g.rnd.Float64() < 0.4 {
			continue
		}
		for n := 1 + g.rnd.Intn(3); n > 0; n-- {
			forecasts.Rows = append(forecasts.Rows, []any{
				int64(len(forecasts.Rows) + 1),
				int64(c),
				now.AddDate(0, 1+g.rnd.Intn(6), -now.Day()+1+g.rnd.Intn(28)),
				round2(5 + g.rnd.Float64()*200),
				g.maybe(0.1, round2(0.05+g.rnd.Float64()*0.35)),
				g.pick(models),
				g.maybe(0.2, round2(0.5+g.rnd.Float64()*0.5)),
				generated,
			})
		}
	}

	issues := Table{Name: issuesdomain.Table, Columns: issuesdomain.Columns}
	for _, o := range orders.Rows {
		if g.rnd.Float64() >= 0.05 {
			continue
		}
		orderDate := o[3].(time.Time)
		issueDate := orderDate.AddDate(0, 0, 1+g.rnd.Intn(14))
		if issueDate.After(now) {
			issueDate = now
		}
		status := g.maybe(0.1, g.pick(issueStatuses))
		var resolved any
		if status == "Resolved" {
			resolved = issueDate.AddDate(0, 0, 1+g.rnd.Intn(10))
		}
		issues.Rows = append(issues.Rows, []any{
			int64(len(issues.Rows) + 1),
			o[0],
			issueDate,
			g.maybe(0.05, g.pick(issueTypes)),
			g.pick(severities),
			fmt.Sprintf("Issue reported on order %d", o[0]),
			resolved,
			status,
		})
	}

	return []Table{customers, contacts, orders, forecasts, issues}
}

// Seed remplace le contenu des tables par un jeu généré, via COPY, dans une transaction
func Seed(ctx context.Context, db *sqlx.DB, opts SeedOptions) (map[string]int, error) {
	tables := Generate(opts)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE "+pq.QuoteIdentifier(tables[i].Name)); err != nil {
			return nil, fmt.Errorf("truncate %s: %w", tables[i].Name, err)
		}
	}

	counts := make(map[string]int, len(tables))
	for _, t := range tables {
		if err := copyRows(ctx, tx, t); err != nil {
			return nil, err
		}
		counts[t.Name] = len(t.Rows)
		logrus.WithField("table", t.Name).Infof("%d rows inserted", len(t.Rows))
	}

	// COF_ID est un BIGSERIAL: la séquence repart après le dernier id inséré
	if _, err := tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('"customer_order_forecast"', 'COF_ID'), GREATEST((SELECT MAX("COF_ID") FROM "customer_order_forecast"), 1))`); err != nil {
		return nil, fmt.Errorf("reset forecast sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit seed: %w", err)
	}
	return counts, nil
}

func copyRows(ctx context.Context, tx *sqlx.Tx, t Table) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(t.Name, t.Columns...))
	if err != nil {
		return fmt.Errorf("copy %s: %w", t.Name, err)
	}
	for _, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			stmt.Close()
			return fmt.Errorf("copy %s: %w", t.Name, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("copy %s: %w", t.Name, err)
	}
	return stmt.Close()
}
