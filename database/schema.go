package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema reprend le schéma du BaaS: colonnes en majuscules, donc entre guillemets.
// Pas de clés étrangères: les références orphelines existent dans les données sources.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS "customers" (
		"CUSTOMER_ID"   BIGINT PRIMARY KEY,
		"COMPANY_NAME"  TEXT,
		"NAME"          TEXT,
		"COMPANY_TYPE"  TEXT,
		"INDUSTRY_TYPE" TEXT,
		"REGION"        TEXT,
		"COUNTRY"       TEXT,
		"COMPANY_SIZE"  TEXT,
		"REG_DATE"      DATE
	)`,
	`CREATE TABLE IF NOT EXISTS "contacts" (
		"CONTACT_ID"   BIGINT PRIMARY KEY,
		"CUSTOMER_ID"  BIGINT,
		"NAME"         TEXT,
		"EMAIL"        TEXT,
		"POSITION"     TEXT,
		"DEPARTMENT"   TEXT,
		"PHONE"        TEXT,
		"CONTACT_DATE" DATE
	)`,
	`CREATE TABLE IF NOT EXISTS "orders" (
		"ORDER_ID"        BIGINT PRIMARY KEY,
		"CONTACT_ID"      BIGINT,
		"PRODUCT_ID"      TEXT,
		"ORDER_DATE"      DATE,
		"QUANTITY"        DOUBLE PRECISION,
		"AMOUNT"          DOUBLE PRECISION,
		"COST"            DOUBLE PRECISION,
		"COSTT"           DOUBLE PRECISION,
		"MARGIN_RATE"     DOUBLE PRECISION,
		"REVENUE"         DOUBLE PRECISION,
		"PAYMENT_STATUS"  TEXT,
		"DELIVERY_STATUS" TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS "customer_order_forecast" (
		"COF_ID"                       BIGSERIAL PRIMARY KEY,
		"CUSTOMER_ID"                  BIGINT,
		"PREDICTED_DATE"               DATE,
		"PREDICTED_QUANTITY"           DOUBLE PRECISION,
		"MAPE"                         DOUBLE PRECISION,
		"PREDICTION_MODEL"             TEXT,
		"PROBABILITY"                  DOUBLE PRECISION,
		"FORECAST_GENERATION_DATETIME" TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS "issues" (
		"ISSUE_ID"      BIGINT PRIMARY KEY,
		"ORDER_ID"      BIGINT,
		"ISSUE_DATE"    DATE,
		"ISSUE_TYPE"    TEXT,
		"SEVERITY"      TEXT,
		"DESCRIPTION"   TEXT,
		"RESOLVED_DATE" DATE,
		"STATUS"        TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS "orders_order_date_idx" ON "orders" ("ORDER_DATE")`,
	`CREATE INDEX IF NOT EXISTS "orders_contact_id_idx" ON "orders" ("CONTACT_ID")`,
	`CREATE INDEX IF NOT EXISTS "contacts_customer_id_idx" ON "contacts" ("CUSTOMER_ID")`,
	`CREATE INDEX IF NOT EXISTS "forecast_predicted_date_idx" ON "customer_order_forecast" ("PREDICTED_DATE")`,
	`CREATE INDEX IF NOT EXISTS "issues_issue_date_idx" ON "issues" ("ISSUE_DATE")`,
}

// Migrate crée les tables et index s'ils n'existent pas, dans une transaction
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return tx.Commit()
}
