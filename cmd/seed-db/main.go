// Command seed-db loads development fixtures: a few coupons, a demo
// customer with a stocked cart, and a prefunded wallet.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-core/internal/domain/cart"
	"github.com/xenking/checkout-core/internal/repository"
)

const demoCustomerID = "demo-customer"

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if err := seedCart(ctx, pool); err != nil {
		return errors.Wrap(err, "seed cart")
	}

	if err := seedWallet(ctx, pool); err != nil {
		return errors.Wrap(err, "seed wallet")
	}

	return nil
}

type couponSeed struct {
	code         string
	discountType string
	value        decimal.Decimal
	minPurchase  decimal.Decimal
	maxUses      int32
	expiresAt    *time.Time
}

const upsertCouponSQL = `INSERT INTO coupons (code, discount_type, value, min_purchase, max_uses, expires_at, active)
	VALUES ($1, $2, $3, $4, $5, $6, TRUE)
	ON CONFLICT (code) DO UPDATE SET
		discount_type = EXCLUDED.discount_type,
		value = EXCLUDED.value,
		min_purchase = EXCLUDED.min_purchase,
		max_uses = EXCLUDED.max_uses,
		expires_at = EXCLUDED.expires_at,
		active = TRUE`

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding coupons")

	nextYear := time.Now().AddDate(1, 0, 0)
	lastYear := time.Now().AddDate(-1, 0, 0)

	coupons := []couponSeed{
		{code: "TENOFF", discountType: "percentage", value: decimal.NewFromInt(10)},
		{code: "HAPPYHOURS", discountType: "percentage", value: decimal.NewFromInt(18), expiresAt: &nextYear},
		{code: "SAVE50", discountType: "fixed", value: decimal.NewFromInt(50), minPurchase: decimal.NewFromInt(500)},
		{code: "FIRSTONE", discountType: "percentage", value: decimal.NewFromInt(25), maxUses: 100},
		// Intentionally expired, for exercising the rejection path.
		{code: "OLDTIMES", discountType: "percentage", value: decimal.NewFromInt(30), expiresAt: &lastYear},
	}

	for _, c := range coupons {
		if _, err := pool.Exec(ctx, upsertCouponSQL,
			c.code, c.discountType, c.value, c.minPurchase, c.maxUses, c.expiresAt,
		); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}

		slog.Info("upserted coupon", slog.String("code", c.code))
	}

	return nil
}

const upsertCartSQL = `INSERT INTO carts (customer_id, items, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (customer_id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()`

func seedCart(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo cart", slog.String("customer_id", demoCustomerID))

	items := []cart.Item{
		{
			ProductID: "prod-linen-shirt",
			VariantID: "var-navy-m",
			Name:      "Linen Shirt",
			UnitPrice: decimal.NewFromInt(400),
			Quantity:  2,
		},
		{
			ProductID: "prod-wool-scarf",
			Name:      "Wool Scarf",
			UnitPrice: decimal.NewFromInt(200),
			Quantity:  1,
		},
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "marshal cart items")
	}

	if _, err := pool.Exec(ctx, upsertCartSQL, demoCustomerID, itemsJSON); err != nil {
		return errors.Wrap(err, "upsert cart")
	}

	return nil
}

const upsertWalletSQL = `INSERT INTO wallets (customer_id, balance, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (customer_id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = now()`

func seedWallet(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo wallet", slog.String("customer_id", demoCustomerID))

	if _, err := pool.Exec(ctx, upsertWalletSQL, demoCustomerID, decimal.NewFromInt(150)); err != nil {
		return errors.Wrap(err, "upsert wallet")
	}

	return nil
}
