// Command catalog-ingest merges gzip JSON-lines product feeds into the
// Postgres catalog. SKUs that more than one feed claims are skipped.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/commerce-hub/internal/domain/product"
	"github.com/xenking/commerce-hub/internal/storage/postgres"
)

const batchSize = 500

type upserter interface {
	Upsert(ctx context.Context, products []product.Product) error
}

func main() {
	var (
		databaseURL string
		dryRun      bool
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&dryRun, "dry-run", false, "reconcile feeds without writing")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	feeds := flag.Args()
	if len(feeds) == 0 || (databaseURL == "" && !dryRun) {
		lg.Fatal("Usage: catalog-ingest [-database-url URL] [-dry-run] feed.jsonl.gz...")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, dryRun, feeds); err != nil {
		lg.Fatal("Catalog ingest failed", zap.Error(err))
	}
	lg.Info("Catalog ingest completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL string, dryRun bool, feeds []string) error {
	res, err := reconcile(ctx, lg, feeds)
	if err != nil {
		return err
	}
	for _, id := range res.Conflicts {
		lg.Warn("SKU listed by several feeds, skipped", zap.String("sku", id))
	}
	lg.Info("Feeds reconciled",
		zap.Int("products", len(res.Products)),
		zap.Int("conflicts", len(res.Conflicts)),
	)
	if dryRun || len(res.Products) == 0 {
		return nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return write(ctx, postgres.NewCatalogRepository(pool), res.Products)
}

func write(ctx context.Context, dst upserter, products []product.Product) error {
	for start := 0; start < len(products); start += batchSize {
		end := min(start+batchSize, len(products))
		if err := dst.Upsert(ctx, products[start:end]); err != nil {
			return errors.Wrapf(err, "upsert batch at %d", start)
		}
	}
	return nil
}
