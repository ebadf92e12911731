package main

import (
	"bufio"
	"context"
	"math/bits"
	"os"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/commerce-hub/internal/domain/product"
	"github.com/xenking/commerce-hub/internal/storage/memory"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	maxLineSize   = 1 << 20
)

// merged is the outcome of reconciling several feeds.
type merged struct {
	Products  []product.Product
	Conflicts []string
}

// streamFeed calls fn for every product line in a gzip JSON-lines feed.
// Blank lines are skipped; a malformed line fails the whole feed.
func streamFeed(ctx context.Context, path string, fn func(p product.Product)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip %s", path)
	}
	defer func() { _ = gz.Close() }()

	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		p, err := memory.ParseProduct([]byte(text))
		if err != nil {
			return errors.Wrapf(err, "%s:%d", path, line)
		}
		fn(p)
	}
	if err := sc.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// buildFilters indexes the SKUs of every feed, one goroutine per feed.
func buildFilters(ctx context.Context, lg *zap.Logger, feeds []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(feeds))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range feeds {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			n := 0
			if err := streamFeed(ctx, path, func(p product.Product) {
				filter.AddString(p.ID)
				n++
			}); err != nil {
				return err
			}
			lg.Info("Feed indexed", zap.String("feed", path), zap.Int("products", n))
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

type feedScan struct {
	products []product.Product
	// suspects maps SKUs that may also appear in another feed to this
	// feed's bit.
	suspects map[string]uint
}

// reconcile drops every SKU listed by more than one feed. Bloom hits only
// nominate suspects; a conflict is confirmed by exact comparison.
func reconcile(ctx context.Context, lg *zap.Logger, feeds []string) (*merged, error) {
	if len(feeds) > bits.UintSize {
		return nil, errors.Errorf("at most %d feeds are supported", bits.UintSize)
	}
	filters, err := buildFilters(ctx, lg, feeds)
	if err != nil {
		return nil, errors.Wrap(err, "index feeds")
	}

	scans := make([]feedScan, len(feeds))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range feeds {
		g.Go(func() error {
			bit := uint(1) << uint(i)
			scan := feedScan{suspects: make(map[string]uint)}
			err := streamFeed(gctx, path, func(p product.Product) {
				scan.products = append(scan.products, p)
				for j, f := range filters {
					if j != i && f.TestString(p.ID) {
						scan.suspects[p.ID] = bit
						return
					}
				}
			})
			scans[i] = scan
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "scan feeds")
	}

	seen := make(map[string]uint)
	for _, s := range scans {
		for id, bit := range s.suspects {
			seen[id] |= bit
		}
	}
	conflicts := make(map[string]struct{})
	for id, mask := range seen {
		if bits.OnesCount(mask) >= 2 {
			conflicts[id] = struct{}{}
		}
	}

	out := &merged{}
	latest := make(map[string]int)
	for _, s := range scans {
		for _, p := range s.products {
			if _, bad := conflicts[p.ID]; bad {
				continue
			}
			if i, ok := latest[p.ID]; ok {
				out.Products[i] = p
				continue
			}
			latest[p.ID] = len(out.Products)
			out.Products = append(out.Products, p)
		}
	}
	for id := range conflicts {
		out.Conflicts = append(out.Conflicts, id)
	}
	slices.Sort(out.Conflicts)
	return out, nil
}
