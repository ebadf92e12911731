package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/commerce-hub/internal/domain/product"
)

func writeFeed(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.jsonl.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func line(id, price string) string {
	return `{"id":"` + id + `","name":"` + id + `","price":"` + price + `","category":"Pantry"}`
}

func ids(products []product.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestReconcile(t *testing.T) {
	a := writeFeed(t, line("rice", "2.00"), line("oil", "9.99"), "", line("salt", "0.80"))
	b := writeFeed(t, line("oil", "8.50"), line("tea", "3.20"))
	c := writeFeed(t, line("flour", "1.10"), line("salt", "0.75"), line("flour", "1.05"))

	res, err := reconcile(context.Background(), zap.NewNop(), []string{a, b, c})
	require.NoError(t, err)
	assert.Equal(t, []string{"oil", "salt"}, res.Conflicts)
	assert.Equal(t, []string{"rice", "tea", "flour"}, ids(res.Products))
	assert.Equal(t, "1.05", res.Products[2].Price.StringFixed(2), "later line in a feed wins")
}

func TestReconcile_BadLine(t *testing.T) {
	a := writeFeed(t, line("rice", "2.00"), `{"id":`)
	_, err := reconcile(context.Background(), zap.NewNop(), []string{a})
	require.Error(t, err)
}

func TestReconcile_MissingFile(t *testing.T) {
	_, err := reconcile(context.Background(), zap.NewNop(), []string{filepath.Join(t.TempDir(), "nope.gz")})
	require.Error(t, err)
}

type recordingUpserter struct {
	batches [][]product.Product
	failAt  int
}

func (r *recordingUpserter) Upsert(_ context.Context, products []product.Product) error {
	if r.failAt > 0 && len(r.batches)+1 == r.failAt {
		return errors.New("db down")
	}
	r.batches = append(r.batches, products)
	return nil
}

func TestWrite_Batches(t *testing.T) {
	products := make([]product.Product, batchSize*2+1)
	dst := &recordingUpserter{}
	require.NoError(t, write(context.Background(), dst, products))
	require.Len(t, dst.batches, 3)
	assert.Len(t, dst.batches[2], 1)

	dst = &recordingUpserter{failAt: 2}
	require.ErrorContains(t, write(context.Background(), dst, products), "db down")
}
