// Package catalog caches the upstream product list in memory for barcode
// resolution and autocomplete. The snapshot is refreshed on demand (after a
// successful checkout, since stock changed server-side) and on a schedule.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"posagent/internal/metrics"
	"posagent/internal/model"
)

// Fetcher pulls the product list from the store backend.
type Fetcher interface {
	FetchProducts(ctx context.Context) ([]model.Product, error)
}

type Service struct {
	fetcher Fetcher

	mu          sync.RWMutex
	products    []model.Product
	byID        map[int64]int
	byBarcode   map[string]int
	refreshedAt time.Time
}

func NewService(fetcher Fetcher) *Service {
	return &Service{fetcher: fetcher}
}

// Refresh replaces the snapshot with a fresh upstream fetch.
func (s *Service) Refresh(ctx context.Context) error {
	products, err := s.fetcher.FetchProducts(ctx)
	if err != nil {
		return err
	}

	byID := make(map[int64]int, len(products))
	byBarcode := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
		// bar codes are a lookup index, not an identity key; on collision
		// the first active product wins and the rest stay reachable by id
		if p.BarCode != "" && !p.Deleted {
			if _, exists := byBarcode[p.BarCode]; !exists {
				byBarcode[p.BarCode] = i
			}
		}
	}

	s.mu.Lock()
	s.products = products
	s.byID = byID
	s.byBarcode = byBarcode
	s.refreshedAt = time.Now()
	s.mu.Unlock()

	metrics.CatalogRefreshesTotal.Inc()
	log.Debug().Int("products", len(products)).Msg("catalog refreshed")
	return nil
}

// ByBarcode resolves an exact bar code match against active products.
func (s *Service) ByBarcode(code string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byBarcode[code]
	if !ok {
		return model.Product{}, false
	}
	return s.products[i], true
}

// ByID resolves a product by its identity key.
func (s *Service) ByID(id int64) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok || s.products[i].Deleted {
		return model.Product{}, false
	}
	return s.products[i], true
}

// Search returns up to limit active products whose name or bar code matches
// query, prefix matches ranked before substring matches. Matching is
// case-insensitive; an empty query matches nothing.
func (s *Service) Search(query string, limit int) []model.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type ranked struct {
		p    model.Product
		rank int
	}
	var matches []ranked
	for _, p := range s.products {
		if p.Deleted {
			continue
		}
		name := strings.ToLower(p.Name)
		code := strings.ToLower(p.BarCode)
		switch {
		case strings.HasPrefix(name, query) || strings.HasPrefix(code, query):
			matches = append(matches, ranked{p, 0})
		case strings.Contains(name, query) || strings.Contains(code, query):
			matches = append(matches, ranked{p, 1})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].rank < matches[j].rank })

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]model.Product, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.p)
	}
	return out
}

// RefreshedAt reports when the snapshot was last replaced.
func (s *Service) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// Size reports the snapshot size, soft-deleted products included.
func (s *Service) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}
