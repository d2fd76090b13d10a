package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pantrytrack/models"
	"pantrytrack/utils"

	"golang.org/x/sync/errgroup"
)

const (
	bulkLookupLimit       = 50
	bulkLookupConcurrency = 4
	recognizeMaxLabels    = 3
)

// ProductSource looks products up in a public nutrition database.
type ProductSource interface {
	LookupBarcode(ctx context.Context, code string) *OFFProduct
	SearchProducts(ctx context.Context, query string, page int) []OFFProduct
}

type FoodService struct {
	off    ProductSource
	labels LabelDetector
}

func NewFoodService(off ProductSource, labels LabelDetector) *FoodService {
	return &FoodService{off: off, labels: labels}
}

type RecognizeResult struct {
	Labels []string          `json:"labels"`
	Label  string            `json:"matched_label,omitempty"`
	Items  []models.FoodItem `json:"items"`
}

type BulkResult struct {
	Code  string           `json:"code"`
	Found bool             `json:"found"`
	Item  *models.FoodItem `json:"item,omitempty"`
}

// Barcode drafts a pantry item from a barcode.
func (s *FoodService) Barcode(ctx context.Context, code string) (models.FoodItem, error) {
	p := s.off.LookupBarcode(ctx, code)
	if p == nil {
		return models.FoodItem{}, fmt.Errorf("product %w", ErrNotFound)
	}
	return p.ToFoodItem(), nil
}

func (s *FoodService) Search(ctx context.Context, query string, page int) []models.FoodItem {
	return productsToItems(s.off.SearchProducts(ctx, query, page))
}

// Recognize detects labels in a photo and searches products for the first
// labels until one yields results.
func (s *FoodService) Recognize(ctx context.Context, dataURI string) (RecognizeResult, error) {
	if s.labels == nil {
		return RecognizeResult{}, fmt.Errorf("image recognition: %w", ErrUnavailable)
	}
	_, _, img, err := utils.DecodeDataURI(dataURI)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidImage) {
			return RecognizeResult{}, invalid("%v", err)
		}
		return RecognizeResult{}, err
	}
	labels, err := s.labels.DetectLabels(ctx, img)
	if err != nil {
		return RecognizeResult{}, fmt.Errorf("detect labels: %w", err)
	}
	if len(labels) == 0 {
		return RecognizeResult{}, fmt.Errorf("no food detected: %w", ErrNotFound)
	}

	res := RecognizeResult{Labels: labels, Items: []models.FoodItem{}}
	for i, l := range labels {
		if i == recognizeMaxLabels {
			break
		}
		items := s.Search(ctx, l, 1)
		if len(items) > 0 {
			res.Label = l
			res.Items = items
			break
		}
	}
	return res, nil
}

// BulkLookup resolves many barcodes concurrently, keeping input order.
func (s *FoodService) BulkLookup(ctx context.Context, codes []string) ([]BulkResult, error) {
	if len(codes) > bulkLookupLimit {
		return nil, invalid("at most %d barcodes per request", bulkLookupLimit)
	}
	results := make([]BulkResult, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkLookupConcurrency)
	for i, code := range codes {
		code = strings.TrimSpace(code)
		results[i].Code = code
		g.Go(func() error {
			if p := s.off.LookupBarcode(gctx, code); p != nil {
				fi := p.ToFoodItem()
				results[i].Found = true
				results[i].Item = &fi
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func productsToItems(ps []OFFProduct) []models.FoodItem {
	out := make([]models.FoodItem, 0, len(ps))
	for _, p := range ps {
		fi := p.ToFoodItem()
		if fi.Name == "" {
			continue
		}
		out = append(out, fi)
	}
	return out
}
