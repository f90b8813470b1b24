package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
	"github.com/oskarm-dev/backend-parts/internal/obs"
	"github.com/oskarm-dev/backend-parts/internal/offer"
	"github.com/oskarm-dev/backend-parts/internal/shipping"
)

// ErrPartNotFound is returned by PartSource implementations for unknown ids.
var ErrPartNotFound = errors.New("part not found")

// NoOfferError aborts a quote when a part has no priceable supplier offer.
// Quotes are all-or-nothing: one unpriceable line fails the whole cart.
type NoOfferError struct {
	PartID int64
}

func (e *NoOfferError) Error() string {
	return fmt.Sprintf("no offer available for part %d", e.PartID)
}

// PartSource loads catalog parts by id.
type PartSource interface {
	GetPart(ctx context.Context, id int64) (catalog.Part, error)
}

// OfferPicker selects the best supplier offer for a part. A nil candidate
// with a nil error means the part currently has no priceable offer.
type OfferPicker interface {
	Best(ctx context.Context, part catalog.Part) (*offer.Candidate, error)
}

// PriceResolver turns a selected offer into a selling price.
type PriceResolver interface {
	Resolve(ctx context.Context, part catalog.Part, cand *offer.Candidate) (decimal.Decimal, error)
}

// ShippingEstimator prices delivery for the selected offers.
type ShippingEstimator interface {
	EstimateCart(ctx context.Context, lines []shipping.Line, destinationCountry string) (shipping.Estimate, error)
}

// CartItem is one requested position in a cart quote.
type CartItem struct {
	PartID   int64 `json:"part_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0,lte=999"`
}

// CartRequest asks for a full cart quotation.
type CartRequest struct {
	Items              []CartItem `json:"items" validate:"required,min=1,max=100,dive"`
	DestinationCountry string     `json:"destination_country" validate:"required"`
}

// QuotedLine is one priced cart position in a response.
type QuotedLine struct {
	PartID          int64  `json:"part_id"`
	PartNumber      string `json:"part_number"`
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	SupplierID      int64  `json:"supplier_id"`
	WarehouseRegion string `json:"warehouse_region"`
	Availability    string `json:"availability"`
	LeadTimeDays    int    `json:"lead_time_days"`
	UnitPrice       string `json:"unit_price"`
	LineTotal       string `json:"line_total"`
}

// ShippingQuote is the delivery portion of a cart quote.
type ShippingQuote struct {
	Zone             string          `json:"zone"`
	Cost             string          `json:"cost"`
	DeliveryWindow   shipping.Window `json:"delivery_window"`
	DeliveryEstimate string          `json:"delivery_estimate"`
}

// CartQuote is the aggregate quotation for a cart. Shipping cost and the
// delivery estimate are surfaced as flat fields next to the totals; the
// shipping object carries the zone and window detail.
type CartQuote struct {
	QuoteID               string        `json:"quote_id"`
	Currency              string        `json:"currency"`
	Items                 []QuotedLine  `json:"items"`
	Subtotal              string        `json:"subtotal"`
	ShippingCost          string        `json:"shipping_cost"`
	Total                 string        `json:"total"`
	EstimatedDeliveryDays string        `json:"estimated_delivery_days"`
	Shipping              ShippingQuote `json:"shipping"`
	GeneratedAt           time.Time     `json:"generated_at"`
}

// PartQuote is the single-part quotation for the detail endpoint.
type PartQuote struct {
	PartID           int64           `json:"part_id"`
	PartNumber       string          `json:"part_number"`
	Name             string          `json:"name"`
	SupplierID       int64           `json:"supplier_id"`
	WarehouseRegion  string          `json:"warehouse_region"`
	Availability     string          `json:"availability"`
	LeadTimeDays     int             `json:"lead_time_days"`
	UnitPrice        string          `json:"unit_price"`
	Currency         string          `json:"currency"`
	DeliveryWindow   shipping.Window `json:"delivery_window"`
	DeliveryEstimate string          `json:"delivery_estimate"`
}

// Service aggregates catalog lookup, offer selection, pricing and shipping
// into customer-facing quotes.
type Service struct {
	Parts         PartSource
	Offers        OfferPicker
	Pricing       PriceResolver
	Shipping      ShippingEstimator
	Cache         *Cache
	BaseCurrency  string
	LookupTimeout time.Duration
	Logger        zerolog.Logger
	Now           func() time.Time
}

type lineResult struct {
	part      catalog.Part
	cand      *offer.Candidate
	unitPrice decimal.Decimal
	lineTotal decimal.Decimal
}

// QuoteCart prices a whole cart. Lines are resolved concurrently; response
// order always matches request order. Results are served from cache when an
// identical request was quoted within the cache TTL.
func (s *Service) QuoteCart(ctx context.Context, req CartRequest) (CartQuote, error) {
	if s == nil || s.Parts == nil || s.Offers == nil || s.Pricing == nil || s.Shipping == nil {
		return CartQuote{}, errors.New("quote service not configured")
	}
	started := time.Now()

	key := s.Cache.CartKey(req)
	var cached CartQuote
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err != nil {
		s.Logger.Warn().Err(err).Msg("quote cache read failed")
	} else if ok {
		s.observe("cache_hit", started)
		return cached, nil
	}

	if s.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.LookupTimeout)
		defer cancel()
	}

	results := make([]lineResult, len(req.Items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range req.Items {
		g.Go(func() error {
			res, err := s.quoteLine(gctx, item)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.observe(resultLabel(err), started)
		return CartQuote{}, err
	}

	shipLines := make([]shipping.Line, 0, len(results))
	subtotal := decimal.Zero
	for i, res := range results {
		shipLines = append(shipLines, shipping.Line{
			Part: res.part,
			Cand: res.cand,
			Qty:  req.Items[i].Quantity,
		})
		subtotal = subtotal.Add(res.lineTotal)
	}

	est, err := s.Shipping.EstimateCart(ctx, shipLines, req.DestinationCountry)
	if err != nil {
		s.observe(resultLabel(err), started)
		return CartQuote{}, err
	}

	q := CartQuote{
		QuoteID:               uuid.NewString(),
		Currency:              s.BaseCurrency,
		Items:                 make([]QuotedLine, 0, len(results)),
		Subtotal:              subtotal.StringFixed(2),
		ShippingCost:          est.Cost.StringFixed(2),
		Total:                 subtotal.Add(est.Cost).StringFixed(2),
		EstimatedDeliveryDays: est.Window.String(),
		GeneratedAt:           s.now().UTC(),
		Shipping: ShippingQuote{
			Zone:             est.Zone,
			Cost:             est.Cost.StringFixed(2),
			DeliveryWindow:   est.Window,
			DeliveryEstimate: est.Window.String(),
		},
	}
	for i, res := range results {
		q.Items = append(q.Items, QuotedLine{
			PartID:          res.part.ID,
			PartNumber:      res.part.PartNumber,
			Name:            res.part.Name,
			Quantity:        req.Items[i].Quantity,
			SupplierID:      res.cand.Offer.SupplierID,
			WarehouseRegion: res.cand.Warehouse.Region,
			Availability:    string(res.cand.Availability),
			LeadTimeDays:    res.cand.LeadTimeDays,
			UnitPrice:       res.unitPrice.StringFixed(2),
			LineTotal:       res.lineTotal.StringFixed(2),
		})
	}

	if err := s.Cache.SetJSON(ctx, key, q); err != nil {
		s.Logger.Warn().Err(err).Msg("quote cache write failed")
	}
	s.observe("ok", started)
	return q, nil
}

// QuotePart prices a single part for the detail endpoint. The delivery
// window is the offer's lead window without destination transit, since no
// destination is known yet.
func (s *Service) QuotePart(ctx context.Context, partID int64) (PartQuote, error) {
	if s == nil || s.Parts == nil || s.Offers == nil || s.Pricing == nil {
		return PartQuote{}, errors.New("quote service not configured")
	}
	if s.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.LookupTimeout)
		defer cancel()
	}
	res, err := s.quoteLine(ctx, CartItem{PartID: partID, Quantity: 1})
	if err != nil {
		return PartQuote{}, err
	}
	window := shipping.LeadWindow(res.cand.LeadTimeDays)
	return PartQuote{
		PartID:           res.part.ID,
		PartNumber:       res.part.PartNumber,
		Name:             res.part.Name,
		SupplierID:       res.cand.Offer.SupplierID,
		WarehouseRegion:  res.cand.Warehouse.Region,
		Availability:     string(res.cand.Availability),
		LeadTimeDays:     res.cand.LeadTimeDays,
		UnitPrice:        res.unitPrice.StringFixed(2),
		Currency:         s.BaseCurrency,
		DeliveryWindow:   window,
		DeliveryEstimate: window.String(),
	}, nil
}

func (s *Service) quoteLine(ctx context.Context, item CartItem) (lineResult, error) {
	part, err := s.Parts.GetPart(ctx, item.PartID)
	if err != nil {
		if errors.Is(err, ErrPartNotFound) {
			return lineResult{}, fmt.Errorf("part %d: %w", item.PartID, ErrPartNotFound)
		}
		return lineResult{}, fmt.Errorf("load part %d: %w", item.PartID, err)
	}
	cand, err := s.Offers.Best(ctx, part)
	if err != nil {
		return lineResult{}, fmt.Errorf("select offer for part %d: %w", item.PartID, err)
	}
	if cand == nil {
		return lineResult{}, &NoOfferError{PartID: item.PartID}
	}
	price, err := s.Pricing.Resolve(ctx, part, cand)
	if err != nil {
		return lineResult{}, fmt.Errorf("price part %d: %w", item.PartID, err)
	}
	return lineResult{
		part:      part,
		cand:      cand,
		unitPrice: price,
		lineTotal: price.Mul(decimal.NewFromInt(int64(item.Quantity))),
	}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) observe(result string, started time.Time) {
	if obs.QuotesTotal != nil {
		obs.QuotesTotal.WithLabelValues(result).Inc()
	}
	if obs.QuoteDuration != nil {
		obs.QuoteDuration.Observe(obs.DurationMillis(time.Since(started)))
	}
}

func resultLabel(err error) string {
	var noOffer *NoOfferError
	switch {
	case errors.As(err, &noOffer):
		return "no_offer"
	case errors.Is(err, ErrPartNotFound):
		return "part_not_found"
	case errors.Is(err, shipping.ErrZoneNotFound):
		return "zone_not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// normalizeCountry canonicalises a destination for cache keying.
func normalizeCountry(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}
