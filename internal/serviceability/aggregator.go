// Package serviceability determines which couriers can service an order's
// shipment legs and selects the best courier per leg.
package serviceability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trovecart/shipping/internal/telemetry"
	"github.com/trovecart/shipping/pkg/carrier"
	"github.com/trovecart/shipping/pkg/carrier/shiprocket"
)

const defaultConcurrency = 4

// Item is one unit of serviceability work: a seller's shipment leg
// correlated back to the originating cart line.
type Item struct {
	SellerID         string  `json:"sellerProfileId"`
	PickupPostcode   string  `json:"pickupPostcode"`
	Weight           float64 `json:"weight"`
	CartItemID       string  `json:"cartItemId,omitempty"`
	ProductVariantID string  `json:"productVariantId,omitempty"`
}

// Quote is the selected courier for one item, with the state-match flags
// downstream tax logic needs.
type Quote struct {
	Courier       carrier.CourierOption `json:"courier"`
	OriginState   string                `json:"origin_state"`
	DeliveryState string                `json:"delivery_state"`
	SameState     bool                  `json:"same_state"`
}

// ItemResult is one slot of the batch output. Either Data or Error is set.
type ItemResult struct {
	SellerID         string `json:"sellerProfileId"`
	Success          bool   `json:"success"`
	Data             *Quote `json:"data,omitempty"`
	Error            string `json:"error,omitempty"`
	CartItemID       string `json:"cartItemId,omitempty"`
	ProductVariantID string `json:"productVariantId,omitempty"`
}

// PostcodeResolver supplies a seller's default pickup postcode. Implemented
// by the pickup-location registry.
type PostcodeResolver interface {
	DefaultPostcode(ctx context.Context, sellerID string) (string, error)
}

// Aggregator fans serviceability checks out to the carrier, one per item,
// and selects the best courier for each.
type Aggregator struct {
	api           shiprocket.APIClient
	postcodes     PostcodeResolver
	adminSellerID string
	concurrency   int
	logger        *otelzap.Logger
	tracer        trace.Tracer
	metrics       *telemetry.Metrics
}

// Config holds aggregator configuration.
type Config struct {
	// AdminSellerID identifies the platform's own seller profile, whose
	// default pickup location anchors centrally-managed shipping charges.
	AdminSellerID string

	// Concurrency bounds the carrier fan-out to respect rate limits.
	Concurrency int
}

// New creates an aggregator.
func New(cfg Config, api shiprocket.APIClient, postcodes PostcodeResolver, logger *otelzap.Logger, tracer trace.Tracer, metrics *telemetry.Metrics) *Aggregator {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Aggregator{
		api:           api,
		postcodes:     postcodes,
		adminSellerID: cfg.AdminSellerID,
		concurrency:   concurrency,
		logger:        logger,
		tracer:        tracer,
		metrics:       metrics,
	}
}

// CheckMulti checks serviceability for every item independently. The result
// slice has the same length and order as items, mixing successes and
// failures; one item's failure never cancels or fails the others. The
// caller decides whether partial failure blocks the order.
func (a *Aggregator) CheckMulti(ctx context.Context, deliveryPostcode string, cod bool, items []Item) ([]ItemResult, error) {
	if deliveryPostcode == "" {
		return nil, carrier.NewValidationError("delivery_postcode is required")
	}
	if len(items) == 0 {
		return nil, carrier.NewValidationError("items must not be empty")
	}

	if a.tracer != nil {
		var span trace.Span
		ctx, span = a.tracer.Start(ctx, "serviceability.check_multi")
		defer span.End()
	}

	batchID := uuid.New().String()
	a.logger.Info("Checking multi-seller serviceability",
		zap.String("batch_id", batchID),
		zap.String("delivery_postcode", deliveryPostcode),
		zap.Int("item_count", len(items)),
	)

	results := make([]ItemResult, len(items))

	g := &errgroup.Group{}
	g.SetLimit(a.concurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			// Errors are captured into the item's result slot; a worker
			// never fails the group.
			results[i] = a.checkOne(ctx, deliveryPostcode, cod, item)
			return nil
		})
	}
	g.Wait()

	for _, r := range results {
		status := "success"
		if !r.Success {
			status = "failure"
		}
		a.metrics.RecordServiceabilityItem(status)
	}

	return results, nil
}

// AdminShippingCharge computes a single serviceability result from the
// platform's own default pickup location with the combined weight of all
// items. Used when shipping is managed centrally rather than per seller.
func (a *Aggregator) AdminShippingCharge(ctx context.Context, deliveryPostcode string, cod bool, items []Item) (ItemResult, error) {
	if deliveryPostcode == "" {
		return ItemResult{}, carrier.NewValidationError("delivery_postcode is required")
	}
	if len(items) == 0 {
		return ItemResult{}, carrier.NewValidationError("items must not be empty")
	}

	postcode, err := a.postcodes.DefaultPostcode(ctx, a.adminSellerID)
	if err != nil {
		return ItemResult{}, err
	}

	var total float64
	for _, item := range items {
		total += item.Weight
	}

	return a.checkOne(ctx, deliveryPostcode, cod, Item{
		SellerID:       a.adminSellerID,
		PickupPostcode: postcode,
		Weight:         total,
	}), nil
}

// checkOne performs the carrier query and courier selection for one item.
// Any failure is folded into the returned result.
func (a *Aggregator) checkOne(ctx context.Context, deliveryPostcode string, cod bool, item Item) ItemResult {
	result := ItemResult{
		SellerID:         item.SellerID,
		CartItemID:       item.CartItemID,
		ProductVariantID: item.ProductVariantID,
	}

	pickup := item.PickupPostcode
	if pickup == "" {
		resolved, err := a.postcodes.DefaultPostcode(ctx, item.SellerID)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		pickup = resolved
	}

	originState := ResolveState(pickup)
	deliveryState := ResolveState(deliveryPostcode)

	resp, err := a.api.CheckServiceability(ctx, &shiprocket.ServiceabilityRequest{
		PickupPostcode:   pickup,
		DeliveryPostcode: deliveryPostcode,
		Weight:           item.Weight,
		COD:              cod,
	})
	if err != nil {
		a.logger.Error("Serviceability call failed",
			zap.String("seller_id", item.SellerID),
			zap.String("pickup_postcode", pickup),
			zap.Error(err),
		)
		result.Error = err.Error()
		return result
	}

	if len(resp.Data.AvailableCourierCompanies) == 0 {
		result.Error = fmt.Sprintf(
			"No courier services available for %gkg shipment between %s and %s",
			item.Weight, pickup, deliveryPostcode,
		)
		return result
	}

	selected := selectCourier(resp.Data)
	result.Success = true
	result.Data = &Quote{
		Courier:       selected,
		OriginState:   originState,
		DeliveryState: deliveryState,
		SameState:     sameState(originState, deliveryState),
	}
	return result
}

// selectCourier picks exactly one courier. The carrier's recommendation
// wins when its id is present among the returned companies; otherwise the
// lowest rate wins, first occurrence on ties.
func selectCourier(data shiprocket.ServiceabilityData) carrier.CourierOption {
	companies := data.AvailableCourierCompanies

	if data.RecommendedCourierCompanyID != 0 {
		for _, c := range companies {
			if c.CourierCompanyID == data.RecommendedCourierCompanyID {
				return toCourierOption(c, true)
			}
		}
	}

	best := companies[0]
	for _, c := range companies[1:] {
		if c.Rate < best.Rate {
			best = c
		}
	}
	return toCourierOption(best, false)
}

func toCourierOption(c shiprocket.CourierCompany, recommended bool) carrier.CourierOption {
	return carrier.CourierOption{
		CourierCompanyID:  c.CourierCompanyID,
		CourierName:       c.CourierName,
		Rate:              c.Rate,
		EstimatedDelivery: c.EstimatedDelivery,
		CODAvailable:      c.CODAvailable == 1,
		Recommended:       recommended,
	}
}
