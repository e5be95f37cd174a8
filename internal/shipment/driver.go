// Package shipment drives a carrier-side shipment through its document
// lifecycle: AWB assignment, pickup scheduling, manifest, label, invoice
// and print jobs, plus cancellation and tracking.
package shipment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/trovecart/shipping/internal/telemetry"
	"github.com/trovecart/shipping/pkg/carrier"
	"github.com/trovecart/shipping/pkg/carrier/shiprocket"
)

// Driver sequences carrier document operations. Every operation validates
// its input before any network call and fails closed: a non-success carrier
// response or network error propagates as a typed error, never as an empty
// result.
type Driver struct {
	api     shiprocket.APIClient
	logger  *otelzap.Logger
	tracer  trace.Tracer
	metrics *telemetry.Metrics
}

// NewDriver creates a lifecycle driver.
func NewDriver(api shiprocket.APIClient, logger *otelzap.Logger, tracer trace.Tracer, metrics *telemetry.Metrics) *Driver {
	return &Driver{api: api, logger: logger, tracer: tracer, metrics: metrics}
}

// CreateOrder creates the carrier-side order and shipment. A carrier
// response carrying neither an order id nor a shipment id indicates a
// malformed upstream response rather than a normal rejection.
func (d *Driver) CreateOrder(ctx context.Context, req *shiprocket.CreateOrderRequest) (*carrier.OrderEnvelope, error) {
	if req == nil {
		return nil, carrier.NewValidationError("order payload is required")
	}
	if req.OrderID == "" {
		return nil, carrier.NewValidationError("order_id is required")
	}
	if len(req.OrderItems) == 0 {
		return nil, carrier.NewValidationError("order_items must not be empty")
	}

	d.logger.Info("Creating carrier order",
		zap.String("order_id", req.OrderID),
		zap.String("pickup_location", req.PickupLocation),
		zap.Int("item_count", len(req.OrderItems)),
	)

	resp, err := d.callCreateOrder(ctx, req)
	if err != nil {
		d.logger.Error("Carrier order creation failed", zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, err
	}

	orderID, _ := resp.OrderID.Int64()
	shipmentID, _ := resp.ShipmentID.Int64()
	if orderID == 0 && shipmentID == 0 {
		return nil, carrier.NewValidationError("carrier response missing both order_id and shipment_id")
	}

	return &carrier.OrderEnvelope{
		Stage:            carrier.StageNew,
		OrderID:          orderID,
		ShipmentID:       shipmentID,
		Status:           resp.Status,
		AWBCode:          resp.AWBCode,
		CourierCompanyID: resp.CourierCompanyID,
		CourierName:      resp.CourierName,
	}, nil
}

// AssignAWB requests an air waybill for one shipment.
func (d *Driver) AssignAWB(ctx context.Context, shipmentID int64) (*carrier.AWBResult, error) {
	if shipmentID == 0 {
		return nil, carrier.NewValidationError("shipment_id is required")
	}

	resp, err := d.api.AssignAWB(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if resp.AWBAssignStatus != 1 {
		return nil, carrier.NewCarrierError("carrier did not assign an AWB for the shipment")
	}

	d.logger.Info("AWB assigned",
		zap.Int64("shipment_id", shipmentID),
		zap.String("awb_code", resp.Response.Data.AWBCode),
		zap.String("courier", resp.Response.Data.CourierName),
	)

	return &carrier.AWBResult{
		Stage:            carrier.StageAWBAssigned,
		AWBCode:          resp.Response.Data.AWBCode,
		CourierCompanyID: resp.Response.Data.CourierCompanyID,
		CourierName:      resp.Response.Data.CourierName,
	}, nil
}

// GeneratePickup schedules pickup for the given shipments. The carrier
// signals refusal in-band at HTTP 200 via pickup_status; anything but a
// scheduled pickup is a carrier error.
func (d *Driver) GeneratePickup(ctx context.Context, shipmentIDs []int64) (*carrier.PickupResult, error) {
	if err := requireIDs("shipment_id", shipmentIDs); err != nil {
		return nil, err
	}

	resp, err := d.api.GeneratePickup(ctx, shipmentIDs)
	if err != nil {
		return nil, err
	}
	if resp.PickupStatus != 1 {
		msg := resp.Response.Data
		if msg == "" {
			msg = "carrier did not schedule the pickup"
		}
		return nil, carrier.NewCarrierError(msg)
	}

	return &carrier.PickupResult{
		Stage:               carrier.StagePickupScheduled,
		PickupStatus:        resp.PickupStatus,
		PickupScheduledDate: resp.Response.PickupScheduledDate,
		PickupTokenNumber:   resp.Response.PickupTokenNumber,
		Message:             resp.Response.Data,
	}, nil
}

// GenerateManifest generates a manifest for the given shipments. The
// carrier rejects re-generation; that response is mapped to a non-error
// result tagged AlreadyGenerated so the call stays idempotent for callers.
func (d *Driver) GenerateManifest(ctx context.Context, shipmentIDs []int64) (*carrier.ManifestResult, error) {
	if err := requireIDs("shipment_id", shipmentIDs); err != nil {
		return nil, err
	}

	resp, err := d.api.GenerateManifest(ctx, shipmentIDs)
	if err != nil {
		if isAlreadyGenerated(err) {
			d.logger.Info("Manifest already generated", zap.Int64s("shipment_ids", shipmentIDs))
			return &carrier.ManifestResult{Stage: carrier.StageManifested, AlreadyGenerated: true}, nil
		}
		return nil, err
	}

	if resp.Status != 1 {
		if strings.Contains(strings.ToLower(resp.Message), "already") {
			return &carrier.ManifestResult{Stage: carrier.StageManifested, AlreadyGenerated: true}, nil
		}
		msg := resp.Message
		if msg == "" {
			msg = "carrier did not generate the manifest"
		}
		return nil, carrier.NewCarrierError(msg)
	}

	return &carrier.ManifestResult{Stage: carrier.StageManifested, ManifestURL: resp.ManifestURL}, nil
}

// GenerateLabel generates shipping labels for the given shipments.
func (d *Driver) GenerateLabel(ctx context.Context, shipmentIDs []int64) (*carrier.LabelResult, error) {
	if err := requireIDs("shipment_id", shipmentIDs); err != nil {
		return nil, err
	}

	resp, err := d.api.GenerateLabel(ctx, shipmentIDs)
	if err != nil {
		return nil, err
	}
	if resp.LabelCreated != 1 {
		return nil, carrier.NewCarrierError("carrier did not create the label: " + resp.Response)
	}

	return &carrier.LabelResult{Stage: carrier.StageDocumentsReady, LabelURL: resp.LabelURL}, nil
}

// GeneratePrint produces a printable manifest for the given shipments.
func (d *Driver) GeneratePrint(ctx context.Context, shipmentIDs []int64) (*carrier.PrintResult, error) {
	if err := requireIDs("shipment_id", shipmentIDs); err != nil {
		return nil, err
	}

	resp, err := d.api.PrintManifest(ctx, shipmentIDs)
	if err != nil {
		return nil, err
	}

	return &carrier.PrintResult{Stage: carrier.StageDocumentsReady, PrintURL: resp.ManifestURL}, nil
}

// GenerateInvoice generates invoices for the given carrier order ids. The
// carrier keys this call on "ids", unlike the shipment document calls.
func (d *Driver) GenerateInvoice(ctx context.Context, orderIDs []int64) (*carrier.InvoiceResult, error) {
	if err := requireIDs("ids", orderIDs); err != nil {
		return nil, err
	}

	resp, err := d.api.GenerateInvoice(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	if !resp.IsInvoiceCreated {
		return nil, carrier.NewCarrierError("carrier did not create the invoice")
	}

	return &carrier.InvoiceResult{Stage: carrier.StageDocumentsReady, InvoiceURL: resp.InvoiceURL}, nil
}

// CancelOrders cancels carrier-side orders. No local compensating state is
// kept; a later tracking read observes the cancellation.
func (d *Driver) CancelOrders(ctx context.Context, orderIDs []int64) error {
	if err := requireIDs("ids", orderIDs); err != nil {
		return err
	}

	if _, err := d.api.CancelOrders(ctx, orderIDs); err != nil {
		return err
	}

	d.logger.Info("Carrier orders cancelled", zap.Int64s("order_ids", orderIDs))
	return nil
}

// Track looks up shipment status by air waybill. Stateless; the carrier's
// payload is returned as-is.
func (d *Driver) Track(ctx context.Context, awb string) (*shiprocket.TrackingResponse, error) {
	if strings.TrimSpace(awb) == "" {
		return nil, carrier.NewValidationError("awb is required")
	}
	return d.api.TrackByAWB(ctx, awb)
}

func (d *Driver) callCreateOrder(ctx context.Context, req *shiprocket.CreateOrderRequest) (*shiprocket.CreateOrderResponse, error) {
	if d.tracer != nil {
		var span trace.Span
		ctx, span = d.tracer.Start(ctx, "shipment.create_order")
		defer span.End()
	}

	start := time.Now()
	resp, err := d.api.CreateOrder(ctx, req)
	d.metrics.RecordCarrierCall("create_order", time.Since(start).Seconds())
	return resp, err
}

// requireIDs rejects a missing or empty id array, and zero entries, before
// any network call is made.
func requireIDs(field string, ids []int64) error {
	if len(ids) == 0 {
		return carrier.NewValidationError("%s must be a non-empty array", field)
	}
	for _, id := range ids {
		if id == 0 {
			return carrier.NewValidationError("%s entries must be non-zero numeric ids", field)
		}
	}
	return nil
}

func isAlreadyGenerated(err error) bool {
	var e *carrier.Error
	if !errors.As(err, &e) || e.Kind != carrier.KindCarrier {
		return false
	}
	return strings.Contains(strings.ToLower(e.Message), "already generated")
}
