package shiprocket

import (
	"context"
	"encoding/json"
)

// APIClient defines the interface for Shiprocket API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// Login authenticates against the carrier and returns a fresh token.
	Login(ctx context.Context) (*LoginResponse, error)

	// CheckServiceability queries available couriers for a postcode pair.
	CheckServiceability(ctx context.Context, req *ServiceabilityRequest) (*ServiceabilityResponse, error)

	// CreateOrder creates an adhoc order with the carrier.
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error)

	// AssignAWB requests an air waybill for a shipment.
	AssignAWB(ctx context.Context, shipmentID int64) (*AssignAWBResponse, error)

	// GeneratePickup schedules pickup for the given shipments.
	GeneratePickup(ctx context.Context, shipmentIDs []int64) (*GeneratePickupResponse, error)

	// GenerateManifest generates a manifest for the given shipments.
	GenerateManifest(ctx context.Context, shipmentIDs []int64) (*GenerateManifestResponse, error)

	// PrintManifest produces a printable manifest document.
	PrintManifest(ctx context.Context, shipmentIDs []int64) (*PrintManifestResponse, error)

	// GenerateLabel generates shipping labels for the given shipments.
	GenerateLabel(ctx context.Context, shipmentIDs []int64) (*GenerateLabelResponse, error)

	// GenerateInvoice generates invoices for the given order ids.
	GenerateInvoice(ctx context.Context, orderIDs []int64) (*GenerateInvoiceResponse, error)

	// CancelOrders cancels the given carrier-side orders.
	CancelOrders(ctx context.Context, orderIDs []int64) (*CancelOrdersResponse, error)

	// TrackByAWB retrieves tracking information for an air waybill.
	TrackByAWB(ctx context.Context, awb string) (*TrackingResponse, error)

	// ListPickupLocations returns all pickup addresses registered with the carrier.
	ListPickupLocations(ctx context.Context) (*PickupLocationsResponse, error)

	// AddPickupLocation registers a new pickup address with the carrier.
	AddPickupLocation(ctx context.Context, req *AddPickupLocationRequest) (*AddPickupLocationResponse, error)
}

// ============================================================================
// API Request/Response Types (match Shiprocket external API v1 structure)
// ============================================================================

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"` // Seconds; carrier default applied when 0
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// ServiceabilityRequest holds query parameters for
// GET /courier/serviceability/.
type ServiceabilityRequest struct {
	PickupPostcode   string
	DeliveryPostcode string
	Weight           float64 // kg
	COD              bool
}

// ServiceabilityResponse is the carrier's courier availability payload.
type ServiceabilityResponse struct {
	Status int                `json:"status"`
	Data   ServiceabilityData `json:"data"`
}

// ServiceabilityData carries the candidate couriers and the carrier's own
// recommendation.
type ServiceabilityData struct {
	AvailableCourierCompanies   []CourierCompany `json:"available_courier_companies"`
	RecommendedCourierCompanyID int              `json:"recommended_courier_company_id"`
}

// CourierCompany is a single courier candidate.
type CourierCompany struct {
	CourierCompanyID  int     `json:"courier_company_id"`
	CourierName       string  `json:"courier_name"`
	Rate              float64 `json:"rate"`
	EstimatedDelivery string  `json:"etd"`
	CODAvailable      int     `json:"cod"` // 1 when cash-on-delivery is supported
	EstimatedDays     string  `json:"estimated_delivery_days,omitempty"`
}

// CreateOrderRequest is the adhoc order payload for POST /orders/create/adhoc.
type CreateOrderRequest struct {
	OrderID           string      `json:"order_id"`
	OrderDate         string      `json:"order_date"`
	PickupLocation    string      `json:"pickup_location"`
	ChannelID         string      `json:"channel_id,omitempty"`
	Comment           string      `json:"comment,omitempty"`
	BillingName       string      `json:"billing_customer_name"`
	BillingLastName   string      `json:"billing_last_name,omitempty"`
	BillingAddress    string      `json:"billing_address"`
	BillingCity       string      `json:"billing_city"`
	BillingPincode    string      `json:"billing_pincode"`
	BillingState      string      `json:"billing_state"`
	BillingCountry    string      `json:"billing_country"`
	BillingEmail      string      `json:"billing_email"`
	BillingPhone      string      `json:"billing_phone"`
	ShippingIsBilling bool        `json:"shipping_is_billing"`
	ShippingAddress   string      `json:"shipping_address,omitempty"`
	ShippingCity      string      `json:"shipping_city,omitempty"`
	ShippingPincode   string      `json:"shipping_pincode,omitempty"`
	ShippingState     string      `json:"shipping_state,omitempty"`
	ShippingCountry   string      `json:"shipping_country,omitempty"`
	ShippingEmail     string      `json:"shipping_email,omitempty"`
	ShippingPhone     string      `json:"shipping_phone,omitempty"`
	OrderItems        []OrderItem `json:"order_items"`
	PaymentMethod     string      `json:"payment_method"` // "Prepaid" or "COD"
	SubTotal          float64     `json:"sub_total"`
	Length            float64     `json:"length"`
	Breadth           float64     `json:"breadth"`
	Height            float64     `json:"height"`
	Weight            float64     `json:"weight"`
}

// OrderItem is a single line item in an adhoc order.
type OrderItem struct {
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	Units        int     `json:"units"`
	SellingPrice float64 `json:"selling_price"`
	Discount     float64 `json:"discount,omitempty"`
	Tax          float64 `json:"tax,omitempty"`
	HSN          string  `json:"hsn,omitempty"`
}

// CreateOrderResponse is the carrier's order creation payload. The carrier
// is inconsistent about numeric fields, so ids are decoded as json.Number.
type CreateOrderResponse struct {
	OrderID          json.Number `json:"order_id"`
	ShipmentID       json.Number `json:"shipment_id"`
	Status           string      `json:"status"`
	StatusCode       int         `json:"status_code"`
	AWBCode          string      `json:"awb_code"`
	CourierCompanyID int         `json:"courier_company_id"`
	CourierName      string      `json:"courier_name"`
}

// AssignAWBResponse is returned by POST /courier/assign/awb.
type AssignAWBResponse struct {
	AWBAssignStatus int `json:"awb_assign_status"`
	Response        struct {
		Data AWBData `json:"data"`
	} `json:"response"`
}

// AWBData carries the assigned waybill details.
type AWBData struct {
	AWBCode          string `json:"awb_code"`
	CourierCompanyID int    `json:"courier_company_id"`
	CourierName      string `json:"courier_name"`
	OrderID          int64  `json:"order_id"`
	ShipmentID       int64  `json:"shipment_id"`
}

// GeneratePickupResponse is returned by POST /courier/generate/pickup.
type GeneratePickupResponse struct {
	PickupStatus int `json:"pickup_status"`
	Response     struct {
		PickupScheduledDate string `json:"pickup_scheduled_date"`
		PickupTokenNumber   string `json:"pickup_token_number"`
		Data                string `json:"data"`
	} `json:"response"`
}

// GenerateManifestResponse is returned by POST /manifests/generate.
type GenerateManifestResponse struct {
	Status      int    `json:"status"`
	ManifestURL string `json:"manifest_url"`
	Message     string `json:"message"`
}

// PrintManifestResponse is returned by POST /manifests/print.
type PrintManifestResponse struct {
	ManifestURL string `json:"manifest_url"`
}

// GenerateLabelResponse is returned by POST /courier/generate/label.
type GenerateLabelResponse struct {
	LabelCreated int      `json:"label_created"`
	LabelURL     string   `json:"label_url"`
	NotCreated   []int64  `json:"not_created,omitempty"`
	Response     string   `json:"response,omitempty"`
}

// GenerateInvoiceResponse is returned by POST /orders/print/invoice.
type GenerateInvoiceResponse struct {
	IsInvoiceCreated bool    `json:"is_invoice_created"`
	InvoiceURL       string  `json:"invoice_url"`
	NotCreated       []int64 `json:"not_created,omitempty"`
}

// CancelOrdersResponse is returned by POST /orders/cancel.
type CancelOrdersResponse struct {
	Message string `json:"message"`
}

// TrackingResponse wraps the carrier's tracking payload. TrackingData is
// passed through untouched; the carrier remains the source of truth for
// tracking history.
type TrackingResponse struct {
	TrackingData json.RawMessage `json:"tracking_data"`
}

// PickupLocationsResponse is returned by GET /settings/company/pickup.
type PickupLocationsResponse struct {
	Data struct {
		ShippingAddress []PickupAddress `json:"shipping_address"`
	} `json:"data"`
}

// PickupAddress is a carrier-registered pickup address.
type PickupAddress struct {
	ID             int64  `json:"id"`
	PickupLocation string `json:"pickup_location"`
	AddressLine    string `json:"address"`
	AddressLine2   string `json:"address_2,omitempty"`
	City           string `json:"city"`
	State          string `json:"state"`
	Country        string `json:"country"`
	PinCode        string `json:"pin_code"`
	Phone          string `json:"phone"`
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
}

// AddPickupLocationRequest is the payload for POST /settings/company/addpickup.
type AddPickupLocationRequest struct {
	PickupLocation string `json:"pickup_location"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	Address2       string `json:"address_2,omitempty"`
	City           string `json:"city"`
	State          string `json:"state"`
	Country        string `json:"country"`
	PinCode        string `json:"pin_code"`
}

// AddPickupLocationResponse is returned by POST /settings/company/addpickup.
type AddPickupLocationResponse struct {
	Success bool          `json:"success"`
	Address PickupAddress `json:"address"`
}

// APIError represents an error payload from the Shiprocket API.
type APIError struct {
	Message    string         `json:"message"`
	StatusCode int            `json:"status_code"`
	Errors     map[string]any `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}
