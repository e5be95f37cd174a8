package shiprocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing and for
// running the service without carrier credentials.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnLogin               func(ctx context.Context) (*LoginResponse, error)
	OnCheckServiceability func(ctx context.Context, req *ServiceabilityRequest) (*ServiceabilityResponse, error)
	OnCreateOrder         func(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error)
	OnAssignAWB           func(ctx context.Context, shipmentID int64) (*AssignAWBResponse, error)
	OnGeneratePickup      func(ctx context.Context, shipmentIDs []int64) (*GeneratePickupResponse, error)
	OnGenerateManifest    func(ctx context.Context, shipmentIDs []int64) (*GenerateManifestResponse, error)
	OnPrintManifest       func(ctx context.Context, shipmentIDs []int64) (*PrintManifestResponse, error)
	OnGenerateLabel       func(ctx context.Context, shipmentIDs []int64) (*GenerateLabelResponse, error)
	OnGenerateInvoice     func(ctx context.Context, orderIDs []int64) (*GenerateInvoiceResponse, error)
	OnCancelOrders        func(ctx context.Context, orderIDs []int64) (*CancelOrdersResponse, error)
	OnTrackByAWB          func(ctx context.Context, awb string) (*TrackingResponse, error)
	OnListPickupLocations func(ctx context.Context) (*PickupLocationsResponse, error)
	OnAddPickupLocation   func(ctx context.Context, req *AddPickupLocationRequest) (*AddPickupLocationResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return &APIError{Message: "Simulated API error", StatusCode: 500}
	}
	return nil
}

// Login returns a mock token.
func (m *MockAPIClient) Login(ctx context.Context) (*LoginResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnLogin != nil {
		return m.OnLogin(ctx)
	}
	return &LoginResponse{
		Token:     "mock-token-" + uuid.New().String()[:8],
		ExpiresIn: 864000,
	}, nil
}

// CheckServiceability returns mock courier candidates. Pickup postcodes
// starting with "99" are treated as unserviceable so partial-failure paths
// can be exercised without a live carrier.
func (m *MockAPIClient) CheckServiceability(ctx context.Context, req *ServiceabilityRequest) (*ServiceabilityResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCheckServiceability != nil {
		return m.OnCheckServiceability(ctx, req)
	}

	if len(req.PickupPostcode) >= 2 && req.PickupPostcode[:2] == "99" {
		return &ServiceabilityResponse{Status: 200}, nil
	}

	etd := time.Now().AddDate(0, 0, 4).Format("Jan 02, 2006")
	return &ServiceabilityResponse{
		Status: 200,
		Data: ServiceabilityData{
			RecommendedCourierCompanyID: 24,
			AvailableCourierCompanies: []CourierCompany{
				{CourierCompanyID: 10, CourierName: "Delhivery Surface", Rate: 61.5, EstimatedDelivery: etd, CODAvailable: 1},
				{CourierCompanyID: 24, CourierName: "Xpressbees Air", Rate: 78.0, EstimatedDelivery: etd, CODAvailable: 1},
				{CourierCompanyID: 51, CourierName: "Ecom Express", Rate: 58.2, EstimatedDelivery: etd, CODAvailable: 0},
			},
		},
	}, nil
}

// CreateOrder creates a mock order.
func (m *MockAPIClient) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateOrder != nil {
		return m.OnCreateOrder(ctx, req)
	}

	now := time.Now().UnixNano()
	return &CreateOrderResponse{
		OrderID:    json.Number(fmt.Sprintf("%d", 400000000+now%100000000)),
		ShipmentID: json.Number(fmt.Sprintf("%d", 390000000+now%100000000)),
		Status:     "NEW",
		StatusCode: 1,
	}, nil
}

// AssignAWB returns a mock waybill assignment.
func (m *MockAPIClient) AssignAWB(ctx context.Context, shipmentID int64) (*AssignAWBResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnAssignAWB != nil {
		return m.OnAssignAWB(ctx, shipmentID)
	}

	resp := &AssignAWBResponse{AWBAssignStatus: 1}
	resp.Response.Data = AWBData{
		AWBCode:          fmt.Sprintf("77%012d", time.Now().UnixNano()%1000000000000),
		CourierCompanyID: 24,
		CourierName:      "Xpressbees Air",
		ShipmentID:       shipmentID,
	}
	return resp, nil
}

// GeneratePickup schedules a mock pickup.
func (m *MockAPIClient) GeneratePickup(ctx context.Context, shipmentIDs []int64) (*GeneratePickupResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGeneratePickup != nil {
		return m.OnGeneratePickup(ctx, shipmentIDs)
	}

	resp := &GeneratePickupResponse{PickupStatus: 1}
	resp.Response.PickupScheduledDate = time.Now().AddDate(0, 0, 1).Format("2006-01-02 15:04:05")
	resp.Response.PickupTokenNumber = fmt.Sprintf("PT%d", time.Now().UnixNano()%1000000)
	resp.Response.Data = "Pickup is scheduled for tomorrow"
	return resp, nil
}

// GenerateManifest generates a mock manifest.
func (m *MockAPIClient) GenerateManifest(ctx context.Context, shipmentIDs []int64) (*GenerateManifestResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGenerateManifest != nil {
		return m.OnGenerateManifest(ctx, shipmentIDs)
	}

	return &GenerateManifestResponse{
		Status:      1,
		ManifestURL: "https://mock.carrier/manifests/" + uuid.New().String() + ".pdf",
	}, nil
}

// PrintManifest returns a mock printable manifest.
func (m *MockAPIClient) PrintManifest(ctx context.Context, shipmentIDs []int64) (*PrintManifestResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnPrintManifest != nil {
		return m.OnPrintManifest(ctx, shipmentIDs)
	}

	return &PrintManifestResponse{
		ManifestURL: "https://mock.carrier/manifests/print/" + uuid.New().String() + ".pdf",
	}, nil
}

// GenerateLabel generates a mock label.
func (m *MockAPIClient) GenerateLabel(ctx context.Context, shipmentIDs []int64) (*GenerateLabelResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGenerateLabel != nil {
		return m.OnGenerateLabel(ctx, shipmentIDs)
	}

	return &GenerateLabelResponse{
		LabelCreated: 1,
		LabelURL:     "https://mock.carrier/labels/" + uuid.New().String() + ".pdf",
	}, nil
}

// GenerateInvoice generates a mock invoice.
func (m *MockAPIClient) GenerateInvoice(ctx context.Context, orderIDs []int64) (*GenerateInvoiceResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGenerateInvoice != nil {
		return m.OnGenerateInvoice(ctx, orderIDs)
	}

	return &GenerateInvoiceResponse{
		IsInvoiceCreated: true,
		InvoiceURL:       "https://mock.carrier/invoices/" + uuid.New().String() + ".pdf",
	}, nil
}

// CancelOrders cancels mock orders.
func (m *MockAPIClient) CancelOrders(ctx context.Context, orderIDs []int64) (*CancelOrdersResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCancelOrders != nil {
		return m.OnCancelOrders(ctx, orderIDs)
	}

	return &CancelOrdersResponse{Message: "Orders cancellation request received"}, nil
}

// TrackByAWB returns mock tracking data.
func (m *MockAPIClient) TrackByAWB(ctx context.Context, awb string) (*TrackingResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnTrackByAWB != nil {
		return m.OnTrackByAWB(ctx, awb)
	}

	data := fmt.Sprintf(`{"track_status":1,"shipment_status":6,"awb":%q,"shipment_track":[{"current_status":"In Transit"}]}`, awb)
	return &TrackingResponse{TrackingData: json.RawMessage(data)}, nil
}

// ListPickupLocations lists mock pickup addresses.
func (m *MockAPIClient) ListPickupLocations(ctx context.Context) (*PickupLocationsResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnListPickupLocations != nil {
		return m.OnListPickupLocations(ctx)
	}

	resp := &PickupLocationsResponse{}
	resp.Data.ShippingAddress = []PickupAddress{
		{
			ID:             11001,
			PickupLocation: "warehouse-primary",
			AddressLine:    "12 Industrial Estate",
			City:           "Coimbatore",
			State:          "Tamil Nadu",
			Country:        "India",
			PinCode:        "641007",
			Phone:          "9000000001",
		},
	}
	return resp, nil
}

// AddPickupLocation registers a mock pickup address.
func (m *MockAPIClient) AddPickupLocation(ctx context.Context, req *AddPickupLocationRequest) (*AddPickupLocationResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnAddPickupLocation != nil {
		return m.OnAddPickupLocation(ctx, req)
	}

	return &AddPickupLocationResponse{
		Success: true,
		Address: PickupAddress{
			ID:             time.Now().UnixNano() % 1000000,
			PickupLocation: req.PickupLocation,
			AddressLine:    req.Address,
			City:           req.City,
			State:          req.State,
			Country:        req.Country,
			PinCode:        req.PinCode,
			Phone:          req.Phone,
		},
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
