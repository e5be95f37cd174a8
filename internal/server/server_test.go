package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/trovecart/shipping/internal/locations"
	"github.com/trovecart/shipping/internal/server"
	"github.com/trovecart/shipping/internal/serviceability"
	"github.com/trovecart/shipping/internal/shipment"
	"github.com/trovecart/shipping/pkg/carrier"
	"github.com/trovecart/shipping/pkg/carrier/shiprocket"
)

var serverDBSeq atomic.Int64

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T, api *shiprocket.MockAPIClient) (*server.Server, *locations.Registry) {
	t.Helper()

	logger := otelzap.New(zap.NewNop())

	dsn := fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", serverDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, locations.Migrate(db))

	registry := locations.NewRegistry(db, api, logger)
	aggregator := serviceability.New(
		serviceability.Config{AdminSellerID: "admin-seller"},
		api, registry, logger, nil, nil,
	)
	driver := shipment.NewDriver(api, logger, nil, nil)
	session := shiprocket.NewSession(api.Login)

	srv := server.New(server.Config{Port: 0}, server.Deps{
		Session:    session,
		API:        api,
		Aggregator: aggregator,
		Driver:     driver,
		Registry:   registry,
	}, logger)
	return srv, registry
}

func doJSON(t *testing.T, srv *server.Server, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec, env
}

func TestAuthenticate_ReturnsToken(t *testing.T) {
	srv, _ := newTestServer(t, shiprocket.NewMockAPIClient())

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/shipping/authenticate", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var data map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data["token"])
}

func TestAuthenticate_LoginFailureMaps401(t *testing.T) {
	api := shiprocket.NewMockAPIClient()
	api.OnLogin = func(ctx context.Context) (*shiprocket.LoginResponse, error) {
		return nil, carrier.NewAuthenticationError("Invalid credentials")
	}
	srv, _ := newTestServer(t, api)

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/shipping/authenticate", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "authentication", env.Error)
}

func TestServiceability_ValidatesQuery(t *testing.T) {
	srv, _ := newTestServer(t, shiprocket.NewMockAPIClient())

	rec, env := doJSON(t, srv, http.MethodGet, "/api/v1/shipping/serviceability?pickup_postcode=641007", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", env.Error)

	rec, _ = doJSON(t, srv, http.MethodGet,
		"/api/v1/shipping/serviceability?pickup_postcode=641007&delivery_postcode=560001&weight=0", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServiceability_Passthrough(t *testing.T) {
	srv, _ := newTestServer(t, shiprocket.NewMockAPIClient())

	rec, env := doJSON(t, srv, http.MethodGet,
		"/api/v1/shipping/serviceability?pickup_postcode=641007&delivery_postcode=560001&weight=1.5&cod=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var data shiprocket.ServiceabilityData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.AvailableCourierCompanies)
}

func TestServiceabilityMulti_MissingTopLevelField(t *testing.T) {
	srv, _ := newTestServer(t, shiprocket.NewMockAPIClient())

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/shipping/serviceability/multi",
		map[string]any{"items": []map[string]any{{"sellerProfileId": "s1", "pickupPostcode": "641007", "weight": 1.0}}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", env.Error)
}

func TestServiceabilityMulti_PartialFailureStays200(t *testing.T) {
	srv, _ := newTestServer(t, shiprocket.NewMockAPIClient())

	body := map[string]any{
		"deliveryPostcode": "560001",
		"cod":              false,
		"items": []map[string]any{
			{"sellerProfileId": "s1", "pickupPostcode": "641007", "weight": 1.0},
			{"sellerProfileId": "s2", "pickupPostcode": "990001", "weight": 2.0},
		},
	}

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/shipping/serviceability/multi", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var results []serviceability.ItemResult
	require.NoError(t, json.Unmarshal(env.Data, &results))
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)
}

func TestCreateOrder_MapsCarrierFailureTo502(t *testing.T) {
	api := shiprocket.NewMockAPIClient()
	api.OnCreateOrder = func(ctx context.Context, req *shiprocket.CreateOrderRequest) (*shiprocket.CreateOrderResponse, error) {
		return nil, carrier.NewCarrierError("Wrong Pickup location entered.")
	}
	srv, _ := newTestServer(t, api)

	body := map[string]any{
		"order_id":    "TC-1",
		"order_items": []map[string]any{{"name": "Mug", "sku": "MUG-01", "units": 1, "selling_price": 349}},
	}
	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/shipping/orders/create", body, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "carrier", env.Error)
	assert.Contains(t, env.Message, "Wrong Pickup location")
}

func TestCreateOrder_ResolvesPickupFromSellerDefault(t *testing.T) {
	api := shiprocket.NewMockAPIClient()
	api.OnAddPickupLocation = func(ctx context.Context, req *shiprocket.AddPickupLocationRequest) (*shiprocket.AddPickupLocationResponse, error) {
		return &shiprocket.AddPickupLocationResponse{
			Success: true,
			Address: shiprocket.PickupAddress{ID: 44001, PickupLocation: req.PickupLocation, PinCode: req.PinCode},
		}, nil
	}
	var gotPickup string
	api.OnCreateOrder = func(ctx context.Context, req *shiprocket.CreateOrderRequest) (*shiprocket.CreateOrderResponse, error) {
		gotPickup = req.PickupLocation
		return &shiprocket.CreateOrderResponse{OrderID: "400044", ShipmentID: "390044", Status: "NEW"}, nil
	}
	srv, registry := newTestServer(t, api)

	_, err := registry.Register(context.Background(), "seller-1", locations.AddressInput{
		Label: "warehouse-primary", Name: "Seller One", Email: "one@example.com", Phone: "9000000001",
		Address: "12 Industrial Estate", City: "Coimbatore", State: "Tamil Nadu", Country: "India", PinCode: "641007",
	})
	require.NoError(t, err)

	body := map[string]any{
		"order_id":    "TC-2",
		"order_items": []map[string]any{{"name": "Mug", "sku": "MUG-01", "units": 1, "selling_price": 349}},
	}
	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/shipping/orders/create", body,
		map[string]string{"X-Seller-Id": "seller-1"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", env.Message)
	assert.Equal(t, "warehouse-primary", gotPickup)
}

func TestCreateOrder_UnknownSellerDefaultMaps404(t *testing.T) {
	srv, _ := newTestServer(t, shiprocket.NewMockAPIClient())

	body := map[string]any{
		"order_id":    "TC-3",
		"order_items": []map[string]any{{"name": "Mug", "sku": "MUG-01", "units": 1, "selling_price": 349}},
	}
	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/shipping/orders/create", body,
		map[string]string{"X-Seller-Id": "seller-ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error)
}

func TestAssignAWB_AcceptsNumericStringID(t *testing.T) {
	api := shiprocket.NewMockAPIClient()
	var got int64
	api.OnAssignAWB = func(ctx context.Context, shipmentID int64) (*shiprocket.AssignAWBResponse, error) {
		got = shipmentID
		resp := &shiprocket.AssignAWBResponse{AWBAssignStatus: 1}
		resp.Response.Data.AWBCode = "771234567890"
		return resp, nil
	}
	srv, _ := newTestServer(t, api)

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/shipping/awb/assign",
		map[string]any{"shipment_id": "390012345"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, int64(390012345), got)
}

func TestAssignAWB_RejectsGarbageID(t *testing.T) {
	srv, _ := newTestServer(t, shiprocket.NewMockAPIClient())

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/shipping/awb/assign",
		map[string]any{"shipment_id": "not-a-number"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", env.Error)
}

func TestManifestGenerate_EmptyIDs400(t *testing.T) {
	srv, _ := newTestServer(t, shiprocket.NewMockAPIClient())

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/shipping/manifest/generate",
		map[string]any{"shipment_id": []int64{}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", env.Error)
}

func TestTracking_ReturnsCarrierPayload(t *testing.T) {
	srv, _ := newTestServer(t, shiprocket.NewMockAPIClient())

	rec, env := doJSON(t, srv, http.MethodGet, "/api/v1/shipping/tracking/771234567890", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), "771234567890")
}

func TestPickupLocations_RequiresSellerHeader(t *testing.T) {
	srv, _ := newTestServer(t, shiprocket.NewMockAPIClient())

	rec, env := doJSON(t, srv, http.MethodGet, "/api/v1/shipping/pickup-locations", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", env.Error)
	assert.Contains(t, env.Message, "X-Seller-Id")
}

func TestPickupLocations_RegisterThenSetDefault(t *testing.T) {
	api := shiprocket.NewMockAPIClient()
	nextID := int64(22000)
	api.OnAddPickupLocation = func(ctx context.Context, req *shiprocket.AddPickupLocationRequest) (*shiprocket.AddPickupLocationResponse, error) {
		nextID++
		return &shiprocket.AddPickupLocationResponse{
			Success: true,
			Address: shiprocket.PickupAddress{ID: nextID, PickupLocation: req.PickupLocation, PinCode: req.PinCode},
		}, nil
	}
	srv, _ := newTestServer(t, api)
	headers := map[string]string{"X-Seller-Id": "seller-1"}

	address := map[string]any{
		"pickup_location": "warehouse-a",
		"name":            "Seller One",
		"email":           "one@example.com",
		"phone":           "9000000001",
		"address":         "12 Industrial Estate",
		"city":            "Coimbatore",
		"state":           "Tamil Nadu",
		"country":         "India",
		"pin_code":        "641007",
	}
	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/shipping/pickup-locations", address, headers)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", env.Message)

	var first locations.Location
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.True(t, first.IsDefault)

	address["pickup_location"] = "warehouse-b"
	rec, env = doJSON(t, srv, http.MethodPost, "/api/v1/shipping/pickup-locations", address, headers)
	require.Equal(t, http.StatusCreated, rec.Code)

	var second locations.Location
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.False(t, second.IsDefault)

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/v1/shipping/pickup-locations",
		map[string]any{"location_id": second.LocationID, "is_default": true}, headers)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetDefault_ForeignLocationMaps404(t *testing.T) {
	srv, _ := newTestServer(t, shiprocket.NewMockAPIClient())

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/shipping/pickup-locations",
		map[string]any{"location_id": 424242, "is_default": true},
		map[string]string{"X-Seller-Id": "seller-1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, shiprocket.NewMockAPIClient())

	rec, env := doJSON(t, srv, http.MethodGet, "/api/v1/shipping/orders/create", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.False(t, env.Success)
}

func TestAdminShippingCharge(t *testing.T) {
	api := shiprocket.NewMockAPIClient()
	nextID := int64(33000)
	api.OnAddPickupLocation = func(ctx context.Context, req *shiprocket.AddPickupLocationRequest) (*shiprocket.AddPickupLocationResponse, error) {
		nextID++
		return &shiprocket.AddPickupLocationResponse{
			Success: true,
			Address: shiprocket.PickupAddress{ID: nextID, PickupLocation: req.PickupLocation, PinCode: req.PinCode},
		}, nil
	}
	srv, registry := newTestServer(t, api)

	_, err := registry.Register(context.Background(), "admin-seller", locations.AddressInput{
		Label: "platform-hub", Name: "Platform", Email: "ops@example.com", Phone: "9000000000",
		Address: "1 Hub Road", City: "Coimbatore", State: "Tamil Nadu", Country: "India", PinCode: "641007",
	})
	require.NoError(t, err)

	body := map[string]any{
		"deliveryPostcode": "560001",
		"cod":              true,
		"items": []map[string]any{
			{"sellerProfileId": "s1", "weight": 1.0},
			{"sellerProfileId": "s2", "weight": 2.5},
		},
	}
	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/shipping/admin/shipping-charge", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", env.Message)
	assert.True(t, env.Success)

	var result serviceability.ItemResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Success)
	require.NotNil(t, result.Data)
	assert.NotZero(t, result.Data.Courier.Rate)
}
