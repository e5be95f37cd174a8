package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/trovecart/shipping/internal/locations"
	"github.com/trovecart/shipping/pkg/carrier"
	"github.com/trovecart/shipping/pkg/carrier/shiprocket"
)

const sellerHeader = "X-Seller-Id"

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return carrier.NewValidationError("invalid request body: %v", err)
	}
	return nil
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	token, err := s.session.Token(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"token": token})
}

// handleServiceability is a single-lane passthrough: one pickup/delivery
// postcode pair, the carrier's payload returned as-is.
func (s *Server) handleServiceability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pickup := q.Get("pickup_postcode")
	delivery := q.Get("delivery_postcode")
	if pickup == "" || delivery == "" {
		respondError(w, carrier.NewValidationError("pickup_postcode and delivery_postcode are required"))
		return
	}
	weight, err := strconv.ParseFloat(q.Get("weight"), 64)
	if err != nil || weight <= 0 {
		respondError(w, carrier.NewValidationError("weight must be a positive number"))
		return
	}
	cod := q.Get("cod") == "1" || q.Get("cod") == "true"

	resp, err := s.api.CheckServiceability(r.Context(), &shiprocket.ServiceabilityRequest{
		PickupPostcode:   pickup,
		DeliveryPostcode: delivery,
		Weight:           weight,
		COD:              cod,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, resp.Data)
}

// handleServiceabilityMulti runs the batch check. Per-item failures ride
// inside the 200 payload; only missing top-level fields produce a 400.
func (s *Server) handleServiceabilityMulti(w http.ResponseWriter, r *http.Request) {
	var req serviceabilityMultiRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	results, err := s.aggregator.CheckMulti(r.Context(), req.DeliveryPostcode, req.COD, req.Items)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, results)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req shiprocket.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	// A payload without a pickup_location falls back to the calling
	// seller's default registered address.
	if req.PickupLocation == "" {
		if sellerID := r.Header.Get(sellerHeader); sellerID != "" {
			label, err := s.registry.DefaultLabel(r.Context(), sellerID)
			if err != nil {
				respondError(w, err)
				return
			}
			req.PickupLocation = label
		}
	}

	env, err := s.driver.CreateOrder(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, env)
}

func (s *Server) handleAssignAWB(w http.ResponseWriter, r *http.Request) {
	var req assignAWBRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.driver.AssignAWB(r.Context(), int64(req.ShipmentID))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, result)
}

func (s *Server) handleGeneratePickup(w http.ResponseWriter, r *http.Request) {
	var req shipmentIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.driver.GeneratePickup(r.Context(), toInt64s(req.ShipmentID))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, result)
}

func (s *Server) handleGenerateManifest(w http.ResponseWriter, r *http.Request) {
	var req shipmentIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.driver.GenerateManifest(r.Context(), toInt64s(req.ShipmentID))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, result)
}

func (s *Server) handleGenerateLabel(w http.ResponseWriter, r *http.Request) {
	var req shipmentIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.driver.GenerateLabel(r.Context(), toInt64s(req.ShipmentID))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, result)
}

func (s *Server) handleGeneratePrint(w http.ResponseWriter, r *http.Request) {
	var req shipmentIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.driver.GeneratePrint(r.Context(), toInt64s(req.ShipmentID))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, result)
}

func (s *Server) handleGenerateInvoice(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.driver.GenerateInvoice(r.Context(), toInt64s(req.IDs))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, result)
}

func (s *Server) handleCancelOrders(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := s.driver.CancelOrders(r.Context(), toInt64s(req.IDs)); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	awb := mux.Vars(r)["awb"]

	resp, err := s.driver.Track(r.Context(), awb)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, resp)
}

func (s *Server) handleListPickupLocations(w http.ResponseWriter, r *http.Request) {
	sellerID := r.Header.Get(sellerHeader)
	if sellerID == "" {
		respondError(w, carrier.NewValidationError("%s header is required", sellerHeader))
		return
	}

	locs, err := s.registry.ListBySeller(r.Context(), sellerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, locs)
}

// handleUpsertPickupLocation registers a new address or, when the payload
// names an existing location_id, updates its default flag.
func (s *Server) handleUpsertPickupLocation(w http.ResponseWriter, r *http.Request) {
	sellerID := r.Header.Get(sellerHeader)
	if sellerID == "" {
		respondError(w, carrier.NewValidationError("%s header is required", sellerHeader))
		return
	}

	var req struct {
		setDefaultLocationRequest
		locations.AddressInput
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if req.LocationID != 0 {
		if !req.IsDefault {
			respondError(w, carrier.NewValidationError("existing locations only support is_default updates"))
			return
		}
		if err := s.registry.SetDefault(r.Context(), sellerID, int64(req.LocationID)); err != nil {
			respondError(w, err)
			return
		}
		respondData(w, http.StatusOK, map[string]any{
			"location_id": int64(req.LocationID),
			"is_default":  true,
		})
		return
	}

	loc, err := s.registry.Register(r.Context(), sellerID, req.AddressInput)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, loc)
}

func (s *Server) handleAdminShippingCharge(w http.ResponseWriter, r *http.Request) {
	var req adminShippingChargeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.aggregator.AdminShippingCharge(r.Context(), req.DeliveryPostcode, req.COD, req.Items)
	if err != nil {
		respondError(w, err)
		return
	}

	s.logger.Ctx(r.Context()).Debug("Admin shipping charge computed",
		zap.String("delivery_postcode", req.DeliveryPostcode),
		zap.Bool("success", result.Success),
	)
	respondData(w, http.StatusOK, result)
}
