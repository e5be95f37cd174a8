package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trovecart/shipping/internal/serviceability"
)

// ID is a carrier-side numeric identifier. Upstream clients are known to
// send these as either JSON numbers or numeric strings; anything else is
// rejected at the boundary.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid id %s", s)
		}
		s = unquoted
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: must be a numeric value", s)
	}
	*id = ID(v)
	return nil
}

func toInt64s(ids []ID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

type shipmentIDsRequest struct {
	ShipmentID []ID `json:"shipment_id"`
}

type assignAWBRequest struct {
	ShipmentID ID `json:"shipment_id"`
}

type idsRequest struct {
	IDs []ID `json:"ids"`
}

type serviceabilityMultiRequest struct {
	DeliveryPostcode string                `json:"deliveryPostcode"`
	COD              bool                  `json:"cod"`
	Items            []serviceability.Item `json:"items"`
}

type adminShippingChargeRequest struct {
	DeliveryPostcode string                `json:"deliveryPostcode"`
	COD              bool                  `json:"cod"`
	Items            []serviceability.Item `json:"items"`
}

type setDefaultLocationRequest struct {
	LocationID ID   `json:"location_id"`
	IsDefault  bool `json:"is_default"`
}
