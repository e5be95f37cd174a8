package carrier

// DocumentStage represents how far a shipment has progressed through its
// document lifecycle. Every lifecycle result carries the stage it reached;
// transitions are driven by explicit calls only.
type DocumentStage string

const (
	StageNew             DocumentStage = "new"
	StageAWBAssigned     DocumentStage = "awb_assigned"
	StagePickupScheduled DocumentStage = "pickup_scheduled"
	StageManifested      DocumentStage = "manifested"
	StageDocumentsReady  DocumentStage = "documents_ready"
)

// CourierOption is a single courier candidate reported by the carrier for
// a pickup/delivery postcode pair.
type CourierOption struct {
	CourierCompanyID  int     `json:"courier_company_id"`
	CourierName       string  `json:"courier_name"`
	Rate              float64 `json:"rate"`
	EstimatedDelivery string  `json:"etd"`
	CODAvailable      bool    `json:"cod"`
	Recommended       bool    `json:"recommended"`
}

// OrderEnvelope is the normalized result of creating a carrier-side order.
type OrderEnvelope struct {
	Stage            DocumentStage `json:"stage"`
	OrderID          int64         `json:"order_id"`
	ShipmentID       int64         `json:"shipment_id"`
	Status           string        `json:"status"`
	AWBCode          string        `json:"awb_code,omitempty"`
	CourierCompanyID int           `json:"courier_company_id,omitempty"`
	CourierName      string        `json:"courier_name,omitempty"`
}

// AWBResult is the normalized result of assigning an air waybill.
type AWBResult struct {
	Stage            DocumentStage `json:"stage"`
	AWBCode          string        `json:"awb_code"`
	CourierCompanyID int           `json:"courier_company_id"`
	CourierName      string        `json:"courier_name"`
}

// PickupResult is the normalized result of scheduling a pickup.
type PickupResult struct {
	Stage               DocumentStage `json:"stage"`
	PickupStatus        int           `json:"pickup_status"`
	PickupScheduledDate string        `json:"pickup_scheduled_date,omitempty"`
	PickupTokenNumber   string        `json:"pickup_token_number,omitempty"`
	PickupGeneratedDate string        `json:"pickup_generated_date,omitempty"`
	Message             string        `json:"message,omitempty"`
}

// ManifestResult is the normalized result of generating a manifest.
// AlreadyGenerated is set when the carrier reports the manifest exists;
// callers treat that as success.
type ManifestResult struct {
	Stage            DocumentStage `json:"stage"`
	ManifestURL      string        `json:"manifest_url,omitempty"`
	AlreadyGenerated bool          `json:"is_already_generated"`
}

// LabelResult is the normalized result of generating a label.
type LabelResult struct {
	Stage    DocumentStage `json:"stage"`
	LabelURL string        `json:"label_url"`
}

// InvoiceResult is the normalized result of generating an invoice.
type InvoiceResult struct {
	Stage      DocumentStage `json:"stage"`
	InvoiceURL string        `json:"invoice_url"`
}

// PrintResult is the normalized result of a manifest print job.
type PrintResult struct {
	Stage    DocumentStage `json:"stage"`
	PrintURL string        `json:"print_url"`
}
