package registry

// Enumeration type codes used by the registry.
const (
	EnumerationIndividual   = "NPI-1"
	EnumerationOrganization = "NPI-2"
)

// Response is the top-level NPPES API payload.
type Response struct {
	ResultCount int        `json:"result_count"`
	Results     []Result   `json:"results"`
	Errors      []APIError `json:"Errors,omitempty"`
}

// APIError is an application-level error reported inside a 200 response,
// e.g. for a malformed query parameter.
type APIError struct {
	Description string `json:"description"`
	Field       string `json:"field,omitempty"`
	Number      string `json:"number,omitempty"`
}

// Result is one registry record as returned on the wire.
type Result struct {
	Number          string     `json:"number"`
	EnumerationType string     `json:"enumeration_type"`
	Basic           Basic      `json:"basic"`
	Addresses       []Address  `json:"addresses"`
	Taxonomies      []Taxonomy `json:"taxonomies"`
	LastUpdated     string     `json:"last_updated,omitempty"`
}

// Basic carries the name, status and lifecycle dates of a record.
type Basic struct {
	// Individual fields
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	Credential string `json:"credential"`
	Gender     string `json:"gender"`
	NamePrefix string `json:"name_prefix"`
	NameSuffix string `json:"name_suffix"`

	// Organization fields
	OrganizationName string `json:"organization_name"`

	EnumerationDate        string `json:"enumeration_date"`
	LastUpdated            string `json:"last_updated"`
	Status                 string `json:"status"` // "A" = active
	DeactivationDate       string `json:"deactivation_date,omitempty"`
	DeactivationReasonCode string `json:"deactivation_reason_code,omitempty"`
	ReactivationDate       string `json:"reactivation_date,omitempty"`
}

// Address is a registry address entry.
type Address struct {
	Address1       string `json:"address_1"`
	Address2       string `json:"address_2"`
	City           string `json:"city"`
	State          string `json:"state"`
	PostalCode     string `json:"postal_code"`
	CountryCode    string `json:"country_code"`
	AddressPurpose string `json:"address_purpose"` // "LOCATION" or "MAILING"
	Phone          string `json:"telephone_number"`
	Fax            string `json:"fax_number"`
}

// Taxonomy is a registry taxonomy entry.
type Taxonomy struct {
	Code    string `json:"code"`
	Desc    string `json:"desc"`
	Primary bool   `json:"primary"`
	State   string `json:"state"`
	License string `json:"license"`
}
