package npi

import (
	"fmt"
	"strings"
)

// EnumerationType distinguishes individual providers (NPI-1) from
// organizations (NPI-2).
type EnumerationType string

const (
	Individual   EnumerationType = "individual"
	Organization EnumerationType = "organization"
)

// ProviderStatus is the registry's activity flag for an NPI.
type ProviderStatus string

const (
	Active      ProviderStatus = "active"
	Deactivated ProviderStatus = "deactivated"
)

// Address purposes as reported by the registry.
const (
	PurposeLocation = "LOCATION"
	PurposeMailing  = "MAILING"
)

// ProviderRecord is a normalized NPPES registry entry. Records are built once
// from a registry response and never modified afterwards.
type ProviderRecord struct {
	NPI             string          `json:"npi"`
	EnumerationType EnumerationType `json:"enumerationType"`
	Status          ProviderStatus  `json:"status"`

	// Individual fields
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	MiddleName string `json:"middleName,omitempty"`
	Credential string `json:"credential,omitempty"`
	Gender     string `json:"gender,omitempty"`
	NamePrefix string `json:"namePrefix,omitempty"`
	NameSuffix string `json:"nameSuffix,omitempty"`

	// Organization fields
	OrganizationName string `json:"organizationName,omitempty"`

	PrimaryTaxonomy   *Taxonomy  `json:"primaryTaxonomy,omitempty"`
	Taxonomies        []Taxonomy `json:"taxonomies"`
	PracticeAddresses []Address  `json:"practiceAddresses"`
	MailingAddresses  []Address  `json:"mailingAddresses"`

	EnumerationDate        string `json:"enumerationDate,omitempty"`
	LastUpdated            string `json:"lastUpdated,omitempty"`
	DeactivationDate       string `json:"deactivationDate,omitempty"`
	DeactivationReasonCode string `json:"deactivationReasonCode,omitempty"`
	ReactivationDate       string `json:"reactivationDate,omitempty"`
}

// Taxonomy is a provider specialty from the Healthcare Provider Taxonomy
// code set.
type Taxonomy struct {
	Code    string `json:"code"`
	Desc    string `json:"desc"`
	Primary bool   `json:"primary"`
	State   string `json:"state,omitempty"`
	License string `json:"license,omitempty"`
}

// Address is a practice location or mailing address.
type Address struct {
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Fax         string `json:"fax,omitempty"`
}

// IsOrganization reports whether the record describes an organization.
func (p *ProviderRecord) IsOrganization() bool {
	return p.EnumerationType == Organization
}

// DisplayName returns "LAST, FIRST MIDDLE" for individuals and the
// organization name for organizations.
func (p *ProviderRecord) DisplayName() string {
	if p.IsOrganization() {
		return p.OrganizationName
	}
	parts := []string{p.LastName}
	if p.FirstName != "" {
		parts = append(parts, p.FirstName)
	}
	name := strings.Join(parts, ", ")
	if p.MiddleName != "" {
		name += " " + p.MiddleName
	}
	return name
}

// PrimaryPracticeAddress returns the first practice location, falling back to
// the first mailing address. Returns nil if the record has neither.
func (p *ProviderRecord) PrimaryPracticeAddress() *Address {
	if len(p.PracticeAddresses) > 0 {
		return &p.PracticeAddresses[0]
	}
	if len(p.MailingAddresses) > 0 {
		return &p.MailingAddresses[0]
	}
	return nil
}

// Summary renders the address as "City, ST 12345".
func (a Address) Summary() string {
	parts := []string{}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	if a.State != "" {
		parts = append(parts, a.State)
	}
	loc := strings.Join(parts, ", ")
	if a.PostalCode != "" {
		zip := a.PostalCode
		if len(zip) > 5 {
			zip = zip[:5]
		}
		if loc != "" {
			loc += " "
		}
		loc += zip
	}
	return loc
}

// FormatPhone renders a 10-digit US number as "(555) 555-5555". Anything else
// is returned unchanged.
func FormatPhone(phone string) string {
	p := strings.TrimSpace(strings.ReplaceAll(phone, "-", ""))
	if len(p) == 10 && allDigits(p) {
		return fmt.Sprintf("(%s) %s-%s", p[:3], p[3:6], p[6:])
	}
	return phone
}
