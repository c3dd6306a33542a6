package registry

import (
	"strings"

	"github.com/gyeh/npi-validator/internal/npi"
)

// ToProviderRecord converts a raw registry result into a normalized record.
// Fields that do not apply to the enumeration type are left empty.
func ToProviderRecord(r Result) npi.ProviderRecord {
	rec := npi.ProviderRecord{
		NPI:               r.Number,
		EnumerationType:   enumerationType(r.EnumerationType),
		Status:            providerStatus(r.Basic.Status),
		Taxonomies:        make([]npi.Taxonomy, 0, len(r.Taxonomies)),
		PracticeAddresses: []npi.Address{},
		MailingAddresses:  []npi.Address{},
		EnumerationDate:   r.Basic.EnumerationDate,
		LastUpdated:       firstNonEmpty(r.Basic.LastUpdated, r.LastUpdated),

		DeactivationDate:       cleanField(r.Basic.DeactivationDate),
		DeactivationReasonCode: cleanField(r.Basic.DeactivationReasonCode),
		ReactivationDate:       cleanField(r.Basic.ReactivationDate),
	}

	if rec.EnumerationType == npi.Individual {
		rec.FirstName = cleanField(r.Basic.FirstName)
		rec.LastName = cleanField(r.Basic.LastName)
		rec.MiddleName = cleanField(r.Basic.MiddleName)
		rec.Credential = cleanField(r.Basic.Credential)
		rec.Gender = cleanField(r.Basic.Gender)
		rec.NamePrefix = cleanField(r.Basic.NamePrefix)
		rec.NameSuffix = cleanField(r.Basic.NameSuffix)
	} else {
		rec.OrganizationName = cleanField(r.Basic.OrganizationName)
	}

	for _, t := range r.Taxonomies {
		rec.Taxonomies = append(rec.Taxonomies, npi.Taxonomy{
			Code:    t.Code,
			Desc:    t.Desc,
			Primary: t.Primary,
			State:   t.State,
			License: t.License,
		})
	}
	for i := range rec.Taxonomies {
		if rec.Taxonomies[i].Primary {
			primary := rec.Taxonomies[i]
			rec.PrimaryTaxonomy = &primary
			break
		}
	}

	for _, a := range r.Addresses {
		addr := npi.Address{
			Address1:    a.Address1,
			Address2:    cleanField(a.Address2),
			City:        a.City,
			State:       a.State,
			PostalCode:  a.PostalCode,
			CountryCode: a.CountryCode,
			Phone:       npi.FormatPhone(cleanField(a.Phone)),
			Fax:         npi.FormatPhone(cleanField(a.Fax)),
		}
		switch strings.ToUpper(a.AddressPurpose) {
		case npi.PurposeLocation:
			rec.PracticeAddresses = append(rec.PracticeAddresses, addr)
		case npi.PurposeMailing:
			rec.MailingAddresses = append(rec.MailingAddresses, addr)
		}
	}

	return rec
}

func enumerationType(code string) npi.EnumerationType {
	if code == EnumerationOrganization {
		return npi.Organization
	}
	return npi.Individual
}

func providerStatus(code string) npi.ProviderStatus {
	if strings.EqualFold(strings.TrimSpace(code), "A") {
		return npi.Active
	}
	return npi.Deactivated
}

// cleanField trims whitespace and drops the "--" placeholder the registry
// uses for blank values.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if s == "--" {
		return ""
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
