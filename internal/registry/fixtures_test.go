package registry

const individualJSON = `{
	"result_count": 1,
	"results": [
		{
			"number": "1234567893",
			"enumeration_type": "NPI-1",
			"last_updated_epoch": "1700000000000",
			"basic": {
				"first_name": "JANE",
				"last_name": "DOE",
				"middle_name": "Q",
				"credential": "M.D.",
				"gender": "F",
				"name_prefix": "Dr.",
				"name_suffix": "--",
				"sole_proprietor": "NO",
				"enumeration_date": "2006-05-23",
				"last_updated": "2021-08-12",
				"status": "A"
			},
			"addresses": [
				{
					"address_1": "1 MAIN ST",
					"address_2": "",
					"city": "BOSTON",
					"state": "MA",
					"postal_code": "021151234",
					"country_code": "US",
					"address_purpose": "MAILING",
					"address_type": "DOM",
					"telephone_number": "617-555-0100"
				},
				{
					"address_1": "200 CLINIC RD",
					"address_2": "SUITE 4",
					"city": "CAMBRIDGE",
					"state": "MA",
					"postal_code": "02139",
					"country_code": "US",
					"address_purpose": "LOCATION",
					"address_type": "DOM",
					"telephone_number": "617-555-0199",
					"fax_number": "617-555-0198"
				},
				{
					"address_1": "9 SECOND ST",
					"city": "SOMERVILLE",
					"state": "MA",
					"postal_code": "02143",
					"address_purpose": "LOCATION"
				}
			],
			"taxonomies": [
				{"code": "207R00000X", "desc": "Internal Medicine", "primary": false, "state": "MA", "license": "123"},
				{"code": "207RC0000X", "desc": "Cardiovascular Disease", "primary": true, "state": "MA", "license": "123"}
			],
			"identifiers": [],
			"endpoints": []
		}
	]
}`

const organizationJSON = `{
	"result_count": 1,
	"results": [
		{
			"number": "1245319599",
			"enumeration_type": "NPI-2",
			"basic": {
				"organization_name": "ACME CLINIC LLC",
				"organizational_subpart": "NO",
				"authorized_official_first_name": "JOHN",
				"enumeration_date": "2007-01-02",
				"last_updated": "2019-03-04",
				"status": "D",
				"deactivation_date": "2020-01-01",
				"deactivation_reason_code": "DT"
			},
			"addresses": [
				{"address_1": "5 PARK AVE", "city": "NEW YORK", "state": "NY", "postal_code": "10001", "address_purpose": "LOCATION"}
			],
			"taxonomies": [
				{"code": "261QP2300X", "desc": "Clinic/Center, Primary Care", "primary": false}
			]
		}
	]
}`

const notFoundJSON = `{"result_count": 0, "results": []}`

const nullResultsJSON = `{"result_count": 0, "results": null}`

const applicationErrorJSON = `{
	"Errors": [
		{"description": "Field number requires number", "field": "number", "number": "04"},
		{"description": "Invalid version", "field": "version", "number": "01"}
	]
}`
