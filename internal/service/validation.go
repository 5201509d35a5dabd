package service

import (
	"net/mail"
	"strings"

	"bagshop/internal/models"
)

func normalizeAddress(a models.Address) models.Address {
	return models.Address{
		FullName:            strings.TrimSpace(a.FullName),
		AddressLine1:        strings.TrimSpace(a.AddressLine1),
		AddressLine2:        strings.TrimSpace(a.AddressLine2),
		City:                strings.TrimSpace(a.City),
		StateProvinceRegion: strings.TrimSpace(a.StateProvinceRegion),
		PostalCode:          strings.TrimSpace(a.PostalCode),
		CountryCode:         strings.ToUpper(strings.TrimSpace(a.CountryCode)),
		PhoneNumber:         strings.TrimSpace(a.PhoneNumber),
	}
}

// validateAddress пишет ошибки в ve с префиксом блока ("shipping", "billing").
func validateAddress(ve *ValidationError, prefix string, a models.Address) {
	required := []struct {
		field string
		value string
	}{
		{"full_name", a.FullName},
		{"address_line1", a.AddressLine1},
		{"city", a.City},
		{"state_province_region", a.StateProvinceRegion},
		{"postal_code", a.PostalCode},
		{"country_code", a.CountryCode},
	}
	for _, r := range required {
		if r.value == "" {
			ve.add(prefix+"."+r.field, "required")
		}
	}

	if a.CountryCode != "" && !isCountryCode(a.CountryCode) {
		ve.add(prefix+".country_code", "must be a 2-letter code")
	}
}

func isCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// resolveBilling копирует shipping в billing поле за полем: целиком, если
// указано «как доставка», иначе только незаполненные поля.
func resolveBilling(shipping models.Address, billing *models.Address, sameAsShipping bool) models.Address {
	if sameAsShipping || billing == nil {
		return shipping
	}

	b := *billing
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&b.FullName, shipping.FullName)
	fill(&b.AddressLine1, shipping.AddressLine1)
	fill(&b.AddressLine2, shipping.AddressLine2)
	fill(&b.City, shipping.City)
	fill(&b.StateProvinceRegion, shipping.StateProvinceRegion)
	fill(&b.PostalCode, shipping.PostalCode)
	fill(&b.CountryCode, shipping.CountryCode)
	fill(&b.PhoneNumber, shipping.PhoneNumber)
	return b
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
