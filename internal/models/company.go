package models

import "strings"

// Company is the issuer printed at the top left of a quote or invoice.
type Company struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Siret      string `json:"siret"`
	VatNumber  string `json:"vatNumber"`
}

// Client is the recipient of the document.
// Siret and VatNumber are optional and only printed when set.
type Client struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Siret      string `json:"siret,omitempty"`
	VatNumber  string `json:"vatNumber,omitempty"`
}

// Party is the printable view shared by Company and Client.
type Party struct {
	Name       string
	Address    string
	PostalCode string
	City       string
	Siret      string
	VatNumber  string
}

// Party returns the printable view of the company.
func (c Company) Party() Party {
	return Party{Name: c.Name, Address: c.Address, PostalCode: c.PostalCode, City: c.City, Siret: c.Siret, VatNumber: c.VatNumber}
}

// Party returns the printable view of the client.
func (c Client) Party() Party {
	return Party{Name: c.Name, Address: c.Address, PostalCode: c.PostalCode, City: c.City, Siret: c.Siret, VatNumber: c.VatNumber}
}

// CityLine returns "postalCode city", trimmed when one side is missing.
func (p Party) CityLine() string {
	return strings.TrimSpace(p.PostalCode + " " + p.City)
}

// FullAddress returns the multi-line postal address of the party.
func (p Party) FullAddress() string {
	var parts []string
	if p.Address != "" {
		parts = append(parts, p.Address)
	}
	if line := p.CityLine(); line != "" {
		parts = append(parts, line)
	}
	return strings.Join(parts, "\n")
}
