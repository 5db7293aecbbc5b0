package models

import "strings"

// CustomerInfo is the contact and delivery data entered on the checkout form.
type CustomerInfo struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PostalCode   string `json:"postal_code,omitempty"`
	Street       string `json:"street,omitempty"`
	House        string `json:"house,omitempty"`
	Stairs       string `json:"stairs,omitempty"`
	Stick        string `json:"stick,omitempty"`
	Door         string `json:"door,omitempty"`
	Bell         string `json:"bell,omitempty"`
	SpecialNotes string `json:"special_notes,omitempty"`
}

func (ci CustomerInfo) FullName() string {
	return strings.TrimSpace(ci.FirstName + " " + ci.LastName)
}

// PostalCodeEntry and Address feed the delivery address selector.
type PostalCodeEntry struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
	City string `json:"city,omitempty"`
}

type Address struct {
	ID     uint   `json:"id"`
	Street string `json:"street"`
}
