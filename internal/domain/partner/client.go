package partner

import (
	"net/mail"
	"strings"

	"github.com/autodealer/backend/internal/domain/shared"
)

// Client is a buyer or seller the dealership issues documents to
type Client struct {
	shared.BaseAggregateRoot
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	PostalCode string
	City       string
}

// ClientDetails holds the contact fields of a client
type ClientDetails struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	PostalCode string
	City       string
}

// NewClient creates a new client
func NewClient(details ClientDetails) (*Client, error) {
	c := &Client{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := c.Update(details); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the contact details.
// Documents already issued keep their own snapshot of the previous values.
func (c *Client) Update(details ClientDetails) error {
	if strings.TrimSpace(details.LastName) == "" {
		return shared.NewValidationError("last_name", "Client last name cannot be empty")
	}
	email := strings.TrimSpace(details.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.NewValidationError("email", "Client email is not a valid address")
		}
	}

	c.FirstName = strings.TrimSpace(details.FirstName)
	c.LastName = strings.TrimSpace(details.LastName)
	c.Email = strings.ToLower(email)
	c.Phone = strings.TrimSpace(details.Phone)
	c.Address = strings.TrimSpace(details.Address)
	c.PostalCode = strings.TrimSpace(details.PostalCode)
	c.City = strings.TrimSpace(details.City)
	c.Touch()
	return nil
}

// FullName returns "First Last"
func (c *Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
