package models

// Client is a broker-owned client record. Read-only here; created and
// mutated by the external CRUD collaborator.
type Client struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	BrokerID  string     `json:"broker_id"`
	Mortgages []Mortgage `json:"mortgages"`
}

// ActiveMortgage returns the client's active loan record: the first
// associated mortgage, or nil when the client has none.
func (c *Client) ActiveMortgage() *Mortgage {
	if len(c.Mortgages) == 0 {
		return nil
	}
	return &c.Mortgages[0]
}

// FullName returns the client's display name.
func (c *Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Mortgage is one loan held by a client.
type Mortgage struct {
	ID          string  `json:"id"`
	ClientID    string  `json:"client_id"`
	CurrentRate float64 `json:"current_rate"`
	TargetRate  float64 `json:"target_rate"`
	LoanAmount  float64 `json:"loan_amount"`
	TermYears   int     `json:"term_years"`
	Lender      string  `json:"lender"`
	Notes       string  `json:"notes"`
}
