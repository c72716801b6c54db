package domain

// Address is owned by exactly one Person. It is created with its owner,
// updated in place with its owner and deleted together with its owner.
type Address struct {
	ID      int    `json:"id" db:"id"`
	Country string `json:"country" db:"country"`
	City    string `json:"city" db:"city"`
}

// Person is a registered individual. AddressID always equals Address.ID
// once the person has been persisted.
type Person struct {
	ID        int     `json:"id" db:"id"`
	FirstName string  `json:"firstName" db:"first_name"`
	LastName  string  `json:"lastName" db:"last_name"`
	Age       int     `json:"age" db:"age"`
	Email     string  `json:"email" db:"email"`
	AddressID int     `json:"addressId" db:"address_id"`
	Address   Address `json:"address"`
}

// ApplyFrom copies the caller-editable fields of src onto p. Identifiers
// (ID, AddressID, Address.ID) are left untouched.
func (p *Person) ApplyFrom(src Person) {
	p.FirstName = src.FirstName
	p.LastName = src.LastName
	p.Age = src.Age
	p.Email = src.Email
	p.Address.Country = src.Address.Country
	p.Address.City = src.Address.City
}
