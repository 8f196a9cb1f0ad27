package model

// Company is persisted in "Empresas". ID is assigned by the database.
type Company struct {
	ID       int       `gorm:"column:IdEmpresa;primaryKey" db:"IdEmpresa"`
	TaxID    string    `gorm:"column:CNPJ" db:"CNPJ"`
	Name     string    `gorm:"column:Nome" db:"Nome"`
	City     string    `gorm:"column:Cidade" db:"Cidade"`
	Contacts []Contact `gorm:"foreignKey:CompanyID;references:ID" db:"-"`
}

func (Company) TableName() string {
	return "Empresas"
}

// Contact is persisted in "Contatos" and belongs to exactly one Company.
type Contact struct {
	ID        int    `gorm:"column:IdContato;primaryKey" db:"IdContato"`
	CompanyID int    `gorm:"column:IdEmpresa" db:"IdEmpresa"`
	Name      string `gorm:"column:Nome" db:"Nome"`
	Phone     string `gorm:"column:Telefone" db:"Telefone"`
}

func (Contact) TableName() string {
	return "Contatos"
}

// Clone returns a copy that does not share the contacts slice.
func (c Company) Clone() Company {
	clone := c
	if c.Contacts != nil {
		clone.Contacts = make([]Contact, len(c.Contacts))
		copy(clone.Contacts, c.Contacts)
	}
	return clone
}

// Rows returns the number of rows the aggregate occupies.
func (c Company) Rows() int {
	return 1 + len(c.Contacts)
}
