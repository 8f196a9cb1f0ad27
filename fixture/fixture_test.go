package fixture

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var phonePattern = regexp.MustCompile(`^\(\d{2}\) 9\d{4}-\d{4}$`)

func TestCompanyHasExactlyNContacts(t *testing.T) {
	g := New(7)
	for _, n := range []int{0, 1, 3, 25} {
		c := g.Company(n)
		require.Len(t, c.Contacts, n)
		assert.Zero(t, c.ID)
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.City)
		assert.True(t, ValidCNPJ(c.TaxID), "cnpj %q", c.TaxID)
		for _, contact := range c.Contacts {
			assert.Zero(t, contact.ID)
			assert.Zero(t, contact.CompanyID)
			assert.NotEmpty(t, contact.Name)
			assert.Regexp(t, phonePattern, contact.Phone)
		}
	}
}

func TestNegativeCountYieldsNoContacts(t *testing.T) {
	assert.Empty(t, New(1).Company(-1).Contacts)
}

func TestSameSeedSameFixture(t *testing.T) {
	assert.Equal(t, New(42).Company(3), New(42).Company(3))
}

func TestBrazilianVocabulary(t *testing.T) {
	g := New(11)
	for i := 0; i < 50; i++ {
		c := g.Company(2)
		assert.Contains(t, cities, c.City)

		parts := strings.Fields(c.Name)
		require.GreaterOrEqual(t, len(parts), 3, c.Name)
		assert.Contains(t, lastNames, parts[0])

		for _, contact := range c.Contacts {
			names := strings.Fields(contact.Name)
			require.Len(t, names, 3, contact.Name)
			assert.Contains(t, firstNames, names[0])
			assert.Contains(t, lastNames, names[1])
			assert.Contains(t, lastNames, names[2])
			assert.Contains(t, areaCodes, contact.Phone[1:3])
		}
	}
}

func TestCNPJIsHeadOffice(t *testing.T) {
	g := New(3)
	for i := 0; i < 100; i++ {
		cnpj := g.CNPJ()
		require.True(t, ValidCNPJ(cnpj), cnpj)
		assert.Equal(t, "0001", cnpj[8:12])
	}
}

func TestValidCNPJ(t *testing.T) {
	assert.True(t, ValidCNPJ("11222333000181"))
	assert.True(t, ValidCNPJ("11444777000161"))
	assert.False(t, ValidCNPJ("11222333000182"))
	assert.False(t, ValidCNPJ("11.222.333/0001-81"))
	assert.False(t, ValidCNPJ("1122233300018"))
	assert.False(t, ValidCNPJ("1122233300018a"))
}
