// Package fixture generates the synthetic Company and Contact values inserted by one
// iteration.
package fixture

import (
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"crmbench/model"
)

const cnpjLength = 14

var (
	firstDigitWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	secondDigitWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

type Generator struct {
	faker *gofakeit.Faker
}

// New returns a generator. A zero seed picks a random one.
func New(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Company returns a company with exactly n contacts. Identifiers are left zero.
func (g *Generator) Company(n int) model.Company {
	company := model.Company{
		Name:     g.CompanyName(),
		TaxID:    g.CNPJ(),
		City:     g.faker.RandomString(cities),
		Contacts: make([]model.Contact, 0, max(n, 0)),
	}
	for i := 0; i < n; i++ {
		company.Contacts = append(company.Contacts, model.Contact{
			Name:  g.Name(),
			Phone: g.Phone(),
		})
	}
	return company
}

// CNPJ returns an unformatted 14 digit CNPJ for a head office (branch 0001).
func (g *Generator) CNPJ() string {
	digits := make([]int, 0, cnpjLength)
	for i := 0; i < 8; i++ {
		digits = append(digits, g.faker.Number(0, 9))
	}
	digits = append(digits, 0, 0, 0, 1)
	digits = append(digits, checkDigit(digits, firstDigitWeights))
	digits = append(digits, checkDigit(digits, secondDigitWeights))

	var sb strings.Builder
	for _, d := range digits {
		sb.WriteString(strconv.Itoa(d))
	}
	return sb.String()
}

// CompanyName returns a name such as "Oliveira Transportes Ltda.".
func (g *Generator) CompanyName() string {
	return g.faker.RandomString(lastNames) + " " + g.faker.RandomString(companySectors) + " " +
		g.faker.RandomString(companySuffixes)
}

// Name returns a first name followed by two surnames.
func (g *Generator) Name() string {
	return g.faker.RandomString(firstNames) + " " + g.faker.RandomString(lastNames) + " " +
		g.faker.RandomString(lastNames)
}

// Phone returns a Brazilian mobile number such as "(11) 91234-5678".
func (g *Generator) Phone() string {
	return "(" + g.faker.RandomString(areaCodes) + ") " + g.faker.Numerify("9####-####")
}

// ValidCNPJ reports whether s is 14 digits with matching check digits.
func ValidCNPJ(s string) bool {
	if len(s) != cnpjLength {
		return false
	}
	digits := make([]int, 0, cnpjLength)
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
		digits = append(digits, int(r-'0'))
	}
	return checkDigit(digits[:12], firstDigitWeights) == digits[12] &&
		checkDigit(digits[:13], secondDigitWeights) == digits[13]
}

func checkDigit(digits []int, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += digits[i] * w
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}
