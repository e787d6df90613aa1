package contracts

import "fmt"

// ProductGroup classifies a portfolio as pension or general account
type ProductGroup string

const (
	// ProductPension is the pension account group (연금)
	ProductPension ProductGroup = "f12"
	// ProductGeneral is the general investment account group (일반)
	ProductGeneral ProductGroup = "f11"
)

// ProductGroups returns groups in output order (pension first)
func ProductGroups() []ProductGroup {
	return []ProductGroup{ProductPension, ProductGeneral}
}

// PartnerCode returns the code transmitted to the partner (77 / 61)
func (g ProductGroup) PartnerCode() string {
	switch g {
	case ProductPension:
		return "77"
	case ProductGeneral:
		return "61"
	}
	return ""
}

// ProductGroupFromPartnerCode maps investgb (77 / 61) back to a group
func ProductGroupFromPartnerCode(code string) (ProductGroup, error) {
	switch code {
	case "77":
		return ProductPension, nil
	case "61":
		return ProductGeneral, nil
	}
	return "", fmt.Errorf("unknown partner product code %q", code)
}

// Valid reports whether g is one of the two known groups
func (g ProductGroup) Valid() bool {
	return g == ProductPension || g == ProductGeneral
}

// RiskGradeOf returns the risk grade encoded by the last character of a portfolio code
func RiskGradeOf(portfolioCode string) string {
	if portfolioCode == "" {
		return ""
	}
	return portfolioCode[len(portfolioCode)-1:]
}
