package domain

// Department identifies the analysis pipeline a dataset belongs to.
type Department string

const (
	DepartmentSales     Department = "sales"
	DepartmentInventory Department = "inventory"
	DepartmentMarketing Department = "marketing"
	DepartmentReviews   Department = "reviews"
	DepartmentGeneral   Department = "general"
	DepartmentUnknown   Department = "unknown"
)

// DefaultDepartments is the trio surfaced before any upload exists.
var DefaultDepartments = []Department{
	DepartmentSales,
	DepartmentInventory,
	DepartmentReviews,
}

func ParseDepartment(s string) Department {
	switch Department(s) {
	case DepartmentSales, DepartmentInventory, DepartmentMarketing,
		DepartmentReviews, DepartmentGeneral:
		return Department(s)
	}
	return DepartmentUnknown
}

func (d Department) Valid() bool {
	return d != DepartmentUnknown && d != ""
}

// Canonical review column names. Aliased headers are renamed to these during
// normalization and every review aggregate addresses columns by them.
const (
	ColASIN       = "asin"
	ColReviewText = "reviewText"
	ColOverall    = "overall"
	ColSummary    = "summary"
	ColReviewTime = "reviewTime"
	ColUnixTime   = "unixReviewTime"
)

// Canonical sales column names.
const (
	ColQuantity    = "quantity"
	ColPrice       = "price"
	ColDiscount    = "discount"
	ColTotalAmount = "total_amount"
	ColTimestamp   = "timestamp"
	ColYear        = "year"
	ColMonthYear   = "month_year"
)
