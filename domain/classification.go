// SPDX-License-Identifier: GPL-3.0-or-later
package domain

type Category int

const (
	None     = Category(0)
	Applied  = Category(1)
	Rejected = Category(2)
	Action   = Category(3)
)

// Categories lists all assignable categories in report order.
var Categories = []Category{Applied, Rejected, Action}

func (c Category) String() string {
	switch c {
	case Applied:
		return "applied"
	case Rejected:
		return "rejected"
	case Action:
		return "action"
	}
	return "none"
}

type ClassificationResult struct {
	Source         string
	Date           string
	Sender         string
	Company        string
	Subject        string
	Category       Category
	MatchedKeyword string
	BodyPreview    string
}

type DedupeKey struct {
	Company  string
	Category Category
}

func (r *ClassificationResult) Key() DedupeKey {
	return DedupeKey{Company: r.Company, Category: r.Category}
}
