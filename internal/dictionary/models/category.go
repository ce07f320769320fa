package models

import (
	"strings"

	dErrors "phraseguard/pkg/domain-errors"
)

// Category classifies a dictionary phrase.
type Category string

const (
	// CategoryNG phrases are forbidden; their presence is a violation.
	CategoryNG Category = "NG"
	// CategoryAllow phrases are explicitly permitted and suppress similarity hits.
	CategoryAllow Category = "ALLOW"
)

// ParseCategory accepts NG or ALLOW in any case.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryNG:
		return CategoryNG, nil
	case CategoryAllow:
		return CategoryAllow, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "category must be NG or ALLOW")
}

func (c Category) IsValid() bool {
	return c == CategoryNG || c == CategoryAllow
}

func (c Category) String() string {
	return string(c)
}
