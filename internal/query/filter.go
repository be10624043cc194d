package query

import (
	"strings"

	"user-service/internal/model"
)

// Request is one list call: equality filters plus the paging window
type Request struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	BirthDate       string
	MarketingSource string
	Status          string
	CreatedAt       string
	UpdatedAt       string

	Window
}

// Condition is a single equality predicate
type Condition struct {
	Field *Field
	Value any
}

// Filter is the conjunction of its conditions and "not soft deleted".
// There is no way to build a Filter that admits deleted users.
type Filter struct {
	Conditions []Condition
}

// Build turns the request into a Filter. Blank values leave a field unconstrained;
// a value that does not parse for its field type is a validation error.
func Build(req Request) (Filter, error) {
	var f Filter
	for _, field := range fields {
		raw := strings.TrimSpace(field.fromRequest(&req))
		if raw == "" {
			continue
		}
		v, err := field.Parse(raw)
		if err != nil {
			return Filter{}, err
		}
		f.Conditions = append(f.Conditions, Condition{Field: field, Value: v})
	}
	return f, nil
}

// ByEmail matches the active user holding email
func ByEmail(email string) Filter {
	field, _ := Lookup("email")
	return Filter{Conditions: []Condition{{Field: field, Value: email}}}
}

// Match evaluates the filter against an in-memory user
func (f Filter) Match(u *model.User) bool {
	if u.IsDeleted {
		return false
	}
	for _, c := range f.Conditions {
		if !c.Field.Equal(u, c.Value) {
			return false
		}
	}
	return true
}
