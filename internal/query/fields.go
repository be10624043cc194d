package query

import (
	"strings"
	"time"

	"user-service/internal/apperror"
	"user-service/internal/model"
)

// Kind decides how a raw query value is parsed and compared
type Kind int

const (
	KindString Kind = iota
	KindDate
	KindTimestamp
)

// DateLayout is the layout accepted for date-only values such as birthDate
const DateLayout = "2006-01-02"

// Field describes one filterable and sortable user attribute.
// Every accessor is a typed function so the registry cannot drift from the model.
type Field struct {
	Name   string
	Column string
	Kind   Kind

	fromRequest func(*Request) string
	str         func(*model.User) string
	tm          func(*model.User) time.Time
}

// Parse converts a raw request value into the value stored for the field
func (f *Field) Parse(raw string) (any, error) {
	switch f.Kind {
	case KindDate:
		t, err := ParseDate(raw)
		if err != nil {
			return nil, apperror.Validation(f.Name, "expected a date (YYYY-MM-DD), got %q", raw)
		}
		return t, nil
	case KindTimestamp:
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, apperror.Validation(f.Name, "expected an RFC3339 timestamp, got %q", raw)
		}
		return t, nil
	default:
		return raw, nil
	}
}

// Equal reports whether the user's value for the field equals v
func (f *Field) Equal(u *model.User, v any) bool {
	switch f.Kind {
	case KindDate:
		want, ok := v.(time.Time)
		if !ok {
			return false
		}
		return sameDay(f.tm(u), want)
	case KindTimestamp:
		want, ok := v.(time.Time)
		return ok && f.tm(u).Equal(want)
	default:
		want, ok := v.(string)
		return ok && f.str(u) == want
	}
}

// Compare orders two users by the field: negative, zero or positive
func (f *Field) Compare(a, b *model.User) int {
	if f.Kind == KindString {
		return strings.Compare(f.str(a), f.str(b))
	}
	return f.tm(a).Compare(f.tm(b))
}

// ParseDate accepts a plain date or a full RFC3339 timestamp and returns the UTC day
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// DefaultSortField is used when the request does not name a known sort field
const DefaultSortField = "createdAt"

var fields = []*Field{
	{
		Name: "firstName", Column: "first_name", Kind: KindString,
		fromRequest: func(r *Request) string { return r.FirstName },
		str:         func(u *model.User) string { return u.FirstName },
	},
	{
		Name: "lastName", Column: "last_name", Kind: KindString,
		fromRequest: func(r *Request) string { return r.LastName },
		str:         func(u *model.User) string { return u.LastName },
	},
	{
		Name: "email", Column: "email", Kind: KindString,
		fromRequest: func(r *Request) string { return r.Email },
		str:         func(u *model.User) string { return u.Email },
	},
	{
		Name: "phone", Column: "phone", Kind: KindString,
		fromRequest: func(r *Request) string { return r.Phone },
		str:         func(u *model.User) string { return u.Phone },
	},
	{
		Name: "birthDate", Column: "birth_date", Kind: KindDate,
		fromRequest: func(r *Request) string { return r.BirthDate },
		tm:          func(u *model.User) time.Time { return u.BirthDate },
	},
	{
		Name: "marketingSource", Column: "marketing_source", Kind: KindString,
		fromRequest: func(r *Request) string { return r.MarketingSource },
		str:         func(u *model.User) string { return u.MarketingSource },
	},
	{
		Name: "status", Column: "status", Kind: KindString,
		fromRequest: func(r *Request) string { return r.Status },
		str:         func(u *model.User) string { return u.Status },
	},
	{
		Name: "createdAt", Column: "created_at", Kind: KindTimestamp,
		fromRequest: func(r *Request) string { return r.CreatedAt },
		tm:          func(u *model.User) time.Time { return u.CreatedAt },
	},
	{
		Name: "updatedAt", Column: "updated_at", Kind: KindTimestamp,
		fromRequest: func(r *Request) string { return r.UpdatedAt },
		tm:          func(u *model.User) time.Time { return u.UpdatedAt },
	},
}

var fieldsByName = func() map[string]*Field {
	m := make(map[string]*Field, len(fields))
	for _, f := range fields {
		m[f.Name] = f
	}
	return m
}()

// Lookup returns the allowlisted field with the given API name
func Lookup(name string) (*Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}
