package leakix

import "strings"

// Wildcard is the query matching everything. The API returns the latest
// results when no filter is applied.
const Wildcard = "*"

// Query is one fragment of a search string. The set of implementations is
// closed: MustQuery, MustNotQuery, ShouldQuery, RawQuery and EmptyQuery.
type Query interface {
	Serialize() string

	isQuery()
}

// MustQuery requires the field to match (+field).
type MustQuery struct{ field Field }

// Must wraps f in a MustQuery.
func Must(f Field) MustQuery { return MustQuery{field: f} }

// Field returns the wrapped field.
func (q MustQuery) Field() Field { return q.field }

func (q MustQuery) Serialize() string { return prefixField("+", q.field) }
func (MustQuery) isQuery()            {}

// MustNotQuery excludes results matching the field (-field).
type MustNotQuery struct{ field Field }

// MustNot wraps f in a MustNotQuery.
func MustNot(f Field) MustNotQuery { return MustNotQuery{field: f} }

// Field returns the wrapped field.
func (q MustNotQuery) Field() Field { return q.field }

func (q MustNotQuery) Serialize() string { return prefixField("-", q.field) }
func (MustNotQuery) isQuery()            {}

// ShouldQuery makes the field optional; matches rank higher.
type ShouldQuery struct{ field Field }

// Should wraps f in a ShouldQuery.
func Should(f Field) ShouldQuery { return ShouldQuery{field: f} }

// Field returns the wrapped field.
func (q ShouldQuery) Field() Field { return q.field }

func (q ShouldQuery) Serialize() string { return prefixField("", q.field) }
func (ShouldQuery) isQuery()            {}

// RawQuery is a query written in the website syntax, sent verbatim.
// For instance RawQuery("+host:.be") filters on hosts under .be.
type RawQuery string

func (q RawQuery) Serialize() string { return string(q) }
func (RawQuery) isQuery()            {}

// EmptyQuery applies no filter.
type EmptyQuery struct{}

func (EmptyQuery) Serialize() string { return Wildcard }
func (EmptyQuery) isQuery()          {}

// prefixField serializes f behind prefix. A missing field contributes
// nothing, not even the prefix.
func prefixField(prefix string, f Field) string {
	if f == nil {
		return ""
	}
	return prefix + f.Serialize()
}

// QuerySet is the ordered list of fragments forming one search string.
type QuerySet []Query

// Serialize joins the fragments with single spaces, preserving order.
// Nil and empty fragments are skipped; a set with nothing left serializes
// to the wildcard.
func (qs QuerySet) Serialize() string {
	parts := make([]string, 0, len(qs))
	for _, q := range qs {
		if q == nil {
			continue
		}
		if s := q.Serialize(); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return EmptyQuery{}.Serialize()
	}
	return strings.Join(parts, " ")
}

// String implements fmt.Stringer.
func (qs QuerySet) String() string { return qs.Serialize() }
