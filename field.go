package leakix

import (
	"strconv"
	"time"
)

// Operator qualifies a field comparison. The zero value is Equal.
type Operator string

const (
	Equal           Operator = ""
	StrictlyGreater Operator = ">"
	StrictlySmaller Operator = "<"
)

const dateLayout = "2006-01-02"

// Field is a single named search predicate. The set of implementations is
// closed: CustomField, TimeField, UpdateDateField, AgeField, PortField,
// IPField, CountryField and PluginField.
//
// Fields are documented at https://docs.leakix.net/docs/query/fields/.
type Field interface {
	// Name returns the search attribute the field filters on.
	Name() string
	// Operator returns the comparison operator.
	Operator() Operator
	// Serialize renders the field as one query token.
	Serialize() string

	isField()
}

// term is the shared representation of every field variant.
type term struct {
	name  string
	value string
	op    Operator
}

func (t term) Name() string       { return t.name }
func (t term) Operator() Operator { return t.op }
func (term) isField()             {}

// Serialize renders name:value, or name:{op}value for ordered comparisons.
func (t term) Serialize() string {
	if t.op == Equal {
		return t.name + ":" + t.value
	}
	return t.name + ":" + string(t.op) + t.value
}

// String implements fmt.Stringer.
func (t term) String() string { return t.Serialize() }

// CustomField filters on an arbitrary attribute. The value is used verbatim.
type CustomField struct{ term }

// NewCustomField returns a field filtering name against value.
func NewCustomField(name, value string, op Operator) CustomField {
	return CustomField{term{name: name, value: value, op: op}}
}

// TimeField filters on the event time, at day precision.
type TimeField struct{ term }

// NewTimeField returns a time field for the day of d.
func NewTimeField(d time.Time, op Operator) TimeField {
	return TimeField{term{name: "time", value: quoteDate(d), op: op}}
}

// UpdateDateField filters on the last update date, at day precision.
// It is a different attribute from TimeField.
type UpdateDateField struct{ term }

// NewUpdateDateField returns an update_date field for the day of d.
func NewUpdateDateField(d time.Time, op Operator) UpdateDateField {
	return UpdateDateField{term{name: "update_date", value: quoteDate(d), op: op}}
}

// AgeField filters on the result age. Negative ages are passed through.
type AgeField struct{ term }

// NewAgeField returns an age field.
func NewAgeField(age int, op Operator) AgeField {
	return AgeField{term{name: "age", value: strconv.Itoa(age), op: op}}
}

// PortField filters on a TCP/UDP port.
type PortField struct{ term }

// NewPortField returns a port field. It fails with an *InvalidArgumentError
// unless 0 <= port <= 65535.
func NewPortField(port int, op Operator) (PortField, error) {
	if port < 0 || port > 65535 {
		return PortField{}, &InvalidArgumentError{
			Arg:    "port",
			Value:  port,
			Reason: "must be between 0 and 65535",
		}
	}
	return PortField{term{name: "port", value: strconv.Itoa(port), op: op}}, nil
}

// IPField filters on an IP address or range, passed through unescaped.
type IPField struct{ term }

// NewIPField returns an ip field.
func NewIPField(ip string, op Operator) IPField {
	return IPField{term{name: "ip", value: ip, op: op}}
}

// CountryField filters on the country name, passed through unescaped.
type CountryField struct{ term }

// NewCountryField returns a country field.
func NewCountryField(country string) CountryField {
	return CountryField{term{name: "country", value: country}}
}

// PluginField filters on the plugin that produced a result. Plugin identity
// has no ordering, so the operator is always Equal.
type PluginField struct{ term }

// NewPluginField returns a plugin field.
func NewPluginField(p Plugin) PluginField {
	return PluginField{term{name: "plugin", value: string(p)}}
}

func quoteDate(d time.Time) string {
	return `"` + d.Format(dateLayout) + `"`
}
