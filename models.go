package leakix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Scope selects the result category of a search.
type Scope string

const (
	ScopeService Scope = "service"
	ScopeLeak    Scope = "leak"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeService || s == ScopeLeak
}

func (s Scope) String() string {
	return string(s)
}

// PortNumber is a port as reported by the API. The API emits ports both as
// JSON strings and as numbers; PortNumber accepts either and always encodes
// as a string.
type PortNumber string

// UnmarshalJSON implements json.Unmarshaler.
func (p *PortNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PortNumber(s)
		return nil
	}

	n, err := strconv.ParseInt(string(data), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid port %s", data)
	}
	*p = PortNumber(strconv.FormatInt(n, 10))
	return nil
}

// Event is a service or leak event.
//
// Only the commonly used attributes are modeled; the TLS and SSH blocks and
// service credentials are kept as raw JSON.
type Event struct {
	EventType        string     `json:"event_type,omitempty"`
	EventSource      string     `json:"event_source,omitempty"`
	EventPipeline    []string   `json:"event_pipeline,omitempty"`
	EventFingerprint string     `json:"event_fingerprint,omitempty"`
	IP               string     `json:"ip,omitempty"`
	Host             string     `json:"host,omitempty"`
	Reverse          string     `json:"reverse,omitempty"`
	Port             PortNumber `json:"port,omitempty"`
	MAC              string     `json:"mac,omitempty"`
	Vendor           string     `json:"vendor,omitempty"`
	Transport        []string   `json:"transport,omitempty"`
	Protocol         string     `json:"protocol,omitempty"`
	Summary          string     `json:"summary,omitempty"`
	Time             time.Time  `json:"time,omitzero"`
	Tags             []string   `json:"tags,omitempty"`

	HTTP    *HTTPInfo    `json:"http,omitempty"`
	Service *ServiceInfo `json:"service,omitempty"`
	Leak    *LeakInfo    `json:"leak,omitempty"`
	GeoIP   *GeoIP       `json:"geoip,omitempty"`
	Network *Network     `json:"network,omitempty"`

	SSL json.RawMessage `json:"ssl,omitempty"`
	SSH json.RawMessage `json:"ssh,omitempty"`
}

// HTTPInfo describes the HTTP exchange behind an event.
type HTTPInfo struct {
	Root        string            `json:"root,omitempty"`
	URL         string            `json:"url,omitempty"`
	Status      int               `json:"status,omitempty"`
	Length      int64             `json:"length,omitempty"`
	Header      map[string]string `json:"header,omitempty"`
	Title       string            `json:"title,omitempty"`
	FaviconHash string            `json:"favicon_hash,omitempty"`
}

// ServiceInfo describes the software fingerprinted on a service.
type ServiceInfo struct {
	Credentials json.RawMessage `json:"credentials,omitempty"`
	Software    *Software       `json:"software,omitempty"`
}

// Software identifies a product and version.
type Software struct {
	Name        string `json:"name,omitempty"`
	Version     string `json:"version,omitempty"`
	OS          string `json:"os,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// LeakInfo describes the exposed data of a leak event.
type LeakInfo struct {
	Stage    string   `json:"stage,omitempty"`
	Type     string   `json:"type,omitempty"`
	Severity string   `json:"severity,omitempty"`
	Dataset  *Dataset `json:"dataset,omitempty"`
}

// Dataset summarizes the size of a leak.
type Dataset struct {
	Rows        int64    `json:"rows,omitempty"`
	Files       int64    `json:"files,omitempty"`
	Size        int64    `json:"size,omitempty"`
	Collections int64    `json:"collections,omitempty"`
	Infected    bool     `json:"infected,omitempty"`
	RansomNotes []string `json:"ransom_notes,omitempty"`
}

// GeoIP locates an address.
type GeoIP struct {
	ContinentName  string    `json:"continent_name,omitempty"`
	RegionISOCode  string    `json:"region_iso_code,omitempty"`
	CityName       string    `json:"city_name,omitempty"`
	CountryISOCode string    `json:"country_iso_code,omitempty"`
	CountryName    string    `json:"country_name,omitempty"`
	RegionName     string    `json:"region_name,omitempty"`
	Location       *GeoPoint `json:"location,omitempty"`
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Network identifies the autonomous system an address belongs to.
type Network struct {
	OrganizationName string `json:"organization_name,omitempty"`
	ASN              int    `json:"asn,omitempty"`
	Network          string `json:"network,omitempty"`
}

// Aggregation is one bulk export record: every leak event of one resource.
type Aggregation struct {
	Summary        string       `json:"summary,omitempty"`
	IP             string       `json:"ip,omitempty"`
	ResourceID     string       `json:"resource_id,omitempty"`
	OpenPorts      []PortNumber `json:"open_ports,omitempty"`
	LeakCount      int          `json:"leak_count,omitempty"`
	LeakEventCount int          `json:"leak_event_count,omitempty"`
	Events         []Event      `json:"events,omitempty"`
	Plugins        []string     `json:"plugins,omitempty"`
	GeoIP          *GeoIP       `json:"geoip,omitempty"`
	Network        *Network     `json:"network,omitempty"`
	CreationDate   time.Time    `json:"creation_date,omitzero"`
	UpdateDate     time.Time    `json:"update_date,omitzero"`
	Fresh          bool         `json:"fresh,omitempty"`
}

// Subdomain is one entry of a subdomain listing.
type Subdomain struct {
	Subdomain   string    `json:"subdomain"`
	DistinctIPs int       `json:"distinct_ips"`
	LastSeen    time.Time `json:"last_seen"`
}

// HostEvent is one entry of a host or domain lookup. Entries that could not
// be decoded as an Event keep their raw JSON instead of failing the lookup.
type HostEvent struct {
	Event *Event
	Raw   json.RawMessage
}

// Decoded reports whether the entry was decoded into an Event.
func (h HostEvent) Decoded() bool {
	return h.Event != nil
}

// MarshalJSON encodes the decoded event, or the raw element when decoding
// failed.
func (h HostEvent) MarshalJSON() ([]byte, error) {
	if h.Event != nil {
		return json.Marshal(h.Event)
	}
	if len(h.Raw) == 0 {
		return []byte("null"), nil
	}
	return h.Raw, nil
}

// UnmarshalJSON implements json.Unmarshaler with the same fallback as a
// lookup: undecodable elements are kept raw.
func (h *HostEvent) UnmarshalJSON(data []byte) error {
	*h = decodeHostEvent(data)
	return nil
}

// HostResult holds the services and leaks of a host or domain lookup.
// Missing lists in the API payload are returned as empty slices.
type HostResult struct {
	Services []HostEvent `json:"services"`
	Leaks    []HostEvent `json:"leaks"`
}

func decodeHostEvent(data json.RawMessage) HostEvent {
	// null would otherwise decode into an empty event
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return HostEvent{Raw: json.RawMessage("null")}
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return HostEvent{Raw: append(json.RawMessage(nil), data...)}
	}
	return HostEvent{Event: &ev}
}
