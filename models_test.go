package leakix_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-leakix"
)

func TestPortNumber(t *testing.T) {
	t.Run("accepts string", func(t *testing.T) {
		var p leakix.PortNumber
		require.NoError(t, json.Unmarshal([]byte(`"8080"`), &p))
		assert.Equal(t, leakix.PortNumber("8080"), p)
	})

	t.Run("accepts number", func(t *testing.T) {
		var p leakix.PortNumber
		require.NoError(t, json.Unmarshal([]byte(`443`), &p))
		assert.Equal(t, leakix.PortNumber("443"), p)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		var p leakix.PortNumber
		assert.Error(t, json.Unmarshal([]byte(`true`), &p))
	})

	t.Run("encodes as string", func(t *testing.T) {
		data, err := json.Marshal(leakix.PortNumber("22"))
		require.NoError(t, err)
		assert.JSONEq(t, `"22"`, string(data))
	})
}

const sampleEvent = `{
	"event_type": "leak",
	"event_source": "GitConfigHttpPlugin",
	"ip": "192.0.2.10",
	"host": "example.com",
	"port": 443,
	"protocol": "https",
	"summary": "found .git/config",
	"time": "2024-01-15T10:00:00Z",
	"tags": ["git"],
	"http": {"url": "/.git/config", "status": 200, "title": "Index"},
	"leak": {"stage": "open", "severity": "high", "dataset": {"rows": 12, "infected": true}},
	"geoip": {"country_name": "France", "location": {"lat": 48.85, "lon": 2.35}},
	"network": {"organization_name": "Example SA", "asn": 64500, "network": "192.0.2.0/24"},
	"ssl": {"version":"TLSv1.3"}
}`

func TestEventRoundTrip(t *testing.T) {
	var first leakix.Event
	require.NoError(t, json.Unmarshal([]byte(sampleEvent), &first))

	assert.Equal(t, "192.0.2.10", first.IP)
	assert.Equal(t, leakix.PortNumber("443"), first.Port)
	require.NotNil(t, first.Leak)
	require.NotNil(t, first.Leak.Dataset)
	assert.Equal(t, int64(12), first.Leak.Dataset.Rows)
	require.NotNil(t, first.GeoIP)
	require.NotNil(t, first.GeoIP.Location)
	assert.InDelta(t, 48.85, first.GeoIP.Location.Lat, 0.001)
	assert.Equal(t, 64500, first.Network.ASN)
	assert.JSONEq(t, `{"version":"TLSv1.3"}`, string(first.SSL))

	encoded, err := json.Marshal(first)
	require.NoError(t, err)

	var second leakix.Event
	require.NoError(t, json.Unmarshal(encoded, &second))
	assert.Equal(t, first, second)
}

// roundTrip decodes line into a fresh T, encodes it, decodes that again and
// checks that the second encoding is stable.
func roundTrip[T any](t *testing.T, line string) (first, second T) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(line), &first))
	encoded, err := json.Marshal(first)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(encoded, &second))
	again, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(encoded), string(again))
	return first, second
}

func TestRecordRoundTrip(t *testing.T) {
	t.Run("subdomain", func(t *testing.T) {
		first, second := roundTrip[leakix.Subdomain](t,
			`{"subdomain":"mail.example.com","distinct_ips":3,"last_seen":"2024-05-01T12:30:00Z"}`)

		assert.Equal(t, "mail.example.com", first.Subdomain)
		assert.Equal(t, 3, first.DistinctIPs)
		assert.True(t, first.LastSeen.Equal(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)))
		assert.Equal(t, first, second)
	})

	t.Run("subdomain with offset", func(t *testing.T) {
		first, second := roundTrip[leakix.Subdomain](t,
			`{"subdomain":"www.example.com","distinct_ips":1,"last_seen":"2024-05-01T14:30:00.5+02:00"}`)

		assert.True(t, first.LastSeen.Equal(second.LastSeen))
		assert.Equal(t, first.Subdomain, second.Subdomain)
		assert.Equal(t, first.DistinctIPs, second.DistinctIPs)
	})

	t.Run("plugin", func(t *testing.T) {
		first, second := roundTrip[leakix.PluginResult](t,
			`{"name":"GitConfigHttpPlugin","description":"Exposed .git/config"}`)

		assert.Equal(t, "GitConfigHttpPlugin", first.Name)
		assert.Equal(t, "Exposed .git/config", first.Description)
		assert.Equal(t, first, second)
	})

	t.Run("plugin list", func(t *testing.T) {
		first, second := roundTrip[[]leakix.PluginResult](t,
			`[{"name":"a","description":""},{"name":"b","description":"second"}]`)

		require.Len(t, first, 2)
		assert.Equal(t, first, second)
	})
}

func TestAggregationDecode(t *testing.T) {
	line := `{"ip":"192.0.2.1","open_ports":["80",443],"leak_count":2,"events":[{"event_type":"leak"}],"fresh":true}`

	var agg leakix.Aggregation
	require.NoError(t, json.Unmarshal([]byte(line), &agg))
	assert.Equal(t, []leakix.PortNumber{"80", "443"}, agg.OpenPorts)
	assert.Equal(t, 2, agg.LeakCount)
	assert.Len(t, agg.Events, 1)
	assert.True(t, agg.Fresh)
}

func TestHostEvent(t *testing.T) {
	t.Run("decodes event", func(t *testing.T) {
		var h leakix.HostEvent
		require.NoError(t, json.Unmarshal([]byte(`{"ip":"192.0.2.1","port":"22"}`), &h))
		require.True(t, h.Decoded())
		assert.Equal(t, "192.0.2.1", h.Event.IP)
	})

	t.Run("keeps undecodable element raw", func(t *testing.T) {
		var h leakix.HostEvent
		require.NoError(t, json.Unmarshal([]byte(`{"ip":42}`), &h))
		assert.False(t, h.Decoded())
		assert.JSONEq(t, `{"ip":42}`, string(h.Raw))

		out, err := json.Marshal(h)
		require.NoError(t, err)
		assert.JSONEq(t, `{"ip":42}`, string(out))
	})

	t.Run("null stays undecoded", func(t *testing.T) {
		var events []leakix.HostEvent
		require.NoError(t, json.Unmarshal([]byte(`[null,{"ip":"192.0.2.1"}]`), &events))
		require.Len(t, events, 2)
		assert.False(t, events[0].Decoded())
		assert.Nil(t, events[0].Event)
		assert.True(t, events[1].Decoded())

		out, err := json.Marshal(events)
		require.NoError(t, err)
		assert.JSONEq(t, `[null,{"ip":"192.0.2.1"}]`, string(out))
	})
}

func TestScope(t *testing.T) {
	assert.True(t, leakix.ScopeService.Valid())
	assert.True(t, leakix.ScopeLeak.Valid())
	assert.False(t, leakix.Scope("hosts").Valid())
	assert.Equal(t, "leak", leakix.ScopeLeak.String())
}
