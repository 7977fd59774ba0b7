package keruyun

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign_MatchesManualConcatenation(t *testing.T) {
	params := map[string]string{
		"version":    "2.0",
		"appKey":     "ak",
		"timestamp":  "1760000000",
		"shopIdenty": "810000001",
	}
	body := []byte(`{"a":1}`)
	sum := sha256.Sum256([]byte("appKeyakshopIdenty810000001timestamp1760000000version2.0body{\"a\":1}secret"))

	assert.Equal(t, hex.EncodeToString(sum[:]), Sign(params, body, "secret"))
}

func TestSign_DeterministicAcrossInsertionOrder(t *testing.T) {
	body, err := CanonicalBody(NewQueryRequest("2026-10-16 00:00:00", "2026-10-16 12:00:00", 2, 50))
	require.NoError(t, err)

	first := Sign(map[string]string{"appKey": "k", "shopIdenty": "s", "version": "2.0", "timestamp": "1"}, body, "tok")
	for i := 0; i < 20; i++ {
		p := map[string]string{}
		p["timestamp"] = "1"
		p["version"] = "2.0"
		p["shopIdenty"] = "s"
		p["appKey"] = "k"
		assert.Equal(t, first, Sign(p, body, "tok"))
	}
	assert.NotEqual(t, first, Sign(map[string]string{"appKey": "k"}, body, "tok"))
	assert.NotEqual(t, first, Sign(map[string]string{"appKey": "k", "shopIdenty": "s", "version": "2.0", "timestamp": "1"}, body, "other"))
}

func TestCanonicalBody_FixedKeyOrder(t *testing.T) {
	body, err := CanonicalBody(NewQueryRequest("2026-10-16 00:00:00", "2026-10-16 12:00:00", 1, 50))
	require.NoError(t, err)
	want := `{"dateType":"OPEN_TIME","startDate":"2026-10-16 00:00:00","endDate":"2026-10-16 12:00:00",` +
		`"orderTypeList":["FOR_HERE"],"orderStatusList":["WAIT_SETTLED","SETTLED"],` +
		`"pageBean":{"pageNum":1,"pageSize":50}}`
	assert.Equal(t, want, string(body))

	again, err := CanonicalBody(NewQueryRequest("2026-10-16 00:00:00", "2026-10-16 12:00:00", 1, 50))
	require.NoError(t, err)
	assert.Equal(t, body, again)
}
