package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDiscoverySubnets_ReturnsJSONArray(t *testing.T) {
	s := newTestState(t)

	req := httptest.NewRequest(http.MethodGet, "/api/discovery/subnets", nil)
	rec := httptest.NewRecorder()

	s.handleDiscoverySubnets(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Subnets []string `json:"subnets"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
}

func TestParseDiscoveryRequest_InvalidPortRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/discovery/unified?ip_scan=true&ports=abc", nil)

	_, err := parseDiscoveryRequest(req)
	assert.Error(t, err)
}

func TestParseDiscoveryRequest_DefaultsWhenMDNSOnly(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/discovery/unified?mdns=true", nil)

	parsed, err := parseDiscoveryRequest(req)
	require.NoError(t, err)
	assert.True(t, parsed.MDNS)
	assert.False(t, parsed.IPScan)
}
