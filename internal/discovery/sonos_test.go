package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingwarden/pingwarden/internal/models"
)

func TestIsSonos_MatchesServiceTypeSubstring(t *testing.T) {
	assert.True(t, IsSonos([]models.ServiceDescriptor{{ServiceType: "_sonos._tcp"}}))
	assert.False(t, IsSonos([]models.ServiceDescriptor{{ServiceType: "_http._tcp"}}))
	assert.False(t, IsSonos(nil))
}

func TestGetXML_DecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<ZPSupportInfo><ZoneName>Kitchen</ZoneName></ZPSupportInfo>`))
	}))
	defer srv.Close()

	var status sonosZoneStatus
	err := getXML(context.Background(), srv.Client(), srv.URL, &status)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", status.ZoneName)
}

func TestGetXML_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var status sonosZoneStatus
	err := getXML(context.Background(), srv.Client(), srv.URL, &status)
	assert.Error(t, err)
}
