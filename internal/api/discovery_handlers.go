package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pingwarden/pingwarden/internal/discovery"
	"github.com/pingwarden/pingwarden/internal/models"
)

// defaultTracerouteTarget is the public host subnet suggestion probes
// against to find the first public hop, per spec.md §4.8.
const defaultTracerouteTarget = "8.8.8.8"

var errStreamingUnsupported = errors.New("streaming unsupported by response writer")

func (s *State) handleDiscoverySubnets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, struct {
		Subnets []string `json:"subnets"`
	}{Subnets: discovery.SuggestSubnets(defaultTracerouteTarget)})
}

// handleDiscoveryUnified implements GET /api/discovery/unified, streaming
// the coordinator's JSON events as text/event-stream, per spec.md §4.9/§6.
// The coordinator closes its channel either when the request context closes
// (client disconnect) or after its Completed event once every requested
// method has finished; either way the closed channel ends this handler.
func (s *State) handleDiscoveryUnified(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeServerError(w, errStreamingUnsupported)
		return
	}

	req, err := parseDiscoveryRequest(r)
	if err != nil {
		writeClientError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := make(chan models.DiscoveryEvent, 128)

	go discovery.RunCoordinator(r.Context(), req, s.Log, events)

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}

		if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return
		}

		flusher.Flush()
	}
}

func parseDiscoveryRequest(r *http.Request) (discovery.CoordinatorRequest, error) {
	q := r.URL.Query()

	req := discovery.CoordinatorRequest{
		MDNS:   q.Get("mdns") == "true",
		IPScan: q.Get("ip_scan") == "true",
	}

	if !req.IPScan {
		return req, nil
	}

	params := discovery.IPScanParams{
		CIDR:    q.Get("cidr"),
		StartIP: q.Get("start_ip"),
		EndIP:   q.Get("end_ip"),
	}

	if raw := q.Get("ports"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			port, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return req, err
			}

			params.Ports = append(params.Ports, port)
		}
	}

	if raw := q.Get("timeout_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil {
			return req, err
		}

		params.Timeout = time.Duration(ms) * time.Millisecond
	}

	if raw := q.Get("concurrency"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, err
		}

		params.Concurrency = n
	}

	req.IPScanParams = params

	return req, nil
}
