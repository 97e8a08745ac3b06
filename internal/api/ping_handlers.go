package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pingwarden/pingwarden/internal/query"
)

type pingDataResponse struct {
	Query      map[string]string     `json:"query"`
	Points     []query.PingDataPoint `json:"points"`
	Statistics query.RawStats        `json:"statistics"`
}

func (s *State) handlePingData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, to, err := resolveFromTo(q, time.Now())
	if err != nil {
		writeClientError(w, err)
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeClientError(w, err)
			return
		}
	}

	params := query.RawParams{
		Target: q.Get("target"),
		From:   from,
		To:     to,
		Metric: q.Get("metric"),
		Limit:  limit,
	}

	points, stats, err := query.Raw(s.Store, params)
	if err != nil {
		if isClientQueryError(err) {
			writeClientError(w, err)
			return
		}

		writeServerError(w, err)
		return
	}

	writeJSON(w, pingDataResponse{
		Query:      echoQuery(q),
		Points:     points,
		Statistics: stats,
	})
}

type pingAggregatedResponse struct {
	Query         map[string]string `json:"query"`
	Buckets       []query.Bucket    `json:"buckets"`
	BucketSeconds int64             `json:"bucket_seconds"`
}

func (s *State) handlePingAggregated(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, to, err := resolveFromTo(q, time.Now())
	if err != nil {
		writeClientError(w, err)
		return
	}

	bucketSeconds := int64(300)

	if raw := q.Get("bucket"); raw != "" {
		bucketSeconds, err = query.ParseDuration(raw)
		if err != nil {
			writeClientError(w, err)
			return
		}
	}

	params := query.AggregatedParams{
		Target:        q.Get("target"),
		From:          from,
		To:            to,
		Metric:        q.Get("metric"),
		BucketSeconds: bucketSeconds,
	}

	buckets, err := query.Aggregated(s.Store, params)
	if err != nil {
		if isClientQueryError(err) {
			writeClientError(w, err)
			return
		}

		writeServerError(w, err)
		return
	}

	writeJSON(w, pingAggregatedResponse{
		Query:         echoQuery(q),
		Buckets:       buckets,
		BucketSeconds: bucketSeconds,
	})
}

func resolveFromTo(q map[string][]string, now time.Time) (from, to int64, err error) {
	from = 0

	if raw := first(q, "from"); raw != "" {
		from, err = query.ResolveFrom(raw, now)
		if err != nil {
			return 0, 0, err
		}
	}

	to = int64(1<<62) // effectively +infinity for an int64 millisecond timestamp

	if raw := first(q, "to"); raw != "" {
		to, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, 0, err
		}
	}

	return from, to, nil
}

func first(q map[string][]string, key string) string {
	values, ok := q[key]
	if !ok || len(values) == 0 {
		return ""
	}

	return values[0]
}

func echoQuery(q map[string][]string) map[string]string {
	out := make(map[string]string, len(q))

	for k := range q {
		out[k] = first(q, k)
	}

	return out
}

// isClientQueryError distinguishes an invalid-metric/invalid-bucket input
// error (4xx) from a genuine store failure (5xx). query.Raw and
// query.Aggregated wrap the former with query.ErrInvalidInput.
func isClientQueryError(err error) bool {
	return errors.Is(err, query.ErrInvalidInput)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
