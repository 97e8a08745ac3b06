// Package storage implements the embedded time-series engine described in
// spec.md §6 "Persisted state layout": partitions named p-... holding a
// data blob plus a JSON meta.json, and a wal/ subdirectory of write-ahead
// log segments. No example in the corpus ships a matching embedded,
// mmap-free partitioned store (the original Rust program depended on a
// crate, "tsink", with no Go equivalent in the pack), so this package is
// built directly from the spec's described file format using the standard
// library's encoding/binary, encoding/json, and bufio (see DESIGN.md).
package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pingwarden/pingwarden/internal/models"
)

// EncodeSeriesKey serializes a metric name and its labels into the
// length-prefixed binary format spec.md §4.6 describes: a 2-byte
// little-endian length + metric name, then each (label name, label value)
// pair as two more 2-byte-LE-length-prefixed strings, in the order given.
func EncodeSeriesKey(metricName string, labels []models.Label) []byte {
	var buf bytes.Buffer

	writeLP(&buf, metricName)

	for _, l := range labels {
		writeLP(&buf, l.Name)
		writeLP(&buf, l.Value)
	}

	return buf.Bytes()
}

func writeLP(buf *bytes.Buffer, s string) {
	var lenBytes [2]byte
	binary.LittleEndian.PutUint16(lenBytes[:], uint16(len(s)))
	buf.Write(lenBytes[:])
	buf.WriteString(s)
}

// DecodeSeriesKey parses the format EncodeSeriesKey produces, returning the
// metric name and the original label sequence.
func DecodeSeriesKey(b []byte) (metricName string, labels []models.Label, err error) {
	r := bytes.NewReader(b)

	metricName, err = readLP(r)
	if err != nil {
		return "", nil, fmt.Errorf("decode metric name: %w", err)
	}

	for r.Len() > 0 {
		name, err := readLP(r)
		if err != nil {
			return "", nil, fmt.Errorf("decode label name: %w", err)
		}

		value, err := readLP(r)
		if err != nil {
			return "", nil, fmt.Errorf("decode label value: %w", err)
		}

		labels = append(labels, models.Label{Name: name, Value: value})
	}

	return metricName, labels, nil
}

func readLP(r *bytes.Reader) (string, error) {
	var lenBytes [2]byte

	if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
		return "", err
	}

	n := binary.LittleEndian.Uint16(lenBytes[:])
	buf := make([]byte, n)

	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
	}

	return string(buf), nil
}
