/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package daemon

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/facebook/ntpmonitor/ntpmonitor/checker"
	log "github.com/sirupsen/logrus"
)

// record kinds written by JSONPublisher
const (
	kindResult = "result"
	kindEvent  = "event"
)

// Publisher is something that can ship results and events somewhere
type Publisher interface {
	Publish(r *checker.MonitorResult) error
	PostEvent(e *checker.Event) error
}

// JSONPublisher writes every record as a single JSON line
type JSONPublisher struct {
	sync.Mutex
	enc *json.Encoder
}

// NewJSONPublisher returns new JSONPublisher
func NewJSONPublisher(w io.Writer) *JSONPublisher {
	return &JSONPublisher{enc: json.NewEncoder(w)}
}

func (p *JSONPublisher) write(kind string, fields map[string]any) error {
	fields["kind"] = kind
	p.Lock()
	defer p.Unlock()
	return p.enc.Encode(fields)
}

// Publish implements Publisher interface
func (p *JSONPublisher) Publish(r *checker.MonitorResult) error {
	fields := r.Fields()
	fields["timestamp"] = r.Timestamp.UnixMilli()
	return p.write(kindResult, fields)
}

// PostEvent implements Publisher interface
func (p *JSONPublisher) PostEvent(e *checker.Event) error {
	return p.write(kindEvent, e.Dotted())
}

var csvHeader = []string{
	"timestamp",
	"valid",
	"valid_pps",
	"pps_offset_ms",
	"pps_delay_ms",
	"pps_jitter_ms",
	"valid_time",
	"time_accuracy_s",
	"satellites_used",
	"error",
}

// csvRecords returns summary of the result as CSV. Must by synced with `csvHeader` variable.
func csvRecords(r *checker.MonitorResult) []string {
	rec := make([]string, len(csvHeader))
	rec[0] = strconv.FormatInt(r.Timestamp.UnixMilli(), 10)
	rec[1] = strconv.FormatBool(r.Valid)
	if !r.Valid {
		rec[9] = r.ErrorMessage
		return rec
	}
	rec[2] = strconv.FormatBool(r.ValidPPS)
	if p, found := r.PPSPeer(); found {
		rec[3] = strconv.FormatFloat(p.OffsetMs, 'f', -1, 64)
		rec[4] = strconv.FormatFloat(p.DelayMs, 'f', -1, 64)
		rec[5] = strconv.FormatFloat(p.JitterMs, 'f', -1, 64)
	}
	rec[6] = strconv.FormatBool(r.Fix.ValidTime)
	rec[7] = strconv.FormatFloat(r.Fix.TimeAccuracy, 'g', -1, 64)
	rec[8] = strconv.Itoa(len(r.Satellites))
	return rec
}

// CSVPublisher writes result summaries as CSV, events go to the log
type CSVPublisher struct {
	sync.Mutex
	csvwriter     *csv.Writer
	printedHeader bool
}

// NewCSVPublisher returns new CSVPublisher. Header is skipped when appending
// to a non-empty regular file.
func NewCSVPublisher(w io.Writer) *CSVPublisher {
	return &CSVPublisher{csvwriter: csv.NewWriter(w), printedHeader: hasContent(w)}
}

func hasContent(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	st, err := f.Stat()
	if err != nil {
		return false
	}
	return st.Mode().IsRegular() && st.Size() > 0
}

// Publish implements Publisher interface
func (p *CSVPublisher) Publish(r *checker.MonitorResult) error {
	p.Lock()
	defer p.Unlock()
	if !p.printedHeader {
		if err := p.csvwriter.Write(csvHeader); err != nil {
			return err
		}
		p.printedHeader = true
	}
	if err := p.csvwriter.Write(csvRecords(r)); err != nil {
		return err
	}
	p.csvwriter.Flush()
	return p.csvwriter.Error()
}

// PostEvent implements Publisher interface
func (p *CSVPublisher) PostEvent(e *checker.Event) error {
	log.WithFields(log.Fields(e.Dotted())).Info(e.Message)
	return nil
}

// OpenOutput returns writer for the configured output, stdout if path is empty.
// Returned closer must be called when done.
func OpenOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening output %q: %w", path, err)
	}
	return f, f.Close, nil
}

// NewPublisher returns Publisher for the configured format
func NewPublisher(format string, w io.Writer) (Publisher, error) {
	switch format {
	case FormatJSON, "":
		return NewJSONPublisher(w), nil
	case FormatCSV:
		return NewCSVPublisher(w), nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}
