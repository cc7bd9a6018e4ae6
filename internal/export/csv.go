// Package export renders collection records as CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecscope/internal/domain/record"
	"github.com/kailas-cloud/vecscope/internal/metrics"
)

// ContentType is the media type of the rendered table.
const ContentType = "text/csv"

// Table is one exported collection.
type Table struct {
	Collection  string
	WithVectors bool
	Records     []record.Record
}

// Header returns the column names: id, [vector,] payload.
func (t Table) Header() []string {
	if t.WithVectors {
		return []string{"id", "vector", "payload"}
	}
	return []string{"id", "payload"}
}

// WriteCSV writes the header and one row per record. A record whose
// payload cannot be encoded is logged and skipped. Returns the number of
// rows written, excluding the header.
func (t Table) WriteCSV(w io.Writer, logger *zap.Logger) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	rows := 0
	for _, r := range t.Records {
		payload, err := encodePayload(r.Payload)
		if err != nil {
			metrics.SkippedRecordsTotal.WithLabelValues("export").Inc()
			logger.Warn("Skipping record in export",
				zap.String("collection", t.Collection),
				zap.String("id", r.ID),
				zap.Error(err),
			)
			continue
		}

		row := []string{r.ID, payload}
		if t.WithVectors {
			row = []string{r.ID, joinVector(r.Vector), payload}
		}
		if err := cw.Write(row); err != nil {
			return rows, fmt.Errorf("write row %s: %w", r.ID, err)
		}
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flush csv: %w", err)
	}
	return rows, nil
}

// Filename builds the attachment name {collection}_{YYYYMMDD_HHMMSS}.csv.
func Filename(collection string, now time.Time) string {
	return collection + "_" + now.Format("20060102_150405") + ".csv"
}

// encodePayload renders the payload as JSON without HTML escaping, keeping
// non-ASCII text as is.
func encodePayload(payload map[string]any) (string, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func joinVector(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return strings.Join(parts, ",")
}
