package entity

import (
	"bytes"
	"encoding/json"
)

// ResultRecord is the reduced per-product view of the best CPLD row found.
type ResultRecord struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	ReleaseDate string `json:"release_date"`
	DriverID    string `json:"driver_id"`
	DownloadURL string `json:"download_url"`
	Category    string `json:"category"`
}

// ProductResult pairs a product code with its lookup result. A nil Record
// means no CPLD entry was found for that product.
type ProductResult struct {
	ProductCode string
	Record      *ResultRecord
}

// ProductResults serializes as a JSON object whose keys keep the slice
// order, so the snapshot's data mapping stays in configured product order.
type ProductResults []ProductResult

func (p ProductResults) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')
	for i := range p {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := marshalUnescaped(p[i].ProductCode)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := marshalUnescaped(p[i].Record)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// marshalUnescaped is json.Marshal without HTML escaping. Download URLs
// carry query strings, and the snapshot keeps &, <, > literal.
func marshalUnescaped(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Snapshot is the whole persisted artifact of one run. The file on disk is
// always fully overwritten, never merged.
type Snapshot struct {
	GeneratedAt string         `json:"generated_at"`
	Source      string         `json:"source"`
	Country     string         `json:"country"`
	Data        ProductResults `json:"data"`
}
