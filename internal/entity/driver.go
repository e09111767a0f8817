package entity

import "time"

// DriverRow is one normalized entry from the driver-list API. Rows are
// transient: produced per response, discarded after selection.
type DriverRow struct {
	ReleaseDate    *time.Time // nil when the vendor string did not parse
	ReleaseDateRaw string     // vendor string kept verbatim
	LastUpdate     *time.Time
	UpdateStatus   string
	Version        string
	Name           string
	Category       string
	DriverID       string
	DownloadURL    string
}

// Record reduces the row to the shape persisted in the snapshot. A nil row
// yields a nil record, which serializes as null. ReleaseDate becomes
// YYYY-MM-DD, or "" when only an unparseable raw value existed.
func (r *DriverRow) Record() *ResultRecord {
	if r == nil {
		return nil
	}

	releaseDate := ""
	if r.ReleaseDate != nil {
		releaseDate = r.ReleaseDate.Format("2006-01-02")
	}

	return &ResultRecord{
		Name:        r.Name,
		Version:     r.Version,
		ReleaseDate: releaseDate,
		DriverID:    r.DriverID,
		DownloadURL: r.DownloadURL,
		Category:    r.Category,
	}
}
