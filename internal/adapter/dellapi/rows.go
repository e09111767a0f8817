package dellapi

import (
	"time"

	"github.com/jgivc/cpldtracker/internal/entity"
)

// dateLayout is the day-month-year format the driver-list API uses for
// ReleaseDate and LUPDDate, e.g. "15 Mar 2023".
const dateLayout = "02 Jan 2006"

type fileFrmtInfo struct {
	FileID string `json:"FileId"`
	Path   string `json:"Path"`
}

type rawDriver struct {
	ReleaseDate  string        `json:"ReleaseDate"`
	LUPDDate     string        `json:"LUPDDate"`
	Imp          string        `json:"Imp"`
	DellVer      string        `json:"DellVer"`
	DriverName   string        `json:"DriverName"`
	Category     string        `json:"Category"`
	DriverID     string        `json:"DriverId"`
	DriverIDEN   string        `json:"DriverIdEN"`
	FileFrmtInfo *fileFrmtInfo `json:"FileFrmtInfo"`
}

type driverListResponse struct {
	DriverListData []rawDriver `json:"DriverListData"`
}

// parseDate returns nil for anything that does not match the vendor layout.
func parseDate(s string) *time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}

	return &t
}

// firstNonEmpty keeps the driver-id precedence order in one visible place:
// DriverId, then DriverIdEN, then the file-format FileId.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func normalizeRow(d rawDriver) entity.DriverRow {
	row := entity.DriverRow{
		ReleaseDate:    parseDate(d.ReleaseDate),
		ReleaseDateRaw: d.ReleaseDate,
		LastUpdate:     parseDate(d.LUPDDate),
		UpdateStatus:   d.Imp,
		Version:        d.DellVer,
		Name:           d.DriverName,
		Category:       d.Category,
	}

	var fileID, path string
	if d.FileFrmtInfo != nil {
		fileID = d.FileFrmtInfo.FileID
		path = d.FileFrmtInfo.Path
	}
	row.DriverID = firstNonEmpty(d.DriverID, d.DriverIDEN, fileID)
	row.DownloadURL = path

	return row
}

func normalizeRows(raw []rawDriver) []entity.DriverRow {
	rows := make([]entity.DriverRow, 0, len(raw))
	for _, d := range raw {
		rows = append(rows, normalizeRow(d))
	}

	return rows
}
