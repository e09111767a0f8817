package selector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jgivc/cpldtracker/internal/entity"
)

// defaultOSCodes is queried when a server entry does not pin its own list.
var defaultOSCodes = []string{"NAA", "W2022", "W2019", "WS16", "WS12R2"}

type DriverAPI interface {
	FetchDrivers(ctx context.Context, productcode, oscode string) ([]entity.DriverRow, error)
}

type selectorService struct {
	api DriverAPI
	log *slog.Logger
}

func New(api DriverAPI, log *slog.Logger) *selectorService {
	return &selectorService{
		api: api,
		log: log.With(slog.String("item", "SelectorService")),
	}
}

// IsCPLD reports whether row looks like a CPLD firmware entry. The match is
// an unanchored case-insensitive substring test, so a name that merely
// contains "cpld" inside another word also matches.
func IsCPLD(row *entity.DriverRow) bool {
	name := strings.ToLower(row.Name)
	category := strings.ToLower(row.Category)

	return strings.Contains(name, "cpld") ||
		strings.Contains(category, "cpld") ||
		strings.Contains(name, "complex programmable logic")
}

// releaseTime maps a missing parsed date to the zero time, so any row with a
// real date outranks a dateless one.
func releaseTime(r *entity.DriverRow) time.Time {
	if r == nil || r.ReleaseDate == nil {
		return time.Time{}
	}

	return *r.ReleaseDate
}

// newer reports whether a has a strictly more recent release date than b.
// Equal dates are not "newer", which keeps the first-seen row on ties.
func newer(a, b *entity.DriverRow) bool {
	return releaseTime(a).After(releaseTime(b))
}

// FindLatest queries every OS code in order and folds all CPLD rows down to
// the single most recent one. Every OS code is always queried, there is no
// early exit after a match; on equal release dates the row from the earlier
// OS code wins. Returns nil when nothing matched.
func (s *selectorService) FindLatest(ctx context.Context, productcode string, oscodes []string) (*entity.DriverRow, error) {
	if len(oscodes) == 0 {
		oscodes = defaultOSCodes
	}

	var best *entity.DriverRow
	for _, oscode := range oscodes {
		rows, err := s.api.FetchDrivers(ctx, productcode, oscode)
		if err != nil {
			return nil, fmt.Errorf("cannot fetch drivers for %s/%s: %w", productcode, oscode, err)
		}

		for i := range rows {
			if !IsCPLD(&rows[i]) {
				continue
			}

			if best == nil || newer(&rows[i], best) {
				row := rows[i]
				best = &row

				s.log.Debug("New best row",
					slog.String("productcode", productcode),
					slog.String("oscode", oscode),
					slog.String("name", row.Name),
					slog.String("release_date", row.ReleaseDateRaw))
			}
		}
	}

	return best, nil
}
