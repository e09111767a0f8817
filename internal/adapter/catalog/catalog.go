// Package catalog is a fallback data source: the gzip-compressed Dell
// catalog XML instead of the driver-list API. It is not wired into the main
// run and exists for reuse when the API is unavailable.
package catalog

import (
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jgivc/cpldtracker/internal/entity"
)

const (
	catalogURL = "https://downloads.dell.com/catalog/Catalog.xml.gz"

	defaultTimeout = 60 * time.Second
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SoftwareComponent is one catalog entry. Only the fields the lookup needs.
type SoftwareComponent struct {
	Name        string   `xml:"Name"`
	Category    string   `xml:"Category"`
	Version     string   `xml:"Version"`
	ReleaseDate string   `xml:"ReleaseDate"`
	Path        string   `xml:"Path"`
	DellVer     string   `xml:"DellVer"`
	Models      []string `xml:"SupportedSystems>Brand>Model"`
}

type Manifest struct {
	Components []SoftwareComponent `xml:"SoftwareComponent"`
}

type fetcher struct {
	url  string
	http Doer
	log  *slog.Logger
}

func New(log *slog.Logger) *fetcher {
	return NewWithClient(&http.Client{Timeout: defaultTimeout}, catalogURL, log)
}

func NewWithClient(doer Doer, url string, log *slog.Logger) *fetcher {
	return &fetcher{
		url:  url,
		http: doer,
		log:  log.With(slog.String("item", "CatalogFetcher")),
	}
}

// Fetch downloads the catalog and decompresses it fully into memory.
func (f *fetcher) Fetch(ctx context.Context) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot build request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot download catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot open gzip stream: %w", err)
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("cannot decompress catalog: %w", err)
	}

	f.log.Info("Catalog downloaded", slog.Int("xml_bytes", len(data)))

	var m Manifest
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("cannot parse catalog xml: %w", err)
	}

	return &m, nil
}

// BestCPLDForModel scans the catalog for CPLD components whose supported
// systems mention the model hint (hyphens normalized to spaces, case
// ignored, e.g. "R750" or "PowerEdge-R750") and returns the newest one.
// ReleaseDate strings are compared lexicographically, which is only correct
// while the catalog keeps its ISO-like date format; a format change would
// break the ordering silently. Returns nil when nothing matches.
func BestCPLDForModel(m *Manifest, modelHint string) *entity.ResultRecord {
	hint := strings.ToLower(strings.ReplaceAll(modelHint, "-", " "))

	var best *SoftwareComponent
	for i := range m.Components {
		comp := &m.Components[i]

		name := strings.ToLower(comp.Name)
		category := strings.ToLower(comp.Category)
		if !strings.Contains(name, "cpld") && !strings.Contains(category, "cpld") {
			continue
		}

		systems := strings.ToLower(strings.Join(comp.Models, " "))
		if !strings.Contains(systems, hint) {
			continue
		}

		if best == nil || comp.ReleaseDate > best.ReleaseDate {
			best = comp
		}
	}

	if best == nil {
		return nil
	}

	return &entity.ResultRecord{
		Name:        best.Name,
		Version:     best.Version,
		ReleaseDate: best.ReleaseDate,
		DriverID:    best.DellVer, // often blank in the catalog, kept for schema consistency
		DownloadURL: best.Path,
		Category:    best.Category,
	}
}
