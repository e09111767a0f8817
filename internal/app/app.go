package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jgivc/cpldtracker/internal/adapter/dellapi"
	"github.com/jgivc/cpldtracker/internal/config"
	"github.com/jgivc/cpldtracker/internal/entity"
	"github.com/jgivc/cpldtracker/internal/service/selector"
	"github.com/jgivc/cpldtracker/internal/storage/snapshot"
)

const snapshotSource = "dell fetchdriversbyproduct"

type LatestFinder interface {
	FindLatest(ctx context.Context, productcode string, oscodes []string) (*entity.DriverRow, error)
}

type SnapshotWriter interface {
	Write(snap *entity.Snapshot) (bool, error)
}

type App struct {
	cfgPath string
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

func (a *App) Run(ctx context.Context) error {
	cfg := config.MustLoad(a.cfgPath)

	lo := &slog.HandlerOptions{}
	switch cfg.LogLevel {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, lo)).
		With(slog.String("run_id", uuid.NewString()))

	backoff := time.Duration(cfg.API.BackoffSeconds * float64(time.Second))
	client := dellapi.New(cfg.Country, cfg.API.Retries, backoff, log)
	sel := selector.New(client, log)
	wr := snapshot.NewWriter(cfg.OutPath, log)

	return run(ctx, cfg, sel, wr, log)
}

// run drives one full poll: one result (or null) per configured server, in
// configured order, then a single snapshot write. Lookup failures have
// already degraded to absent rows inside the client; only context
// cancellation or a broken snapshot target can fail the run.
func run(ctx context.Context, cfg *config.Config, finder LatestFinder, writer SnapshotWriter, log *slog.Logger) error {
	snap := &entity.Snapshot{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Source:      snapshotSource,
		Country:     cfg.Country,
	}

	for _, srv := range cfg.Servers {
		row, err := finder.FindLatest(ctx, srv.ProductCode, srv.OSCodes)
		if err != nil {
			return err
		}

		if row == nil {
			log.Info("No CPLD entry found", slog.String("productcode", srv.ProductCode))
		}

		snap.Data = append(snap.Data, entity.ProductResult{
			ProductCode: srv.ProductCode,
			Record:      row.Record(),
		})
	}

	changed, err := writer.Write(snap)
	if err != nil {
		return err
	}

	log.Info("Run complete",
		slog.String("path", cfg.OutPath),
		slog.Bool("changed", changed),
		slog.Int("servers", len(cfg.Servers)))

	return nil
}
