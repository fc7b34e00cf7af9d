package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-risk/internal/analysis"
	"github.com/sells-group/parcel-risk/internal/config"
	"github.com/sells-group/parcel-risk/internal/district"
	"github.com/sells-group/parcel-risk/internal/fetcher"
	"github.com/sells-group/parcel-risk/internal/store"
	"github.com/sells-group/parcel-risk/pkg/buildingledger"
	"github.com/sells-group/parcel-risk/pkg/realtrade"
)

// analysisEnv holds the wired dependencies of the analysis commands.
type analysisEnv struct {
	Store   store.Store
	Service *analysis.Service
}

func (e *analysisEnv) Close() {
	if e.Store != nil {
		e.Store.Close() //nolint:errcheck
	}
}

// initAnalysis validates config for mode and wires store, codec and
// registry clients into an analysis.Service.
func initAnalysis(ctx context.Context, mode string) (*analysisEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	hc := fetcher.NewClient(fetcher.Options{
		UserAgent: cfg.Registry.UserAgent,
		Timeout:   time.Duration(cfg.Registry.TimeoutSecs) * time.Second,
		RateLimit: cfg.Registry.RateLimit,
	})
	buildings := buildingledger.NewClient(hc, cfg.Registry.ServiceKey,
		buildingledger.WithBaseURL(cfg.Registry.BuildingURL))
	trades := realtrade.NewClient(hc, cfg.Registry.ServiceKey,
		realtrade.WithBaseURL(cfg.Registry.TradeBaseURL))

	analyzer := analysis.NewAnalyzer(initCodec(), buildings, trades)
	return &analysisEnv{
		Store:   st,
		Service: analysis.NewService(analyzer, st),
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s store", cfg.Store.Driver)
	}
	return st, nil
}

// initCodec builds a codec over the configured snapshot. The table loads
// on first use.
func initCodec() *district.Codec {
	return district.NewCodec(district.NewLoader(snapshotSource(cfg.District)))
}

func snapshotSource(dc config.DistrictConfig) district.Source {
	if dc.SnapshotPath == "" {
		return district.SampleSource()
	}
	return district.FileSource(dc.SnapshotPath, district.FileOptions{Encoding: dc.Encoding, Sheet: dc.Sheet})
}
