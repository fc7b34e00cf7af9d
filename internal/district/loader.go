package district

import (
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Loader loads the reference table lazily on first use and serves the same
// immutable table afterwards. Concurrent first callers share one load; a
// table is published only after it is fully built. A failed load is not
// remembered, so the next call tries again.
type Loader struct {
	source Source
	group  singleflight.Group
	table  atomic.Pointer[Table]
}

// NewLoader creates a Loader over src.
func NewLoader(src Source) *Loader {
	return &Loader{source: src}
}

// Table returns the loaded table, loading it if necessary.
func (l *Loader) Table() (*Table, error) {
	if t := l.table.Load(); t != nil {
		return t, nil
	}
	v, err, _ := l.group.Do("table", func() (any, error) {
		if t := l.table.Load(); t != nil {
			return t, nil
		}
		t, err := l.source()
		if err != nil {
			return nil, err
		}
		l.table.Store(t)
		zap.L().Info("district: reference table loaded", zap.Int("records", t.Len()))
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}
