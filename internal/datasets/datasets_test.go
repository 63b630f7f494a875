package datasets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/fuelprice/internal/aggregate"
	"github.com/vinodismyname/fuelprice/internal/survey"
)

const sampleCSV = "DATA INICIAL,DATA FINAL,REGIÃO,ESTADO,MUNICÍPIO,PRODUTO,NÚMERO DE POSTOS PESQUISADOS,PREÇO MÉDIO REVENDA,PREÇO MÍNIMO REVENDA,PREÇO MÁXIMO REVENDA\n" +
	`30/12/2018,05/01/2019,SUL,PARANA,CURITIBA,GASOLINA COMUM,10,"4,200","4,000","4,500"` + "\n" +
	`06/01/2019,12/01/2019,SUL,PARANA,CURITIBA,GASOLINA COMUM,12,"4,300","4,100","4,600"` + "\n" +
	`06/01/2019,12/01/2019,SUL,PARANA,LONDRINA,GASOLINA COMUM,8,"4,100","3,900","4,400"` + "\n"

type fakeGate struct {
	acquireErr error
	acquires   atomic.Int64
	releases   atomic.Int64
}

func (g *fakeGate) AcquireDataset(ctx context.Context) error {
	g.acquires.Add(1)
	return g.acquireErr
}
func (g *fakeGate) ReleaseDataset() { g.releases.Add(1) }

type denyValidator struct{}

func (denyValidator) ValidateOpenPath(string) (string, error) { return "", errors.New("denied") }

func writeSurvey(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "survey.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestOpenGetClose(t *testing.T) {
	gate := &fakeGate{}
	m := NewManager(time.Minute, time.Minute, WithGate(gate))

	d, err := m.Open(context.Background(), writeSurvey(t, sampleCSV))
	require.NoError(t, err)
	require.NotEmpty(t, d.ID)
	require.Len(t, d.Rows, 3)
	require.Equal(t, "201901", d.Rows[0].YearMonth)
	require.Equal(t, 1, m.Count())

	got, err := m.Get(d.ID)
	require.NoError(t, err)
	require.Same(t, d, got)

	require.NoError(t, m.CloseHandle(d.ID))
	require.Equal(t, 0, m.Count())
	require.ErrorIs(t, m.CloseHandle(d.ID), ErrHandleNotFound)
	require.Equal(t, int64(1), gate.acquires.Load())
	require.Equal(t, int64(1), gate.releases.Load())
}

func TestOpen_FailuresReleaseGate(t *testing.T) {
	gate := &fakeGate{}
	m := NewManager(time.Minute, time.Minute, WithGate(gate))

	_, err := m.Open(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	var missing *survey.MissingInputError
	require.ErrorAs(t, err, &missing)

	bad := writeSurvey(t, "DATA INICIAL,DATA FINAL,REGIÃO,ESTADO,MUNICÍPIO,PRODUTO,NÚMERO DE POSTOS PESQUISADOS,PREÇO MÉDIO REVENDA,PREÇO MÍNIMO REVENDA,PREÇO MÁXIMO REVENDA\n"+
		`2019-01-06,12/01/2019,SUL,PARANA,CURITIBA,GASOLINA COMUM,12,"4,300","4,100","4,600"`+"\n")
	_, err = m.Open(context.Background(), bad)
	require.ErrorIs(t, err, survey.ErrMalformed)

	require.Equal(t, int64(2), gate.acquires.Load())
	require.Equal(t, int64(2), gate.releases.Load())
	require.Equal(t, 0, m.Count())
}

func TestOpen_ValidatorDenied(t *testing.T) {
	gate := &fakeGate{}
	m := NewManager(time.Minute, time.Minute, WithGate(gate), WithValidator(denyValidator{}))

	_, err := m.Open(context.Background(), writeSurvey(t, sampleCSV))
	require.Error(t, err)
	require.Equal(t, int64(1), gate.releases.Load())
}

func TestOpen_GateBusy(t *testing.T) {
	gate := &fakeGate{acquireErr: context.DeadlineExceeded}
	m := NewManager(time.Minute, time.Minute, WithGate(gate))

	_, err := m.Open(context.Background(), writeSurvey(t, sampleCSV))
	require.ErrorIs(t, err, ErrCapacity)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, int64(0), gate.releases.Load())
}

func TestTTLExpiryAndEviction(t *testing.T) {
	var now atomic.Int64
	base := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	now.Store(base.UnixNano())
	clock := func() time.Time { return time.Unix(0, now.Load()) }

	gate := &fakeGate{}
	m := NewManager(50*time.Millisecond, time.Second, WithGate(gate), WithClock(clock))

	d, err := m.Adopt(context.Background(), "mem", nil)
	require.NoError(t, err)

	// access refreshes the idle deadline
	now.Store(base.Add(40 * time.Millisecond).UnixNano())
	_, err = m.Get(d.ID)
	require.NoError(t, err)
	now.Store(base.Add(80 * time.Millisecond).UnixNano())
	m.EvictExpired()
	require.Equal(t, 1, m.Count())

	now.Store(base.Add(200 * time.Millisecond).UnixNano())
	m.EvictExpired()
	require.Equal(t, 0, m.Count())
	require.Equal(t, int64(1), gate.releases.Load())

	_, err = m.Get(d.ID)
	require.ErrorIs(t, err, ErrHandleNotFound)
}

func TestReport_CachedPerOptions(t *testing.T) {
	m := NewManager(time.Minute, time.Minute)
	d, err := m.Open(context.Background(), writeSurvey(t, sampleCSV))
	require.NoError(t, err)

	var calls atomic.Int64
	opts := aggregate.Options{Observe: func(string, int, time.Duration) { calls.Add(1) }}

	var wg sync.WaitGroup
	reports := make([]*aggregate.Report, 4)
	for i := range reports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rep, err := m.Report(context.Background(), d.ID, opts)
			require.NoError(t, err)
			reports[i] = rep
		}()
	}
	wg.Wait()
	for _, rep := range reports[1:] {
		require.Same(t, reports[0], rep)
	}
	require.Equal(t, int64(6), calls.Load())
	require.Len(t, reports[0].MonthlyAverages, 2)
	require.Nil(t, reports[0].MonthlyWeighted)

	weighted, err := m.Report(context.Background(), d.ID, aggregate.Options{Weighted: true})
	require.NoError(t, err)
	require.NotSame(t, reports[0], weighted)
	require.Len(t, weighted.MonthlyWeighted, 2)

	_, err = m.Report(context.Background(), "nope", opts)
	require.ErrorIs(t, err, ErrHandleNotFound)
}

func TestCloseDropsEverything(t *testing.T) {
	gate := &fakeGate{}
	m := NewManager(time.Minute, 5*time.Millisecond, WithGate(gate))
	m.Start()

	for range 3 {
		_, err := m.Adopt(context.Background(), "mem", nil)
		require.NoError(t, err)
	}
	require.NoError(t, m.Close(context.Background()))
	require.Equal(t, 0, m.Count())
	require.Equal(t, int64(3), gate.releases.Load())
}
