package scan

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MagnunAVF/qr-tracker/internal"
	"github.com/MagnunAVF/qr-tracker/internal/store"
)

// ==================== MOCKS ====================

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, userID, targetURL, name string) (*internal.QRCode, error) {
	args := m.Called(ctx, userID, targetURL, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*internal.QRCode), args.Error(1)
}

func (m *MockStore) GetBySlug(ctx context.Context, slug string) (*internal.QRCode, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*internal.QRCode), args.Error(1)
}

func (m *MockStore) GetByID(ctx context.Context, id int64) (*internal.QRCode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*internal.QRCode), args.Error(1)
}

func (m *MockStore) ListByUser(ctx context.Context, userID string) ([]internal.QRCode, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]internal.QRCode), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, id int64, fields store.UpdateFields) (*internal.QRCode, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*internal.QRCode), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) RecordScan(ctx context.Context, sc *internal.Scan) error {
	args := m.Called(ctx, sc)
	return args.Error(0)
}

func (m *MockStore) GetScans(ctx context.Context, codeID int64) ([]internal.Scan, error) {
	args := m.Called(ctx, codeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]internal.Scan), args.Error(1)
}

type fakeResolver struct {
	country string
	err     error
	calls   int
	mu      sync.Mutex
}

func (f *fakeResolver) Country(ctx context.Context, ip string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.country, f.err
}

// ==================== TESTS ====================

func TestRecord_ResolvesCountry(t *testing.T) {
	st := new(MockStore)
	resolver := &fakeResolver{country: "Brazil"}
	rec := NewRecorder(st, resolver)

	st.On("RecordScan", mock.Anything, mock.MatchedBy(func(sc *internal.Scan) bool {
		return sc.QRCodeID == 42 && sc.Country == "Brazil" && sc.UserAgent == "curl/8.0" && !sc.ScannedAt.IsZero()
	})).Return(nil)

	err := rec.Record(context.Background(), Event{
		QRCodeID:  42,
		Slug:      "abc123",
		UserAgent: "curl/8.0",
		ClientIP:  "203.0.113.7",
	})
	require.NoError(t, err)
	st.AssertExpectations(t)
	assert.Equal(t, 1, resolver.calls)
}

func TestRecord_SkipsLoopbackLookup(t *testing.T) {
	st := new(MockStore)
	resolver := &fakeResolver{country: "Brazil"}
	rec := NewRecorder(st, resolver)

	st.On("RecordScan", mock.Anything, mock.MatchedBy(func(sc *internal.Scan) bool {
		return sc.Country == "Unknown"
	})).Return(nil)

	err := rec.Record(context.Background(), Event{QRCodeID: 1, ClientIP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Zero(t, resolver.calls)
	st.AssertExpectations(t)
}

func TestRecord_GeoFailureFallsBackToUnknown(t *testing.T) {
	st := new(MockStore)
	resolver := &fakeResolver{err: errors.New("lookup timed out")}
	rec := NewRecorder(st, resolver)

	st.On("RecordScan", mock.Anything, mock.MatchedBy(func(sc *internal.Scan) bool {
		return sc.Country == "Unknown"
	})).Return(nil)

	err := rec.Record(context.Background(), Event{QRCodeID: 7, ClientIP: "203.0.113.7"})
	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestRecord_StoreErrorIsReturned(t *testing.T) {
	st := new(MockStore)
	rec := NewRecorder(st, &fakeResolver{country: "Brazil"})

	st.On("RecordScan", mock.Anything, mock.Anything).Return(errors.New("db down"))

	err := rec.Record(context.Background(), Event{QRCodeID: 7, ClientIP: "203.0.113.7"})
	assert.Error(t, err)
}

func TestRecord_ConcurrentEventsAllPersisted(t *testing.T) {
	st := new(MockStore)
	rec := NewRecorder(st, &fakeResolver{country: "Brazil"})

	const n = 25
	st.On("RecordScan", mock.Anything, mock.Anything).Return(nil).Times(n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, rec.Record(context.Background(), Event{QRCodeID: 9, ClientIP: "203.0.113.7"}))
		}()
	}
	wg.Wait()

	st.AssertNumberOfCalls(t, "RecordScan", n)
}
