package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sia-service/internal/core/domain"
	"sia-service/internal/core/ports"
)

// MockQueryEngine is a mock of ports.QueryEngine.
type MockQueryEngine struct {
	mock.Mock
}

func (m *MockQueryEngine) Query(ctx context.Context, collection *domain.Collection, query *domain.Query, token string) (ports.RowIterator, error) {
	args := m.Called(ctx, collection, query, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.RowIterator), args.Error(1)
}

// MockProber is a mock of ports.AvailabilityProber.
type MockProber struct {
	mock.Mock
}

func (m *MockProber) Probe(ctx context.Context, collection *domain.Collection) error {
	args := m.Called(ctx, collection)
	return args.Error(0)
}

// SliceIterator is a RowIterator backed by a fixed record slice.
type SliceIterator struct {
	Records  []domain.Record
	Overflow bool
	Failure  error
	Closed   bool

	pos int
}

func (it *SliceIterator) Next() bool {
	if it.pos >= len(it.Records) {
		return false
	}
	it.pos++
	return true
}

func (it *SliceIterator) Record() *domain.Record { return &it.Records[it.pos-1] }
func (it *SliceIterator) Overflowed() bool       { return it.Overflow }
func (it *SliceIterator) Err() error             { return it.Failure }
func (it *SliceIterator) Close()                 { it.Closed = true }
