package items

import (
	"context"
	"sync"
	"time"

	"github.com/defarm/defarm-backend/internal/domain"
)

var _ itemRepo = &itemRepoMock{}

type itemRepoMock struct {
	CreateFunc    func(ctx context.Context, item *domain.Item) (*domain.Item, error)
	GetByDFIDFunc func(ctx context.Context, dfid string) (*domain.Item, error)
	UpdateFunc    func(ctx context.Context, item *domain.Item) (*domain.Item, error)
	ListFunc      func(ctx context.Context) ([]domain.Item, error)

	calls struct {
		Create []struct{ Item *domain.Item }
		Update []struct{ Item *domain.Item }
	}
	lockCreate sync.RWMutex
	lockUpdate sync.RWMutex
}

func (mock *itemRepoMock) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if mock.CreateFunc == nil {
		panic("itemRepoMock.CreateFunc: method is nil but itemRepo.Create was just called")
	}
	mock.lockCreate.Lock()
	mock.calls.Create = append(mock.calls.Create, struct{ Item *domain.Item }{Item: item})
	mock.lockCreate.Unlock()
	return mock.CreateFunc(ctx, item)
}

func (mock *itemRepoMock) CreateCalls() []struct{ Item *domain.Item } {
	mock.lockCreate.RLock()
	calls := mock.calls.Create
	mock.lockCreate.RUnlock()
	return calls
}

func (mock *itemRepoMock) GetByDFID(ctx context.Context, dfid string) (*domain.Item, error) {
	if mock.GetByDFIDFunc == nil {
		panic("itemRepoMock.GetByDFIDFunc: method is nil but itemRepo.GetByDFID was just called")
	}
	return mock.GetByDFIDFunc(ctx, dfid)
}

func (mock *itemRepoMock) Update(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if mock.UpdateFunc == nil {
		panic("itemRepoMock.UpdateFunc: method is nil but itemRepo.Update was just called")
	}
	mock.lockUpdate.Lock()
	mock.calls.Update = append(mock.calls.Update, struct{ Item *domain.Item }{Item: item})
	mock.lockUpdate.Unlock()
	return mock.UpdateFunc(ctx, item)
}

func (mock *itemRepoMock) UpdateCalls() []struct{ Item *domain.Item } {
	mock.lockUpdate.RLock()
	calls := mock.calls.Update
	mock.lockUpdate.RUnlock()
	return calls
}

func (mock *itemRepoMock) List(ctx context.Context) ([]domain.Item, error) {
	if mock.ListFunc == nil {
		panic("itemRepoMock.ListFunc: method is nil but itemRepo.List was just called")
	}
	return mock.ListFunc(ctx)
}

var _ eventRecorder = &eventRecorderMock{}

type eventRecorderMock struct {
	RecordFunc func(ctx context.Context, dfid string, t domain.EventType, source string, vis domain.Visibility) (*domain.Event, error)

	calls struct {
		Record []struct {
			DFID string
			Type domain.EventType
		}
	}
	lockRecord sync.RWMutex
}

func (mock *eventRecorderMock) Record(ctx context.Context, dfid string, t domain.EventType, source string, vis domain.Visibility) (*domain.Event, error) {
	if mock.RecordFunc == nil {
		panic("eventRecorderMock.RecordFunc: method is nil but eventRecorder.Record was just called")
	}
	mock.lockRecord.Lock()
	mock.calls.Record = append(mock.calls.Record, struct {
		DFID string
		Type domain.EventType
	}{DFID: dfid, Type: t})
	mock.lockRecord.Unlock()
	return mock.RecordFunc(ctx, dfid, t, source, vis)
}

func (mock *eventRecorderMock) RecordCalls() []struct {
	DFID string
	Type domain.EventType
} {
	mock.lockRecord.RLock()
	calls := mock.calls.Record
	mock.lockRecord.RUnlock()
	return calls
}

var _ txManager = &txManagerMock{}

// txManagerMock runs the function inline, like a committed transaction.
type txManagerMock struct{}

func (mock *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func okEventRecorder() *eventRecorderMock {
	return &eventRecorderMock{
		RecordFunc: func(ctx context.Context, dfid string, t domain.EventType, source string, vis domain.Visibility) (*domain.Event, error) {
			ev := domain.NewEvent(dfid, t, source, vis, time.Now().UTC())
			return &ev, nil
		},
	}
}
