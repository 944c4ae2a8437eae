package batch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/paribus/hospital-bulk/internal/directory"
)

// fakeDirectory is a scriptable directory.Client that tracks concurrency
// and call counts.
type fakeDirectory struct {
	mu            sync.Mutex
	createCalls   int
	activateCalls int
	inFlight      int
	maxInFlight   int
	lastBatchID   string

	// createFn decides the outcome per call; nil means success with a
	// sequential ID.
	createFn func(call int, h directory.Hospital) (int64, error)

	// activateErr is returned from ActivateBatch when non-nil.
	activateErr error

	// delay holds each create open so concurrent invocations overlap.
	delay time.Duration
}

func (f *fakeDirectory) CreateHospital(_ context.Context, h directory.Hospital) (int64, error) {
	f.mu.Lock()
	f.createCalls++
	call := f.createCalls
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.createFn != nil {
		return f.createFn(call, h)
	}
	return int64(call), nil
}

func (f *fakeDirectory) ActivateBatch(_ context.Context, batchID string) error {
	f.mu.Lock()
	f.activateCalls++
	f.lastBatchID = batchID
	f.mu.Unlock()
	return f.activateErr
}

func csvRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			Line: i + 1,
			Fields: map[string]string{
				"name":    fmt.Sprintf("Hospital %d", i+1),
				"address": fmt.Sprintf("%d Main St", i+1),
			},
		}
	}
	return rows
}

func TestProcess_AllRowsSucceed(t *testing.T) {
	fake := &fakeDirectory{}
	p := NewProcessor(fake, NewMemoryStore(), 5)

	res, err := p.Process(context.Background(), csvRows(3))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(res.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3", len(res.Rows))
	}
	for i, out := range res.Rows {
		if out.Status != StatusCreatedActivated {
			t.Errorf("Rows[%d].Status = %q, want %q", i, out.Status, StatusCreatedActivated)
		}
		if out.HospitalID == nil {
			t.Errorf("Rows[%d].HospitalID is nil", i)
		}
	}

	want := Summary{Total: 3, Created: 3}
	if res.Summary != want {
		t.Errorf("Summary = %+v, want %+v", res.Summary, want)
	}
	if !res.Activation.Activated {
		t.Error("Activation.Activated = false, want true")
	}
	if fake.activateCalls != 1 {
		t.Errorf("activateCalls = %d, want 1", fake.activateCalls)
	}
	if fake.lastBatchID != res.BatchID {
		t.Errorf("activation batch ID %q != result batch ID %q", fake.lastBatchID, res.BatchID)
	}
}

func TestProcess_ValidationFailureSkipsCreate(t *testing.T) {
	fake := &fakeDirectory{}
	p := NewProcessor(fake, NewMemoryStore(), 5)

	rows := []Row{
		{Line: 1, Fields: map[string]string{"name": "", "address": "1 Main St"}},
	}

	res, err := p.Process(context.Background(), rows)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if fake.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0 (invalid rows must not reach the API)", fake.createCalls)
	}
	if fake.activateCalls != 1 {
		t.Errorf("activateCalls = %d, want 1 (activation always attempted)", fake.activateCalls)
	}

	if got := res.Rows[0].Status; got != StatusValidationFailed {
		t.Errorf("Status = %q, want %q", got, StatusValidationFailed)
	}
	if res.Rows[0].Reason == "" {
		t.Error("Reason is empty, want validation message")
	}
	if res.Summary.ValidationFailed != 1 {
		t.Errorf("Summary.ValidationFailed = %d, want 1", res.Summary.ValidationFailed)
	}
}

func TestProcess_EmptyBatchStillActivates(t *testing.T) {
	fake := &fakeDirectory{}
	p := NewProcessor(fake, NewMemoryStore(), 5)

	res, err := p.Process(context.Background(), nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(res.Rows) != 0 {
		t.Errorf("len(Rows) = %d, want 0", len(res.Rows))
	}
	if res.Summary.Total != 0 {
		t.Errorf("Summary.Total = %d, want 0", res.Summary.Total)
	}
	if fake.activateCalls != 1 {
		t.Errorf("activateCalls = %d, want 1", fake.activateCalls)
	}
}

func TestProcess_AllCreatesFailStillActivates(t *testing.T) {
	fake := &fakeDirectory{
		createFn: func(int, directory.Hospital) (int64, error) {
			return 0, &directory.StatusError{Code: 400, Body: "rejected"}
		},
	}
	p := NewProcessor(fake, NewMemoryStore(), 5)

	res, err := p.Process(context.Background(), csvRows(3))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	for i, out := range res.Rows {
		if out.Status != StatusCreateFailed {
			t.Errorf("Rows[%d].Status = %q, want %q", i, out.Status, StatusCreateFailed)
		}
		if out.HTTPStatus != 400 {
			t.Errorf("Rows[%d].HTTPStatus = %d, want 400", i, out.HTTPStatus)
		}
	}
	if res.Summary.CreateFailed != 3 {
		t.Errorf("Summary.CreateFailed = %d, want 3", res.Summary.CreateFailed)
	}
	if fake.activateCalls != 1 {
		t.Errorf("activateCalls = %d, want 1", fake.activateCalls)
	}
}

func TestProcess_ActivationFailureRecorded(t *testing.T) {
	fake := &fakeDirectory{
		activateErr: &directory.StatusError{Code: 500, Body: "activation broken"},
	}
	p := NewProcessor(fake, NewMemoryStore(), 5)

	res, err := p.Process(context.Background(), csvRows(2))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if res.Activation.Activated {
		t.Error("Activation.Activated = true, want false")
	}
	if res.Activation.Reason == "" {
		t.Error("Activation.Reason is empty")
	}

	// Created rows stay "created" when activation fails
	for i, out := range res.Rows {
		if out.Status != StatusCreated {
			t.Errorf("Rows[%d].Status = %q, want %q", i, out.Status, StatusCreated)
		}
	}
	if res.Summary.Created != 2 {
		t.Errorf("Summary.Created = %d, want 2", res.Summary.Created)
	}
}

func TestProcess_MixedOutcomesPreserveOrder(t *testing.T) {
	// Later rows finish before earlier ones; outcomes must still be in
	// input order.
	fake := &fakeDirectory{
		createFn: func(call int, h directory.Hospital) (int64, error) {
			if h.Name == "Hospital 1" {
				time.Sleep(50 * time.Millisecond)
			}
			if h.Name == "Hospital 3" {
				return 0, &directory.StatusError{Code: 422, Body: "bad record"}
			}
			return int64(call), nil
		},
	}
	p := NewProcessor(fake, NewMemoryStore(), 5)

	rows := csvRows(4)
	rows[1].Fields["name"] = "" // row 2 fails validation

	res, err := p.Process(context.Background(), rows)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(res.Rows) != 4 {
		t.Fatalf("len(Rows) = %d, want 4", len(res.Rows))
	}
	for i, out := range res.Rows {
		if out.Row != i+1 {
			t.Errorf("Rows[%d].Row = %d, want %d (input order)", i, out.Row, i+1)
		}
	}

	if res.Rows[0].Status != StatusCreatedActivated {
		t.Errorf("row 1 Status = %q, want %q", res.Rows[0].Status, StatusCreatedActivated)
	}
	if res.Rows[1].Status != StatusValidationFailed {
		t.Errorf("row 2 Status = %q, want %q", res.Rows[1].Status, StatusValidationFailed)
	}
	if res.Rows[2].Status != StatusCreateFailed {
		t.Errorf("row 3 Status = %q, want %q", res.Rows[2].Status, StatusCreateFailed)
	}
	if res.Rows[3].Status != StatusCreatedActivated {
		t.Errorf("row 4 Status = %q, want %q", res.Rows[3].Status, StatusCreatedActivated)
	}

	want := Summary{Total: 4, Created: 2, ValidationFailed: 1, CreateFailed: 1}
	if res.Summary != want {
		t.Errorf("Summary = %+v, want %+v", res.Summary, want)
	}
}

func TestProcess_ConcurrencyBounded(t *testing.T) {
	const limit = 3

	fake := &fakeDirectory{delay: 20 * time.Millisecond}
	p := NewProcessor(fake, NewMemoryStore(), limit)

	_, err := p.Process(context.Background(), csvRows(12))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if fake.createCalls != 12 {
		t.Errorf("createCalls = %d, want 12", fake.createCalls)
	}
	if fake.maxInFlight > limit {
		t.Errorf("maxInFlight = %d, want <= %d", fake.maxInFlight, limit)
	}
}

func TestProcess_StoresResult(t *testing.T) {
	store := NewMemoryStore()
	p := NewProcessor(&fakeDirectory{}, store, 5)

	res, err := p.Process(context.Background(), csvRows(2))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	stored, err := store.Get(context.Background(), res.BatchID)
	if err != nil {
		t.Fatalf("Get(%q) error = %v", res.BatchID, err)
	}
	if stored.Summary != res.Summary {
		t.Errorf("stored Summary = %+v, want %+v", stored.Summary, res.Summary)
	}
}

func TestProcess_UniqueBatchIDs(t *testing.T) {
	p := NewProcessor(&fakeDirectory{}, NewMemoryStore(), 5)

	a, _ := p.Process(context.Background(), csvRows(1))
	b, _ := p.Process(context.Background(), csvRows(1))

	if a.BatchID == b.BatchID {
		t.Errorf("two runs produced the same batch ID %q", a.BatchID)
	}
}
