package batch

// processor.go runs one batch: validate rows, fan out create requests under
// a bounded concurrency limit, then always attempt batch activation.
//
// Outcomes are written into an index-correlated slice, so the final
// sequence matches input order no matter which requests finish first. Each
// goroutine owns exactly one slice element; no locking is needed for the
// outcome collection.

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paribus/hospital-bulk/internal/directory"
	"github.com/paribus/hospital-bulk/internal/logging"
)

// DefaultRowConcurrency is the default cap on in-flight create requests
// per batch.
const DefaultRowConcurrency = 5

// Processor runs batch uploads against the directory API.
type Processor struct {
	client      directory.Client
	store       Store
	concurrency int
}

// NewProcessor creates a Processor. concurrency caps in-flight create
// requests per batch; values below 1 fall back to DefaultRowConcurrency.
func NewProcessor(client directory.Client, store Store, concurrency int) *Processor {
	if concurrency < 1 {
		concurrency = DefaultRowConcurrency
	}
	return &Processor{
		client:      client,
		store:       store,
		concurrency: concurrency,
	}
}

// Process runs one batch to completion and stores the result.
//
// Every row yields exactly one outcome. Row failures never abort the rest
// of the batch, and activation is attempted exactly once regardless of how
// many rows succeeded — including none. The returned Result is immutable.
func (p *Processor) Process(ctx context.Context, rows []Row) (*Result, error) {
	start := time.Now()
	batchID := uuid.NewString()
	logger := logging.WithFields(ctx, "batch_id", batchID)

	logger.Info("batch started", "rows", len(rows))

	outcomes := make([]RowOutcome, len(rows))
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for i, row := range rows {
		record, verr := ValidateRow(row)
		if verr != nil {
			outcomes[i] = RowOutcome{
				Row:    row.Line,
				Name:   row.Fields["name"],
				Status: StatusValidationFailed,
				Reason: verr.Error(),
			}
			continue
		}
		record.CreationBatchID = batchID

		wg.Add(1)
		go func(i, line int, record directory.Hospital) {
			defer wg.Done()

			// Permit held for the whole attempt, backoff included, so the
			// directory never sees more than p.concurrency requests at once.
			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes[i] = p.createOne(ctx, line, record)
		}(i, row.Line, record)
	}

	wg.Wait()

	activation := p.activate(ctx, batchID, logger)
	if activation.Activated {
		for i := range outcomes {
			if outcomes[i].Status == StatusCreated {
				outcomes[i].Status = StatusCreatedActivated
			}
		}
	}

	res := &Result{
		BatchID:           batchID,
		Summary:           summarize(outcomes),
		Activation:        activation,
		ProcessingSeconds: roundSeconds(time.Since(start).Seconds()),
		Rows:              outcomes,
	}

	// A storage failure costs the later status lookup, not the response.
	if err := p.store.Put(ctx, res); err != nil {
		logger.Error("store batch result", "error", err)
	}

	logger.Info("batch completed",
		"total", res.Summary.Total,
		"created", res.Summary.Created,
		"validation_failed", res.Summary.ValidationFailed,
		"create_failed", res.Summary.CreateFailed,
		"activated", res.Activation.Activated,
		"elapsed", time.Since(start),
	)

	return res, nil
}

// createOne issues the create call for a single validated record.
// Retry/backoff for transient failures lives inside the directory client.
func (p *Processor) createOne(ctx context.Context, line int, record directory.Hospital) RowOutcome {
	id, err := p.client.CreateHospital(ctx, record)
	if err != nil {
		out := RowOutcome{
			Row:    line,
			Name:   record.Name,
			Status: StatusCreateFailed,
			Reason: err.Error(),
		}

		var se *directory.StatusError
		if errors.As(err, &se) {
			out.HTTPStatus = se.Code
		}
		return out
	}

	return RowOutcome{
		Row:        line,
		Name:       record.Name,
		HospitalID: &id,
		Status:     StatusCreated,
	}
}

// activate makes the single best-effort activation attempt.
// Failure is recorded, never retried, and rolls nothing back.
func (p *Processor) activate(ctx context.Context, batchID string, logger *slog.Logger) Activation {
	if err := p.client.ActivateBatch(ctx, batchID); err != nil {
		logger.Warn("batch activation failed", "error", err)
		return Activation{Activated: false, Reason: err.Error()}
	}
	return Activation{Activated: true}
}
