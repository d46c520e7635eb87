package commands

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"lexshelf/internal/application"
	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// ItemStatus is the outcome of one document in a bulk run
type ItemStatus string

const (
	StatusStored    ItemStatus = "stored"
	StatusDuplicate ItemStatus = "duplicate"
	StatusIO        ItemStatus = "io_failure"
	StatusEncoding  ItemStatus = "encoding_failure"
	StatusCorrupt   ItemStatus = "corrupt"
	StatusFailed    ItemStatus = "failed"
)

// ItemResult records what happened to one document
type ItemResult struct {
	ID      string
	Origin  string
	Status  ItemStatus
	RelPath string
	Err     error
}

// IngestReport aggregates the outcome of a bulk run
type IngestReport struct {
	Attempted        int
	Stored           int
	Duplicates       int
	IOFailures       int
	EncodingFailures int
	OtherFailures    int
	CorruptSkipped   int
	Interrupted      bool
	Duration         time.Duration
	Items            []ItemResult
}

// Failed returns the number of documents that were attempted and not stored
// for a reason other than being a duplicate
func (r *IngestReport) Failed() int {
	return r.IOFailures + r.EncodingFailures + r.OtherFailures
}

func (r *IngestReport) add(item ItemResult) {
	r.Items = append(r.Items, item)
	if item.Status == StatusCorrupt {
		r.CorruptSkipped++
		return
	}
	r.Attempted++
	switch item.Status {
	case StatusStored:
		r.Stored++
	case StatusDuplicate:
		r.Duplicates++
	case StatusIO:
		r.IOFailures++
	case StatusEncoding:
		r.EncodingFailures++
	default:
		r.OtherFailures++
	}
}

// IngestCommand stores every document of a producer. Documents are
// independent: a failure is recorded and the run goes on.
type IngestCommand struct {
	placer   *application.Placer
	producer ports.DocumentProducer
	log      logrus.FieldLogger

	Workers int
	Rate    float64 // documents per second, 0 for unlimited
	Burst   int

	// OnResult is called from worker goroutines after each document
	OnResult func(ItemResult)
}

// NewIngestCommand creates a new IngestCommand
func NewIngestCommand(placer *application.Placer, producer ports.DocumentProducer, log logrus.FieldLogger) *IngestCommand {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &IngestCommand{
		placer:   placer,
		producer: producer,
		log:      log,
		Workers:  runtime.NumCPU(),
	}
}

// Validate checks if the ingest operation is valid
func (c *IngestCommand) Validate() error {
	if c.producer == nil {
		return &application.ValidationError{Field: "source", Message: "document source is required"}
	}
	if c.Workers < 1 {
		return &application.ValidationError{Field: "workers", Message: "at least one worker is required"}
	}
	if c.Rate < 0 {
		return &application.ValidationError{Field: "rate", Message: "rate must not be negative"}
	}
	return nil
}

// Execute runs the ingest. Cancelling ctx stops it between documents; the
// report then covers what was processed and Interrupted is set.
func (c *IngestCommand) Execute(ctx context.Context) (*IngestReport, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &IngestReport{}
	var mu sync.Mutex
	record := func(item ItemResult) {
		mu.Lock()
		report.add(item)
		mu.Unlock()
		if c.OnResult != nil {
			c.OnResult(item)
		}
	}

	var limiter *rate.Limiter
	if c.Rate > 0 {
		burst := c.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(c.Rate), burst)
	}

	g := new(errgroup.Group)
	g.SetLimit(c.Workers)

	produceErr := c.producer.Produce(ctx, func(in domain.Incoming) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if in.Err == nil && in.Document == nil {
			in.Err = errors.New("empty document")
		}
		if in.Err != nil {
			record(ItemResult{Origin: in.Origin, Status: StatusCorrupt, Err: in.Err})
			c.log.WithField("path", in.Origin).WithError(in.Err).Warn("skipping unreadable document")
			return nil
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			record(c.storeOne(ctx, in))
			return nil
		})
		return nil
	})
	_ = g.Wait()

	report.Duration = time.Since(start)
	if ctx.Err() != nil {
		report.Interrupted = true
	}

	c.log.WithFields(logrus.Fields{
		"source":          c.producer.Name(),
		"attempted":       report.Attempted,
		"stored":          report.Stored,
		"duplicates":      report.Duplicates,
		"io_failures":     report.IOFailures,
		"corrupt_skipped": report.CorruptSkipped,
		"interrupted":     report.Interrupted,
	}).Info("ingest finished")

	if produceErr != nil && !errors.Is(produceErr, context.Canceled) && !errors.Is(produceErr, context.DeadlineExceeded) {
		return report, fmt.Errorf("source %s: %w", c.producer.Name(), produceErr)
	}
	return report, nil
}

func (c *IngestCommand) storeOne(ctx context.Context, in domain.Incoming) ItemResult {
	item := ItemResult{ID: in.Document.ID, Origin: in.Origin}

	receipt, err := c.placer.Store(ctx, in.Document, in.Origin)
	if err != nil {
		item.ID = in.Document.ID
		item.Err = err
		item.Status = statusOf(err)
		if item.Status != StatusDuplicate {
			c.log.WithFields(logrus.Fields{"id": item.ID, "path": in.Origin}).WithError(err).Warn("document not stored")
		}
		return item
	}

	item.ID = receipt.ID
	item.Status = StatusStored
	item.RelPath = receipt.RelPath
	return item
}

func statusOf(err error) ItemStatus {
	switch {
	case errors.Is(err, application.ErrDuplicateID):
		return StatusDuplicate
	case errors.Is(err, application.ErrIO):
		return StatusIO
	case errors.Is(err, application.ErrEncoding):
		return StatusEncoding
	default:
		return StatusFailed
	}
}

// Message summarizes the report in one line
func (r *IngestReport) Message() string {
	msg := fmt.Sprintf("Attempted %d, stored %d, duplicates %d, io failures %d, encoding failures %d, other failures %d, corrupt skipped %d",
		r.Attempted, r.Stored, r.Duplicates, r.IOFailures, r.EncodingFailures, r.OtherFailures, r.CorruptSkipped)
	if r.Interrupted {
		msg += " (interrupted)"
	}
	return msg
}
