package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

const (
	dataDogQueueSize  = 1024
	dataDogBatchSize  = 50
	dataDogFlushEvery = 5 * time.Second

	defaultDataDogTimeout = 10 * time.Second
	defaultDataDogSource  = "go"
)

// DataDogWriter forwards log lines to the datadog logs intake API.
// Lines are queued and submitted in batches so the log call sites never block
// on network I/O; if the queue is full new lines are dropped.
type DataDogWriter struct {
	api   *datadogV2.LogsApi
	cfg   DataDog
	host  string
	queue chan string
	done  chan struct{}
}

// NewDataDogWriter creates a DataDogWriter and starts its submit loop.
func NewDataDogWriter(cfg DataDog) (*DataDogWriter, error) {
	if cfg.APIKey == "" {
		return nil, ErrDataDogAPIKeyIsEmpty
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultDataDogTimeout
	}

	if cfg.Source == "" {
		cfg.Source = defaultDataDogSource
	}

	host, _ := os.Hostname()

	w := &DataDogWriter{
		api:   datadogV2.NewLogsApi(datadog.NewAPIClient(datadog.NewConfiguration())),
		cfg:   cfg,
		host:  host,
		queue: make(chan string, dataDogQueueSize),
		done:  make(chan struct{}),
	}

	go w.run()

	return w, nil
}

// Write queues one log line. It never fails the zerolog write chain.
func (w *DataDogWriter) Write(p []byte) (int, error) {
	select {
	case w.queue <- string(p):
	default: // queue full, drop the line
	}

	return len(p), nil
}

// Close flushes the remaining queue and stops the submit loop.
func (w *DataDogWriter) Close() error {
	close(w.done)

	return nil
}

// run collects queued lines and submits them in batches.
func (w *DataDogWriter) run() {
	var (
		batch  = make([]string, 0, dataDogBatchSize)
		ticker = time.NewTicker(dataDogFlushEvery)
	)

	defer ticker.Stop()

	for {
		select {
		case line := <-w.queue:
			batch = append(batch, line)
			if len(batch) >= dataDogBatchSize {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-w.done:
			// drain what is left before stopping
			for {
				select {
				case line := <-w.queue:
					batch = append(batch, line)
				default:
					if len(batch) > 0 {
						w.flush(batch)
					}

					return
				}
			}
		}
	}
}

// flush submits one batch to the datadog intake.
func (w *DataDogWriter) flush(batch []string) {
	items := make([]datadogV2.HTTPLogItem, 0, len(batch))

	for _, line := range batch {
		item := datadogV2.NewHTTPLogItem(line)
		item.SetDdsource(w.cfg.Source)
		item.SetService(w.cfg.ServiceName)
		item.SetHostname(w.host)

		items = append(items, *item)
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.Timeout)
	defer cancel()

	ctx = context.WithValue(ctx, datadog.ContextAPIKeys, map[string]datadog.APIKey{
		"apiKeyAuth": {Key: w.cfg.APIKey},
	})

	if w.cfg.Site != "" {
		ctx = context.WithValue(ctx, datadog.ContextServerVariables, map[string]string{
			"site": w.cfg.Site,
		})
	}

	// stderr on purpose, logging the failure via zerolog would loop back here
	if _, _, err := w.api.SubmitLog(ctx, items, *datadogV2.NewSubmitLogOptionalParameters()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "logger: datadog submit failed: %v\n", err)
	}
}
