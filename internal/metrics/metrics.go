package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage names used as the "stage" label.
const (
	StageRasterize  = "rasterize"
	StageTranscribe = "transcribe"
	StageExtract    = "extract"
	StageValidate   = "validate"
	StageLedger     = "ledger"
)

// Pipeline holds the collectors for document processing.
// A nil *Pipeline is valid and records nothing.
type Pipeline struct {
	documents     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	degradedPages prometheus.Counter
	ledgerAppends *prometheus.CounterVec
	ledgerQueue   prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvintake",
			Name:      "documents_total",
			Help:      "Documents processed, by outcome status and error code.",
		}, []string{"status", "code"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cvintake",
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"stage"}),
		degradedPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cvintake",
			Name:      "transcription_degraded_pages_total",
			Help:      "Pages whose transcription failed or came back empty.",
		}),
		ledgerAppends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvintake",
			Name:      "ledger_appends_total",
			Help:      "Ledger append attempts, by result.",
		}, []string{"result"}),
		ledgerQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cvintake",
			Name:      "ledger_queue_depth",
			Help:      "Appends waiting for the ledger worker.",
		}),
	}
	reg.MustRegister(p.documents, p.stageDuration, p.degradedPages, p.ledgerAppends, p.ledgerQueue)
	return p
}

func (p *Pipeline) ObserveStage(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *Pipeline) DocumentDone(status, code string) {
	if p == nil {
		return
	}
	p.documents.WithLabelValues(status, code).Inc()
}

func (p *Pipeline) PageDegraded() {
	if p == nil {
		return
	}
	p.degradedPages.Inc()
}

func (p *Pipeline) LedgerAppend(ok bool) {
	if p == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	p.ledgerAppends.WithLabelValues(result).Inc()
}

func (p *Pipeline) LedgerQueued(delta float64) {
	if p == nil {
		return
	}
	p.ledgerQueue.Add(delta)
}
