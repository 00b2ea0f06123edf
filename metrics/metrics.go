package metrics

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "testman"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	requirementsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "requirements_created_total",
		Help:      "Number of requirements created",
	}, []string{
		"project",
	})

	caseSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "case_sync_total",
		Help:      "Number of synced test cases by outcome",
	}, []string{
		"project",
		"outcome",
	})

	caseSyncFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "case_sync_failures_total",
		Help:      "Number of test cases that failed to sync",
	}, []string{
		"project",
	})

	recordsAttachedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "records_attached_total",
		Help:      "Number of test records attached to runs",
	}, []string{
		"project",
		"run_id",
	})

	recordFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "record_failures_total",
		Help:      "Number of test records that failed to attach",
	}, []string{
		"project",
		"run_id",
	})

	syncDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "sync_duration",
		Help:      "Duration of the last sync",
	}, []string{
		"project",
		"command",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordCaseSync(
	project string,
	created int,
	existing int,
	updated int,
	collected int,
	failed int,
	requirements int,
	duration time.Duration,
) {
	if Debug {
		log.Debug("metric record",
			"m", "case_sync_total",
			"project", project,
			"created", created,
			"existing", existing,
			"updated", updated,
			"collected", collected,
			"failed", failed)
	}
	caseSyncTotal.WithLabelValues(project, "created").Add(float64(created))
	caseSyncTotal.WithLabelValues(project, "existing").Add(float64(existing))
	caseSyncTotal.WithLabelValues(project, "updated").Add(float64(updated))
	caseSyncTotal.WithLabelValues(project, "collected").Add(float64(collected))
	caseSyncFailures.WithLabelValues(project).Add(float64(failed))
	requirementsCreatedTotal.WithLabelValues(project).Add(float64(requirements))
	syncDuration.WithLabelValues(project, "test-case").Set(duration.Seconds())
}

func RecordRunSync(
	project string,
	runID string,
	attached int,
	failed int,
	duration time.Duration,
) {
	if Debug {
		log.Debug("metric record",
			"m", "records_attached_total",
			"project", project,
			"run_id", runID,
			"attached", attached,
			"failed", failed)
	}
	recordsAttachedTotal.WithLabelValues(project, runID).Add(float64(attached))
	recordFailuresTotal.WithLabelValues(project, runID).Add(float64(failed))
	syncDuration.WithLabelValues(project, "test-run").Set(duration.Seconds())
}
