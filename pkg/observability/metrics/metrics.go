package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	readingsAccepted  atomic.Int64
	readingsDuplicate atomic.Int64
	readingsRejected  atomic.Int64
	alertsRaised      atomic.Int64
	alertsSuppressed  atomic.Int64
)

func ObserveBatch(accepted, duplicates, failed int) {
	readingsAccepted.Add(int64(accepted))
	readingsDuplicate.Add(int64(duplicates))
	readingsRejected.Add(int64(failed))
}

func ObserveAlertRaised() {
	alertsRaised.Add(1)
}

func ObserveAlertSuppressed() {
	alertsSuppressed.Add(1)
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP veritrack_telemetry_readings_accepted_total Readings durably stored since process start.\n")
	fmt.Fprintf(w, "# TYPE veritrack_telemetry_readings_accepted_total counter\n")
	fmt.Fprintf(w, "veritrack_telemetry_readings_accepted_total %d\n", readingsAccepted.Load())

	fmt.Fprintf(w, "# HELP veritrack_telemetry_readings_duplicate_total Idempotent retries detected by the dedup key.\n")
	fmt.Fprintf(w, "# TYPE veritrack_telemetry_readings_duplicate_total counter\n")
	fmt.Fprintf(w, "veritrack_telemetry_readings_duplicate_total %d\n", readingsDuplicate.Load())

	fmt.Fprintf(w, "# HELP veritrack_telemetry_readings_rejected_total Entries rejected by validation or eligibility checks.\n")
	fmt.Fprintf(w, "# TYPE veritrack_telemetry_readings_rejected_total counter\n")
	fmt.Fprintf(w, "veritrack_telemetry_readings_rejected_total %d\n", readingsRejected.Load())

	fmt.Fprintf(w, "# HELP veritrack_telemetry_alerts_raised_total New alerts created by the evaluators.\n")
	fmt.Fprintf(w, "# TYPE veritrack_telemetry_alerts_raised_total counter\n")
	fmt.Fprintf(w, "veritrack_telemetry_alerts_raised_total %d\n", alertsRaised.Load())

	fmt.Fprintf(w, "# HELP veritrack_telemetry_alerts_suppressed_total Raise calls absorbed by an already-open episode.\n")
	fmt.Fprintf(w, "# TYPE veritrack_telemetry_alerts_suppressed_total counter\n")
	fmt.Fprintf(w, "veritrack_telemetry_alerts_suppressed_total %d\n", alertsSuppressed.Load())
}

func Handler(w http.ResponseWriter, _ *http.Request) {
	WritePrometheus(w)
}
