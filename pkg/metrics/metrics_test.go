package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a custom registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("engine"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors should be registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.submissionsIngested.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "test_engine_"), ShouldBeTrue)
				}
			})
		})

		Convey("When options are empty they keep defaults", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)
			So(manager.namespace, ShouldEqual, "streakd")
			So(manager.subsystem, ShouldEqual, "activity")
			So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording ingestion metrics", func() {
			before := testutil.ToFloat64(globalManager.submissionsIngested)
			RecordSubmissionIngested()
			RecordSubmissionIngested()
			So(testutil.ToFloat64(globalManager.submissionsIngested), ShouldEqual, before+2)

			dup := testutil.ToFloat64(globalManager.submissionsDuplicate)
			RecordSubmissionDuplicate()
			So(testutil.ToFloat64(globalManager.submissionsDuplicate), ShouldEqual, dup+1)
		})

		Convey("When recording malformed events", func() {
			before := testutil.ToFloat64(globalManager.submissionsMalformed)
			RecordMalformedEvents(3)
			RecordMalformedEvents(0)
			RecordMalformedEvents(-1)
			So(testutil.ToFloat64(globalManager.submissionsMalformed), ShouldEqual, before+3)
		})

		Convey("When updating gauges", func() {
			UpdateStoreSize(10, 2)
			UpdateQueueSize(4)
			UpdateQueueCapacity(100)
			UpdateWorkerCount(8)
			So(testutil.ToFloat64(globalManager.submissionsStored), ShouldEqual, 10.0)
			So(testutil.ToFloat64(globalManager.membersTracked), ShouldEqual, 2.0)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 4.0)
			So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100.0)
			So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 8.0)
		})

		Convey("When recording labelled failures", func() {
			before := testutil.ToFloat64(globalManager.memberFetchFailures.WithLabelValues("timeout"))
			RecordMemberFetchFailure("timeout")
			So(testutil.ToFloat64(globalManager.memberFetchFailures.WithLabelValues("timeout")), ShouldEqual, before+1)

			q := testutil.ToFloat64(globalManager.queueEnqueueErrors.WithLabelValues("full"))
			RecordQueueEnqueueError("full")
			So(testutil.ToFloat64(globalManager.queueEnqueueErrors.WithLabelValues("full")), ShouldEqual, q+1)
		})

		Convey("When observing histograms", func() {
			So(func() {
				RecordAggregationLatency(KindParty, 12)
				RecordAggregationLatency(KindStreak, 1)
				RecordMemberFetchLatency(40)
				RecordPartySize(3)
				RecordInvalidWindow()
				RecordWorkerError()
				RecordHTTPRequest("party", "POST", "200")
				RecordHTTPRequestDuration("party", "POST", "200", 5)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})

		Convey("Then the registry should be exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
