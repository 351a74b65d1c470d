package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given the metrics manager", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "kismet")
				So(manager.subsystem, ShouldEqual, "solver")
				So(manager.enabled, ShouldBeTrue)
			})

			Convey("And all metrics should register on the given registry", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("custom"),
				WithSubsystem("testing"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should take effect", func() {
				So(manager.namespace, ShouldEqual, "custom")
				So(manager.subsystem, ShouldEqual, "testing")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.enabled, ShouldBeFalse)
			})
		})

		Convey("When options carry zero values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the defaults survive", func() {
				So(manager.namespace, ShouldEqual, "kismet")
				So(manager.subsystem, ShouldEqual, "solver")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestRecordingFunctions(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording solve lifecycle metrics", func() {
			So(func() {
				RecordSolveSubmitted()
				RecordSolveDuplicate()
				RecordSolveCompleted("optimal")
				RecordSolveCompleted("infeasible")
				RecordSolveError()
				RecordSolveDuration(125.0)
				RecordModelSize(42, 17)
				UpdateSolveQuality(2.5, 3)
			}, ShouldNotPanic)
		})

		Convey("When recording queue metrics", func() {
			So(func() {
				UpdateQueueSize(10)
				UpdateQueueCapacity(1000)
				UpdateQueueUtilization(0.01)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.3)
			}, ShouldNotPanic)
		})

		Convey("When recording worker metrics", func() {
			So(func() {
				UpdateWorkerActiveCount(4)
				UpdateWorkerIdleCount(2)
				UpdateWorkerJobsPerSecond(7.5)
				RecordWorkerProcessingLatency(33.0)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording run store metrics", func() {
			So(func() {
				UpdateStoreRuns(12)
				RecordStoreEviction()
				RecordStoreUpdateLatency(1.0)
				RecordStoreQueryLatency(0.5)
				UpdateDedupeEntries(9)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordHTTPRequest("solves", "POST", "202")
				RecordHTTPRequestDuration("solves", "POST", "202", 12.0)
				RecordErrorByComponent("worker", "solve_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(16)
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		registry := GetRegistry()

		Convey("Then it should expose the registered metric families", func() {
			So(registry, ShouldNotBeNil)
			families, err := registry.Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
