package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/kismet/internal/adapters/runstore"
	service "github.com/okian/kismet/internal/app"
	"github.com/okian/kismet/internal/domain/model"
	"github.com/okian/kismet/internal/domain/types"
	"github.com/okian/kismet/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// solveRequest builds a small feasible problem: both options can stay
// within [1, 2] while everyone gets their first choice.
func solveRequest(requestID string) model.SolveRequest {
	return model.SolveRequest{
		RequestID:    requestID,
		Participants: []string{"amy", "bob", "cat"},
		Options:      []string{"art", "chess"},
		Preferences: map[string][]string{
			"amy": {"art", "chess"},
			"bob": {"art"},
			"cat": {"chess", "art"},
		},
		MinQuota:     1,
		MaxQuota:     2,
		OptionWeight: 1.0,
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithRunRetention(100),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})

			Convey("And submissions should be rejected", func() {
				_, _, err := svc.Submit(ctx, solveRequest("req-after-stop"))
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When submitting a valid request", func() {
			runID, duplicate, err := svc.Submit(ctx, solveRequest("req-1"))

			Convey("Then it should be accepted", func() {
				So(err, ShouldBeNil)
				So(duplicate, ShouldBeFalse)
				So(runID, ShouldNotBeEmpty)
			})

			Convey("And resubmitting the same request id should return the original run", func() {
				again, duplicate, err := svc.Submit(ctx, solveRequest("req-1"))
				So(err, ShouldBeNil)
				So(duplicate, ShouldBeTrue)
				So(again, ShouldEqual, runID)
			})
		})

		Convey("When submitting without a request id", func() {
			req := solveRequest("")
			runID, duplicate, err := svc.Submit(ctx, req)

			Convey("Then one should be generated and the run accepted", func() {
				So(err, ShouldBeNil)
				So(duplicate, ShouldBeFalse)
				So(runID, ShouldNotBeEmpty)
			})
		})

		Convey("When submitting an invalid request", func() {
			req := solveRequest("req-bad")
			req.MinQuota = 0
			runID, _, err := svc.Submit(ctx, req)

			Convey("Then it should be rejected", func() {
				So(err, ShouldNotBeNil)
				So(runID, ShouldBeEmpty)
			})

			Convey("And the request id should remain available", func() {
				good := solveRequest("req-bad")
				runID, duplicate, err := svc.Submit(ctx, good)
				So(err, ShouldBeNil)
				So(duplicate, ShouldBeFalse)
				So(runID, ShouldNotBeEmpty)
			})
		})
	})
}

func TestService_RunQueries(t *testing.T) {
	Convey("Given a started service with a finished run", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)
		defer svc.Stop()

		runID, _, err := svc.Submit(ctx, solveRequest("req-query"))
		So(err, ShouldBeNil)

		run, err := svc.WaitForRun(ctx, runID, 5*time.Millisecond)
		So(err, ShouldBeNil)
		So(run.State, ShouldEqual, types.StateDone)

		Convey("When fetching the run by id", func() {
			got, err := svc.Run(ctx, runID)

			Convey("Then the full record should come back", func() {
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, runID)
				So(got.RequestID, ShouldEqual, "req-query")
				So(got.Result, ShouldNotBeNil)
			})
		})

		Convey("When fetching an unknown run", func() {
			_, err := svc.Run(ctx, "ghost")

			Convey("Then it should report not found", func() {
				So(errors.Is(err, runstore.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When listing recent runs", func() {
			runs, err := svc.RecentRuns(ctx, 10)

			Convey("Then the run should be listed", func() {
				So(err, ShouldBeNil)
				So(len(runs), ShouldEqual, 1)
				So(runs[0].ID, ShouldEqual, runID)
			})
		})

		Convey("When requesting analytics for the run", func() {
			rows, err := svc.Analytics(ctx, runID, 0)

			Convey("Then per-option demand should come back", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
			})
		})

		Convey("When requesting analytics for an unknown run", func() {
			_, err := svc.Analytics(ctx, "ghost", 0)

			Convey("Then it should report not found", func() {
				So(errors.Is(err, runstore.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When getting stats", func() {
			stats := svc.GetStats()

			Convey("Then runtime figures should be present", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["workers"], ShouldEqual, 2)
				So(stats["totalRuns"], ShouldEqual, 0)
			})
		})
	})
}
