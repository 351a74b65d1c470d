package testsolves

import (
	"context"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestGenerateSingleBatch(t *testing.T) {
	convey.Convey("Given batch generation parameters", t, func() {
		batch := generateSingleBatch(0, 12, 4)

		convey.Convey("When inspecting the generated batch", func() {
			convey.Convey("Then it should carry a unique request ID", func() {
				convey.So(batch.RequestID, convey.ShouldStartWith, "batch_0_")
			})

			convey.Convey("Then it should contain the requested participants", func() {
				convey.So(len(batch.Participants), convey.ShouldEqual, 12)

				seen := make(map[string]bool, len(batch.Participants))
				for _, p := range batch.Participants {
					seen[p] = true
				}
				convey.So(len(seen), convey.ShouldEqual, 12)
			})

			convey.Convey("Then it should contain the requested options", func() {
				convey.So(len(batch.Options), convey.ShouldEqual, 4)

				seen := make(map[string]bool, len(batch.Options))
				for _, o := range batch.Options {
					seen[o] = true
				}
				convey.So(len(seen), convey.ShouldEqual, 4)
			})

			convey.Convey("Then preferences should reference known IDs without duplicates", func() {
				participants := make(map[string]bool, len(batch.Participants))
				for _, p := range batch.Participants {
					participants[p] = true
				}
				options := make(map[string]bool, len(batch.Options))
				for _, o := range batch.Options {
					options[o] = true
				}

				valid := true
				for participant, prefs := range batch.Preferences {
					if !participants[participant] || len(prefs) == 0 {
						valid = false
						break
					}
					ranked := make(map[string]bool, len(prefs))
					for _, option := range prefs {
						if !options[option] || ranked[option] {
							valid = false
							break
						}
						ranked[option] = true
					}
				}
				convey.So(valid, convey.ShouldBeTrue)
			})

			convey.Convey("Then quota bounds should be ordered and positive", func() {
				convey.So(batch.MinQuota, convey.ShouldBeGreaterThanOrEqualTo, 1)
				convey.So(batch.MaxQuota, convey.ShouldBeGreaterThanOrEqualTo, batch.MinQuota)
			})

			convey.Convey("Then the option weight should not be negative", func() {
				convey.So(batch.OptionWeight, convey.ShouldBeGreaterThanOrEqualTo, 0)
			})
		})
	})
}

func TestGenerateBatches(t *testing.T) {
	convey.Convey("Given a batch generation config", t, func() {
		config := &Config{
			NumBatches:   10,
			Participants: 6,
			Options:      3,
			Workers:      4,
		}
		stats := &Stats{}

		convey.Convey("When generating batches", func() {
			batches, err := generateBatches(context.Background(), config, stats)

			convey.Convey("Then it should produce the requested count", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(batches), convey.ShouldEqual, 10)
				convey.So(stats.BatchesGenerated, convey.ShouldEqual, 10)
			})

			convey.Convey("Then every batch should carry a distinct request ID", func() {
				convey.So(err, convey.ShouldBeNil)

				ids := make(map[string]bool, len(batches))
				for _, batch := range batches {
					ids[batch.RequestID] = true
				}
				convey.So(len(ids), convey.ShouldEqual, len(batches))
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			batches, err := generateBatches(ctx, config, stats)

			convey.Convey("Then generation should stop with an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(batches, convey.ShouldBeNil)
			})
		})
	})
}
