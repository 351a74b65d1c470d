package testsolves

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestVerifyRunSolution(t *testing.T) {
	convey.Convey("Given a batch with known preferences", t, func() {
		batch := Batch{
			RequestID:    "batch_fixture",
			Participants: []string{"amy", "bob", "cat"},
			Options:      []string{"art", "chess"},
			Preferences: map[string][]string{
				"amy": {"art", "chess"},
				"bob": {"chess"},
				"cat": {"art"},
			},
			MinQuota: 1,
			MaxQuota: 2,
		}

		run := func(result *Result) Run {
			return Run{ID: "run-1", RequestID: batch.RequestID, State: stateDone, Result: result}
		}

		convey.Convey("When the solution respects quotas and preferences", func() {
			problems := verifyRunSolution(batch, run(&Result{
				Status: statusOptimal,
				Assignments: map[string]Assignment{
					"amy": {Participant: "amy", Status: "assigned", Option: "art", Rank: 1, Score: 2},
					"bob": {Participant: "bob", Status: "assigned", Option: "chess", Rank: 1, Score: 1},
					"cat": {Participant: "cat", Status: "assigned", Option: "art", Rank: 1, Score: 1},
				},
				OptionCounts: map[string]int{"art": 2, "chess": 1},
				Metrics:      &ResultMetrics{PreferenceSatisfaction: 4, ActiveOptions: 2},
			}))

			convey.Convey("Then no problems should be reported", func() {
				convey.So(problems, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When an option stays closed with zero assignees", func() {
			problems := verifyRunSolution(batch, run(&Result{
				Status: statusOptimal,
				Assignments: map[string]Assignment{
					"amy": {Participant: "amy", Status: "assigned", Option: "art", Rank: 1, Score: 2},
					"bob": {Participant: "bob", Status: "unassigned"},
					"cat": {Participant: "cat", Status: "assigned", Option: "art", Rank: 1, Score: 1},
				},
				OptionCounts: map[string]int{"art": 2, "chess": 0},
			}))

			convey.Convey("Then the zero count should not be flagged", func() {
				convey.So(problems, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When an option exceeds its maximum quota", func() {
			problems := verifyRunSolution(batch, run(&Result{
				Status: statusOptimal,
				Assignments: map[string]Assignment{
					"amy": {Participant: "amy", Status: "assigned", Option: "art", Rank: 1, Score: 2},
					"bob": {Participant: "bob", Status: "assigned", Option: "chess", Rank: 1, Score: 1},
					"cat": {Participant: "cat", Status: "assigned", Option: "art", Rank: 1, Score: 1},
				},
				OptionCounts: map[string]int{"art": 3},
			}))

			convey.Convey("Then the quota violation should be reported", func() {
				convey.So(len(problems), convey.ShouldEqual, 1)
				convey.So(problems[0], convey.ShouldContainSubstring, "outside [1, 2]")
			})
		})

		convey.Convey("When an assignment names an option the rank does not", func() {
			problems := verifyRunSolution(batch, run(&Result{
				Status: statusOptimal,
				Assignments: map[string]Assignment{
					"amy": {Participant: "amy", Status: "assigned", Option: "chess", Rank: 1, Score: 2},
					"bob": {Participant: "bob", Status: "assigned", Option: "chess", Rank: 1, Score: 1},
					"cat": {Participant: "cat", Status: "assigned", Option: "art", Rank: 1, Score: 1},
				},
				OptionCounts: map[string]int{"art": 1, "chess": 2},
			}))

			convey.Convey("Then the mismatch should be reported", func() {
				convey.So(len(problems), convey.ShouldEqual, 1)
				convey.So(problems[0], convey.ShouldContainSubstring, "rank 1 names art")
			})
		})

		convey.Convey("When a rank falls outside the participant's preferences", func() {
			problems := verifyRunSolution(batch, run(&Result{
				Status: statusOptimal,
				Assignments: map[string]Assignment{
					"amy": {Participant: "amy", Status: "assigned", Option: "art", Rank: 1, Score: 2},
					"bob": {Participant: "bob", Status: "assigned", Option: "chess", Rank: 2, Score: 1},
					"cat": {Participant: "cat", Status: "assigned", Option: "art", Rank: 1, Score: 1},
				},
				OptionCounts: map[string]int{"art": 2, "chess": 1},
			}))

			convey.Convey("Then the out-of-range rank should be reported", func() {
				convey.So(len(problems), convey.ShouldEqual, 1)
				convey.So(problems[0], convey.ShouldContainSubstring, "rank 2 outside")
			})
		})

		convey.Convey("When option counts disagree with the assignments", func() {
			problems := verifyRunSolution(batch, run(&Result{
				Status: statusOptimal,
				Assignments: map[string]Assignment{
					"amy": {Participant: "amy", Status: "assigned", Option: "art", Rank: 1, Score: 2},
					"bob": {Participant: "bob", Status: "unassigned"},
					"cat": {Participant: "cat", Status: "unassigned"},
				},
				OptionCounts: map[string]int{"art": 2, "chess": 1},
			}))

			convey.Convey("Then the count mismatch should be reported", func() {
				convey.So(len(problems), convey.ShouldEqual, 1)
				convey.So(problems[0], convey.ShouldContainSubstring, "sum to 3 but 1 participants")
			})
		})

		convey.Convey("When reported satisfaction disagrees with assigned scores", func() {
			problems := verifyRunSolution(batch, run(&Result{
				Status: statusOptimal,
				Assignments: map[string]Assignment{
					"amy": {Participant: "amy", Status: "assigned", Option: "art", Rank: 1, Score: 2},
					"bob": {Participant: "bob", Status: "assigned", Option: "chess", Rank: 1, Score: 1},
					"cat": {Participant: "cat", Status: "assigned", Option: "art", Rank: 1, Score: 1},
				},
				OptionCounts: map[string]int{"art": 2, "chess": 1},
				Metrics:      &ResultMetrics{PreferenceSatisfaction: 7},
			}))

			convey.Convey("Then the satisfaction mismatch should be reported", func() {
				convey.So(len(problems), convey.ShouldEqual, 1)
				convey.So(problems[0], convey.ShouldContainSubstring, "satisfaction 7")
			})
		})

		convey.Convey("When an assignment carries no option", func() {
			problems := verifyRunSolution(batch, run(&Result{
				Status: statusOptimal,
				Assignments: map[string]Assignment{
					"amy": {Participant: "amy", Status: "assigned", Option: "art", Rank: 1, Score: 2},
					"bob": {Participant: "bob", Status: "assigned"},
					"cat": {Participant: "cat", Status: "unassigned"},
				},
				OptionCounts: map[string]int{"art": 1, "chess": 1},
			}))

			convey.Convey("Then the empty option should be reported", func() {
				convey.So(len(problems), convey.ShouldEqual, 1)
				convey.So(problems[0], convey.ShouldContainSubstring, "assigned with no option")
			})
		})
	})
}
