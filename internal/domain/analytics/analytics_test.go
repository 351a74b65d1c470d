package analytics_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/kismet/internal/domain/analytics"
	"github.com/okian/kismet/internal/domain/engine"
)

func demandProblem() engine.Problem {
	// Three choices each, so scores run 3/2/1.
	return engine.Problem{
		Participants: []string{"amy", "bob", "cat", "dan"},
		Options:      []string{"art", "chess", "drama", "tennis"},
		Preferences: map[string][]engine.Preference{
			"amy": {{Option: "tennis", Score: 3}, {Option: "chess", Score: 2}, {Option: "art", Score: 1}},
			"bob": {{Option: "tennis", Score: 3}, {Option: "art", Score: 2}},
			"cat": {{Option: "chess", Score: 3}, {Option: "tennis", Score: 2}, {Option: "art", Score: 1}},
			"dan": {{Option: "art", Score: 3}, {Option: "tennis", Score: 2}},
		},
		MinQuota: 1,
		MaxQuota: 2,
	}
}

func TestAnalyze(t *testing.T) {
	Convey("Given preference data across four options", t, func() {
		prob := demandProblem()

		Convey("When analyzing with defaults", func() {
			rows := analytics.Analyze(prob)

			Convey("Then every declared option has a row", func() {
				So(len(rows), ShouldEqual, 4)
			})

			Convey("Then rows are ordered by weighted demand, id breaking ties", func() {
				// tennis 3+3+2+2=10, art 1+2+1+3=7, chess 2+3=5, drama 0.
				So(rows[0].Option, ShouldEqual, "tennis")
				So(rows[0].WeightedDemand, ShouldEqual, 10)
				So(rows[1].Option, ShouldEqual, "art")
				So(rows[1].WeightedDemand, ShouldEqual, 7)
				So(rows[2].Option, ShouldEqual, "chess")
				So(rows[2].WeightedDemand, ShouldEqual, 5)
				So(rows[3].Option, ShouldEqual, "drama")
			})

			Convey("Then demand counts listings at any rank", func() {
				So(rows[0].Demand, ShouldEqual, 4)  // tennis listed by all
				So(rows[1].Demand, ShouldEqual, 4)  // art listed by all
				So(rows[2].Demand, ShouldEqual, 2)  // chess by amy, cat
				So(rows[3].Demand, ShouldEqual, 0)  // drama unlisted
			})

			Convey("Then top-choice demand uses the top-2 window", func() {
				// tennis: amy#1, bob#1, cat#2, dan#2 = 4; art: bob#2, dan#1 = 2;
				// chess: amy#2, cat#1 = 2.
				So(rows[0].TopChoiceDemand, ShouldEqual, 4)
				So(rows[1].TopChoiceDemand, ShouldEqual, 2)
				So(rows[2].TopChoiceDemand, ShouldEqual, 2)
				So(rows[3].TopChoiceDemand, ShouldEqual, 0)
			})

			Convey("Then the competition index divides by the max quota", func() {
				So(rows[0].CompetitionIndex, ShouldEqual, 2.0) // 4 / 2
				So(rows[1].CompetitionIndex, ShouldEqual, 1.0)
				So(rows[3].CompetitionIndex, ShouldEqual, 0.0)
			})
		})

		Convey("When widening the top-choice window", func() {
			rows := analytics.Analyze(prob, analytics.WithTopChoiceWindow(3))

			Convey("Then third choices count as well", func() {
				for _, row := range rows {
					So(row.TopChoiceDemand, ShouldEqual, row.Demand)
				}
			})
		})

		Convey("When narrowing the window to first choices only", func() {
			rows := analytics.Analyze(prob, analytics.WithTopChoiceWindow(1))

			byOption := make(map[string]analytics.Row, len(rows))
			for _, row := range rows {
				byOption[row.Option] = row
			}

			Convey("Then only rank-1 listings count", func() {
				So(byOption["tennis"].TopChoiceDemand, ShouldEqual, 2) // amy, bob
				So(byOption["chess"].TopChoiceDemand, ShouldEqual, 1)  // cat
				So(byOption["art"].TopChoiceDemand, ShouldEqual, 1)    // dan
			})
		})

		Convey("When a zero window is requested", func() {
			rows := analytics.Analyze(prob, analytics.WithTopChoiceWindow(0))

			Convey("Then the default window stays in effect", func() {
				So(rows[0].TopChoiceDemand, ShouldEqual, 4)
			})
		})
	})

	Convey("Given a listing for an undeclared option", t, func() {
		prob := engine.Problem{
			Participants: []string{"p1"},
			Options:      []string{"real"},
			Preferences: map[string][]engine.Preference{
				"p1": {{Option: "ghost", Score: 1}},
			},
			MinQuota: 1,
			MaxQuota: 3,
		}

		Convey("When analyzing", func() {
			rows := analytics.Analyze(prob)

			Convey("Then the undeclared option still gets a row", func() {
				So(len(rows), ShouldEqual, 2)
				So(rows[0].Option, ShouldEqual, "ghost")
				So(rows[0].Demand, ShouldEqual, 1)
				So(rows[0].CompetitionIndex, ShouldEqual, 0.33)
				So(rows[1].Option, ShouldEqual, "real")
				So(rows[1].Demand, ShouldEqual, 0)
			})
		})
	})

	Convey("Given no participants at all", t, func() {
		prob := engine.Problem{
			Options:  []string{"a", "b"},
			MinQuota: 1,
			MaxQuota: 2,
		}

		Convey("When analyzing", func() {
			rows := analytics.Analyze(prob)

			Convey("Then rows are zero-valued and ordered by id", func() {
				So(len(rows), ShouldEqual, 2)
				So(rows[0].Option, ShouldEqual, "a")
				So(rows[1].Option, ShouldEqual, "b")
				So(rows[0].Demand, ShouldEqual, 0)
				So(rows[0].WeightedDemand, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a problem with a zero max quota", t, func() {
		prob := engine.Problem{
			Participants: []string{"p1"},
			Options:      []string{"a"},
			Preferences: map[string][]engine.Preference{
				"p1": {{Option: "a", Score: 1}},
			},
		}

		Convey("Then the competition index is reported as zero", func() {
			rows := analytics.Analyze(prob)
			So(rows[0].CompetitionIndex, ShouldEqual, 0.0)
		})
	})
}
