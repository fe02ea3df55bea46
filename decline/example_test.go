package decline_test

import (
	"fmt"
	"log"

	"github.com/arloliu/arps/decline"
	"github.com/arloliu/arps/series"
)

// ExampleGrid shows how the forecast grid extends past the last observed day.
func ExampleGrid() {
	days, err := decline.Grid(0, 95, 30, 180)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(days)

	// Output:
	// [0 30 60 90 120 150 180 210 240 270]
}

// ExampleEstimator_Estimate fits a short history and projects it.
func ExampleEstimator_Estimate() {
	est, err := decline.NewEstimator()
	if err != nil {
		log.Fatal(err)
	}

	fit := est.Estimate([]series.Sample{
		series.Observed(0, 100),
		series.Observed(30, 80),
		series.Observed(60, 65),
		series.Observed(90, 55),
	})
	fmt.Printf("success=%v qi=%.0f\n", fit.Success, fit.Params.Qi)

	points, err := decline.Forecast(fit.Params, fit.Origin, 90)
	if err != nil {
		log.Fatal(err)
	}
	last := points[len(points)-1]
	fmt.Printf("day %d: %.0f\n", last.Day, last.Rate)

	// Output:
	// success=true qi=100
	// day 270: 25
}

// ExampleForecast projects the fallback parameters.
func ExampleForecast() {
	points, err := decline.Forecast(decline.DefaultFallback(), 0, 90, decline.WithHorizonDays(90))
	if err != nil {
		log.Fatal(err)
	}

	for _, p := range points {
		fmt.Printf("%d %.2f\n", p.Day, p.Rate)
	}

	// Output:
	// 0 500.00
	// 30 378.07
	// 60 295.86
	// 90 237.81
	// 120 195.31
	// 150 163.27
	// 180 138.50
}

// ExampleSession_Override replaces fitted parameters and restores them.
func ExampleSession_Override() {
	session := decline.NewSession(decline.Estimate(nil), decline.DefaultBounds())
	fmt.Println(session.Source(), session.Active())

	if err := session.Override(decline.Parameters{Qi: 250, Di: 0.02, B: 2}); err != nil {
		fmt.Println(err)
	}
	if err := session.Override(decline.Parameters{Qi: 250, Di: 0.02, B: 0.9}); err != nil {
		log.Fatal(err)
	}
	fmt.Println(session.Source(), session.Active())

	session.Reset()
	fmt.Println(session.Source(), session.Active())

	// Output:
	// fallback qi=500.0000 di=0.010000 b=0.5000
	// invalid parameter override: b=2 outside [0, 1.5]
	// override qi=250.0000 di=0.020000 b=0.9000
	// fallback qi=500.0000 di=0.010000 b=0.5000
}
