package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	elevationprofile "github.com/railtrip/go-elevationprofile"
)

func run() error {
	euDEM := flag.String("eu_dem-path", os.Getenv("EU_DEM_PATH"), "path to EU DEM data")
	step := flag.Float64("step", 10, "sample step distance in meters")
	smoothWindow := flag.Int("smooth-window", 11, "smoothing window size in samples, odd")
	verbose := flag.Bool("verbose", false, "log pipeline details")
	flag.Parse()

	if flag.NArg() < 4 || flag.NArg()%2 != 0 {
		return errors.New("syntax: profile-example latitude longitude latitude longitude ...")
	}
	lineString := make(orb.LineString, 0, flag.NArg()/2)
	for i := 0; i < flag.NArg(); i += 2 {
		lat, err := strconv.ParseFloat(flag.Arg(i), 64)
		if err != nil {
			return err
		}
		lon, err := strconv.ParseFloat(flag.Arg(i+1), 64)
		if err != nil {
			return err
		}
		lineString = append(lineString, orb.Point{lon, lat})
	}

	logger := zerolog.Nop()
	if *verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	service, err := elevationprofile.NewEUDEMProfileService(
		os.DirFS(*euDEM),
		elevationprofile.WithStep(*step),
		elevationprofile.WithResampleStep(*step),
		elevationprofile.WithProfileSmootherOptions(elevationprofile.WithSmoothingWindowSize(*smoothWindow)),
		elevationprofile.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	result, err := service.Profile4326(context.Background(), lineString, nil)
	if err != nil {
		return err
	}

	fmt.Println("distance\televation\tinclination")
	for i, distance := range result.ResampledDistances {
		inclination := 0.0
		if i > 0 {
			inclination = result.Inclinations[i-1]
		}
		fmt.Printf("%.1f\t%.2f\t%.2f\n", distance, result.SmoothedElevations[i], inclination)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
