package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"strconv"
	"strings"
	"time"

	arg "github.com/alexflint/go-arg"
	humanize "github.com/dustin/go-humanize"

	"github.com/feateval/feateval/dataset"
	"github.com/feateval/feateval/evaluate"
	"github.com/feateval/feateval/metric"
	"github.com/feateval/feateval/train"
)

func noErr(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

// parseFeatureSets parses "0,1;2;3,4" into index sets.
func parseFeatureSets(s string) ([][]int, error) {
	if s == "" {
		return nil, nil
	}
	var sets [][]int
	for _, part := range strings.Split(s, ";") {
		var set []int
		for _, field := range strings.Split(part, ",") {
			f, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("bad feature index %q: %v", field, err)
			}
			set = append(set, f)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func main() {
	args := struct {
		Input       string `arg:"positional,required" help:"CSV dataset with a header row"`
		Target      string `arg:"required" help:"name of the target column"`
		WeightCol   string `help:"name of the weight column"`
		GroupCol    string `help:"name of the group id column"`
		TimeCol     string `help:"name of the timestamp column"`
		Features    string `arg:"required" help:"feature sets to evaluate, e.g. 0,1;2,3"`
		Mode        string `help:"evaluation mode"`
		Metrics     string `help:"comma separated metric names, primary first"`
		FoldCount   int    `help:"number of folds"`
		FoldSize    int    `help:"fold size in sampling units"`
		RelFoldSize float64
		Offset      int
		ByGroup     bool `help:"count fold size in groups instead of objects"`
		NoShuffle   bool
		Quantile    float64 `help:"time split quantile for timestamped data"`
		Seed        int64
		Iterations  int
		Rate        float64 `help:"learning rate"`
		Subsample   float64 `help:"row sample fraction per boosting iteration"`
		MemLimit    string  `help:"memory budget for fold data, e.g. 4GB"`
		Snapshot    string  `help:"snapshot file for resumable runs"`
		Strengths   bool    `help:"compute per-feature strengths"`
	}{
		Mode:        "OneVsOthers",
		Metrics:     "RMSE",
		FoldCount:   5,
		RelFoldSize: 0.1,
		Iterations:  100,
		Rate:        0.1,
	}
	arg.MustParse(&args)

	raw, err := ioutil.ReadFile(args.Input)
	noErr(err)
	d, featureNames, err := dataset.LoadCSV(raw, dataset.CSVColumns{
		Target:    args.Target,
		Weight:    args.WeightCol,
		Group:     args.GroupCol,
		Timestamp: args.TimeCol,
	})
	noErr(err)
	log.Printf("loaded %s objects with %d features from %s",
		humanize.Comma(int64(d.ObjectCount())), len(featureNames), args.Input)

	featureSets, err := parseFeatureSets(args.Features)
	noErr(err)
	for _, set := range featureSets {
		for _, f := range set {
			if f >= len(featureNames) {
				log.Fatalf("feature index %d out of range, dataset has %d features", f, len(featureNames))
			}
		}
	}

	mode, err := evaluate.ParseMode(args.Mode)
	noErr(err)

	var metrics []metric.Metric
	for _, name := range strings.Split(args.Metrics, ",") {
		m, err := metric.FromName(strings.TrimSpace(name))
		noErr(err)
		metrics = append(metrics, m)
	}

	var memLimit uint64
	if args.MemLimit != "" {
		memLimit, err = humanize.ParseBytes(args.MemLimit)
		noErr(err)
	}

	unit := evaluate.ByObject
	if args.ByGroup {
		unit = evaluate.ByGroup
	}
	opts := evaluate.Options{
		FeatureSets:             featureSets,
		Mode:                    mode,
		FoldCount:               args.FoldCount,
		FoldSize:                args.FoldSize,
		RelativeFoldSize:        args.RelFoldSize,
		Offset:                  args.Offset,
		Unit:                    unit,
		Shuffle:                 !args.NoShuffle,
		TimeSplitQuantile:       args.Quantile,
		Seed:                    args.Seed,
		Iterations:              args.Iterations,
		LearningRate:            args.Rate,
		MemoryLimit:             memLimit,
		SnapshotPath:            args.Snapshot,
		SnapshotInterval:        10 * time.Second,
		ComputeFeatureStrengths: args.Strengths,
	}

	start := time.Now()
	summary, err := evaluate.EvaluateFeatures(opts, d, metrics, train.GBStump{Subsample: args.Subsample})
	noErr(err)
	log.Printf("evaluation finished in %s", time.Since(start))

	fmt.Print(summary.Table())
	for setIdx, set := range featureSets {
		names := make([]string, len(set))
		for i, f := range set {
			names[i] = featureNames[f]
		}
		fmt.Printf("set %d: %s\n", setIdx, strings.Join(names, ", "))
	}
}
