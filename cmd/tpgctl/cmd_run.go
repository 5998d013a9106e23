package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wizardbeard/tpg/internal/harnessconfig"
	"github.com/wizardbeard/tpg/internal/model"
	"github.com/wizardbeard/tpg/internal/storage"
	"github.com/wizardbeard/tpg/pkg/tpg"
)

var runFlags struct {
	configPath   string
	seed         int64
	generations  int
	numInitial   int
	programsTeam int
	offspring    int
	k            int
	elite        int
	selector     string
	cacheMode    string
	cacheSize    int
	storeKind    string
	dbPath       string
	numInputs    int
	renderPath   string
	verify       bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Seed a graph and run the reference evolutionary harness",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.configPath, "config", "", "optional harness config YAML path")
	f.Int64Var(&runFlags.seed, "seed", 1, "rng seed")
	f.IntVar(&runFlags.generations, "generations", 20, "generation count")
	f.IntVar(&runFlags.numInitial, "num-initial-teams", 8, "initial root team count")
	f.IntVar(&runFlags.programsTeam, "programs-per-team", 4, "programs per initial team")
	f.IntVar(&runFlags.offspring, "offspring", 4, "offspring roots per generation")
	f.IntVar(&runFlags.k, "k", 3, "roots retained per generation")
	f.IntVar(&runFlags.elite, "elite", 2, "elite parent pool size")
	f.StringVar(&runFlags.selector, "selector", "elite", "parent selector: elite|tournament")
	f.StringVar(&runFlags.cacheMode, "cache-mode", "lru", "evaluation cache: off|per_input|lru")
	f.IntVar(&runFlags.cacheSize, "cache-size", 1000, "LRU cache max size per program")
	f.StringVar(&runFlags.storeKind, "store", "memory", "run history store: memory|sqlite")
	f.StringVar(&runFlags.dbPath, "db-path", "tpg.db", "sqlite database path")
	f.IntVar(&runFlags.numInputs, "num-inputs", 5, "random input vectors evaluated per root per generation")
	f.StringVar(&runFlags.renderPath, "render", "", "write a DOT visualization of the best root to this path")
	f.BoolVar(&runFlags.verify, "verify", true, "run the integrity verifier after the harness completes")
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()

	cfg := harnessconfig.Default()
	if runFlags.configPath != "" {
		loaded, err := harnessconfig.Load(runFlags.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg.Seed = runFlags.seed
		cfg.Generations = runFlags.generations
		cfg.NumInitialTeams = runFlags.numInitial
		cfg.ProgramsPerInitialTeam = runFlags.programsTeam
		cfg.NumOffspringPerGen = runFlags.offspring
		cfg.K = runFlags.k
		cfg.EliteCount = runFlags.elite
		cfg.Selector = runFlags.selector
		cfg.CacheMode = runFlags.cacheMode
		cfg.CacheMaxSize = runFlags.cacheSize
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	client, err := tpg.NewClient(tpg.Options{
		Seed:       cfg.Seed,
		CacheMode:  tpg.ParseCacheMode(cfg.CacheMode),
		CacheSize:  cfg.CacheMaxSize,
		StoreKind:  runFlags.storeKind,
		SQLitePath: runFlags.dbPath,
	})
	if err != nil {
		return err
	}
	defer func() { _ = storage.CloseIfSupported(client.Store) }()

	for i := 0; i < cfg.NumInitialTeams; i++ {
		if _, err := client.SeedTeam(ctx, cfg.ProgramsPerInitialTeam); err != nil {
			return fmt.Errorf("seed team %d: %w", i, err)
		}
	}

	inputs := randomInputs(cfg.Seed, runFlags.numInputs, 3)

	summary, err := client.Run(ctx, tpg.RunRequest{Config: cfg, Inputs: inputs})
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(out, "run complete run_id=%s\n", summary.RunID)
	for i, best := range summary.BestByGeneration {
		fmt.Fprintf(out, "generation=%d best_bid=%.6f\n", i+1, best)
	}
	fmt.Fprintf(out, "final_best_bid=%.6f\n", summary.FinalBestBid)

	if runFlags.verify {
		report := client.Verify()
		if report.Consistent() {
			color.New(color.FgGreen).Fprintf(out, "verify: graph is consistent (%s teams, %s programs)\n",
				humanize.Comma(int64(report.TotalTeams)), humanize.Comma(int64(report.TotalPrograms)))
		} else {
			color.New(color.FgRed).Fprintf(out, "verify: %d mismatches found\n", len(report.Mismatches))
		}
	}

	if runFlags.renderPath != "" {
		root, err := bestRoot(ctx, client, inputs)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		f, err := os.Create(runFlags.renderPath)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		defer f.Close()
		if err := client.Render(f, root); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		fmt.Fprintf(out, "rendered best root %s to %s\n", root, runFlags.renderPath)
	}

	return nil
}

// randomInputs generates count deterministic pseudo-random input vectors
// of the given width from seed, for demo evaluation purposes only.
func randomInputs(seed int64, count, width int) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	inputs := make([][]float64, count)
	for i := range inputs {
		vec := make([]float64, width)
		for j := range vec {
			vec[j] = rng.Float64()*20 - 10
		}
		inputs[i] = vec
	}
	return inputs
}

// bestRoot picks the current root with the highest mean terminal bid
// across inputs, for --render's sake.
func bestRoot(ctx context.Context, client *tpg.Client, inputs [][]float64) (model.TeamID, error) {
	roots := client.Graph.RootTeams()
	if len(roots) == 0 {
		return 0, fmt.Errorf("no root teams remain")
	}
	var best model.TeamID
	bestScore := math.Inf(-1)
	for _, root := range roots {
		var sum float64
		for _, input := range inputs {
			result, err := client.Evaluate(ctx, root, input)
			if err != nil {
				return 0, err
			}
			if len(result.Path) > 0 {
				sum += result.Path[len(result.Path)-1].Bid
			}
		}
		mean := sum / float64(len(inputs))
		if mean > bestScore {
			bestScore = mean
			best = root
		}
	}
	return best, nil
}
