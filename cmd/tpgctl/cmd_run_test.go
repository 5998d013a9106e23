package main

import (
	"context"
	"math"
	"testing"

	"github.com/wizardbeard/tpg/internal/cache"
	"github.com/wizardbeard/tpg/pkg/tpg"
)

func TestRandomInputsIsDeterministicForSameSeed(t *testing.T) {
	a := randomInputs(7, 3, 4)
	b := randomInputs(7, 3, 4)
	if len(a) != 3 || len(b) != 3 {
		t.Fatalf("expected 3 input vectors, got a=%d b=%d", len(a), len(b))
	}
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("expected identical seeds to produce identical inputs, differed at [%d][%d]: %f vs %f", i, j, a[i][j], b[i][j])
			}
		}
	}
}

func TestRandomInputsWidthAndBounds(t *testing.T) {
	inputs := randomInputs(1, 5, 3)
	if len(inputs) != 5 {
		t.Fatalf("expected 5 vectors, got=%d", len(inputs))
	}
	for _, vec := range inputs {
		if len(vec) != 3 {
			t.Fatalf("expected width 3, got=%d", len(vec))
		}
		for _, v := range vec {
			if v < -10 || v > 10 {
				t.Fatalf("expected value in [-10, 10], got=%f", v)
			}
		}
	}
}

func TestBestRootReturnsACurrentRoot(t *testing.T) {
	client, err := tpg.NewClient(tpg.Options{Seed: 1, CacheMode: cache.Off, StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := client.SeedTeam(context.Background(), 2); err != nil {
			t.Fatalf("seed team %d: %v", i, err)
		}
	}

	root, err := bestRoot(context.Background(), client, [][]float64{{1, 2, 3}, {-1, 0, 5}})
	if err != nil {
		t.Fatalf("bestRoot: %v", err)
	}
	if !client.Graph.IsRoot(root) {
		t.Fatalf("expected returned team to still be a root")
	}
}

func TestBestRootRejectsGraphWithNoRoots(t *testing.T) {
	client, err := tpg.NewClient(tpg.Options{Seed: 1, CacheMode: cache.Off, StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := bestRoot(context.Background(), client, [][]float64{{1}}); err == nil {
		t.Fatalf("expected error when graph has no root teams")
	}
}

func TestBestRootFinalBidIsNumeric(t *testing.T) {
	client, err := tpg.NewClient(tpg.Options{Seed: 2, CacheMode: cache.Off, StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.SeedTeam(context.Background(), 3); err != nil {
		t.Fatalf("seed team: %v", err)
	}
	root, err := bestRoot(context.Background(), client, [][]float64{{1, 1, 1}})
	if err != nil {
		t.Fatalf("bestRoot: %v", err)
	}
	result, err := client.Evaluate(context.Background(), root, []float64{1, 1, 1})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(result.Path) == 0 {
		t.Fatalf("expected a non-empty evaluation path")
	}
	if math.IsNaN(result.Path[len(result.Path)-1].Bid) {
		t.Fatalf("expected a numeric final bid")
	}
}
