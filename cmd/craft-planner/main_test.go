package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/craft-planner/pkg/crafting"
)

func TestPrintPlan(t *testing.T) {
	var buf bytes.Buffer
	printPlan(&buf, &crafting.PlanResponse{
		Problem: "default",
		Solved:  true,
		Steps: []crafting.PlanStep{
			{StepNumber: 0, Action: "start", Inventory: map[string]int{}},
			{StepNumber: 1, Action: "punch for wood", Cost: 4, Inventory: map[string]int{"wood": 1}},
			{StepNumber: 2, Action: "craft plank", Cost: 5, Inventory: map[string]int{"plank": 4}},
		},
		TotalCost:   5,
		Diagnostics: crafting.SearchDiagnostics{Expanded: 1200, Generated: 3400, ElapsedMs: 15},
	})

	out := buf.String()
	assert.Contains(t, out, "problem default: 2 steps, cost 5\n")
	assert.Contains(t, out, "craft plank")
	assert.Contains(t, out, "map[plank:4]")
	assert.Contains(t, out, "expanded 1,200 states, generated 3,400, pruned 0 in 15ms")
}

func TestPrintPlan_Unsolved(t *testing.T) {
	var buf bytes.Buffer
	printPlan(&buf, &crafting.PlanResponse{
		Problem:     "gold",
		Failure:     "search exhausted after expanding 41 states in 2ms",
		Diagnostics: crafting.SearchDiagnostics{Expanded: 41, Pruned: 1},
	})
	assert.Equal(t,
		"problem gold: no plan: search exhausted after expanding 41 states in 2ms\nexpanded 41 states, pruned 1\n",
		buf.String())
}

const sampleBook = "../../internal/crafting/sync/testdata/crafting.json"

func TestRun_PlanSolved(t *testing.T) {
	var out bytes.Buffer
	code := run(context.Background(), []string{
		"-db", ":memory:",
		"-import", sampleBook,
		"-plan", "default",
	}, &out, io.Discard)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "problem default: ")
	assert.Contains(t, out.String(), "craft stone_pickaxe at bench")
}

func TestRun_PlanUnsolvedExitsTwo(t *testing.T) {
	book := filepath.Join(t.TempDir(), "gold.json")
	require.NoError(t, os.WriteFile(book, []byte(`{
		"Items": ["wood", "gold"],
		"Initial": {},
		"Goal": {"gold": 1},
		"Recipes": {"punch for wood": {"Produces": {"wood": 1}, "Time": 4}}
	}`), 0o600))

	var out bytes.Buffer
	code := run(context.Background(), []string{
		"-db", ":memory:",
		"-import", book,
		"-plan", "default",
	}, &out, io.Discard)

	assert.Equal(t, 2, code)
	assert.Contains(t, out.String(), "problem default: no plan: search exhausted")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad flag", args: []string{"-no-such-flag"}},
		{name: "missing config", args: []string{"-db", ":memory:", "-config", "does-not-exist.yaml"}},
		{name: "missing book", args: []string{"-db", ":memory:", "-import", "does-not-exist.json"}},
		{name: "no book to plan", args: []string{"-db", ":memory:", "-plan", "default"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, 1, run(context.Background(), tc.args, io.Discard, io.Discard))
		})
	}
}

func TestRun_ImportOnly(t *testing.T) {
	var out bytes.Buffer
	code := run(context.Background(), []string{"-db", ":memory:", "-import", sampleBook}, &out, io.Discard)
	assert.Equal(t, 0, code)
	assert.Empty(t, out.String())
}
