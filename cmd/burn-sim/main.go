package main

import (
	"fmt"
	"os"
	"strconv"

	"burn-casino/internal/config"
	"burn-casino/internal/policy"
	"burn-casino/internal/sim"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadSim()
	if err != nil {
		pterm.Error.Println("load sim config failed:", err)
		os.Exit(1)
	}
	tiers, err := parseTiers(cfg.Tiers)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(2)
	}

	pterm.Info.Printfln("Simulating %d games, %d players, seed %d", cfg.Games, cfg.Players, cfg.Seed)
	res, err := sim.Run(sim.Config{Games: cfg.Games, Players: cfg.Players, Seed: cfg.Seed, Tiers: tiers})
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(tierTable(res, tiers)).Render(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1).
		WithTitle("Summary").
		Println(summary(res))
}

func parseTiers(raw []string) ([]policy.Tier, error) {
	tiers := make([]policy.Tier, 0, len(raw))
	for _, s := range raw {
		t, err := policy.ParseTier(s)
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", s, err)
		}
		tiers = append(tiers, t)
	}
	return tiers, nil
}

func tierTable(res sim.Result, tiers []policy.Tier) pterm.TableData {
	data := pterm.TableData{{"Tier", "Seats", "Made hands", "Rate", "Cards burnt"}}
	seen := map[policy.Tier]bool{}
	for _, t := range tiers {
		if seen[t] {
			continue
		}
		seen[t] = true
		st := res.ByTier[t]
		if st == nil {
			continue
		}
		data = append(data, []string{
			string(t),
			strconv.Itoa(st.Seats),
			strconv.Itoa(st.MadeHands),
			percent(st.MadeHands, st.Seats),
			strconv.Itoa(st.CardsBurnt),
		})
	}
	return data
}

func summary(res sim.Result) string {
	return fmt.Sprintf("Games: %d\nGames with a made hand: %d (%s)\nActions: %d\nEmpty-deck burns: %d",
		res.Games, res.MadeHandGames, percent(res.MadeHandGames, res.Games), res.Actions, res.EmptyDeckBurns)
}

func percent(n, d int) string {
	if d == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(d))
}
