package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trainerhq/dexd/internal/logger"
	"github.com/trainerhq/dexd/internal/record"
	"github.com/trainerhq/dexd/pkg/audit"
	"github.com/trainerhq/dexd/pkg/dex"
)

func handleExit(in *Interpreter, ctx context.Context, args []string) Result {
	return Result{Text: "Goodbye from server.", Close: true}
}

func handleGetLog(in *Interpreter, ctx context.Context, args []string) Result {
	n := atoi(args[2])
	lines, err := in.audit.Tail(int(n))
	if err != nil {
		logger.Debug("get log: %v", err)
		return Result{Text: "Could not read log file."}
	}
	return Result{Text: audit.Render(lines)}
}

func handleGetPokemon(in *Interpreter, ctx context.Context, args []string) Result {
	id := atoi(args[2])
	pk, err := in.pokedex.FindByID(ctx, id)
	switch {
	case err == nil:
		return Result{Text: formatPokemon(pk)}
	case errors.Is(err, dex.ErrPokemonNotFound):
		return Result{Text: fmt.Sprintf("Pokemon %d not found.", id)}
	default:
		logger.Error("get pokemon %d: %v", id, err)
		return Result{Text: "Cannot open Pokémon DB."}
	}
}

func handleGetTrainer(in *Interpreter, ctx context.Context, args []string) Result {
	if len(args) == 3 {
		return in.getTrainerByID(ctx, atoi(args[2]))
	}
	return in.listTrainers(ctx)
}

func (in *Interpreter) listTrainers(ctx context.Context) Result {
	all, err := in.trainers.List(ctx)
	if err != nil {
		logger.Error("get trainer: %v", err)
		return Result{Text: "Cannot open trainer DB."}
	}

	var b strings.Builder
	b.WriteString("All Trainers:\n")
	for _, t := range all {
		fmt.Fprintf(&b, "  #%d %s (%d Pokémon)\n", t.ID, t.Name, len(t.Party))
	}
	return Result{Text: b.String()}
}

func (in *Interpreter) getTrainerByID(ctx context.Context, id int32) Result {
	detail, err := in.trainers.Describe(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, dex.ErrNotFound):
		return Result{Text: fmt.Sprintf("Trainer %d not found.", id)}
	case errors.Is(err, dex.ErrPokedexUnavailable):
		logger.Error("get trainer %d: %v", id, err)
		return Result{Text: "Cannot open Pokémon DB."}
	default:
		logger.Error("get trainer %d: %v", id, err)
		return Result{Text: "Cannot open trainer DB."}
	}

	var team strings.Builder
	for _, pk := range detail.Team {
		fmt.Fprintf(&team, "  - [%d] %s (%s/%s)\n", pk.ID, pk.Name, pk.Type1, orDash(pk.Type2))
	}
	t := detail.Trainer
	return Result{Text: fmt.Sprintf("Trainer #%d: %s\nPokémon count: %d\nPokémon Team:\n%s",
		t.ID, t.Name, len(t.Party), team.String())}
}

func handlePostTrainer(in *Interpreter, ctx context.Context, args []string) Result {
	refs := args[3:]
	if len(refs) > record.MaxPartySize {
		return Result{Text: fmt.Sprintf(
			"Invalid command: Trainer cannot have more than %d Pokémon.", record.MaxPartySize)}
	}

	id, err := in.trainers.Add(ctx, args[2], parseRefs(refs))
	if err != nil {
		if !errors.Is(err, dex.ErrUnknownPokemon) && !errors.Is(err, dex.ErrPartySize) {
			logger.Error("post trainer: %v", err)
		}
		return Result{Text: "Invalid command: Failed validation (check Pokémon IDs)."}
	}
	return Result{Text: fmt.Sprintf("Trainer added successfully. ID=%d", id)}
}

func handlePutTrainer(in *Interpreter, ctx context.Context, args []string) Result {
	id := atoi(args[2])
	refs := args[3:]
	if len(refs) > record.MaxPartySize {
		return Result{Text: fmt.Sprintf("Invalid command: Max Pokémon = %d.", record.MaxPartySize)}
	}

	if err := in.trainers.Update(ctx, id, parseRefs(refs)); err != nil {
		if !errors.Is(err, dex.ErrNotFound) && !errors.Is(err, dex.ErrUnknownPokemon) {
			logger.Error("put trainer %d: %v", id, err)
		}
		return Result{Text: fmt.Sprintf("Trainer %d not updated.", id)}
	}
	return Result{Text: fmt.Sprintf("Trainer %d updated.", id)}
}

func handleDeleteTrainer(in *Interpreter, ctx context.Context, args []string) Result {
	id := atoi(args[2])
	if err := in.trainers.Delete(ctx, id); err != nil {
		if !errors.Is(err, dex.ErrNotFound) {
			logger.Error("delete trainer %d: %v", id, err)
		}
		return Result{Text: fmt.Sprintf("Trainer %d not found.", id)}
	}
	return Result{Text: fmt.Sprintf("Trainer %d deleted.", id)}
}

func formatPokemon(pk *record.Pokemon) string {
	legendary := "No"
	if pk.Legendary != 0 {
		legendary = "Yes"
	}
	return fmt.Sprintf(
		"Pokemon #%d: %s\nType: %s/%s\nTotal: %d\nHP: %d  Attack: %d  Defense: %d\nSp.Atk: %d  Sp.Def: %d  Speed: %d\nGeneration: %d\nLegendary: %s\n",
		pk.ID, pk.Name, pk.Type1, orDash(pk.Type2),
		pk.Total, pk.HP, pk.Attack, pk.Defense,
		pk.SpAtk, pk.SpDef, pk.Speed,
		pk.Generation, legendary)
}

// orDash substitutes the placeholder used for blank secondary types in
// every roster display.
func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func parseRefs(args []string) []int32 {
	ids := make([]int32, len(args))
	for i, a := range args {
		ids[i] = atoi(a)
	}
	return ids
}
