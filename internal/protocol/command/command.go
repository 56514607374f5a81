// Package command interprets the line protocol: it tokenizes request
// frames, dispatches them against the command table, and renders the
// response text exactly as the legacy service did, byte for byte.
package command

import (
	"context"
	"strings"

	"github.com/trainerhq/dexd/pkg/audit"
	"github.com/trainerhq/dexd/pkg/dex"
)

const (
	respEmpty   = "Empty command."
	respInvalid = "Invalid command."
)

// Interpreter executes one command line at a time against the shared
// stores. It is stateless between calls and safe for concurrent use; all
// serialization lives in the stores themselves.
type Interpreter struct {
	pokedex  *dex.Pokedex
	trainers *dex.Trainers
	audit    *audit.Log
}

// Result is the outcome of one command.
type Result struct {
	// Text is the response body, without the closing sentinel line.
	Text string

	// Close requests session termination after the response is sent.
	Close bool
}

func NewInterpreter(pokedex *dex.Pokedex, trainers *dex.Trainers, auditLog *audit.Log) *Interpreter {
	return &Interpreter{pokedex: pokedex, trainers: trainers, audit: auditLog}
}

// Execute interprets one received line. Malformed input yields a
// descriptive Result, never an error: the session always continues unless
// the command itself asks to close.
func (in *Interpreter) Execute(ctx context.Context, line string) Result {
	args := tokenize(line)
	if len(args) == 0 {
		return Result{Text: respEmpty}
	}

	info := lookupCommand(args)
	if info == nil {
		return Result{Text: respInvalid}
	}
	if len(args) < info.MinArgs || (info.MaxArgs > 0 && len(args) > info.MaxArgs) {
		return Result{Text: respInvalid}
	}
	return info.Handler(in, ctx, args)
}

// tokenize splits on single spaces, skipping runs, the way the legacy
// parser did. Other whitespace stays inside tokens.
func tokenize(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool { return r == ' ' })
}

// atoi parses a leading optional sign and digit run, and yields zero when
// there is none. Identifier arguments have always been read this way, so
// garbage input turns into key 0 rather than a parse error.
func atoi(s string) int32 {
	var (
		i    int
		neg  bool
		v    int64
		seen bool
	)
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		seen = true
		v = v*10 + int64(s[i]-'0')
		if v > 1<<31 {
			v = 1 << 31
		}
	}
	if !seen {
		return 0
	}
	if neg {
		return int32(-v)
	}
	if v > 1<<31-1 {
		v = 1<<31 - 1
	}
	return int32(v)
}
