package command

import "context"

// commandHandler processes one matched command. Arity has already been
// checked against the table entry.
type commandHandler func(in *Interpreter, ctx context.Context, args []string) Result

// commandInfo describes one table entry.
type commandInfo struct {
	// Name is the canonical form for logging (e.g. "get trainer").
	Name string

	// MinArgs and MaxArgs bound the token count, command words included.
	// MaxArgs zero means unbounded. A count outside the bounds is not an
	// arity error to the client: it answers "Invalid command.", the way
	// the non-matching branch always has.
	MinArgs int
	MaxArgs int

	Handler commandHandler
}

// dispatchTable maps the command word, or the command word plus its
// subject, to the handler. Single-word entries are tried after two-word
// entries, so "exit anything" still matches "exit".
var dispatchTable map[string]*commandInfo

func init() {
	initDispatchTable()
}

func initDispatchTable() {
	dispatchTable = map[string]*commandInfo{
		"exit": {
			Name:    "exit",
			MinArgs: 1,
			MaxArgs: 0,
			Handler: handleExit,
		},
		"get pokemon": {
			Name:    "get pokemon",
			MinArgs: 3,
			MaxArgs: 3,
			Handler: handleGetPokemon,
		},
		"get trainer": {
			Name:    "get trainer",
			MinArgs: 2,
			MaxArgs: 0,
			Handler: handleGetTrainer,
		},
		"get log": {
			Name:    "get log",
			MinArgs: 3,
			MaxArgs: 3,
			Handler: handleGetLog,
		},
		"post trainer": {
			Name:    "post trainer",
			MinArgs: 4,
			MaxArgs: 0,
			Handler: handlePostTrainer,
		},
		"put trainer": {
			Name:    "put trainer",
			MinArgs: 4,
			MaxArgs: 0,
			Handler: handlePutTrainer,
		},
		"delete trainer": {
			Name:    "delete trainer",
			MinArgs: 3,
			MaxArgs: 3,
			Handler: handleDeleteTrainer,
		},
	}
}

func lookupCommand(args []string) *commandInfo {
	if len(args) >= 2 {
		if info, ok := dispatchTable[args[0]+" "+args[1]]; ok {
			return info
		}
	}
	return dispatchTable[args[0]]
}

// Name resolves the dispatch name for a raw line, for logs and metric
// labels. Lines that match no entry report "unknown", blank lines "empty".
func Name(line string) string {
	args := tokenize(line)
	if len(args) == 0 {
		return "empty"
	}
	if info := lookupCommand(args); info != nil {
		return info.Name
	}
	return "unknown"
}
