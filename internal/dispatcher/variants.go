package dispatcher

import (
	"fmt"

	"github.com/dshills/cmdqueue/internal/command"
	"github.com/dshills/cmdqueue/internal/command/builtin"
	"github.com/dshills/cmdqueue/internal/command/script"
)

// Builtin variant names.
const (
	VariantCollision = "collision"
	VariantMessage   = "message"
	VariantScript    = "script"
)

// DefaultCatalog returns a catalog holding the builtin variants:
//
//	collision [id int]          report "hit id: <id>" (id defaults to 0)
//	message   text string       report text
//	script    source string [loop bool]
func DefaultCatalog() *Catalog {
	return BuiltinCatalog()
}

// BuiltinCatalog is DefaultCatalog with extra options applied to every
// script the catalog builds, such as script.WithTimeout.
func BuiltinCatalog(scriptOpts ...script.Option) *Catalog {
	c := NewCatalog()
	c.MustRegister(VariantCollision, newCollision)
	c.MustRegister(VariantMessage, newMessage)
	c.MustRegister(VariantScript, scriptFactory(scriptOpts))
	return c
}

func newCollision(args ...any) (command.Command, error) {
	switch len(args) {
	case 0:
		return builtin.NewCollision(0), nil
	case 1:
		id, ok := args[0].(int)
		if !ok {
			return nil, fmt.Errorf("%w: collision id must be int, got %T", ErrInvalidArgs, args[0])
		}
		return builtin.NewCollision(id), nil
	default:
		return nil, fmt.Errorf("%w: collision takes at most 1 argument, got %d", ErrInvalidArgs, len(args))
	}
}

func newMessage(args ...any) (command.Command, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: message takes 1 argument, got %d", ErrInvalidArgs, len(args))
	}
	text, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: message text must be string, got %T", ErrInvalidArgs, args[0])
	}
	return builtin.NewMessage(text), nil
}

func scriptFactory(base []script.Option) Factory {
	return func(args ...any) (command.Command, error) {
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("%w: script takes 1 or 2 arguments, got %d", ErrInvalidArgs, len(args))
		}
		source, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: script source must be string, got %T", ErrInvalidArgs, args[0])
		}

		opts := append([]script.Option(nil), base...)
		if len(args) == 2 {
			loop, ok := args[1].(bool)
			if !ok {
				return nil, fmt.Errorf("%w: script loop flag must be bool, got %T", ErrInvalidArgs, args[1])
			}
			opts = append(opts, script.WithLoop(loop))
		}
		return script.New(source, opts...)
	}
}
