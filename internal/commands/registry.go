package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/calcbot/internal/cache"
	apperrors "github.com/ZanzyTHEbar/calcbot/internal/errors"
)

var (
	// ErrUnknownCommand is returned by Dispatch for unregistered names.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrMissingOption is returned when a required option is absent.
	ErrMissingOption = errors.New("missing required option")
	// ErrInvalidOption is returned for unknown options, values outside the
	// choice list and malformed integers.
	ErrInvalidOption = errors.New("invalid option")
	// ErrDuplicateCommand is returned by Register for a name already taken.
	ErrDuplicateCommand = errors.New("duplicate command")
)

// Observer is told about every dispatched command. err is nil on success.
type Observer func(name string, optionCount int, err error, duration time.Duration)

// Registry maps command names to handlers. It is populated once and is
// safe for concurrent Dispatch calls afterwards.
type Registry struct {
	commands map[string]Command
	order    []string
	observer Observer
	results  *cache.Cache[Response]
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithObserver installs an observer for dispatched commands.
func WithObserver(observer Observer) RegistryOption {
	return func(r *Registry) {
		r.observer = observer
	}
}

// WithCache reuses successful replies for identical invocations. Every
// built-in handler is a pure function of its options.
func WithCache(results *cache.Cache[Response]) RegistryOption {
	return func(r *Registry) {
		r.results = results
	}
}

// NewRegistry returns a registry holding every built-in command.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{commands: make(map[string]Command)}
	for _, opt := range opts {
		opt(r)
	}

	for _, cmd := range builtins() {
		if err := r.Register(cmd); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a command.
func (r *Registry) Register(cmd Command) error {
	if _, exists := r.commands[cmd.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
	r.order = append(r.order, cmd.Name)
	return nil
}

// Definitions returns the option schemas of every command in registration
// order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.commands[name].Definition)
	}
	return defs
}

// Dispatch validates the invocation's options and runs its handler.
//
// Unknown commands and bad options return only an error. When the handler
// itself fails Dispatch returns both an ephemeral reply describing the
// failure and the error, so callers can show the reply and still record
// the failure.
func (r *Registry) Dispatch(ctx context.Context, inv Invocation) (Response, error) {
	start := time.Now()
	resp, err := r.dispatch(ctx, inv)
	if r.observer != nil {
		r.observer(inv.Name, len(inv.Options), err, time.Since(start))
	}
	return resp, err
}

func (r *Registry) dispatch(ctx context.Context, inv Invocation) (Response, error) {
	cmd, ok := r.commands[inv.Name]
	if !ok {
		return Response{}, apperrors.NewNotFoundError(fmt.Sprintf("Command %q", inv.Name),
			fmt.Errorf("%w: %s", ErrUnknownCommand, inv.Name))
	}

	if fields, err := validateOptions(cmd.Definition, inv.Options); err != nil {
		return Response{}, apperrors.NewValidationErrorWithMap(err.Error(), fields, err)
	}

	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	opts := inv.Options
	if opts == nil {
		opts = Options{}
	}

	var key uint64
	if r.results != nil {
		key = cache.Key(inv.Name, opts)
		if resp, ok := r.results.Get(key); ok {
			return resp, nil
		}
	}

	resp, err := cmd.Handler(ctx, opts)
	if err != nil {
		return Response{Content: apperrors.UserMessage(err), Ephemeral: true}, err
	}

	resp = clampResponse(resp)
	if r.results != nil {
		r.results.Set(key, resp)
	}
	return resp, nil
}

// validateOptions checks opts against def and reports every problem, keyed
// by option name. The returned error matches ErrMissingOption and
// ErrInvalidOption for whichever problems occurred.
func validateOptions(def Definition, opts Options) (map[string]string, error) {
	problems := make(map[string]error)

	known := make(map[string]OptionDefinition, len(def.Options))
	for _, od := range def.Options {
		known[od.Name] = od

		value, present := opts[od.Name]
		if !present || value == "" {
			if od.Required {
				problems[od.Name] = fmt.Errorf("%w: %s", ErrMissingOption, od.Name)
			}
			continue
		}

		if od.Type == OptionInteger {
			if _, err := strconv.Atoi(value); err != nil {
				problems[od.Name] = fmt.Errorf("%w: %s must be an integer", ErrInvalidOption, od.Name)
				continue
			}
		}

		if len(od.Choices) > 0 && !hasChoice(od.Choices, value) {
			problems[od.Name] = fmt.Errorf("%w: %s cannot be %q", ErrInvalidOption, od.Name, value)
		}
	}

	for name := range opts {
		if _, ok := known[name]; !ok {
			problems[name] = fmt.Errorf("%w: %s is not an option of %s", ErrInvalidOption, name, def.Name)
		}
	}

	if len(problems) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(problems))
	for name := range problems {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make(map[string]string, len(problems))
	errs := make([]error, 0, len(problems))
	messages := make([]string, 0, len(problems))
	for _, name := range names {
		err := problems[name]
		fields[name] = err.Error()
		errs = append(errs, err)
		messages = append(messages, err.Error())
	}

	return fields, &optionsError{msg: strings.Join(messages, "; "), errs: errs}
}

// optionsError joins several option problems into one line.
type optionsError struct {
	msg  string
	errs []error
}

func (e *optionsError) Error() string   { return e.msg }
func (e *optionsError) Unwrap() []error { return e.errs }

func hasChoice(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}
