// Package command implements the shared command registry and dispatcher.
// Both slash interactions and prefix messages resolve to the same
// descriptors: raw positional strings are coerced against the parameter
// schema, the actor's permissions are checked, and only then does the
// handler run. The dispatcher is the single place where errors become
// user-facing text.
package command

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type ParamType int

const (
	TypeString ParamType = iota
	TypeInt
	TypeUser
	TypeRole
	TypeChannel
)

// Param describes one positional parameter of a command.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	// Rest marks a trailing string parameter that absorbs every remaining
	// token of a prefix invocation.
	Rest bool
}

// Reply is what a handler wants shown to the invoking user.
type Reply struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Ephemeral  bool
}

// Args holds the coerced parameter values for one invocation.
type Args struct {
	values map[string]any
}

func (a Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

func (a Args) String(name string) string {
	if v, ok := a.values[name].(string); ok {
		return v
	}
	return ""
}

func (a Args) Int(name string) int64 {
	if v, ok := a.values[name].(int64); ok {
		return v
	}
	return 0
}

// Invocation carries the context of a single command use.
type Invocation struct {
	GuildID     string
	ChannelID   string
	ActorID     string
	Permissions int64
	Args        Args
}

type Handler func(ctx context.Context, inv *Invocation) (*Reply, error)

// Descriptor declares a command: its schema, the permission bit required
// to run it, and the handler.
type Descriptor struct {
	Name        string
	Description string
	Permission  int64
	Params      []Param
	Handler     Handler
}

// Result is the outcome of a dispatch. Reply is what to show the user;
// Err is the underlying failure, kept for logging after it has been
// rendered into Reply.
type Result struct {
	Reply *Reply
	Err   error
}

type Registry struct {
	logger   *zap.Logger
	commands map[string]*Descriptor
	order    []string
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:   logger,
		commands: make(map[string]*Descriptor),
	}
}

func (r *Registry) Register(desc *Descriptor) error {
	if _, exists := r.commands[desc.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, desc.Name)
	}
	r.commands[desc.Name] = desc
	r.order = append(r.order, desc.Name)
	return nil
}

// Descriptors returns all registered commands in registration order.
func (r *Registry) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}

func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	desc, ok := r.commands[name]
	return desc, ok
}

// Dispatch resolves the named command, coerces raw positional arguments,
// enforces the permission gate, and runs the handler. It never returns an
// unrendered error to the caller: Result.Reply always holds the text to
// show, and Result.Err carries the cause for logging.
func (r *Registry) Dispatch(ctx context.Context, name string, raw []string, inv *Invocation) Result {
	desc, ok := r.commands[name]
	if !ok {
		return Result{Err: fmt.Errorf("%w: %s", ErrUnknownCommand, name)}
	}

	if desc.Permission != 0 &&
		inv.Permissions&desc.Permission == 0 &&
		inv.Permissions&discordgo.PermissionAdministrator == 0 {
		return r.fail(name, ErrPermissionDenied)
	}

	args, err := coerce(desc.Params, raw)
	if err != nil {
		return r.fail(name, err)
	}
	inv.Args = args

	reply, err := desc.Handler(ctx, inv)
	if err != nil {
		return r.fail(name, err)
	}
	if reply == nil {
		reply = &Reply{}
	}
	return Result{Reply: reply}
}

func (r *Registry) fail(name string, err error) Result {
	r.logger.Warn("command failed", zap.String("command", name), zap.Error(err))
	return Result{
		Reply: &Reply{Content: renderError(err), Ephemeral: true},
		Err:   err,
	}
}

func renderError(err error) string {
	switch e := err.(type) {
	case *ArgumentError:
		return fmt.Sprintf("Invalid Argument `%s`: %s.", e.Param, e.Reason)
	case *NotConfiguredError:
		return fmt.Sprintf("%s Not Configured.", e.What)
	}
	if errors.Is(err, ErrPermissionDenied) {
		return "You Do Not Have Permission To Use This Command."
	}
	return fmt.Sprintf("An Error Occurred: %v", err)
}

var (
	userMention    = regexp.MustCompile(`^<@!?(\d+)>$`)
	roleMention    = regexp.MustCompile(`^<@&(\d+)>$`)
	channelMention = regexp.MustCompile(`^<#(\d+)>$`)
	plainID        = regexp.MustCompile(`^\d+$`)
)

func coerce(params []Param, raw []string) (Args, error) {
	values := make(map[string]any, len(params))

	for i, p := range params {
		if i >= len(raw) {
			if p.Required {
				return Args{}, &ArgumentError{Param: p.Name, Reason: "missing"}
			}
			continue
		}

		token := raw[i]
		if p.Rest && p.Type == TypeString {
			token = strings.Join(raw[i:], " ")
		}

		value, err := coerceOne(p, token)
		if err != nil {
			return Args{}, err
		}
		values[p.Name] = value
	}

	return Args{values: values}, nil
}

func coerceOne(p Param, token string) (any, error) {
	switch p.Type {
	case TypeString:
		return token, nil
	case TypeInt:
		n, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, &ArgumentError{Param: p.Name, Reason: "not a number"}
		}
		return n, nil
	case TypeUser:
		if m := userMention.FindStringSubmatch(token); m != nil {
			return m[1], nil
		}
		if plainID.MatchString(token) {
			return token, nil
		}
		return nil, &ArgumentError{Param: p.Name, Reason: "not a user mention or ID"}
	case TypeRole:
		if m := roleMention.FindStringSubmatch(token); m != nil {
			return m[1], nil
		}
		if plainID.MatchString(token) {
			return token, nil
		}
		return nil, &ArgumentError{Param: p.Name, Reason: "not a role mention or ID"}
	case TypeChannel:
		if m := channelMention.FindStringSubmatch(token); m != nil {
			return m[1], nil
		}
		if plainID.MatchString(token) {
			return token, nil
		}
		return nil, &ArgumentError{Param: p.Name, Reason: "not a channel mention or ID"}
	}
	return nil, &ArgumentError{Param: p.Name, Reason: "unsupported type"}
}

// RawFromOptions flattens slash-command options back into positional raw
// strings in declared parameter order so that both entry points share one
// coercion path.
func RawFromOptions(params []Param, options []*discordgo.ApplicationCommandInteractionDataOption) []string {
	byName := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		byName[opt.Name] = opt
	}

	var raw []string
	for _, p := range params {
		opt, ok := byName[p.Name]
		if !ok {
			break
		}
		switch opt.Type {
		case discordgo.ApplicationCommandOptionInteger:
			raw = append(raw, strconv.FormatInt(int64(opt.Value.(float64)), 10))
		default:
			raw = append(raw, fmt.Sprintf("%v", opt.Value))
		}
	}
	return raw
}
