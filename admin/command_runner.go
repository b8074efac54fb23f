package admin

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onflow/node-dashboard/module/component"
	"github.com/onflow/node-dashboard/module/irrecoverable"
)

// CommandRequest is a single admin command, as submitted by an operator.
type CommandRequest struct {
	ctx          context.Context
	command      string
	responseChan chan<- *CommandResponse

	// Data is the decoded JSON payload of the request.
	Data any

	// ValidatorData may be set by a Validator and is passed on unchanged to the Handler.
	ValidatorData any
}

type CommandResponse struct {
	err  error
	data any
}

// CommandHandler executes a validated request and returns the output shown to the operator.
type CommandHandler func(ctx context.Context, request *CommandRequest) (any, error)

// CommandValidator checks a request before it is handled.
// Returns InvalidAdminReqError if the request is malformed.
type CommandValidator func(request *CommandRequest) error

const commandQueueSize = 16

// CommandRunnerBuilder collects the handlers and validators of all commands.
type CommandRunnerBuilder struct {
	handlers   map[string]CommandHandler
	validators map[string]CommandValidator
}

func NewCommandRunnerBuilder() *CommandRunnerBuilder {
	return &CommandRunnerBuilder{
		handlers:   make(map[string]CommandHandler),
		validators: make(map[string]CommandValidator),
	}
}

// RegisterHandler sets the handler for the command. Registering a command twice
// replaces the previous handler.
func (r *CommandRunnerBuilder) RegisterHandler(command string, handler CommandHandler) *CommandRunnerBuilder {
	r.handlers[command] = handler
	return r
}

// RegisterValidator sets the validator for the command. Commands without a validator
// accept any data.
func (r *CommandRunnerBuilder) RegisterValidator(command string, validator CommandValidator) *CommandRunnerBuilder {
	r.validators[command] = validator
	return r
}

func (r *CommandRunnerBuilder) Build(log zerolog.Logger) *CommandRunner {
	runner := &CommandRunner{
		log:        log.With().Str("component", "admin_command_runner").Logger(),
		handlers:   r.handlers,
		validators: r.validators,
		commandQ:   make(chan *CommandRequest, commandQueueSize),
	}

	runner.Component = component.NewComponentManagerBuilder().
		AddWorker(runner.processLoop).
		Build()

	return runner
}

// CommandRunner executes admin commands one at a time, in submission order.
type CommandRunner struct {
	component.Component

	log        zerolog.Logger
	handlers   map[string]CommandHandler
	validators map[string]CommandValidator
	commandQ   chan *CommandRequest
}

// Commands returns the names of all registered commands.
func (r *CommandRunner) Commands() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// RunCommand submits the command and waits for its result.
// Expected errors:
//   - ErrUnknownCommand if no handler is registered for the command
//   - InvalidAdminReqError if the request failed validation
func (r *CommandRunner) RunCommand(ctx context.Context, command string, data any) (any, error) {
	if _, ok := r.handlers[command]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}

	resp := make(chan *CommandResponse, 1)
	req := &CommandRequest{
		ctx:          ctx,
		command:      command,
		responseChan: resp,
		Data:         data,
	}

	select {
	case r.commandQ <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case response := <-resp:
		return response.data, response.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *CommandRunner) processLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.commandQ:
			data, err := r.runCommand(req)
			req.responseChan <- &CommandResponse{err: err, data: data}
		}
	}
}

func (r *CommandRunner) runCommand(req *CommandRequest) (any, error) {
	log := r.log.With().Str("command", req.command).Logger()

	if validator := r.validators[req.command]; validator != nil {
		if err := validator(req); err != nil {
			log.Info().Err(err).Msg("admin command failed validation")
			return nil, err
		}
	}

	// the requester may have given up while the command was queued
	if err := req.ctx.Err(); err != nil {
		return nil, err
	}

	data, err := r.handlers[req.command](req.ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("admin command failed")
		return nil, err
	}

	log.Info().Msg("admin command completed")
	return data, nil
}
