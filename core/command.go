package core

import (
	"errors"
	"sync"
)

// ErrUnknownCommand is returned by Dispatch for an unregistered ID
var ErrUnknownCommand = errors.New("unknown command ID")

type unknownCommandError uint16

func (e unknownCommandError) Error() string {
	return ErrUnknownCommand.Error() + ": " + utoa(uint32(e))
}

func (e unknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand
}

// CommandHandler is a function that handles a command with raw frame data
// The handler is responsible for decoding its own arguments from the data pointer
type CommandHandler func(data *[]byte) error

// Command is one entry of the panel-link command table
type Command struct {
	ID      uint16
	Name    string
	Format  string // argument format, e.g. "dir=%c"
	Handler CommandHandler
}

// CommandRegistry maps fixed command IDs to their handlers. Both ends of
// the link share the ID table, so nothing is negotiated at runtime.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[uint16]*Command
	nameToID map[string]uint16
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[uint16]*Command),
		nameToID: make(map[string]uint16),
	}
}

// Register adds a command under id. Registering an ID again replaces the
// previous entry. A nil handler declares a response.
func (r *CommandRegistry) Register(id uint16, name string, format string, handler CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.commands[id]; exists {
		delete(r.nameToID, old.Name)
	}

	r.commands[id] = &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Handler: handler,
	}
	r.nameToID[name] = id
}

// GetCommand retrieves a command by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// Lookup returns the ID registered under name
func (r *CommandRegistry) Lookup(name string) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	return id, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler registered for cmdID
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok || cmd.Handler == nil {
		return unknownCommandError(cmdID)
	}

	return cmd.Handler(data)
}

// Describe returns "name format" for a registered ID, for debug output
func (r *CommandRegistry) Describe(id uint16) string {
	cmd, ok := r.GetCommand(id)
	if !ok {
		return "?" + utoa(uint32(id))
	}
	if cmd.Format == "" {
		return cmd.Name
	}
	return cmd.Name + " " + cmd.Format
}
