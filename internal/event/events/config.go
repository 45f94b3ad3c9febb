package events

import "github.com/dshills/docfold/internal/event/topic"

// Configuration event topics.
const (
	// TopicConfigReloaded is published after the configuration file was
	// reloaded and applied.
	TopicConfigReloaded topic.Topic = "config.reloaded"

	// TopicConfigReloadFailed is published when a reload could not be applied.
	TopicConfigReloadFailed topic.Topic = "config.reload.failed"

	// TopicCommandExecuted is published after a named command ran.
	TopicCommandExecuted topic.Topic = "command.executed"
)

// ConfigReloaded is published after a configuration reload.
type ConfigReloaded struct {
	// Path is the configuration file that changed.
	Path string
}

// ConfigReloadFailed is published when a reload fails. The previous
// configuration stays in effect.
type ConfigReloadFailed struct {
	// Path is the configuration file that changed.
	Path string

	// Err is the load or validation error.
	Err error
}

// CommandExecuted is published after a named command ran.
type CommandExecuted struct {
	// Name is the command name.
	Name string

	// Err is the command error, nil on success.
	Err error
}
