package logging

import "github.com/charmbracelet/log"

// Interface abstracts logging operations for dependency injection.
type Interface interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	With(keysAndValues ...interface{}) Interface
}

// Wrapper adapts a charmbracelet logger to Interface. A nil inner logger
// resolves to the global logger on every call.
type Wrapper struct {
	inner *log.Logger
}

// NewDefaultWrapper returns a wrapper over the global logger.
func NewDefaultWrapper() Interface {
	return &Wrapper{}
}

// NewWrapper returns a wrapper over logger.
func NewWrapper(logger *log.Logger) Interface {
	return &Wrapper{inner: logger}
}

func (w *Wrapper) logger() *log.Logger {
	if w.inner != nil {
		return w.inner
	}
	return GetLogger()
}

func (w *Wrapper) Debug(msg string, keysAndValues ...interface{}) {
	w.logger().Debug(msg, keysAndValues...)
}

func (w *Wrapper) Info(msg string, keysAndValues ...interface{}) {
	w.logger().Info(msg, keysAndValues...)
}

func (w *Wrapper) Warn(msg string, keysAndValues ...interface{}) {
	w.logger().Warn(msg, keysAndValues...)
}

func (w *Wrapper) Error(msg string, keysAndValues ...interface{}) {
	w.logger().Error(msg, keysAndValues...)
}

func (w *Wrapper) With(keysAndValues ...interface{}) Interface {
	return &Wrapper{inner: w.logger().With(keysAndValues...)}
}
