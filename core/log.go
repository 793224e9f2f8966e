package core

// Logger is any service that can log messages at the usual levels.
// Extra args may carry an error, a map of context values or the acting
// principal, depending on the implementation.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
