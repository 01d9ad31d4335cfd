package dbtrace

import "time"

const (
	// DefaultTarget is the component label attached to emitted log events.
	DefaultTarget = "sentinel-dbtrace"

	// DefaultSlowQueryThreshold is the duration above which a call is
	// flagged as slow.
	DefaultSlowQueryThreshold = 500 * time.Millisecond
)

type optional[T any] struct {
	value T
	set   bool
}

func some[T any](v T) optional[T] {
	return optional[T]{value: v, set: true}
}

func (o optional[T]) get() (T, bool) {
	return o.value, o.set
}

// TracingConfig controls what the instrumentation records. It is an
// immutable value: every With method returns a modified copy, so one
// config can be shared by any number of goroutines.
//
// Example:
//
//	cfg := dbtrace.DefaultConfig().
//	    WithStatementLogging(true).
//	    WithSlowQueryThreshold(100 * time.Millisecond).
//	    WithDatabaseName("orders")
type TracingConfig struct {
	logStatements      bool
	logParameters      bool
	slowQueryThreshold time.Duration
	recordRowCounts    bool
	target             string
	databaseName       optional[string]
	serverAddress      optional[string]
	serverPort         optional[int]
	peerService        optional[string]
}

// DefaultConfig returns the default configuration: no statement or
// parameter logging, a 500ms slow query threshold and row counts enabled.
func DefaultConfig() TracingConfig {
	return TracingConfig{
		slowQueryThreshold: DefaultSlowQueryThreshold,
		recordRowCounts:    true,
		target:             DefaultTarget,
	}
}

// DevelopmentConfig enables statement and parameter logging with a
// 100ms slow query threshold.
//
// Do not use in production: SQL text and parameters may contain
// credentials or personal data.
func DevelopmentConfig() TracingConfig {
	return DefaultConfig().
		WithStatementLogging(true).
		WithParameterLogging(true).
		WithSlowQueryThreshold(100 * time.Millisecond)
}

// ProductionConfig disables statement and parameter logging and relaxes
// the slow query threshold to one second.
func ProductionConfig() TracingConfig {
	return DefaultConfig().
		WithStatementLogging(false).
		WithParameterLogging(false).
		WithSlowQueryThreshold(time.Second)
}

// WithStatementLogging controls whether SQL text is recorded as db.statement.
//
// SQL text may embed sensitive literals; combine with WithQuerySanitizer
// when enabling this outside development.
func (c TracingConfig) WithStatementLogging(enabled bool) TracingConfig {
	c.logStatements = enabled
	return c
}

// WithParameterLogging controls whether bound parameter values are
// recorded. Parameters are only recorded when statement logging is also
// enabled.
func (c TracingConfig) WithParameterLogging(enabled bool) TracingConfig {
	c.logParameters = enabled
	return c
}

// WithSlowQueryThreshold sets the duration above which a call is flagged
// as slow and logged at warn level.
func (c TracingConfig) WithSlowQueryThreshold(d time.Duration) TracingConfig {
	c.slowQueryThreshold = d
	return c
}

// WithRowCountRecording controls whether db.rows_affected is recorded.
func (c TracingConfig) WithRowCountRecording(enabled bool) TracingConfig {
	c.recordRowCounts = enabled
	return c
}

// WithTarget sets the component label attached to log events.
func (c TracingConfig) WithTarget(target string) TracingConfig {
	c.target = target
	return c
}

// WithDatabaseName sets db.name, useful when an application talks to
// several databases.
func (c TracingConfig) WithDatabaseName(name string) TracingConfig {
	c.databaseName = some(name)
	return c
}

// WithServerAddress sets server.address for service maps.
func (c TracingConfig) WithServerAddress(addr string) TracingConfig {
	c.serverAddress = some(addr)
	return c
}

// WithServerPort sets server.port for service maps.
func (c TracingConfig) WithServerPort(port int) TracingConfig {
	c.serverPort = some(port)
	return c
}

// WithPeerService sets peer.service, the node name shown in trace maps.
func (c TracingConfig) WithPeerService(name string) TracingConfig {
	c.peerService = some(name)
	return c
}

// LogStatements reports whether db.statement is recorded on spans.
func (c TracingConfig) LogStatements() bool { return c.logStatements }

// LogParameters reports whether bind parameters are recorded on spans.
func (c TracingConfig) LogParameters() bool { return c.logParameters }

// SlowQueryThreshold is the duration above which a query is reported as slow.
func (c TracingConfig) SlowQueryThreshold() time.Duration { return c.slowQueryThreshold }

// RecordRowCounts reports whether affected and returned row counts are recorded.
func (c TracingConfig) RecordRowCounts() bool { return c.recordRowCounts }

// Target is the component label attached to log events.
func (c TracingConfig) Target() string { return c.target }

// DatabaseName returns db.name, if configured.
func (c TracingConfig) DatabaseName() (string, bool) { return c.databaseName.get() }

// ServerAddress returns server.address, if configured.
func (c TracingConfig) ServerAddress() (string, bool) { return c.serverAddress.get() }

// ServerPort returns server.port, if configured.
func (c TracingConfig) ServerPort() (int, bool) { return c.serverPort.get() }

// PeerService returns peer.service, if configured.
func (c TracingConfig) PeerService() (string, bool) { return c.peerService.get() }
