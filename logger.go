package measurement

// Logger is the logging contract used by this package. It is satisfied by
// *log.Logger and log.Log from github.com/apex/log.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

// DiscardLogger is the default logger; it drops every message.
var DiscardLogger Logger = logDiscarder{}

type logDiscarder struct{}

func (logDiscarder) Debugf(format string, v ...interface{}) {}

func (logDiscarder) Infof(format string, v ...interface{}) {}

func (logDiscarder) Warnf(format string, v ...interface{}) {}
