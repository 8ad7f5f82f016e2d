package logging

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// leveledLogger fans each entry out to its appenders. Subloggers share the parent's appenders but
// own their level.
type leveledLogger struct {
	name      string
	level     AtomicLevel
	inUTC     bool
	appenders []Appender
}

func newLeveledLogger(name string, level Level, inUTC bool, appenders ...Appender) *leveledLogger {
	return &leveledLogger{
		name:      name,
		level:     NewAtomicLevelAt(level),
		inUTC:     inUTC,
		appenders: appenders,
	}
}

func (l *leveledLogger) AddAppender(appender Appender) {
	l.appenders = append(l.appenders, appender)
}

func (l *leveledLogger) SetLevel(level Level) {
	l.level.Set(level)
}

func (l *leveledLogger) GetLevel() Level {
	return l.level.Get()
}

func (l *leveledLogger) Sublogger(subname string) Logger {
	name := subname
	if l.name != "" {
		name = l.name + "." + subname
	}
	return newLeveledLogger(name, l.level.Get(), l.inUTC, l.appenders...)
}

func (l *leveledLogger) Sync() error {
	var errs error
	for _, appender := range l.appenders {
		errs = multierr.Append(errs, appender.Sync())
	}
	return errs
}

// AsZap builds a zap logger that observes GlobalLogLevel and also writes to every appender that is
// itself a zapcore.Core, such as a test observer.
func (l *leveledLogger) AsZap() *zap.SugaredLogger {
	config := NewZapLoggerConfig()
	config.Level = GlobalLogLevel
	ret := zap.Must(config.Build()).Sugar().Named(l.name)
	for _, appender := range l.appenders {
		core, ok := appender.(zapcore.Core)
		if !ok {
			continue
		}
		ret = ret.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, core)
		}))
	}
	return ret
}

func (l *leveledLogger) enabled(level Level) bool {
	return GlobalLogLevel.Level() == zapcore.DebugLevel || level >= l.level.Get()
}

// emit must be called directly by the exported logging method so the caller lookup lands on the
// user's frame.
func (l *leveledLogger) emit(level Level, msg string, fields []zapcore.Field) {
	const callerSkip = 2
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: l.name,
		Message:    msg,
		Caller:     zapcore.NewEntryCaller(runtime.Caller(callerSkip)),
	}
	if l.inUTC {
		entry.Time = entry.Time.UTC()
	}
	for _, appender := range l.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

var errUnpairedKey = errors.New("unpaired log key")

// fieldsOf pairs up alternating keys and values. Values are serialized by zap, so only exported
// struct fields appear in the output.
func fieldsOf(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errUnpairedKey))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func (l *leveledLogger) Debug(args ...interface{}) {
	if l.enabled(DEBUG) {
		l.emit(DEBUG, fmt.Sprint(args...), nil)
	}
}

func (l *leveledLogger) Debugf(template string, args ...interface{}) {
	if l.enabled(DEBUG) {
		l.emit(DEBUG, fmt.Sprintf(template, args...), nil)
	}
}

func (l *leveledLogger) Debugw(msg string, keysAndValues ...interface{}) {
	if l.enabled(DEBUG) {
		l.emit(DEBUG, msg, fieldsOf(keysAndValues))
	}
}

func (l *leveledLogger) Info(args ...interface{}) {
	if l.enabled(INFO) {
		l.emit(INFO, fmt.Sprint(args...), nil)
	}
}

func (l *leveledLogger) Infof(template string, args ...interface{}) {
	if l.enabled(INFO) {
		l.emit(INFO, fmt.Sprintf(template, args...), nil)
	}
}

func (l *leveledLogger) Infow(msg string, keysAndValues ...interface{}) {
	if l.enabled(INFO) {
		l.emit(INFO, msg, fieldsOf(keysAndValues))
	}
}

func (l *leveledLogger) Warn(args ...interface{}) {
	if l.enabled(WARN) {
		l.emit(WARN, fmt.Sprint(args...), nil)
	}
}

func (l *leveledLogger) Warnf(template string, args ...interface{}) {
	if l.enabled(WARN) {
		l.emit(WARN, fmt.Sprintf(template, args...), nil)
	}
}

func (l *leveledLogger) Warnw(msg string, keysAndValues ...interface{}) {
	if l.enabled(WARN) {
		l.emit(WARN, msg, fieldsOf(keysAndValues))
	}
}

func (l *leveledLogger) Error(args ...interface{}) {
	if l.enabled(ERROR) {
		l.emit(ERROR, fmt.Sprint(args...), nil)
	}
}

func (l *leveledLogger) Errorf(template string, args ...interface{}) {
	if l.enabled(ERROR) {
		l.emit(ERROR, fmt.Sprintf(template, args...), nil)
	}
}

func (l *leveledLogger) Errorw(msg string, keysAndValues ...interface{}) {
	if l.enabled(ERROR) {
		l.emit(ERROR, msg, fieldsOf(keysAndValues))
	}
}

// Fatal logs at error level regardless of the configured level, flushes and exits the process.
func (l *leveledLogger) Fatal(args ...interface{}) {
	l.emit(ERROR, fmt.Sprint(args...), nil)
	//nolint:errcheck
	l.Sync()
	os.Exit(1)
}
