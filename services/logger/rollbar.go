package logsvc

import (
	"fmt"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/user"
)

type RollbarLogger struct {
	zl *zap.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(zl *zap.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{zl: zl.WithOptions(zap.AddCallerSkip(1))}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []zap.Field) {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	fields := make([]zap.Field, 0, len(args))

	for i, arg := range args {
		switch a := arg.(type) {
		case user.User:
			// set logged in User
			if !usrSet { // only set one User
				rollbar.SetPerson(a.ID, a.Username, a.Email)
				fields = append(fields, zap.String("user_id", a.ID))
				usrSet = true
			}
			continue
		case error:
			fields = append(fields, zap.Error(a))
		case map[string]interface{}:
			for k, v := range a {
				fields = append(fields, zap.Any(k, v))
			}
		default:
			fields = append(fields, zap.Any(fmt.Sprintf("arg%d", i), a))
		}
		newArgs = append(newArgs, arg)
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs, fields
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rArgs, fields := l.prepare(msg, args)
	rollbar.Debug(rArgs...)
	l.zl.Debug(msg, fields...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rArgs, fields := l.prepare(msg, args)
	rollbar.Info(rArgs...)
	l.zl.Info(msg, fields...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rArgs, fields := l.prepare(msg, args)
	rollbar.Warning(rArgs...)
	l.zl.Warn(msg, fields...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rArgs, fields := l.prepare(msg, args)
	rollbar.Error(rArgs...)
	l.zl.Error(msg, fields...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rArgs, fields := l.prepare(msg, args)
	rollbar.Critical(rArgs...)
	rollbar.Wait()
	l.zl.Fatal(msg, fields...)
}

// Sync flushes both the Rollbar queue and the zap buffers.
func (l RollbarLogger) Sync() {
	rollbar.Wait()
	_ = l.zl.Sync()
}
