package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/user"
)

func TestRollbarLogger(t *testing.T) {
	obsCore, logs := observer.New(zapcore.DebugLevel)
	logger := NewRollbarLogger(zap.New(obsCore), core.NewTestConfig())
	logger.Enable(false)

	usr := user.User{ID: "5d3c1c4e-8a0c-4f61-9d0a-2b7fd0c6f111", Username: "jdoe", Email: "jdoe@test.test"}
	logger.Error("unlocking lesson", errors.New("boom"), usr, map[string]interface{}{"lessonId": "l1"})
	logger.Info("started")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "unlocking lesson", entries[0].Message)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Equal(t, usr.ID, ctx["user_id"])
		assert.Equal(t, "l1", ctx["lessonId"])
		assert.Equal(t, "boom", ctx["error"])

		assert.Equal(t, "started", entries[1].Message)
		assert.Empty(t, entries[1].Context)
	}
}
