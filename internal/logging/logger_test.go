package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("learner_id", "l-1")

	l.Info("tier changed", "from", "easy", "to", "intermediate")
	l.Debug("detail")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "tier changed", entries[0].Message)
		assert.Equal(t, "l-1", ctx["learner_id"])
		assert.Equal(t, "intermediate", ctx["to"])
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Warn("ignored", "k", "v")
	l.Sync()
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", ""} {
		l, err := New(mode)
		assert.NoError(t, err, mode)
		assert.NotNil(t, l)
	}
}
