package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seppevistik/stockmanager/pkg/logger"
)

func TestComponent_AgregaCamposFijos(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.Config{Level: "debug", Service: "stockmanager"})

	log.Component("ledger").Info().Str("tenant_id", "t-1").Msg("movimiento registrado")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "stockmanager", line["service"])
	assert.Equal(t, "ledger", line["component"])
	assert.Equal(t, "t-1", line["tenant_id"])
	assert.Equal(t, "info", line["level"])
}

func TestNivel_FiltraYDefault(t *testing.T) {
	cases := []struct {
		level   string
		debugOK bool
		infoOK  bool
	}{
		{"debug", true, true},
		{"WARN", false, false},
		{"", false, true},
		{"desconocido", false, true},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewWithWriter(&buf, logger.Config{Level: tc.level})

			log.Debug().Msg("d")
			assert.Equal(t, tc.debugOK, buf.Len() > 0)

			buf.Reset()
			log.Info().Msg("i")
			assert.Equal(t, tc.infoOK, buf.Len() > 0)
		})
	}
}

func TestNop_NoEscribe(t *testing.T) {
	assert.NotPanics(t, func() { logger.Nop().Component("x").Error().Msg("nada") })
}
