package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVencidoComparaSoloFecha(t *testing.T) {
	limite := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	c := &CAI{FechaLimite: limite}

	// Usable through the whole limit day, expired the morning after.
	assert.False(t, c.Vencido(time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)))
	assert.False(t, c.Vencido(time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)))
	assert.True(t, c.Vencido(time.Date(2026, 3, 16, 0, 0, 1, 0, time.UTC)))
}

func TestRestante(t *testing.T) {
	c := &CAI{RangoInicio: 1, RangoFin: 5000, CorrelativoActual: 0}
	assert.Equal(t, int64(5000), c.Restante())

	c.CorrelativoActual = 4990
	assert.Equal(t, int64(10), c.Restante())

	c.CorrelativoActual = 5000
	assert.Equal(t, int64(0), c.Restante())
}
