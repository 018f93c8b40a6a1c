package worker

// alerta_worker.go
// Processes low-range CAI alerts from QueueAlertas and notifies the
// administrator by email. Advisory only: emission keeps working until
// the range actually runs out or the CAI expires.

import (
	"context"
	"encoding/json"
	"fmt"

	"fiscalpos/internal/infra"

	"github.com/rs/zerolog/log"
)

type AlertaWorker struct {
	mailer *infra.Mailer
	// destino is the administrator address configured for fiscal alerts.
	destino string
}

func NewAlertaWorker(mailer *infra.Mailer, destino string) *AlertaWorker {
	return &AlertaWorker{mailer: mailer, destino: destino}
}

// Process sends the low-range notification for one alert job.
func (w *AlertaWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload AlertaCAIPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alerta_worker: invalid payload")
		return nil // malformed payloads are not retryable
	}
	if w.destino == "" {
		log.Warn().Msg("alerta_worker: ALERTA_EMAIL not configured — skipping")
		return nil
	}

	asunto := fmt.Sprintf("CAI %s: quedan %d números", payload.Codigo, payload.Restante)
	cuerpo := fmt.Sprintf(
		"El CAI %s tiene %d números restantes en su rango autorizado.\n"+
			"Fecha límite de emisión: %s.\n\n"+
			"Solicite y active un nuevo CAI antes de agotar el rango; al agotarse, "+
			"la emisión de facturas se detiene por completo.",
		payload.Codigo, payload.Restante, payload.FechaLimite)

	if err := w.mailer.SendAlerta(w.destino, asunto, cuerpo); err != nil {
		log.Error().Err(err).Str("cai_id", payload.CAIID).Msg("alerta_worker: failed to send email")
		return err
	}
	log.Info().Str("cai_id", payload.CAIID).Int64("restante", payload.Restante).Msg("alerta_worker: alert sent")
	return nil
}
