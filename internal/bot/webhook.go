package bot

import (
	"context"
	"io"
	"net/http"
)

// maxUpdateSize ограничивает размер тела webhook-запроса.
const maxUpdateSize = 1 << 20

// WebhookHandler принимает обновления от Telegram. Обработка идёт в
// контексте ctx, а не запроса: ответ Telegram отправляется сразу.
func (b *Bot) WebhookHandler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateSize))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}

		if err := b.HandleWebhook(ctx, body); err != nil {
			b.logger.WarnContext(r.Context(), "bad webhook update", "error", err)
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}
