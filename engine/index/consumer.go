package index

import (
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/autorag/engine/domain"
	"github.com/WessleyAI/autorag/pkg/natsutil"
)

const (
	// RecordsSubject carries catalog records to index.
	RecordsSubject = "catalog.records"
	// DLQSubject receives records that kept failing.
	DLQSubject = "catalog.records.dlq"
	// MaxRetries is the number of delivery attempts before a record is
	// parked on the DLQ.
	MaxRetries = 3

	retryHeader = "X-Retry-Count"
)

// dlqMessage is what lands on the DLQ after MaxRetries failed attempts.
type dlqMessage struct {
	Record  domain.Record `json:"record"`
	Error   string        `json:"error"`
	Retries int           `json:"retries"`
}

// StartConsumer subscribes the indexer to RecordsSubject. Malformed and
// invalid records are dropped with an error log; failed records are
// re-published with an incremented retry header until MaxRetries, then
// parked on DLQSubject.
func StartConsumer(nc *nats.Conn, ix *Indexer, log *slog.Logger) (*nats.Subscription, error) {
	if log == nil {
		log = slog.Default()
	}
	return nc.Subscribe(RecordsSubject, recordHandler(nc, ix, log))
}

func recordHandler(pub natsutil.Publisher, ix *Indexer, log *slog.Logger) nats.MsgHandler {
	return func(msg *nats.Msg) {
		var rec domain.Record
		if err := json.Unmarshal(msg.Data, &rec); err != nil {
			log.Error("consumer: drop malformed message", "subject", msg.Subject, "error", err)
			return
		}
		if err := domain.ValidateRecord(rec); err != nil {
			log.Error("consumer: drop invalid record", "id", rec.ID, "error", err)
			return
		}

		ctx := natsutil.ExtractContext(msg)

		stats, err := ix.Reconcile(ctx, []domain.Record{rec})
		if err != nil {
			retries := retryCount(msg) + 1
			log.Error("consumer: index record failed", "id", rec.ID, "retry", retries, "error", err)

			if retries >= MaxRetries {
				dlq := dlqMessage{Record: rec, Error: err.Error(), Retries: retries}
				if err := natsutil.Publish(ctx, pub, DLQSubject, dlq); err != nil {
					log.Error("consumer: dlq publish failed", "id", rec.ID, "error", err)
				}
			} else {
				retry := nats.NewMsg(msg.Subject)
				retry.Data = msg.Data
				retry.Header.Set(retryHeader, strconv.Itoa(retries))
				if err := pub.PublishMsg(retry); err != nil {
					log.Error("consumer: retry publish failed", "id", rec.ID, "error", err)
				}
			}
		} else if stats.Indexed == 0 {
			log.Info("consumer: record already indexed", "id", rec.ID)
		}

		// Ack if JetStream.
		if msg.Reply != "" {
			_ = msg.Ack()
		}
	}
}

func retryCount(msg *nats.Msg) int {
	if msg.Header == nil {
		return 0
	}
	n, _ := strconv.Atoi(msg.Header.Get(retryHeader))
	return n
}
