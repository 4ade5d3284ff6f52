package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/pkg/circuitbreaker"
)

// prescriptionRepository stores prescriptions as JSON documents in one Redis
// list per appointment.
type prescriptionRepository struct {
	client *redis.Client
	cb     *circuitbreaker.CircuitBreaker
	prefix string
	ttl    time.Duration
}

func NewPrescriptionRepository(client *redis.Client, cb *circuitbreaker.CircuitBreaker, prefix string, ttl time.Duration) repository.PrescriptionRepository {
	return &prescriptionRepository{
		client: client,
		cb:     cb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *prescriptionRepository) key(appointmentID int64) string {
	return fmt.Sprintf("%s:prescriptions:%d", r.prefix, appointmentID)
}

func (r *prescriptionRepository) Save(ctx context.Context, prescription *model.Prescription) error {
	if prescription.ID == "" {
		prescription.ID = uuid.NewString()
	}
	if prescription.CreatedAt.IsZero() {
		prescription.CreatedAt = time.Now()
	}

	doc, err := json.Marshal(prescription)
	if err != nil {
		return fmt.Errorf("failed to marshal prescription: %w", err)
	}

	key := r.key(prescription.AppointmentID)
	err = r.cb.Execute(func() error {
		pipe := r.client.TxPipeline()
		pipe.RPush(ctx, key, doc)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) ListByAppointment(ctx context.Context, appointmentID int64) ([]*model.Prescription, error) {
	var docs []string
	err := r.cb.Execute(func() error {
		var err error
		docs, err = r.client.LRange(ctx, r.key(appointmentID), 0, -1).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}

	prescriptions := make([]*model.Prescription, 0, len(docs))
	for _, doc := range docs {
		var p model.Prescription
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("failed to decode prescription: %w", err)
		}
		prescriptions = append(prescriptions, &p)
	}
	return prescriptions, nil
}

type healthChecker struct {
	client *redis.Client
}

// NewHealthChecker reports whether the Redis server answers PING.
func NewHealthChecker(client *redis.Client) repository.HealthChecker {
	return healthChecker{client: client}
}

func (h healthChecker) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}
