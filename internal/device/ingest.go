package device

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vitalmine-server/internal/models"
	"vitalmine-server/internal/service"
)

// UserFinder looks subjects up by username.
type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Recorder stores a submission.
type Recorder interface {
	Record(ctx context.Context, sub service.Submission) (*service.Outcome, error)
}

// Subscriber is the part of MQTTClient the ingestor needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler MessageHandler) error
}

// Ingestor records device payloads on behalf of the subject named in the
// topic.
type Ingestor struct {
	users    UserFinder
	recorder Recorder
	timeout  time.Duration
	log      *zap.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(users UserFinder, recorder Recorder, log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{users: users, recorder: recorder, timeout: 10 * time.Second, log: log}
}

// Start subscribes to IngestTopic.
func (i *Ingestor) Start(sub Subscriber) error {
	return sub.Subscribe(IngestTopic, 1, i.Handle)
}

// Handle processes one device message.
func (i *Ingestor) Handle(topic string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	username, err := UsernameFromTopic(topic)
	if err != nil {
		return err
	}
	var p Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode device payload: %w", err)
	}

	user, err := i.users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("device subject %s: %w", username, err)
	}
	if user.Role.OrDefault() != models.RoleSubject {
		return fmt.Errorf("device topic names %s, which is not a subject", username)
	}

	subjectID := user.ID
	out, err := i.recorder.Record(ctx, service.Submission{
		Vitals:      p.Vitals(),
		SubjectID:   &subjectID,
		DisplayName: user.Username,
		Actor:       user.Username,
	})
	if err != nil {
		return err
	}
	i.log.Debug("device reading ingested",
		zap.String("subject_id", subjectID),
		zap.String("reading_id", out.Reading.ID),
		zap.String("label", string(out.Reading.RiskLabel)),
	)
	return nil
}
