package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Lea43010/baustructura-chat/internal/queue"
	"github.com/Lea43010/baustructura-chat/internal/utils/types"
	worker_service "github.com/Lea43010/baustructura-chat/internal/worker/worker-service"
)

func HandleJob(ctx context.Context, job queue.Job) error {
	switch job.Type {
	case queue.JobTypeSupportEmail:
		return handleSupportEmail(job.Payload)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func handleSupportEmail(raw json.RawMessage) error {
	var payload types.SupportEmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid support email payload: %w", err)
	}

	return worker_service.SendSupportNotification(payload)
}
