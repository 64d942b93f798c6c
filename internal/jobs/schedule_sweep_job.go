package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/arjunmk/postpilot/internal/queue"
	"github.com/arjunmk/postpilot/internal/repository"
	"github.com/hibiken/asynq"
)

// ScheduleSweepJob re-enqueues approved posts whose scheduled time has
// passed but that never made it onto the queue. Asynq delivery is the
// primary path; the sweep covers tasks lost to a Redis flush or restart.
type ScheduleSweepJob struct {
	pr          repository.PostRepository
	asynqClient *asynq.Client
}

func NewScheduleSweepJob(pr repository.PostRepository, asynqClient *asynq.Client) *ScheduleSweepJob {
	return &ScheduleSweepJob{
		pr:          pr,
		asynqClient: asynqClient,
	}
}

func (c *ScheduleSweepJob) Sweep() {
	ctx := context.Background()

	posts, err := c.pr.ListDueScheduled(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range posts {
		err := queue.EnqueuePublish(c.asynqClient, queue.PublishPostPayload{PostID: post.ID}, 0)
		if err != nil {
			slog.Info(err.Error())
		}
	}
}
