package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/arjunmk/postpilot/internal/models"
	"github.com/hibiken/asynq"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	post, err := q.pr.GetByID(ctx, payload.PostID)
	if err != nil {
		return err
	}
	if post == nil {
		log.Printf("Scheduled post %d no longer exists, skipping", payload.PostID)
		return nil
	}

	// The sweep job and the delayed task can both deliver the same post,
	// and an early manual publish may have settled it already.
	if post.Status != models.PostStatusApproved {
		return nil
	}

	published, err := q.pb.PublishNow(ctx, payload.PostID)
	if err != nil {
		log.Printf("Error publishing scheduled post %d: %v", payload.PostID, err)
		return err
	}

	log.Printf("Scheduled post %d finished with status %s", published.ID, published.Status)
	return nil
}
