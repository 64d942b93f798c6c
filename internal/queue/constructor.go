package queue

import (
	"github.com/arjunmk/postpilot/internal/repository"
	"github.com/arjunmk/postpilot/internal/service"
)

type Queue struct {
	pr repository.PostRepository
	pb service.PublisherService
}

func NewQueue(pr repository.PostRepository, pb service.PublisherService) *Queue {
	return &Queue{
		pr: pr,
		pb: pb,
	}
}

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}
