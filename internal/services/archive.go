package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

// RejectedContent is the snapshot kept for content an admin rejected.
type RejectedContent struct {
	RecordID     string             `json:"record_id"`
	ContentType  models.SubjectType `json:"content_type"`
	ContentID    string             `json:"content_id"`
	QuestionID   string             `json:"question_id"`
	AuthorID     string             `json:"author_id"`
	Title        string             `json:"title,omitempty"`
	Body         string             `json:"body"`
	FlaggedTerms []string           `json:"flagged_terms"`
	ReviewerID   string             `json:"reviewer_id"`
	Notes        string             `json:"notes,omitempty"`
	RejectedAt   time.Time          `json:"rejected_at"`
}

// Archiver stores snapshots of rejected content and returns the object name.
type Archiver interface {
	Archive(ctx context.Context, snap RejectedContent) (string, error)
}

// GCSArchiver writes snapshots as JSON objects into a Cloud Storage bucket.
type GCSArchiver struct {
	gcs    *storage.Client
	bucket string
}

// NewGCSArchiver creates a storage client once at startup. With empty
// credentialsJSON the client uses application default credentials.
func NewGCSArchiver(ctx context.Context, bucket, credentialsJSON string) (*GCSArchiver, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: storage client: %w", err)
	}
	return &GCSArchiver{gcs: client, bucket: bucket}, nil
}

func (a *GCSArchiver) Close() error {
	return a.gcs.Close()
}

func (a *GCSArchiver) Archive(ctx context.Context, snap RejectedContent) (string, error) {
	name := archiveObjectName(snap)

	w := a.gcs.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"
	w.Metadata = map[string]string{
		"moderation":   "rejected",
		"content_type": string(snap.ContentType),
		"author_id":    snap.AuthorID,
	}

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("archive: encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("archive: write %s: %w", name, err)
	}
	return name, nil
}

func archiveObjectName(snap RejectedContent) string {
	return fmt.Sprintf("moderation/%s/%s-%s.json", snap.ContentType, snap.ContentID, snap.RecordID)
}
