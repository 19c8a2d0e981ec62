package infra

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Vovarama1992/flipbook/internal/ports"
)

type ebookDoc struct {
	Title         string    `firestore:"title"`
	OwnerID       string    `firestore:"user_id"`
	Type          string    `firestore:"type"`
	SourceLocator string    `firestore:"file_path"`
	PageLocators  []string  `firestore:"pages"`
	Orientation   string    `firestore:"orientation"`
	IsPublic      bool      `firestore:"is_public"`
	CreatedAt     time.Time `firestore:"created_at"`
}

type firestoreEbookRepo struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return client, nil
}

func NewFirestoreEbookRepo(client *firestore.Client, collection string) ports.EbookRepo {
	return &firestoreEbookRepo{client: client, collection: collection}
}

func (r *firestoreEbookRepo) Insert(ctx context.Context, e *ports.Ebook) (*ports.Ebook, error) {
	out := *e
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	if out.PageLocators == nil {
		out.PageLocators = []string{}
	}

	doc := ebookDoc{
		Title:         out.Title,
		OwnerID:       out.OwnerID,
		Type:          out.Type,
		SourceLocator: out.SourceLocator,
		PageLocators:  out.PageLocators,
		Orientation:   out.Orientation,
		IsPublic:      out.IsPublic,
		CreatedAt:     out.CreatedAt,
	}

	// Create fails if the id already exists
	if _, err := r.client.Collection(r.collection).Doc(out.ID).Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create ebook document: %w", err)
	}
	return &out, nil
}

func (r *firestoreEbookRepo) GetByID(ctx context.Context, id string) (*ports.Ebook, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ports.ErrNotFound
	}

	snap, err := r.client.Collection(r.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ebook document: %w", err)
	}

	var doc ebookDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode ebook document: %w", err)
	}
	if !doc.IsPublic {
		return nil, ports.ErrNotFound
	}

	return &ports.Ebook{
		ID:            snap.Ref.ID,
		Title:         doc.Title,
		OwnerID:       doc.OwnerID,
		Type:          doc.Type,
		SourceLocator: doc.SourceLocator,
		PageLocators:  doc.PageLocators,
		Orientation:   doc.Orientation,
		IsPublic:      doc.IsPublic,
		CreatedAt:     doc.CreatedAt,
	}, nil
}

func (r *firestoreEbookRepo) Count(ctx context.Context) (int64, error) {
	it := r.client.Collection(r.collection).Select().Documents(ctx)
	defer it.Stop()

	var n int64
	for {
		_, err := it.Next()
		if err == iterator.Done {
			return n, nil
		}
		if err != nil {
			return 0, fmt.Errorf("count ebooks: %w", err)
		}
		n++
	}
}
