// Package qdrant provides a ProfileIndex implementation using Qdrant.
package qdrant

import (
	"context"
	"fmt"
	"strings"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/memoirist/memoir-core/internal/infrastructure/config"
)

// Repository implements the ProfileIndex interface using Qdrant. Each point
// is one entity profile: a vector over the entity's names with the entity id
// as the point id.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		conn:       conn,
	}, nil
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// UpsertProfile stores or replaces the profile vector for an entity.
func (r *Repository) UpsertProfile(ctx context.Context, entityID string, embedding []float32, names []string) error {
	point := &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{
				Uuid: entityID,
			},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{
					Data: embedding,
				},
			},
		},
		Payload: map[string]*pb.Value{
			"names": {Kind: &pb.Value_StringValue{StringValue: strings.Join(names, ", ")}},
		},
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         []*pb.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}

	return nil
}

// SearchProfiles returns the ids of the entities whose profiles are closest
// to the query embedding.
func (r *Repository) SearchProfiles(ctx context.Context, embedding []float32, limit int) ([]string, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("searching profiles: %w", err)
	}

	ids := make([]string, 0, len(resp.Result))
	for _, point := range resp.Result {
		if id := point.Id.GetUuid(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// DeleteProfiles removes the profile vectors for the given entities.
func (r *Repository) DeleteProfiles(ctx context.Context, entityIDs []string) error {
	if len(entityIDs) == 0 {
		return nil
	}

	ids := make([]*pb.PointId, 0, len(entityIDs))
	for _, id := range entityIDs {
		ids = append(ids, &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{Uuid: id},
		})
	}

	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: ids,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting profiles: %w", err)
	}

	return nil
}
