package qdrant

import (
	"context"
	"strings"

	pb "github.com/qdrant/go-client/qdrant"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vecscope/internal/domain/record"
)

// infoConcurrency bounds parallel collection info calls.
const infoConcurrency = 8

// ListCollections describes every collection with its native metadata,
// in the order the server lists them.
func (c *Conn) ListCollections(ctx context.Context) ([]record.CollectionSummary, error) {
	resp, err := c.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return nil, wrapErr("list collections", err)
	}

	descs := resp.GetCollections()
	out := make([]record.CollectionSummary, len(descs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(infoConcurrency)
	for i, desc := range descs {
		g.Go(func() error {
			info, err := c.collectionInfo(gctx, desc.GetName())
			if err != nil {
				return err
			}
			out[i] = summarize(desc.GetName(), info)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCollection drops the collection.
func (c *Conn) DeleteCollection(ctx context.Context, collection string) error {
	_, err := c.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: collection})
	if err != nil {
		return wrapErr("delete collection", err)
	}
	return nil
}

func (c *Conn) collectionInfo(ctx context.Context, name string) (*pb.CollectionInfo, error) {
	resp, err := c.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: name})
	if err != nil {
		return nil, wrapErr("get collection", err)
	}
	return resp.GetResult(), nil
}

func summarize(name string, info *pb.CollectionInfo) record.CollectionSummary {
	params := vectorParams(info.GetConfig().GetParams().GetVectorsConfig())
	return record.CollectionSummary{
		Name:          name,
		VectorSize:    int(params.GetSize()),
		Distance:      params.GetDistance().String(),
		PointsCount:   int(info.GetPointsCount()),
		SegmentsCount: int(info.GetSegmentsCount()),
		Status:        strings.ToLower(info.GetStatus().String()),
	}
}

// vectorParams returns the single unnamed vector config, or the
// alphabetically first named one for multi-vector collections.
func vectorParams(cfg *pb.VectorsConfig) *pb.VectorParams {
	if p := cfg.GetParams(); p != nil {
		return p
	}
	named := cfg.GetParamsMap().GetMap()
	var first string
	for name := range named {
		if first == "" || name < first {
			first = name
		}
	}
	return named[first]
}
