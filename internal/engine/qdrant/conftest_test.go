package qdrant

import (
	"context"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

// fakePoints implements pb.PointsClient. Unused methods panic via the
// embedded nil interface.
type fakePoints struct {
	pb.PointsClient

	queryFn  func(*pb.QueryPoints) (*pb.QueryResponse, error)
	searchFn func(*pb.SearchPoints) (*pb.SearchResponse, error)
	scrollFn func(*pb.ScrollPoints) (*pb.ScrollResponse, error)
	deleteFn func(*pb.DeletePoints) (*pb.PointsOperationResponse, error)

	deleteCalls int
	lastScroll  *pb.ScrollPoints
	lastQuery   *pb.QueryPoints
	lastSearch  *pb.SearchPoints
	lastDelete  *pb.DeletePoints
}

func (f *fakePoints) Query(_ context.Context, in *pb.QueryPoints, _ ...grpc.CallOption) (*pb.QueryResponse, error) {
	f.lastQuery = in
	if f.queryFn != nil {
		return f.queryFn(in)
	}
	return &pb.QueryResponse{}, nil
}

func (f *fakePoints) Search(_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	f.lastSearch = in
	if f.searchFn != nil {
		return f.searchFn(in)
	}
	return &pb.SearchResponse{}, nil
}

func (f *fakePoints) Scroll(_ context.Context, in *pb.ScrollPoints, _ ...grpc.CallOption) (*pb.ScrollResponse, error) {
	f.lastScroll = in
	if f.scrollFn != nil {
		return f.scrollFn(in)
	}
	return &pb.ScrollResponse{}, nil
}

func (f *fakePoints) Delete(_ context.Context, in *pb.DeletePoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.deleteCalls++
	f.lastDelete = in
	if f.deleteFn != nil {
		return f.deleteFn(in)
	}
	return &pb.PointsOperationResponse{}, nil
}

// fakeCollections implements pb.CollectionsClient.
type fakeCollections struct {
	pb.CollectionsClient

	listFn   func() (*pb.ListCollectionsResponse, error)
	getFn    func(name string) (*pb.GetCollectionInfoResponse, error)
	deleteFn func(name string) (*pb.CollectionOperationResponse, error)

	deleted []string
}

func (f *fakeCollections) List(_ context.Context, _ *pb.ListCollectionsRequest, _ ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	if f.listFn != nil {
		return f.listFn()
	}
	return &pb.ListCollectionsResponse{}, nil
}

func (f *fakeCollections) Get(_ context.Context, in *pb.GetCollectionInfoRequest, _ ...grpc.CallOption) (*pb.GetCollectionInfoResponse, error) {
	if f.getFn != nil {
		return f.getFn(in.GetCollectionName())
	}
	return &pb.GetCollectionInfoResponse{Result: &pb.CollectionInfo{}}, nil
}

func (f *fakeCollections) Delete(_ context.Context, in *pb.DeleteCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	f.deleted = append(f.deleted, in.GetCollectionName())
	if f.deleteFn != nil {
		return f.deleteFn(in.GetCollectionName())
	}
	return &pb.CollectionOperationResponse{Result: true}, nil
}

// --- builders ---

func numID(n uint64) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: n}}
}

func uuidID(s string) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: s}}
}

func strVal(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func vectors(data ...float32) *pb.VectorsOutput {
	return &pb.VectorsOutput{VectorsOptions: &pb.VectorsOutput_Vector{Vector: &pb.VectorOutput{Data: data}}}
}

func collectionInfo(points uint64, segments uint64, size uint64, distance pb.Distance) *pb.GetCollectionInfoResponse {
	return &pb.GetCollectionInfoResponse{Result: &pb.CollectionInfo{
		Status:        pb.CollectionStatus_Green,
		PointsCount:   &points,
		SegmentsCount: segments,
		Config: &pb.CollectionConfig{Params: &pb.CollectionParams{
			VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{Size: size, Distance: distance},
			}},
		}},
	}}
}

// threeDocs is the demo collection: ids 1..3, payload {"tag":"x"} on id 2.
func threeDocs() []*pb.RetrievedPoint {
	return []*pb.RetrievedPoint{
		{Id: numID(1), Payload: map[string]*pb.Value{"title": strVal("Alpha")}},
		{Id: numID(2), Payload: map[string]*pb.Value{"tag": strVal("x")}},
		{Id: numID(3), Payload: map[string]*pb.Value{"title": strVal("Gamma")}},
	}
}
