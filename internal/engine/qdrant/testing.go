package qdrant

import pb "github.com/qdrant/go-client/qdrant"

// NewForTest creates a Conn over the provided gRPC clients (test-only).
func NewForTest(points pb.PointsClient, collections pb.CollectionsClient, safetyCap int) *Conn {
	return newConn(points, collections, safetyCap)
}
