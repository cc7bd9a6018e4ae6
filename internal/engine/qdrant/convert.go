package qdrant

import (
	"strconv"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/vecscope/internal/domain/record"
)

// pointIDString renders a native id as a string whatever its underlying type.
func pointIDString(id *pb.PointId) string {
	if id == nil {
		return ""
	}
	if u, ok := id.GetPointIdOptions().(*pb.PointId_Uuid); ok {
		return u.Uuid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

// parsePointID maps a client-supplied id back to the native type: digits
// become numeric ids, anything else a UUID.
func parsePointID(id string) *pb.PointId {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: n}}
	}
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}}
}

func payloadToMap(payload map[string]*pb.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v *pb.Value) any {
	switch kind := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	case *pb.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	case *pb.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = valueToAny(item)
		}
		return out
	default:
		// NullValue and unset kinds
		return nil
	}
}

// vectorOf returns the dense vector of a point. For named vectors it picks
// the alphabetically first name, matching vectorParams.
func vectorOf(v *pb.VectorsOutput) []float32 {
	out := v.GetVector()
	if named := v.GetVectors().GetVectors(); len(named) > 0 {
		var first string
		for name := range named {
			if first == "" || name < first {
				first = name
			}
		}
		out = named[first]
	}
	data := out.GetDenseVector().GetData()
	if len(data) == 0 {
		return nil
	}
	return data
}

func retrievedToRecord(p *pb.RetrievedPoint, withVector bool) record.Record {
	r := record.New(pointIDString(p.GetId()), payloadToMap(p.GetPayload()), nil)
	if withVector {
		r.Vector = vectorOf(p.GetVectors())
	}
	return r
}

func scoredToRecord(p *pb.ScoredPoint, withVector bool) record.Record {
	r := record.New(pointIDString(p.GetId()), payloadToMap(p.GetPayload()), nil)
	if withVector {
		r.Vector = vectorOf(p.GetVectors())
	}
	return r
}

func payloadSelector(enable bool) *pb.WithPayloadSelector {
	return &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: enable}}
}

func vectorsSelector(enable bool) *pb.WithVectorsSelector {
	return &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: enable}}
}
