package common

// CollectionSchema describes a vector collection independent of the
// underlying client SDK's field type. Fields holds SDK-native field
// descriptors (e.g. *entity.Field for Milvus) as interface{} so this
// package never imports a vector-store SDK.
type CollectionSchema struct {
	Name               string
	Description        string
	Fields             []interface{}
	EnableDynamicField bool
}

// IndexConfig describes the index to build on a single vector field.
type IndexConfig struct {
	FieldName  string
	IndexType  string
	MetricType string
}

// VectorHit is a single scored result from a vector search.
type VectorHit struct {
	ID     int64
	Score  float32
	Fields map[string]interface{}
}

// InsertRequest carries rows to insert/upsert into a collection. Each row
// maps field name to value; vector fields carry []float32.
type InsertRequest struct {
	CollectionName string
	Data           []map[string]interface{}
}

// InsertResult reports the outcome of an Insert/Upsert call.
type InsertResult struct {
	IDs           []int64
	InsertedCount int64
}

// VectorSearchRequest parameterizes a single k-NN search.
type VectorSearchRequest struct {
	CollectionName      string
	VectorFieldName     string
	Vectors             [][]float32
	TopK                int
	Filters             string
	OutputFields        []string
	SearchParams        map[string]interface{}
	MetricType          string
	GuaranteeTimestamp  uint64
}

// VectorSearchResult holds per-query result lists (Results[i] answers
// Vectors[i] from the originating request) plus search latency.
type VectorSearchResult struct {
	Results [][]VectorHit
	TookMs  int64
}
