package domain

// Mutation is one change to the persistent copy of the data set. A batch of
// mutations is applied atomically.
type Mutation struct {
	Key    string
	Value  []byte
	Delete bool
}

// PutMutation returns a mutation storing value under key.
func PutMutation(key string, value []byte) Mutation {
	return Mutation{Key: key, Value: value}
}

// DeleteMutation returns a mutation removing key.
func DeleteMutation(key string) Mutation {
	return Mutation{Key: key, Delete: true}
}
