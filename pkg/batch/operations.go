package batch

import (
	"github.com/dd0wney/cluso-graphclient/pkg/entity"
)

// Convenience constructors for the common graph mutations. Each appends a new
// job to the batch and returns it so the caller can resolve it from a later
// job in the same batch.

// CreateNode appends a job creating a node with the given properties.
func (b *Batch) CreateNode(properties map[string]any) *Job {
	return b.Append(NewJob(MethodPost, "node", properties))
}

// DeleteEntity appends a job deleting the referenced node or relationship.
func (b *Batch) DeleteEntity(ref entity.Ref) *Job {
	return b.Append(NewJob(MethodDelete, entity.ResolveTarget(ref), nil))
}

// SetProperty appends a job setting a single property on an entity.
func (b *Batch) SetProperty(ref entity.Ref, key string, value any) *Job {
	return b.Append(NewJob(MethodPut, entity.ResolveTarget(ref, "properties", key), value))
}

// SetProperties appends a job replacing all properties on an entity.
func (b *Batch) SetProperties(ref entity.Ref, properties map[string]any) *Job {
	return b.Append(NewJob(MethodPut, entity.ResolveTarget(ref, "properties"), properties))
}

// DeleteProperty appends a job removing a single property from an entity.
func (b *Batch) DeleteProperty(ref entity.Ref, key string) *Job {
	return b.Append(NewJob(MethodDelete, entity.ResolveTarget(ref, "properties", key), nil))
}

// DeleteProperties appends a job removing all properties from an entity.
func (b *Batch) DeleteProperties(ref entity.Ref) *Job {
	return b.Append(NewJob(MethodDelete, entity.ResolveTarget(ref, "properties"), nil))
}

// AddLabels appends a job adding labels to a node.
func (b *Batch) AddLabels(ref entity.Ref, labels ...string) *Job {
	return b.Append(NewJob(MethodPost, entity.ResolveTarget(ref, "labels"), labels))
}

// RemoveLabel appends a job removing one label from a node.
func (b *Batch) RemoveLabel(ref entity.Ref, label string) *Job {
	return b.Append(NewJob(MethodDelete, entity.ResolveTarget(ref, "labels", label), nil))
}

// CreateRelationship appends a job creating a relationship from start to end.
// Either endpoint may be a *Job from this batch; it is resolved to a forward
// pointer before the job is built.
func (b *Batch) CreateRelationship(start any, relType string, end any, properties map[string]any) (*Job, error) {
	startRef, err := b.Resolve(start)
	if err != nil {
		return nil, err
	}
	endRef, err := b.Resolve(end)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"to":   endRef.Target(),
		"type": relType,
	}
	if len(properties) > 0 {
		body["data"] = properties
	}
	return b.Append(NewJob(MethodPost, entity.ResolveTarget(startRef, "relationships"), body)), nil
}

// Cypher appends a job running a parameterized Cypher statement.
func (b *Batch) Cypher(statement string, parameters map[string]any) *Job {
	body := map[string]any{"query": statement}
	if len(parameters) > 0 {
		body["params"] = parameters
	}
	return b.Append(NewJob(MethodPost, "cypher", body))
}
