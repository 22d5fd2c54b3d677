package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Measure object types accepted by the execution API.
const (
	ItemTypeFact      = "fact"
	ItemTypeMetric    = "metric"
	ItemTypeAttribute = "attribute"
)

// VisualizationSpec is what stage two needs from an AI reply.
type VisualizationSpec struct {
	Title       string `json:"title,omitempty"`
	MetricID    string `json:"metric_id"`
	MetricType  string `json:"metric_type"`
	Aggregation string `json:"aggregation,omitempty"`
	DimensionID string `json:"dimension_id"`
}

// ExtractVisualization reads the first created visualization's first metric
// and first dimensionality entry. A missing key yields a missing-field
// error naming its path.
func ExtractVisualization(body json.RawMessage) (VisualizationSpec, error) {
	var root map[string]any
	if err := json.Unmarshal(body, &root); err != nil {
		return VisualizationSpec{}, fmt.Errorf("dashboard: decode ai response: %w", err)
	}
	created, err := objectAt(root, "createdVisualizations", "createdVisualizations")
	if err != nil {
		return VisualizationSpec{}, err
	}
	viz, err := firstObject(created, "objects", "createdVisualizations.objects")
	if err != nil {
		return VisualizationSpec{}, err
	}
	metric, err := firstObject(viz, "metrics", "createdVisualizations.objects[0].metrics")
	if err != nil {
		return VisualizationSpec{}, err
	}
	metricID, err := stringAt(metric, "id", "createdVisualizations.objects[0].metrics[0].id")
	if err != nil {
		return VisualizationSpec{}, err
	}
	aggregation, err := stringAt(metric, "aggFunction", "createdVisualizations.objects[0].metrics[0].aggFunction")
	if err != nil {
		return VisualizationSpec{}, err
	}
	dimension, err := firstObject(viz, "dimensionality", "createdVisualizations.objects[0].dimensionality")
	if err != nil {
		return VisualizationSpec{}, err
	}
	dimensionID, err := stringAt(dimension, "id", "createdVisualizations.objects[0].dimensionality[0].id")
	if err != nil {
		return VisualizationSpec{}, err
	}
	metricType, _ := metric["type"].(string)
	title, _ := viz["title"].(string)
	return VisualizationSpec{
		Title:       title,
		MetricID:    metricID,
		MetricType:  strings.ToLower(metricType),
		Aggregation: aggregation,
		DimensionID: dimensionID,
	}, nil
}

// BuildExecutionDefinition builds a one-attribute, one-measure query whose
// result is laid out as the dimension against the measure group. Metrics
// carry their own aggregation, so none is sent for them; an untyped item is
// treated as a fact.
func BuildExecutionDefinition(workspaceID string, spec VisualizationSpec) ExecutionDefinition {
	itemType := spec.MetricType
	if itemType == "" {
		itemType = ItemTypeFact
	}
	aggregation := spec.Aggregation
	if itemType == ItemTypeMetric {
		aggregation = ""
	}
	return ExecutionDefinition{
		WorkspaceID: workspaceID,
		Attributes: []AttributeItem{{
			LocalID: spec.DimensionID,
			Label:   spec.DimensionID,
		}},
		Measures: []MeasureItem{{
			LocalID:     spec.MetricID,
			ItemID:      spec.MetricID,
			ItemType:    itemType,
			Aggregation: aggregation,
		}},
		Dimensions: [][]string{
			{spec.DimensionID},
			{MeasureGroup},
		},
	}
}

func objectAt(m map[string]any, key, path string) (map[string]any, error) {
	obj, ok := m[key].(map[string]any)
	if !ok {
		return nil, NewMissingFieldError(path)
	}
	return obj, nil
}

func firstObject(m map[string]any, key, path string) (map[string]any, error) {
	list, ok := m[key].([]any)
	if !ok || len(list) == 0 {
		return nil, NewMissingFieldError(path)
	}
	obj, ok := list[0].(map[string]any)
	if !ok {
		return nil, NewMissingFieldError(path + "[0]")
	}
	return obj, nil
}

func stringAt(m map[string]any, key, path string) (string, error) {
	value, ok := m[key].(string)
	if !ok || value == "" {
		return "", NewMissingFieldError(path)
	}
	return value, nil
}
